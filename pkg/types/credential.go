package types

// UniversityCredentials are forwarded untouched to the chat backend, which uses them
// to query the university portal on the user's behalf.
type UniversityCredentials struct {
	UniversityUsername string  `json:"university_username" db:"university_username"`
	UniversityPassword string  `json:"university_password" db:"university_password"`
	AccessToken        *string `json:"access_token" db:"access_token"`
	RefreshToken       *string `json:"refresh_token" db:"refresh_token"`
	TokenExpiry        *string `json:"token_expiry" db:"token_expiry"`
}
