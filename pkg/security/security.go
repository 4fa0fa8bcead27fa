package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const (
	TOKEN_KEY = "Authorization"
)

var (
	ErrInvalidJWT = errors.New("invalid token")
)

// TokenClaims are the fields the client reads from an auth access token.
type TokenClaims struct {
	Subject    string `json:"sub"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	ExpireTime int64  `json:"exp"`
}

func (t TokenClaims) Valid() error {
	if t.ExpireTime != 0 && t.ExpireTime < time.Now().Unix() {
		return fmt.Errorf("expired token, %w", ErrInvalidJWT)
	}
	if t.Subject == "" {
		return fmt.Errorf("missing subject, %w", ErrInvalidJWT)
	}
	return nil
}

func (t TokenClaims) GetUser() string {
	return t.Subject
}

func (t TokenClaims) ExpiresAt() time.Time {
	if t.ExpireTime == 0 {
		return time.Time{}
	}
	return time.Unix(t.ExpireTime, 0)
}

// ParseToken verifies an HS256 token with secret. With an empty secret the claims are
// decoded without verification; the token then only identifies, it does not authorize.
func ParseToken(tokenString string, secret []byte) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if len(secret) == 0 {
		if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
			return nil, fmt.Errorf("%s, %w", err.Error(), ErrInvalidJWT)
		}
		if err := claims.Valid(); err != nil {
			return nil, err
		}
		return claims, nil
	}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s, %w", err.Error(), ErrInvalidJWT)
	}
	return claims, nil
}

// GenerateToken signs claims with HS256, used by tests and local tooling.
func GenerateToken(claims TokenClaims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
