package types

import "time"

const (
	SPACE_NAME_MAX_LENGTH        = 100
	SPACE_DESCRIPTION_MAX_LENGTH = 300
	SPACE_PROMPT_MAX_LENGTH      = 1000
)

type Space struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Prompt      string    `json:"prompt" db:"prompt"` // custom instructions, applied server side
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type UpdateSpaceArgs struct {
	Name        string
	Description string
	Prompt      string
}
