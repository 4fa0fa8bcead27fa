package types

import (
	"time"

	sq "github.com/Masterminds/squirrel"
)

const DEFAULT_CHAT_SESSION_NAME = "New Chat"

type ChatSession struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	SpaceID      string    `json:"space_id" db:"space_id"` // empty for thread sessions
	Name         string    `json:"name" db:"name"`
	AgentID      string    `json:"agent_id" db:"agent_id"`
	HasBeenNamed bool      `json:"has_been_named" db:"has_been_named"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (s ChatSession) DisplayName() string {
	if s.Name == "" {
		return DEFAULT_CHAT_SESSION_NAME
	}
	return s.Name
}

func (s ChatSession) InSpace() bool {
	return s.SpaceID != ""
}

type ListChatSessionOptions struct {
	UserID  string
	SpaceID string
	// OnlyThread limits the result to sessions without a space.
	OnlyThread bool
}

func (opts ListChatSessionOptions) Apply(query *sq.SelectBuilder) {
	if opts.UserID != "" {
		*query = query.Where(sq.Eq{"user_id": opts.UserID})
	}
	if opts.SpaceID != "" {
		*query = query.Where(sq.Eq{"space_id": opts.SpaceID})
	} else if opts.OnlyThread {
		*query = query.Where(sq.Eq{"space_id": nil})
	}
}
