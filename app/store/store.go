package store

import (
	"context"

	"github.com/forptiter/study-assistant/pkg/sqlstore"
	"github.com/forptiter/study-assistant/pkg/types"
)

// ChatSessionStore covers the chat_sessions table.
type ChatSessionStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.ChatSession) error
	GetChatSession(ctx context.Context, userID, id string) (*types.ChatSession, error)
	// List returns sessions newest first.
	List(ctx context.Context, opts types.ListChatSessionOptions) ([]types.ChatSession, error)
	Total(ctx context.Context, userID string) (int64, error)
	// GetOldest returns the session with the minimum creation time, sql.ErrNoRows when the user has none.
	GetOldest(ctx context.Context, userID string) (*types.ChatSession, error)
	// LockUserSessions serializes session creation for a user within the current transaction.
	LockUserSessions(ctx context.Context, userID string) error
	UpdateAgent(ctx context.Context, id, agentID string) error
	// MarkNamed sets the name only if the session was never named before and
	// reports whether this call did it.
	MarkNamed(ctx context.Context, id, name string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// ChatMessageStore covers the messages table. Rows are written by the chat backend,
// the client only reads and deletes them.
type ChatMessageStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Message) error
	// ListSessionMessages returns messages in creation order.
	ListSessionMessages(ctx context.Context, chatID string) ([]types.Message, error)
	DeleteSessionMessages(ctx context.Context, chatID string) error
}

type SpaceStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Space) error
	GetSpace(ctx context.Context, userID, id string) (*types.Space, error)
	Update(ctx context.Context, userID, id string, args types.UpdateSpaceArgs) error
	// List returns spaces newest first.
	List(ctx context.Context, userID string) ([]types.Space, error)
}

type UserFileStore interface {
	sqlstore.SqlCommons
	// ListSpaceFiles returns files newest first.
	ListSpaceFiles(ctx context.Context, spaceID string) ([]types.UserFile, error)
}

type CredentialStore interface {
	sqlstore.SqlCommons
	// GetUniversityCredentials returns sql.ErrNoRows when the user never saved any.
	GetUniversityCredentials(ctx context.Context, userID string) (*types.UniversityCredentials, error)
	Upsert(ctx context.Context, userID string, data types.UniversityCredentials) error
}

// Provider groups the stores with a transaction scope shared through the context.
type Provider interface {
	Transaction(ctx context.Context, next func(ctx context.Context) error) error
	ChatSessionStore() ChatSessionStore
	ChatMessageStore() ChatMessageStore
	SpaceStore() SpaceStore
	UserFileStore() UserFileStore
	CredentialStore() CredentialStore
}
