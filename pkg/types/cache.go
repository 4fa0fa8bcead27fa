package types

import (
	"context"
	"time"
)

// Cache is the small key/value surface the client needs; backed by redis when
// configured and by an in-process map otherwise.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error
	Expire(ctx context.Context, key string, expiration time.Duration) error
}
