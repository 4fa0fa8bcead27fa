package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forptiter/study-assistant/pkg/types"
	"github.com/forptiter/study-assistant/pkg/utils"
)

func tokenCacheKey(token string) string {
	return fmt.Sprintf("user:token:%s", utils.MD5(token))
}

// UserFromCache returns the user previously cached for token, or nil on a miss.
func UserFromCache(ctx context.Context, token string, cache types.Cache) (*types.User, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := cache.Get(ctx, tokenCacheKey(token))
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var user types.User
	if err = json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CacheUser keeps the user for the remaining lifetime of its access token.
func CacheUser(ctx context.Context, user types.User, cache types.Cache) error {
	ttl := time.Until(user.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return cache.SetEx(ctx, tokenCacheKey(user.AccessToken), string(raw), ttl)
}
