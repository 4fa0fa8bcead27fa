package core

import (
	"context"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/redis/go-redis/v9"

	"github.com/forptiter/study-assistant/pkg/types"
)

type redisCache struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisCache(cli redis.UniversalClient, prefix string) types.Cache {
	return &redisCache{redis: cli, prefix: prefix}
}

func (c *redisCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return c.redis.Expire(ctx, c.prefix+key, expiration).Err()
}

func (c *redisCache) SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error {
	return c.redis.SetEx(ctx, c.prefix+key, value, expiresAt).Err()
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	return c.redis.Get(ctx, c.prefix+key).Result()
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// memoryCache is the in-process fallback when no redis is configured. A miss
// reports redis.Nil so callers handle both backends the same way.
type memoryCache struct {
	items cmap.ConcurrentMap[string, memoryEntry]
	now   func() time.Time
}

func NewMemoryCache() types.Cache {
	return &memoryCache{
		items: cmap.New[memoryEntry](),
		now:   time.Now,
	}
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	e, ok := c.items.Get(key)
	if !ok {
		return "", redis.Nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.items.RemoveCb(key, func(key string, v memoryEntry, exists bool) bool {
			return exists && v.expiresAt.Equal(e.expiresAt)
		})
		return "", redis.Nil
	}
	return e.value, nil
}

func (c *memoryCache) SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error {
	c.items.Set(key, memoryEntry{value: value, expiresAt: c.now().Add(expiresAt)})
	return nil
}

func (c *memoryCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	c.items.Upsert(key, memoryEntry{}, func(exist bool, old, _ memoryEntry) memoryEntry {
		if !exist {
			return memoryEntry{expiresAt: c.now()}
		}
		old.expiresAt = c.now().Add(expiration)
		return old
	})
	return nil
}
