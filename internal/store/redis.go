package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

const (
	availableBooksKey = "books:available"
	catalogCacheTTL   = 30 * time.Second
)

// CatalogCache caches the rendered available-books response in Redis.
// Every catalog mutation invalidates it; expiry is a backstop.
type CatalogCache struct {
	rdb *redis.Client
}

func NewCatalogCache(rdb *redis.Client) *CatalogCache {
	return &CatalogCache{rdb: rdb}
}

// Get returns the cached payload, or (nil, nil) on a miss.
func (c *CatalogCache) Get(ctx context.Context) ([]byte, error) {
	data, err := c.rdb.Get(ctx, availableBooksKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set stores the payload with the cache TTL.
func (c *CatalogCache) Set(ctx context.Context, payload []byte) error {
	return c.rdb.Set(ctx, availableBooksKey, payload, catalogCacheTTL).Err()
}

// Invalidate drops the cached payload.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, availableBooksKey).Err()
}
