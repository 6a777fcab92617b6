package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// ConfigCache stores published interactive configs keyed by type and slug so
// the public endpoints do not hit Postgres on every read.
type ConfigCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewConfigCache(client *redis.Client, ttl time.Duration) *ConfigCache {
	return &ConfigCache{client: client, ttl: ttl}
}

func cacheKey(defType, slug string) string {
	return fmt.Sprintf("interactive:published:%s:%s", defType, slug)
}

func (c *ConfigCache) Get(ctx context.Context, defType, slug string) ([]byte, error) {
	data, err := c.client.Get(ctx, cacheKey(defType, slug)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get cached config: %w", err)
	}
	return data, nil
}

func (c *ConfigCache) Set(ctx context.Context, defType, slug string, config []byte) error {
	if err := c.client.Set(ctx, cacheKey(defType, slug), config, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	return nil
}

// Invalidate drops the cached config after a publish or archive.
func (c *ConfigCache) Invalidate(ctx context.Context, defType, slug string) error {
	if err := c.client.Del(ctx, cacheKey(defType, slug)).Err(); err != nil {
		return fmt.Errorf("invalidate cached config: %w", err)
	}
	return nil
}
