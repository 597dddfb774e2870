// cache/cache.go
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logger "github.com/smplabs/warden/logging"
)

// Service is the TTL key-value store consumed by the orchestrator. Get on
// an expired or absent key returns ("", nil), never an error. Every
// consumer must check Enabled before relying on cached results.
type Service interface {
	Enabled() bool
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// RedisCache backs Service with the shared go-redis client. If the
// connection could not be established at startup the service is
// constructed disabled and every operation is a no-op for the process
// lifetime: caching fails open, it is never retried per call.
type RedisCache struct {
	client  *redis.Client
	enabled bool
}

var _ Service = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client) *RedisCache {
	if client == nil {
		logger.Warn("Cache disabled: no Redis connection available")
		return &RedisCache{}
	}
	return &RedisCache{client: client, enabled: true}
}

// Disabled returns a cache that never stores anything.
func Disabled() *RedisCache {
	return &RedisCache{}
}

func (c *RedisCache) Enabled() bool {
	return c.enabled
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	if !c.enabled {
		return "", nil
	}
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("failed to get cache key %s: %w", key, err)
	}
	return value, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled || len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	logger.Debug("Cache keys deleted", zap.Int("count", len(keys)))
	return nil
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	if !c.enabled {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cache key %s: %w", key, err)
	}
	return n == 1, nil
}

func (c *RedisCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	if !c.enabled {
		return nil, nil
	}
	keys, err := c.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cache keys for pattern %s: %w", pattern, err)
	}
	return keys, nil
}
