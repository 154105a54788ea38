// Package cache keeps short-lived copies of the records the dashboard reads
// from the remote API, per user. Aggregates are never cached.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/jobtrail/internal/logger"
)

// DefaultTTL bounds how stale a dashboard can be after a change made
// outside jobtrail.
const DefaultTTL = 30 * time.Second

// Cache is a Redis JSON cache. A nil *Cache is a valid, disabled cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// New creates a cache over client. A nil client disables caching.
func New(client *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl, logger: log}
}

// Enabled reports whether c talks to Redis.
func (c *Cache) Enabled() bool { return c != nil }

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("cache disabled")
	}
	return c.client.Ping(ctx).Err()
}

// getJSON decodes key into dst. A corrupt entry is deleted and reported as
// a miss.
func (c *Cache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cached records: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *Cache) setJSON(ctx context.Context, key string, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache records: %w", err)
	}
	return nil
}

// Invalidate removes every cached record list of the user owning token,
// whatever token they were fetched with.
func (c *Cache) Invalidate(ctx context.Context, token string) error {
	subject := Subject(token)
	if c == nil || subject == "" {
		return nil
	}
	iter := c.client.Scan(ctx, 0, SubjectPattern(subject), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// Fetch returns the records of resource cached for token, or calls load
// and caches its result. Cache failures are logged and fall through to
// load; they never fail the call. Nothing is cached for a token without a
// subject.
func Fetch[T any](ctx context.Context, c *Cache, token, resource string, load func(context.Context) (T, error)) (T, error) {
	subject := Subject(token)
	if c == nil || subject == "" {
		return load(ctx)
	}

	key := RecordKey(subject, token, resource)
	var cached T
	hit, err := c.getJSON(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("record cache unavailable, loading from api",
			logger.String("resource", resource),
			logger.Error(err))
		return load(ctx)
	}
	if hit {
		return cached, nil
	}

	fresh, err := load(ctx)
	if err != nil {
		return fresh, err
	}
	if err := c.setJSON(ctx, key, fresh); err != nil {
		c.logger.Warn("failed to cache records",
			logger.String("resource", resource),
			logger.Error(err))
	}
	return fresh, nil
}
