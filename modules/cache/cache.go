// Package cache provides a Redis-backed cache for per-user task statistics.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores derived task statistics keyed by user ID.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a new cache instance.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// statsKey returns the cache key for a user's statistics.
func (c *Cache) statsKey(userID string) string {
	return c.prefix + "stats:" + userID
}

// GetStats retrieves cached statistics for a user.
// Returns false on a cache miss.
func (c *Cache) GetStats(ctx context.Context, userID string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.statsKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // Cache miss
		}
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	return true, nil
}

// SetStats stores statistics for a user with the configured TTL.
func (c *Cache) SetStats(ctx context.Context, userID string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.statsKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}

	return nil
}

// InvalidateUser drops the cached statistics for a user. Called after any
// task mutation for that user.
func (c *Cache) InvalidateUser(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.statsKey(userID)).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// Ping checks if the Redis connection is healthy.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
