// Package redis implements the local profile cache on top of Redis.
// The cache is the optimistic, always-fast side of the profile store pair:
// adopted immediately on load, rewritten synchronously on every mutation,
// and never authoritative over the Postgres record.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/phrazzld/mindset-api/internal/config"
	"github.com/phrazzld/mindset-api/internal/store"
)

// defaultTTL bounds how long a cache entry outlives its last write. Profiles
// are rewritten on every mutation, so a generous TTL only matters for
// abandoned sessions.
const defaultTTL = 30 * 24 * time.Hour

// NewClient creates a Redis client from configuration and verifies the
// connection with a short ping.
func NewClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// Cache is a small generic JSON cache over a Redis client.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a Cache with the default TTL.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: defaultTTL}
}

// Get fetches and JSON-decodes the value under key into v.
// Returns store.ErrCacheMiss when the key does not exist.
func (c *Cache) Get(ctx context.Context, key string, v interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.ErrCacheMiss
		}
		return fmt.Errorf("%w: %w", store.ErrCacheUnavailable, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode cached value for %s: %w", key, err)
	}
	return nil
}

// Set JSON-encodes v and stores it under key with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode value for %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrCacheUnavailable, err)
	}
	return nil
}

// Delete removes the key, if present.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrCacheUnavailable, err)
	}
	return nil
}
