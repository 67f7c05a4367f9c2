package redis

import (
	"context"

	"github.com/phrazzld/mindset-api/internal/domain"
	"github.com/phrazzld/mindset-api/internal/store"
)

// ProfileCache implements the store.ProfileCache interface using the generic
// Redis cache.
type ProfileCache struct {
	cache *Cache
}

// Ensure ProfileCache implements store.ProfileCache interface
var _ store.ProfileCache = (*ProfileCache)(nil)

// NewProfileCache creates a new ProfileCache.
func NewProfileCache(cache *Cache) *ProfileCache {
	return &ProfileCache{cache: cache}
}

// Get retrieves a cached profile. Returns store.ErrCacheMiss when absent.
func (c *ProfileCache) Get(ctx context.Context, key string) (*domain.Profile, error) {
	var p domain.Profile
	if err := c.cache.Get(ctx, key, &p); err != nil {
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

// Set stores a profile under the key.
func (c *ProfileCache) Set(ctx context.Context, key string, profile *domain.Profile) error {
	return c.cache.Set(ctx, key, profile)
}

// Delete removes the cached profile, if present.
func (c *ProfileCache) Delete(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}
