package store

import (
	"context"

	"github.com/phrazzld/mindset-api/internal/domain"
)

// NoopProfileCache is a ProfileCache that stores nothing. It stands in for
// Redis when no cache address is configured, so every session load falls
// through to the authoritative store.
type NoopProfileCache struct{}

// NewNoopProfileCache creates a NoopProfileCache.
func NewNoopProfileCache() *NoopProfileCache {
	return &NoopProfileCache{}
}

var _ ProfileCache = (*NoopProfileCache)(nil)

// Get always reports a miss.
func (c *NoopProfileCache) Get(ctx context.Context, key string) (*domain.Profile, error) {
	return nil, ErrCacheMiss
}

// Set discards the profile.
func (c *NoopProfileCache) Set(ctx context.Context, key string, profile *domain.Profile) error {
	return nil
}

// Delete is a no-op.
func (c *NoopProfileCache) Delete(ctx context.Context, key string) error {
	return nil
}
