package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/mindset-api/internal/domain"
)

// ProfileStore defines the interface for the authoritative (remote) player
// profile record, keyed by user identity. Guest sessions have no remote
// record and never touch this interface.
type ProfileStore interface {
	// FetchByUser retrieves the profile for a user.
	// Returns ErrProfileNotFound if no record exists.
	FetchByUser(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)

	// Insert creates a new profile record.
	// Returns ErrProfileExists if a record already exists for the user.
	Insert(ctx context.Context, profile *domain.Profile) error

	// Update overwrites the stored record with the given profile's field set.
	// Last write wins by field set: a newer payload supersedes an older
	// in-flight one on the server. Returns ErrProfileNotFound if no record
	// exists for the user.
	Update(ctx context.Context, profile *domain.Profile) error
}

// ProfileCache defines the interface for the local profile cache: a fast,
// optimistic copy adopted before the authoritative store responds, and
// rewritten synchronously on every mutation. Cache failures are never fatal.
type ProfileCache interface {
	// Get retrieves a cached profile by key.
	// Returns ErrCacheMiss if no entry exists.
	Get(ctx context.Context, key string) (*domain.Profile, error)

	// Set stores a profile under the key.
	Set(ctx context.Context, key string, profile *domain.Profile) error

	// Delete removes the entry for the key, if present.
	Delete(ctx context.Context, key string) error
}
