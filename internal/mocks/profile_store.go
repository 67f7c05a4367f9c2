package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/mindset-api/internal/domain"
	"github.com/phrazzld/mindset-api/internal/store"
)

// MockProfileStore implements store.ProfileStore with an in-memory map.
// Profiles are cloned on the way in and out so callers cannot alias the
// stored state.
type MockProfileStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*domain.Profile

	// Optional injected errors
	FetchErr  error
	InsertErr error
	UpdateErr error

	// Call counters
	Fetches int
	Inserts int
	Updates int
}

var _ store.ProfileStore = (*MockProfileStore)(nil)

// NewMockProfileStore creates an empty in-memory profile store.
func NewMockProfileStore() *MockProfileStore {
	return &MockProfileStore{
		profiles: make(map[uuid.UUID]*domain.Profile),
	}
}

// Seed places a profile in the store without counting as an insert.
func (m *MockProfileStore) Seed(profile *domain.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.UserID] = profile.Clone()
}

// Stored returns a copy of the stored profile for a user, or nil.
func (m *MockProfileStore) Stored(userID uuid.UUID) *domain.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		return p.Clone()
	}
	return nil
}

// FetchByUser implements the ProfileStore interface.
func (m *MockProfileStore) FetchByUser(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fetches++

	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	return p.Clone(), nil
}

// Insert implements the ProfileStore interface.
func (m *MockProfileStore) Insert(ctx context.Context, profile *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Inserts++

	if m.InsertErr != nil {
		return m.InsertErr
	}
	if _, exists := m.profiles[profile.UserID]; exists {
		return store.ErrProfileExists
	}
	m.profiles[profile.UserID] = profile.Clone()
	return nil
}

// Update implements the ProfileStore interface.
func (m *MockProfileStore) Update(ctx context.Context, profile *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates++

	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if _, exists := m.profiles[profile.UserID]; !exists {
		return store.ErrProfileNotFound
	}
	m.profiles[profile.UserID] = profile.Clone()
	return nil
}

// MockProfileCache implements store.ProfileCache with an in-memory map.
type MockProfileCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Profile

	// Optional injected errors
	GetErr error
	SetErr error

	// Sets counts successful writes.
	Sets int
}

var _ store.ProfileCache = (*MockProfileCache)(nil)

// NewMockProfileCache creates an empty in-memory profile cache.
func NewMockProfileCache() *MockProfileCache {
	return &MockProfileCache{
		entries: make(map[string]*domain.Profile),
	}
}

// Seed places an entry in the cache.
func (m *MockProfileCache) Seed(key string, profile *domain.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = profile.Clone()
}

// Entry returns a copy of the cached profile under key, or nil.
func (m *MockProfileCache) Entry(key string) *domain.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.entries[key]; ok {
		return p.Clone()
	}
	return nil
}

// Get implements the ProfileCache interface.
func (m *MockProfileCache) Get(ctx context.Context, key string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.entries[key]
	if !ok {
		return nil, store.ErrCacheMiss
	}
	return p.Clone(), nil
}

// Set implements the ProfileCache interface.
func (m *MockProfileCache) Set(ctx context.Context, key string, profile *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetErr != nil {
		return m.SetErr
	}
	m.entries[key] = profile.Clone()
	m.Sets++
	return nil
}

// Delete implements the ProfileCache interface.
func (m *MockProfileCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
