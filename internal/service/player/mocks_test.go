package player

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/mindset-api/internal/domain"
	"github.com/phrazzld/mindset-api/internal/events"
	"github.com/phrazzld/mindset-api/internal/store"
)

// memProfileStore is an in-memory store.ProfileStore with call counters and
// injectable failures.
type memProfileStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*domain.Profile
	fetches  int
	inserts  int
	updates  int

	fetchErr  error
	insertErr error
	updateErr error
}

func newMemProfileStore() *memProfileStore {
	return &memProfileStore{profiles: make(map[uuid.UUID]*domain.Profile)}
}

func (s *memProfileStore) FetchByUser(_ context.Context, userID uuid.UUID) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (s *memProfileStore) Insert(_ context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.profiles[profile.UserID]; ok {
		return store.ErrProfileExists
	}
	s.profiles[profile.UserID] = profile.Clone()
	return nil
}

func (s *memProfileStore) Update(_ context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.profiles[profile.UserID]; !ok {
		return store.ErrProfileNotFound
	}
	s.profiles[profile.UserID] = profile.Clone()
	return nil
}

func (s *memProfileStore) seed(profile *domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile.Clone()
}

func (s *memProfileStore) stored(userID uuid.UUID) *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil
	}
	return p.Clone()
}

func (s *memProfileStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

func (s *memProfileStore) remoteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches + s.inserts + s.updates
}

var _ store.ProfileStore = (*memProfileStore)(nil)

// memProfileCache is an in-memory store.ProfileCache.
type memProfileCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Profile
	sets    int

	getErr error
	setErr error
}

func newMemProfileCache() *memProfileCache {
	return &memProfileCache{entries: make(map[string]*domain.Profile)}
}

func (c *memProfileCache) Get(_ context.Context, key string) (*domain.Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	p, ok := c.entries[key]
	if !ok {
		return nil, store.ErrCacheMiss
	}
	return p.Clone(), nil
}

func (c *memProfileCache) Set(_ context.Context, key string, profile *domain.Profile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = profile.Clone()
	return nil
}

func (c *memProfileCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memProfileCache) seed(key string, profile *domain.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = profile.Clone()
}

func (c *memProfileCache) entry(key string) *domain.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[key]
	if !ok {
		return nil
	}
	return p.Clone()
}

var _ store.ProfileCache = (*memProfileCache)(nil)

// recordingHandler captures emitted progress events.
type recordingHandler struct {
	mu     sync.Mutex
	events []*events.ProgressEvent
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *events.ProgressEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHandler) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Type)
	}
	return out
}

func (h *recordingHandler) has(eventType string) bool {
	for _, t := range h.types() {
		if t == eventType {
			return true
		}
	}
	return false
}

var _ events.EventHandler = (*recordingHandler)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
