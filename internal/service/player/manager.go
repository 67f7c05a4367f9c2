package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/mindset-api/internal/domain"
	"github.com/phrazzld/mindset-api/internal/domain/progression"
	"github.com/phrazzld/mindset-api/internal/events"
	"github.com/phrazzld/mindset-api/internal/store"
)

// sweepInterval is how often the manager scans for idle sessions.
const sweepInterval = time.Minute

type session struct {
	coordinator *Coordinator
	lastSeen    time.Time
}

// Manager tracks one coordinator per active session, keyed by user identity.
// Coordinators are created lazily on first acquire and evicted after the
// configured idle period, closing them so any pending write lands.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	remote      store.ProfileStore
	cache       store.ProfileCache
	calc        *progression.Calculator
	emitter     events.EventEmitter
	debounce    time.Duration
	idleTimeout time.Duration
	logger      *slog.Logger
	timeFunc    func() time.Time
}

// NewManager creates a session manager.
// It returns an error if any of the required dependencies are nil.
func NewManager(
	remote store.ProfileStore,
	cache store.ProfileCache,
	calc *progression.Calculator,
	emitter events.EventEmitter,
	saveDebounce time.Duration,
	idleTimeout time.Duration,
	logger *slog.Logger,
) (*Manager, error) {
	if remote == nil {
		return nil, fmt.Errorf("%w: remote profile store cannot be nil", domain.ErrValidation)
	}
	if cache == nil {
		return nil, fmt.Errorf("%w: profile cache cannot be nil", domain.ErrValidation)
	}
	if calc == nil {
		return nil, fmt.Errorf("%w: progression calculator cannot be nil", domain.ErrValidation)
	}
	if emitter == nil {
		return nil, fmt.Errorf("%w: event emitter cannot be nil", domain.ErrValidation)
	}
	if saveDebounce <= 0 {
		return nil, fmt.Errorf("%w: save debounce must be positive", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		sessions:    make(map[uuid.UUID]*session),
		remote:      remote,
		cache:       cache,
		calc:        calc,
		emitter:     emitter,
		debounce:    saveDebounce,
		idleTimeout: idleTimeout,
		timeFunc:    time.Now,
		logger:      logger.With(slog.String("component", "player_manager")),
	}, nil
}

// Acquire returns the coordinator for the identity, creating and loading one
// if the session is new. The returned coordinator is Ready.
func (m *Manager) Acquire(ctx context.Context, identity Identity) (*Coordinator, error) {
	m.mu.Lock()
	if sess, ok := m.sessions[identity.UserID]; ok {
		sess.lastSeen = m.timeFunc()
		coord := sess.coordinator
		m.mu.Unlock()
		// Load is idempotent; this also covers a concurrent acquire that
		// raced the initial load.
		if err := coord.Load(ctx); err != nil {
			return nil, err
		}
		return coord, nil
	}

	coord, err := NewCoordinator(identity, m.remote, m.cache, m.calc, m.emitter, m.debounce, m.logger)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.sessions[identity.UserID] = &session{coordinator: coord, lastSeen: m.timeFunc()}
	m.mu.Unlock()

	if err := coord.Load(ctx); err != nil {
		m.mu.Lock()
		delete(m.sessions, identity.UserID)
		m.mu.Unlock()
		coord.Close()
		return nil, err
	}
	return coord, nil
}

// Release closes the session for the user, if one exists, flushing any
// pending write.
func (m *Manager) Release(userID uuid.UUID) {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	if ok {
		sess.coordinator.Close()
	}
}

// EvictIdle closes sessions that have not been acquired within the idle
// timeout and returns how many were evicted. A zero idle timeout disables
// eviction.
func (m *Manager) EvictIdle(now time.Time) int {
	if m.idleTimeout <= 0 {
		return 0
	}

	m.mu.Lock()
	var idle []*session
	for userID, sess := range m.sessions {
		if now.Sub(sess.lastSeen) >= m.idleTimeout {
			idle = append(idle, sess)
			delete(m.sessions, userID)
		}
	}
	m.mu.Unlock()

	for _, sess := range idle {
		sess.coordinator.Close()
	}
	if len(idle) > 0 {
		m.logger.Info("evicted idle player sessions", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps for idle sessions until the context is cancelled, then closes
// all remaining sessions.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return
		case now := <-ticker.C:
			m.EvictIdle(now)
		}
	}
}

// CloseAll closes every active session, flushing pending writes. Used at
// shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	remaining := make([]*session, 0, len(m.sessions))
	for userID, sess := range m.sessions {
		remaining = append(remaining, sess)
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	for _, sess := range remaining {
		sess.coordinator.Close()
	}
}
