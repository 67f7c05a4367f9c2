package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/mindset-api/internal/domain"
	"github.com/phrazzld/mindset-api/internal/domain/achievement"
	"github.com/phrazzld/mindset-api/internal/domain/progression"
	"github.com/phrazzld/mindset-api/internal/events"
	"github.com/phrazzld/mindset-api/internal/store"
)

// remoteWriteTimeout bounds the background remote write so a hung store
// cannot pin a goroutine indefinitely.
const remoteWriteTimeout = 10 * time.Second

// Identity is the authenticated identity a session runs under. Guest
// sessions have no remote record; their progress lives in the local cache
// only.
type Identity struct {
	UserID  uuid.UUID
	IsGuest bool
}

type sessionState int

const (
	stateUnloaded sessionState = iota
	stateLoading
	stateReady
	stateClosed
)

// Coordinator owns one player profile for the duration of a session. All
// reads and mutations are serialized through its mutex, so every state
// transition is derived from the immediately preceding in-memory state and
// never from a stale remote read.
//
// The remote write path is asynchronous and debounced. A slow write racing a
// newer one may be superseded on the server by the newer payload; that is an
// accepted eventual-consistency property of the last-write-wins store, not
// something the coordinator tries to repair.
type Coordinator struct {
	mu       sync.Mutex
	state    sessionState
	identity Identity
	profile  *domain.Profile

	calc    *progression.Calculator
	remote  store.ProfileStore
	cache   store.ProfileCache
	emitter events.EventEmitter
	saver   *saver
	logger  *slog.Logger

	// timeFunc returns the current time. Injectable for testing.
	timeFunc func() time.Time
}

// NewCoordinator creates a coordinator for the given identity. It does not
// load the profile; call Load before any other operation.
// It returns an error if any of the required dependencies are nil.
func NewCoordinator(
	identity Identity,
	remote store.ProfileStore,
	cache store.ProfileCache,
	calc *progression.Calculator,
	emitter events.EventEmitter,
	saveDebounce time.Duration,
	logger *slog.Logger,
) (*Coordinator, error) {
	if identity.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: identity user ID cannot be nil", domain.ErrValidation)
	}
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

	c := &Coordinator{
		state:    stateUnloaded,
		identity: identity,
		calc:     calc,
		remote:   remote,
		cache:    cache,
		emitter:  emitter,
		timeFunc: time.Now,
		logger: logger.With(
			slog.String("component", "player_coordinator"),
			slog.String("user_id", identity.UserID.String()),
		),
	}
	c.saver = newSaver(saveDebounce, c.persist)
	return c, nil
}

func (c *Coordinator) cacheKey() string {
	return "profile:" + c.identity.UserID.String()
}

// Load populates the coordinator's profile. The local cache is adopted first
// so the session is responsive before any network round trip; for
// authenticated sessions the remote record then supersedes it. A missing
// remote record is created from defaults. After adoption the login-time
// maintenance runs in order: streak update, heart recovery, daily token
// reset. The day-boundary state has to settle before the token reset reads
// the previous login date.
//
// Load is idempotent; calling it on a Ready coordinator is a no-op.
func (c *Coordinator) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateReady:
		return nil
	case stateClosed:
		return ErrSessionClosed
	}
	c.state = stateLoading

	params := c.calc.Params()

	var p *domain.Profile
	cached, err := c.cache.Get(ctx, c.cacheKey())
	switch {
	case err == nil:
		p = cached
	case errors.Is(err, store.ErrCacheMiss):
		// First session on this node.
	default:
		c.logger.WarnContext(ctx, "profile cache read failed, continuing without cache",
			slog.String("error", err.Error()))
	}

	if !c.identity.IsGuest {
		remote, err := c.remote.FetchByUser(ctx, c.identity.UserID)
		switch {
		case err == nil:
			// The remote record is authoritative and supersedes the cache.
			p = remote
		case errors.Is(err, store.ErrProfileNotFound):
			if p == nil {
				p = domain.NewProfile(c.identity.UserID, params.MaxHearts, params.FreeDailyTokens)
			}
			if insErr := c.remote.Insert(ctx, p); insErr != nil {
				c.logger.WarnContext(ctx, "initial profile insert failed, operating on cache only",
					slog.String("error", insErr.Error()))
			}
		default:
			c.logger.WarnContext(ctx, "remote profile fetch failed, operating on cache only",
				slog.String("error", err.Error()))
			if p == nil {
				p = domain.NewProfile(c.identity.UserID, params.MaxHearts, params.FreeDailyTokens)
			}
		}
	} else if p == nil {
		p = domain.NewProfile(c.identity.UserID, params.MaxHearts, params.FreeDailyTokens)
	}
	p.Normalize()

	now := c.timeFunc()
	loginBefore := p.LastLoginDate
	extended := c.calc.UpdateStreak(p, now)
	c.calc.RecoverHearts(p, now)
	c.calc.ResetDailyTokens(p, loginBefore, now)
	p.Level = c.calc.LevelForXP(p.XP)
	p.UpdatedAt = now.UTC()

	c.profile = p
	c.state = stateReady

	if extended {
		c.emitLocked(ctx, events.TypeStreakExtended, events.StreakPayload{
			CurrentStreak: p.CurrentStreak,
			LongestStreak: p.LongestStreak,
		})
	}

	c.writeCacheLocked(ctx)
	c.scheduleSaveLocked()
	return nil
}

// Profile returns a deep copy of the current profile.
func (c *Coordinator) Profile() (*domain.Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readyLocked(); err != nil {
		return nil, err
	}
	return c.profile.Clone(), nil
}

// ProgressPercent returns the profile's progress through its current level.
func (c *Coordinator) ProgressPercent() (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readyLocked(); err != nil {
		return 0, err
	}
	return c.calc.ProgressPercent(c.profile.XP), nil
}

// RecordCorrectAnswer awards the per-answer experience and bumps the correct
// counter.
func (c *Coordinator) RecordCorrectAnswer(ctx context.Context) error {
	return c.mutate(ctx, func(p *domain.Profile) error {
		p.XP += c.calc.Params().XPCorrectAnswer
		p.TotalCorrect++
		return nil
	})
}

// RecordWrongAnswer costs a heart and enqueues the missed exercise for
// review. The heart-loss timestamp anchors recovery: it is stamped when this
// loss empties the hearts or when no recovery timer is running, and a timer
// already running is never restarted by subsequent losses.
func (c *Coordinator) RecordWrongAnswer(ctx context.Context, missed domain.ReviewPointer) error {
	return c.mutate(ctx, func(p *domain.Profile) error {
		p.TotalWrong++
		if p.Hearts > 0 {
			p.Hearts--
			if p.Hearts == 0 || p.LastHeartLost == nil {
				now := c.timeFunc().UTC()
				p.LastHeartLost = &now
			}
		}
		p.EnqueueReview(missed)
		return nil
	})
}

// ResolveReview removes a pointer from the review queue after a correct
// re-answer. Emptying the queue emits a review-queue-emptied event.
func (c *Coordinator) ResolveReview(ctx context.Context, resolved domain.ReviewPointer) error {
	return c.mutate(ctx, func(p *domain.Profile) error {
		if p.ResolveReview(resolved) && len(p.ReviewQueue) == 0 {
			c.emitLocked(ctx, events.TypeReviewQueueEmptied, nil)
		}
		return nil
	})
}

// SpendToken atomically checks and decrements the token balance. It reports
// false, with no state change, when no tokens remain.
func (c *Coordinator) SpendToken(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readyLocked(); err != nil {
		return false, err
	}
	if c.profile.Tokens <= 0 {
		return false, nil
	}
	c.profile.Tokens--
	c.settleLocked(ctx)
	return true, nil
}

// CompleteLesson marks a lesson's composite key as completed and awards the
// completion bonus, plus the perfect-run bonus for a zero-mistake run. It is
// idempotent by key: re-completing an already-completed lesson awards nothing
// and reports false.
func (c *Coordinator) CompleteLesson(ctx context.Context, book string, chapter, lesson int, perfect bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readyLocked(); err != nil {
		return false, err
	}

	key := domain.LessonKey(book, chapter, lesson)
	if c.profile.CompletedLessons[key] {
		return false, nil
	}

	params := c.calc.Params()
	c.profile.CompletedLessons[key] = true
	c.profile.XP += params.XPLessonComplete
	if perfect {
		c.profile.XP += params.XPPerfectLesson
		c.profile.PerfectLessons++
	}
	c.settleLocked(ctx)
	return true, nil
}

// Settings is a bulk settings update. Nil fields are left unchanged.
type Settings struct {
	OnboardingComplete      *bool
	DailyChallengeCompleted *string
	Premium                 *bool
}

// ApplySettings applies a bulk settings update through the mutation funnel.
func (c *Coordinator) ApplySettings(ctx context.Context, s Settings) error {
	return c.mutate(ctx, func(p *domain.Profile) error {
		if s.OnboardingComplete != nil {
			p.OnboardingComplete = *s.OnboardingComplete
		}
		if s.DailyChallengeCompleted != nil {
			p.DailyChallengeCompleted = *s.DailyChallengeCompleted
		}
		if s.Premium != nil {
			p.IsPremium = *s.Premium
		}
		return nil
	})
}

// UnlockBook records a premium book unlock. Unlocking an already-unlocked
// book is a no-op.
func (c *Coordinator) UnlockBook(ctx context.Context, bookID string) error {
	return c.mutate(ctx, func(p *domain.Profile) error {
		for _, id := range p.PremiumBooks {
			if id == bookID {
				return nil
			}
		}
		p.PremiumBooks = append(p.PremiumBooks, bookID)
		return nil
	})
}

// ResetProgress replaces the profile with defaults. Premium status and
// unlocked books survive the reset; purchases are not progression.
func (c *Coordinator) ResetProgress(ctx context.Context) error {
	return c.mutate(ctx, func(p *domain.Profile) error {
		params := c.calc.Params()
		fresh := domain.NewProfile(p.UserID, params.MaxHearts, params.FreeDailyTokens)
		fresh.IsPremium = p.IsPremium
		fresh.PremiumBooks = p.PremiumBooks
		fresh.CreatedAt = p.CreatedAt
		fresh.LastLoginDate = p.LastLoginDate
		*p = *fresh
		return nil
	})
}

// Flush runs any pending remote write immediately. A no-op when nothing is
// scheduled.
func (c *Coordinator) Flush() {
	c.saver.Flush()
}

// Close stops the debounce timer and, for authenticated sessions with a
// pending write, runs one final synchronous remote write. The coordinator
// accepts no operations afterwards.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return
	}
	loaded := c.state == stateReady
	c.state = stateClosed
	c.mu.Unlock()

	wasPending := c.saver.Stop()
	if wasPending && loaded && !c.identity.IsGuest {
		c.persist()
	}
}

// mutate is the single mutation funnel. It applies the change to the live
// profile under the lock, then settles derived state, writes the cache, and
// schedules the debounced remote write.
func (c *Coordinator) mutate(ctx context.Context, apply func(p *domain.Profile) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readyLocked(); err != nil {
		return err
	}
	if err := apply(c.profile); err != nil {
		return err
	}
	c.settleLocked(ctx)
	return nil
}

func (c *Coordinator) readyLocked() error {
	switch c.state {
	case stateReady:
		return nil
	case stateClosed:
		return ErrSessionClosed
	default:
		return ErrSessionNotReady
	}
}

// settleLocked recomputes derived state after a mutation, awards at most one
// newly earned achievement, emits the resulting events, writes the local
// cache synchronously, and schedules the remote write.
func (c *Coordinator) settleLocked(ctx context.Context) {
	p := c.profile

	previousLevel := p.Level
	p.Level = c.calc.LevelForXP(p.XP)
	if p.Level > previousLevel {
		c.emitLocked(ctx, events.TypeLevelUp, events.LevelUpPayload{
			PreviousLevel: previousLevel,
			NewLevel:      p.Level,
		})
	}

	// At most one achievement per cycle; the rest surface on later
	// mutations since the predicates are idempotent over the snapshot.
	if pending := achievement.DetectNewly(p); len(pending) > 0 {
		earned := pending[0]
		p.Achievements = append(p.Achievements, earned.ID)
		c.emitLocked(ctx, events.TypeAchievementEarned, events.AchievementPayload{
			AchievementID: earned.ID,
			Title:         earned.Title,
			Icon:          earned.Icon,
		})
	}

	p.UpdatedAt = c.timeFunc().UTC()

	c.writeCacheLocked(ctx)
	c.scheduleSaveLocked()
}

func (c *Coordinator) writeCacheLocked(ctx context.Context) {
	if err := c.cache.Set(ctx, c.cacheKey(), c.profile); err != nil {
		c.logger.WarnContext(ctx, "profile cache write failed",
			slog.String("error", err.Error()))
	}
}

func (c *Coordinator) scheduleSaveLocked() {
	if c.identity.IsGuest {
		return
	}
	c.saver.Schedule()
}

// persist is the debounced remote write. It snapshots the profile under the
// lock and writes without it, so a slow store never blocks a mutation.
// Failures are logged and swallowed; the session keeps running on the cache.
func (c *Coordinator) persist() {
	c.mu.Lock()
	if c.profile == nil {
		c.mu.Unlock()
		return
	}
	snapshot := c.profile.Clone()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), remoteWriteTimeout)
	defer cancel()

	err := c.remote.Update(ctx, snapshot)
	if errors.Is(err, store.ErrProfileNotFound) {
		err = c.remote.Insert(ctx, snapshot)
	}
	if err != nil {
		c.logger.Warn("remote profile write failed, continuing on local cache",
			slog.String("error", err.Error()))
	}
}

func (c *Coordinator) emitLocked(ctx context.Context, eventType string, payload interface{}) {
	event, err := events.NewProgressEvent(c.identity.UserID, eventType, payload)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to construct progress event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := c.emitter.EmitEvent(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "failed to emit progress event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}
