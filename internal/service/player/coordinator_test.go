package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/mindset-api/internal/domain"
	"github.com/phrazzld/mindset-api/internal/domain/progression"
	"github.com/phrazzld/mindset-api/internal/events"
)

const testDebounce = 25 * time.Millisecond

type testEnv struct {
	store   *memProfileStore
	cache   *memProfileCache
	handler *recordingHandler
	coord   *Coordinator
}

func newTestEnv(t *testing.T, identity Identity) *testEnv {
	t.Helper()

	st := newMemProfileStore()
	ca := newMemProfileCache()
	handler := &recordingHandler{}
	emitter := events.NewInMemoryEventEmitter(discardLogger())
	emitter.RegisterHandler(handler)

	calc, err := progression.NewCalculator(progression.DefaultParams())
	require.NoError(t, err)

	coord, err := NewCoordinator(identity, st, ca, calc, emitter, testDebounce, discardLogger())
	require.NoError(t, err)
	t.Cleanup(coord.Close)

	return &testEnv{store: st, cache: ca, handler: handler, coord: coord}
}

func authedIdentity() Identity {
	return Identity{UserID: uuid.New()}
}

func TestNewCoordinatorValidation(t *testing.T) {
	t.Parallel()

	st := newMemProfileStore()
	ca := newMemProfileCache()
	emitter := events.NewInMemoryEventEmitter(discardLogger())
	calc, err := progression.NewCalculator(nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		run  func() (*Coordinator, error)
	}{
		{
			name: "nil user ID",
			run: func() (*Coordinator, error) {
				return NewCoordinator(Identity{}, st, ca, calc, emitter, time.Second, nil)
			},
		},
		{
			name: "nil remote store",
			run: func() (*Coordinator, error) {
				return NewCoordinator(authedIdentity(), nil, ca, calc, emitter, time.Second, nil)
			},
		},
		{
			name: "nil cache",
			run: func() (*Coordinator, error) {
				return NewCoordinator(authedIdentity(), st, nil, calc, emitter, time.Second, nil)
			},
		},
		{
			name: "nil calculator",
			run: func() (*Coordinator, error) {
				return NewCoordinator(authedIdentity(), st, ca, nil, emitter, time.Second, nil)
			},
		},
		{
			name: "nil emitter",
			run: func() (*Coordinator, error) {
				return NewCoordinator(authedIdentity(), st, ca, calc, nil, time.Second, nil)
			},
		},
		{
			name: "non-positive debounce",
			run: func() (*Coordinator, error) {
				return NewCoordinator(authedIdentity(), st, ca, calc, emitter, 0, nil)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			coord, err := tc.run()
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Nil(t, coord)
		})
	}
}

func TestLoadCreatesFreshProfile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()

	require.NoError(t, env.coord.Load(ctx))

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 0, p.XP)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 5, p.Hearts)
	assert.Equal(t, 3, p.Tokens)
	assert.Equal(t, 1, p.CurrentStreak) // first login starts the streak

	// The missing remote record was created from defaults.
	assert.NotNil(t, env.store.stored(p.UserID))
	// The cache holds the adopted profile.
	assert.NotNil(t, env.cache.entry(env.coord.cacheKey()))
}

func TestLoadIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()

	require.NoError(t, env.coord.Load(ctx))
	require.NoError(t, env.coord.RecordCorrectAnswer(ctx))
	require.NoError(t, env.coord.Load(ctx))

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 10, p.XP, "second Load must not reset in-memory state")
}

func TestLoadRemoteSupersedesCache(t *testing.T) {
	t.Parallel()

	identity := authedIdentity()
	env := newTestEnv(t, identity)

	stale := domain.NewProfile(identity.UserID, 5, 3)
	stale.XP = 10
	env.cache.seed(env.coord.cacheKey(), stale)

	authoritative := domain.NewProfile(identity.UserID, 5, 3)
	authoritative.XP = 500
	env.store.seed(authoritative)

	require.NoError(t, env.coord.Load(context.Background()))

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 500, p.XP)
	assert.Equal(t, 4, p.Level, "level recomputed from adopted xp")

	// The authoritative record was rewritten to the cache.
	cached := env.cache.entry(env.coord.cacheKey())
	require.NotNil(t, cached)
	assert.Equal(t, 500, cached.XP)
}

func TestLoadRemoteFailureDegradesToCache(t *testing.T) {
	t.Parallel()

	identity := authedIdentity()
	env := newTestEnv(t, identity)

	cached := domain.NewProfile(identity.UserID, 5, 3)
	cached.XP = 120
	env.cache.seed(env.coord.cacheKey(), cached)
	env.store.fetchErr = errors.New("connection refused")

	require.NoError(t, env.coord.Load(context.Background()))

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 120, p.XP)
	assert.Equal(t, 2, p.Level)
}

func TestLoadRunsLoginMaintenance(t *testing.T) {
	t.Parallel()

	identity := authedIdentity()
	env := newTestEnv(t, identity)

	now := time.Now()
	lostAt := now.Add(-45 * time.Minute)

	seed := domain.NewProfile(identity.UserID, 5, 3)
	seed.LastLoginDate = domain.DateOf(now.AddDate(0, 0, -1))
	seed.CurrentStreak = 4
	seed.LongestStreak = 4
	seed.Hearts = 3
	seed.LastHeartLost = &lostAt
	seed.Tokens = 0
	env.store.seed(seed)

	require.NoError(t, env.coord.Load(context.Background()))

	p, err := env.coord.Profile()
	require.NoError(t, err)

	// Streak extended across the day boundary.
	assert.Equal(t, 5, p.CurrentStreak)
	assert.Equal(t, 5, p.LongestStreak)
	assert.Equal(t, domain.DateOf(now), p.LastLoginDate)
	assert.True(t, env.handler.has(events.TypeStreakExtended))

	// 45 minutes at a 20-minute interval regains 2 hearts, capping at max
	// and clearing the anchor.
	assert.Equal(t, 5, p.Hearts)
	assert.Nil(t, p.LastHeartLost)

	// Token reset still fires even though the streak update already stamped
	// the login date to today.
	assert.Equal(t, 3, p.Tokens)
}

func TestMutateBeforeLoad(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()

	assert.ErrorIs(t, env.coord.RecordCorrectAnswer(ctx), ErrSessionNotReady)

	_, err := env.coord.Profile()
	assert.ErrorIs(t, err, ErrSessionNotReady)

	_, err = env.coord.SpendToken(ctx)
	assert.ErrorIs(t, err, ErrSessionNotReady)
}

func TestRecordCorrectAnswer(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	require.NoError(t, env.coord.RecordCorrectAnswer(ctx))

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 10, p.XP)
	assert.Equal(t, 1, p.TotalCorrect)
}

func TestRecordWrongAnswerHeartAnchor(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	missed := domain.ReviewPointer{Book: "mindset", Chapter: 1, Lesson: 2, Exercise: 3}
	require.NoError(t, env.coord.RecordWrongAnswer(ctx, missed))

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 4, p.Hearts)
	assert.Equal(t, 1, p.TotalWrong)
	require.NotNil(t, p.LastHeartLost, "first loss starts the recovery timer")
	firstAnchor := *p.LastHeartLost

	// A second loss while the timer runs does not restart it.
	other := domain.ReviewPointer{Book: "mindset", Chapter: 1, Lesson: 2, Exercise: 4}
	require.NoError(t, env.coord.RecordWrongAnswer(ctx, other))

	p, err = env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 3, p.Hearts)
	require.NotNil(t, p.LastHeartLost)
	assert.True(t, p.LastHeartLost.Equal(firstAnchor))
}

func TestRecordWrongAnswerFloorsAtZeroHearts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	for i := 0; i < 7; i++ {
		missed := domain.ReviewPointer{Book: "mindset", Chapter: 1, Lesson: 1, Exercise: i}
		require.NoError(t, env.coord.RecordWrongAnswer(ctx, missed))
	}

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 0, p.Hearts)
	assert.Equal(t, 7, p.TotalWrong, "answers are still recorded at zero hearts")
	assert.NotNil(t, p.LastHeartLost)
}

func TestRecordWrongAnswerDeduplicatesQueue(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	missed := domain.ReviewPointer{Book: "mindset", Chapter: 2, Lesson: 1, Exercise: 0}
	require.NoError(t, env.coord.RecordWrongAnswer(ctx, missed))
	require.NoError(t, env.coord.RecordWrongAnswer(ctx, missed))

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Len(t, p.ReviewQueue, 1)
}

func TestResolveReviewEmitsQueueEmptied(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	first := domain.ReviewPointer{Book: "mindset", Chapter: 1, Lesson: 1, Exercise: 0}
	second := domain.ReviewPointer{Book: "mindset", Chapter: 1, Lesson: 1, Exercise: 1}
	require.NoError(t, env.coord.RecordWrongAnswer(ctx, first))
	require.NoError(t, env.coord.RecordWrongAnswer(ctx, second))

	require.NoError(t, env.coord.ResolveReview(ctx, first))
	assert.False(t, env.handler.has(events.TypeReviewQueueEmptied))

	require.NoError(t, env.coord.ResolveReview(ctx, second))
	assert.True(t, env.handler.has(events.TypeReviewQueueEmptied))

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Empty(t, p.ReviewQueue)
}

func TestSpendToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	spent, err := env.coord.SpendToken(ctx)
	require.NoError(t, err)
	assert.True(t, spent)

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 2, p.Tokens)

	for i := 0; i < 2; i++ {
		spent, err = env.coord.SpendToken(ctx)
		require.NoError(t, err)
		assert.True(t, spent)
	}

	spent, err = env.coord.SpendToken(ctx)
	require.NoError(t, err)
	assert.False(t, spent, "spend fails with no tokens left")

	p, err = env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 0, p.Tokens)
}

func TestSpendTokenAtomicUnderContention(t *testing.T) {
	t.Parallel()

	identity := authedIdentity()
	env := newTestEnv(t, identity)

	seed := domain.NewProfile(identity.UserID, 5, 3)
	seed.Tokens = 5
	seed.LastLoginDate = domain.DateOf(time.Now())
	env.store.seed(seed)

	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			spent, err := env.coord.SpendToken(ctx)
			if err == nil && spent {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, successes, "exactly one success per available token")

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 0, p.Tokens)
}

func TestCompleteLessonIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	newly, err := env.coord.CompleteLesson(ctx, "mindset", 1, 2, true)
	require.NoError(t, err)
	assert.True(t, newly)

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 75, p.XP, "completion bonus plus perfect bonus")
	assert.Equal(t, 1, p.PerfectLessons)
	assert.True(t, p.CompletedLessons["mindset:1:2"])

	newly, err = env.coord.CompleteLesson(ctx, "mindset", 1, 2, true)
	require.NoError(t, err)
	assert.False(t, newly)

	p, err = env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 75, p.XP, "re-completion awards nothing")
	assert.Equal(t, 1, p.PerfectLessons)
	assert.Len(t, p.CompletedLessons, 1)
}

func TestLevelUpEventEmitted(t *testing.T) {
	t.Parallel()

	identity := authedIdentity()
	env := newTestEnv(t, identity)

	seed := domain.NewProfile(identity.UserID, 5, 3)
	seed.XP = 95
	seed.Level = 1
	env.store.seed(seed)

	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))
	require.False(t, env.handler.has(events.TypeLevelUp))

	require.NoError(t, env.coord.RecordCorrectAnswer(ctx))

	require.True(t, env.handler.has(events.TypeLevelUp))
	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 105, p.XP)
	assert.Equal(t, 2, p.Level)
}

func TestAtMostOneAchievementPerMutation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	// A perfect first completion satisfies both the first-lesson and the
	// perfect-lesson achievements at once.
	_, err := env.coord.CompleteLesson(ctx, "mindset", 1, 1, true)
	require.NoError(t, err)

	p, err := env.coord.Profile()
	require.NoError(t, err)
	require.Len(t, p.Achievements, 1)
	assert.Equal(t, "first_lesson", p.Achievements[0])

	// The next mutation surfaces the one still pending.
	require.NoError(t, env.coord.RecordCorrectAnswer(ctx))

	p, err = env.coord.Profile()
	require.NoError(t, err)
	require.Len(t, p.Achievements, 2)
	assert.Equal(t, "perfect_lesson", p.Achievements[1])
}

func TestDebounceCoalescesRemoteWrites(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	// Rapid mutations inside one debounce window collapse into a single
	// trailing-edge write carrying the latest state.
	for i := 0; i < 5; i++ {
		require.NoError(t, env.coord.RecordCorrectAnswer(ctx))
	}

	require.Eventually(t, func() bool {
		return env.store.updateCount() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(4 * testDebounce)
	assert.Equal(t, 1, env.store.updateCount())

	stored := env.store.stored(env.coord.identity.UserID)
	require.NotNil(t, stored)
	assert.Equal(t, 50, stored.XP, "the single write carries the final state")
}

func TestFlushWritesImmediately(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))
	require.NoError(t, env.coord.RecordCorrectAnswer(ctx))

	env.coord.Flush()

	stored := env.store.stored(env.coord.identity.UserID)
	require.NotNil(t, stored)
	assert.Equal(t, 10, stored.XP)
}

func TestCloseFlushesPendingWrite(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))
	require.NoError(t, env.coord.RecordCorrectAnswer(ctx))

	env.coord.Close()

	stored := env.store.stored(env.coord.identity.UserID)
	require.NotNil(t, stored)
	assert.Equal(t, 10, stored.XP)

	assert.ErrorIs(t, env.coord.RecordCorrectAnswer(ctx), ErrSessionClosed)
	_, err := env.coord.Profile()
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestGuestSessionNeverTouchesRemote(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, Identity{UserID: uuid.New(), IsGuest: true})
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	require.NoError(t, env.coord.RecordCorrectAnswer(ctx))
	_, err := env.coord.SpendToken(ctx)
	require.NoError(t, err)

	env.coord.Flush()
	env.coord.Close()

	assert.Equal(t, 0, env.store.remoteCalls())

	// Progress still lands in the local cache.
	cached := env.cache.entry(env.coord.cacheKey())
	require.NotNil(t, cached)
	assert.Equal(t, 10, cached.XP)
}

func TestCacheFailuresAreSwallowed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	env.cache.getErr = errors.New("cache down")
	env.cache.setErr = errors.New("cache down")

	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))
	require.NoError(t, env.coord.RecordCorrectAnswer(ctx))

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 10, p.XP)
}

func TestApplySettings(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	onboarded := true
	day := domain.DateOf(time.Now())
	require.NoError(t, env.coord.ApplySettings(ctx, Settings{
		OnboardingComplete:      &onboarded,
		DailyChallengeCompleted: &day,
	}))

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.True(t, p.OnboardingComplete)
	assert.Equal(t, day, p.DailyChallengeCompleted)
	assert.False(t, p.IsPremium, "nil fields are untouched")
}

func TestUnlockBook(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	require.NoError(t, env.coord.UnlockBook(ctx, "atomic-habits"))
	require.NoError(t, env.coord.UnlockBook(ctx, "atomic-habits"))

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, []string{"atomic-habits"}, p.PremiumBooks)
}

func TestResetProgressKeepsPurchases(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, authedIdentity())
	ctx := context.Background()
	require.NoError(t, env.coord.Load(ctx))

	premium := true
	require.NoError(t, env.coord.ApplySettings(ctx, Settings{Premium: &premium}))
	require.NoError(t, env.coord.UnlockBook(ctx, "atomic-habits"))
	require.NoError(t, env.coord.RecordCorrectAnswer(ctx))
	_, err := env.coord.CompleteLesson(ctx, "mindset", 1, 1, false)
	require.NoError(t, err)

	require.NoError(t, env.coord.ResetProgress(ctx))

	p, err := env.coord.Profile()
	require.NoError(t, err)
	assert.Equal(t, 0, p.XP)
	assert.Equal(t, 1, p.Level)
	assert.Empty(t, p.CompletedLessons)
	assert.Empty(t, p.Achievements)
	assert.True(t, p.IsPremium)
	assert.Equal(t, []string{"atomic-habits"}, p.PremiumBooks)
}
