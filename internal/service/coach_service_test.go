package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/mindset-api/internal/coach"
	"github.com/phrazzld/mindset-api/internal/domain"
	"github.com/phrazzld/mindset-api/internal/domain/progression"
	"github.com/phrazzld/mindset-api/internal/events"
	"github.com/phrazzld/mindset-api/internal/service/player"
	"github.com/phrazzld/mindset-api/internal/store"
)

type stubRelay struct {
	reply string
	err   error
	calls int
}

func (r *stubRelay) Chat(_ context.Context, _ string, _ []coach.Message) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.reply, nil
}

type nullProfileStore struct{}

func (nullProfileStore) FetchByUser(context.Context, uuid.UUID) (*domain.Profile, error) {
	return nil, store.ErrProfileNotFound
}
func (nullProfileStore) Insert(context.Context, *domain.Profile) error { return nil }
func (nullProfileStore) Update(context.Context, *domain.Profile) error { return nil }

type nullProfileCache struct{}

func (nullProfileCache) Get(context.Context, string) (*domain.Profile, error) {
	return nil, store.ErrCacheMiss
}
func (nullProfileCache) Set(context.Context, string, *domain.Profile) error { return nil }
func (nullProfileCache) Delete(context.Context, string) error               { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newChatSession(t *testing.T) *player.Coordinator {
	t.Helper()

	calc, err := progression.NewCalculator(nil)
	require.NoError(t, err)

	coord, err := player.NewCoordinator(
		player.Identity{UserID: uuid.New()},
		nullProfileStore{},
		nullProfileCache{},
		calc,
		events.NewInMemoryEventEmitter(testLogger()),
		time.Second,
		testLogger(),
	)
	require.NoError(t, err)
	require.NoError(t, coord.Load(context.Background()))
	t.Cleanup(coord.Close)
	return coord
}

func TestNewCoachServiceValidation(t *testing.T) {
	t.Parallel()

	svc, err := NewCoachService(nil, testLogger())
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, svc)
}

func TestChatSpendsOneToken(t *testing.T) {
	t.Parallel()

	relay := &stubRelay{reply: "keep going"}
	svc, err := NewCoachService(relay, testLogger())
	require.NoError(t, err)

	sess := newChatSession(t)
	reply, err := svc.Chat(context.Background(), sess, "how do I improve?", nil)
	require.NoError(t, err)
	assert.Equal(t, "keep going", reply)
	assert.Equal(t, 1, relay.calls)

	p, err := sess.Profile()
	require.NoError(t, err)
	assert.Equal(t, 2, p.Tokens)
}

func TestChatFailsWithoutTokens(t *testing.T) {
	t.Parallel()

	relay := &stubRelay{reply: "hi"}
	svc, err := NewCoachService(relay, testLogger())
	require.NoError(t, err)

	sess := newChatSession(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Chat(ctx, sess, "another question", nil)
		require.NoError(t, err)
	}

	_, err = svc.Chat(ctx, sess, "one more", nil)
	assert.ErrorIs(t, err, coach.ErrNoTokens)
	assert.Equal(t, 3, relay.calls, "relay is never called with an empty balance")
}

func TestChatDoesNotRefundOnRelayFailure(t *testing.T) {
	t.Parallel()

	relay := &stubRelay{err: errors.New("upstream down")}
	svc, err := NewCoachService(relay, testLogger())
	require.NoError(t, err)

	sess := newChatSession(t)
	_, err = svc.Chat(context.Background(), sess, "hello", nil)
	assert.Error(t, err)

	p, err := sess.Profile()
	require.NoError(t, err)
	assert.Equal(t, 2, p.Tokens)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	relay := &stubRelay{reply: "hi"}
	svc, err := NewCoachService(relay, testLogger())
	require.NoError(t, err)

	sess := newChatSession(t)
	_, err = svc.Chat(context.Background(), sess, "", nil)
	assert.ErrorIs(t, err, coach.ErrEmptyMessage)

	p, err := sess.Profile()
	require.NoError(t, err)
	assert.Equal(t, 3, p.Tokens, "no token spent on a rejected message")
}
