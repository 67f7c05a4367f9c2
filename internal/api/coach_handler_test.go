package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/mindset-api/internal/coach"
	"github.com/phrazzld/mindset-api/internal/service"
)

// stubCoachRelay implements coach.Relay with a canned reply.
type stubCoachRelay struct {
	reply string
	err   error
	calls int
}

func (s *stubCoachRelay) Chat(ctx context.Context, message string, history []coach.Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newCoachHandler(t *testing.T, relay *stubCoachRelay) *CoachHandler {
	t.Helper()
	env := newPlayerEnv(t)
	coachService, err := service.NewCoachService(relay, discardLogger())
	require.NoError(t, err)
	return NewCoachHandler(env.manager, coachService)
}

func TestChat(t *testing.T) {
	t.Parallel()

	relay := &stubCoachRelay{reply: "Keep at it."}
	handler := newCoachHandler(t, relay)
	userID := uuid.New()

	req := ChatRequest{Message: "How do I build a growth mindset?"}
	rec := httptest.NewRecorder()
	handler.Chat(rec, authedRequest(t, http.MethodPost, "/api/coach/chat", req, userID))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Keep at it.", resp.Reply)
	assert.Equal(t, 2, resp.Tokens, "a chat turn should consume one token")
	assert.Equal(t, 1, relay.calls)
}

func TestChatWithoutTokens(t *testing.T) {
	t.Parallel()

	relay := &stubCoachRelay{reply: "Keep at it."}
	handler := newCoachHandler(t, relay)
	userID := uuid.New()

	req := ChatRequest{Message: "Hello"}
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.Chat(rec, authedRequest(t, http.MethodPost, "/api/coach/chat", req, userID))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.Chat(rec, authedRequest(t, http.MethodPost, "/api/coach/chat", req, userID))

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, 3, relay.calls, "an unfunded turn should never reach the relay")
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	relay := &stubCoachRelay{reply: "Keep at it."}
	handler := newCoachHandler(t, relay)
	userID := uuid.New()

	rec := httptest.NewRecorder()
	handler.Chat(rec, authedRequest(t, http.MethodPost, "/api/coach/chat", ChatRequest{}, userID))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, relay.calls)
}

func TestChatRelayFailure(t *testing.T) {
	t.Parallel()

	relay := &stubCoachRelay{err: coach.ErrTransientFailure}
	handler := newCoachHandler(t, relay)
	userID := uuid.New()

	req := ChatRequest{Message: "Hello"}
	rec := httptest.NewRecorder()
	handler.Chat(rec, authedRequest(t, http.MethodPost, "/api/coach/chat", req, userID))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
