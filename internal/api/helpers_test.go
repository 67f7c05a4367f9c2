package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/mindset-api/internal/api/shared"
	"github.com/phrazzld/mindset-api/internal/content"
	"github.com/phrazzld/mindset-api/internal/domain/progression"
	"github.com/phrazzld/mindset-api/internal/events"
	"github.com/phrazzld/mindset-api/internal/mocks"
	"github.com/phrazzld/mindset-api/internal/service/player"
)

// testBookJSON is a minimal two-lesson book used across handler tests.
// Exercise 0 of each lesson is multiple-choice with option 0 correct.
const testBookJSON = `{
	"id": "mindset",
	"title": "Mindset",
	"author": "Carol Dweck",
	"premium": false,
	"chapters": [
		{
			"title": "The Mindsets",
			"lessons": [
				{
					"title": "Two Mindsets",
					"exercises": [
						{
							"type": "multiple-choice",
							"question": "Which mindset sees ability as developable?",
							"options": ["growth", "fixed"],
							"correct": 0,
							"explanation": "Growth mindset treats ability as trainable."
						},
						{
							"type": "multiple-choice",
							"question": "Second question",
							"options": ["a", "b"],
							"correct": 0
						}
					]
				},
				{
					"title": "Inside the Mindsets",
					"exercises": [
						{
							"type": "multiple-choice",
							"question": "Third question",
							"options": ["a", "b"],
							"correct": 0
						}
					]
				}
			]
		}
	]
}`

func testLibrary(t *testing.T) *content.Library {
	t.Helper()
	lib, err := content.Load(fstest.MapFS{
		"mindset.json": &fstest.MapFile{Data: []byte(testBookJSON)},
	})
	require.NoError(t, err)
	return lib
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// playerEnv bundles a session manager with its backing mocks.
type playerEnv struct {
	remote  *mocks.MockProfileStore
	cache   *mocks.MockProfileCache
	manager *player.Manager
}

func newPlayerEnv(t *testing.T) *playerEnv {
	t.Helper()

	remote := mocks.NewMockProfileStore()
	cache := mocks.NewMockProfileCache()

	calc, err := progression.NewCalculator(progression.DefaultParams())
	require.NoError(t, err)

	emitter := events.NewInMemoryEventEmitter(discardLogger())

	manager, err := player.NewManager(
		remote,
		cache,
		calc,
		emitter,
		10*time.Millisecond,
		0,
		discardLogger(),
	)
	require.NoError(t, err)
	t.Cleanup(manager.CloseAll)

	return &playerEnv{
		remote:  remote,
		cache:   cache,
		manager: manager,
	}
}

// authedRequest builds a request carrying the given user ID in its context,
// as the authentication middleware would.
func authedRequest(t *testing.T, method, target string, body interface{}, userID uuid.UUID) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
	return req.WithContext(ctx)
}

// decodeBody unmarshals the recorded response body into v.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func intPtr(v int) *int { return &v }
