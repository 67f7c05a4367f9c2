// Package events defines the discrete progress events the engine emits and
// the emitter used to deliver them. The engine never triggers presentation
// side effects itself; it publishes events and the presentation layer decides
// timing and rendering.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Progress event types emitted by the player coordinator.
const (
	// TypeLevelUp is emitted when a mutation raises the derived level.
	TypeLevelUp = "level_up"

	// TypeAchievementEarned is emitted when a newly satisfied achievement
	// is awarded. At most one is awarded per mutation.
	TypeAchievementEarned = "achievement_earned"

	// TypeReviewQueueEmptied is emitted when a resolved review empties the
	// queue, the terminal success state of a review session.
	TypeReviewQueueEmptied = "review_queue_emptied"

	// TypeStreakExtended is emitted when a day-boundary load extends the
	// login streak.
	TypeStreakExtended = "streak_extended"
)

// ProgressEvent represents one discrete progression milestone. The payload is
// type-specific JSON so handlers without knowledge of every milestone shape
// can still route and log events.
type ProgressEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// UserID identifies whose profile produced the event
	UserID uuid.UUID `json:"user_id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// OccurredAt is the timestamp when the event was created
	OccurredAt time.Time `json:"occurred_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *ProgressEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewProgressEvent creates a new ProgressEvent with the specified type and payload.
func NewProgressEvent(userID uuid.UUID, eventType string, payload interface{}) (*ProgressEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &ProgressEvent{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       eventType,
		Payload:    payloadBytes,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// LevelUpPayload is the payload for TypeLevelUp events.
type LevelUpPayload struct {
	PreviousLevel int `json:"previous_level"`
	NewLevel      int `json:"new_level"`
}

// AchievementPayload is the payload for TypeAchievementEarned events.
type AchievementPayload struct {
	AchievementID string `json:"achievement_id"`
	Title         string `json:"title"`
	Icon          string `json:"icon"`
}

// StreakPayload is the payload for TypeStreakExtended events.
type StreakPayload struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *ProgressEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the engine to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *ProgressEvent) error
}
