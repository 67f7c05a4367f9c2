package coach

import "context"

// Message is a single prior turn of a coach conversation.
type Message struct {
	// Role is "user" or "model".
	Role string `json:"role"`

	// Content is the text of the turn.
	Content string `json:"content"`
}

// Relay defines the interface for relaying a chat turn to the AI coach.
// This interface serves as a boundary between the application core and
// external AI/LLM services, following the hexagonal architecture pattern.
type Relay interface {
	// Chat sends a user message, along with the coaching system prompt and
	// the prior conversation history, and returns the coach's reply text.
	//
	// Returns an error if the relay fails for any reason (see errors.go for
	// specific types).
	Chat(ctx context.Context, message string, history []Message) (string, error)
}
