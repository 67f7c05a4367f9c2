package coach

import "errors"

// Common errors returned by the coach package
var (
	// ErrChatFailed is returned when the chat relay fails for any general reason
	ErrChatFailed = errors.New("failed to relay chat message")

	// ErrEmptyMessage is returned when the user message is empty
	ErrEmptyMessage = errors.New("chat message cannot be empty")

	// ErrInvalidResponse is returned when the LLM response is empty or malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during chat relay")

	// ErrInvalidConfig is returned when the relay configuration is invalid
	ErrInvalidConfig = errors.New("invalid coach relay configuration")

	// ErrNoTokens is returned when the player has no tokens left to spend
	// on a chat turn.
	ErrNoTokens = errors.New("no coach tokens remaining")
)
