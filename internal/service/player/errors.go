package player

import "errors"

var (
	// ErrSessionNotReady is returned when a mutation or read is attempted
	// before the coordinator has loaded its profile.
	ErrSessionNotReady = errors.New("player session not ready")

	// ErrSessionClosed is returned when an operation is attempted on a
	// coordinator that has already been closed.
	ErrSessionClosed = errors.New("player session closed")
)
