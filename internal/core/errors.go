package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the session lifecycle. Handlers map these onto
// HTTP status codes with errors.Is.
var (
	// ErrNotFound is returned for operations on an unknown session id.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidRoster is returned when a session is started with a
	// malformed or empty participant configuration.
	ErrInvalidRoster = errors.New("invalid roster")

	// ErrSessionBusy is returned when a second orchestration operation
	// is attempted on a session that already has one in flight.
	ErrSessionBusy = errors.New("session has an operation in flight")
)

// GenerationError wraps a failed generation call. The in-progress round is
// aborted, but every message committed before the failure is preserved and
// a later continue/stream call resumes from the failed speaker.
type GenerationError struct {
	Speaker string
	Err     error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for %s: %v", e.Speaker, e.Err)
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Err
}
