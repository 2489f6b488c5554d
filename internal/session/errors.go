package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInputRejected covers typing into a locked cell, checking an
	// empty slot and similar no-ops. The host ignores it silently.
	ErrInputRejected = errors.New("input rejected")

	// ErrDuplicateGuess is returned by the grouping game when the same
	// selection is submitted twice. No mistake is charged.
	ErrDuplicateGuess = errors.New("duplicate guess")

	// ErrNotRunning is returned for play actions on a terminal session.
	ErrNotRunning = errors.New("session is not running")

	// ErrNoHints is returned when the hint budget is exhausted.
	ErrNoHints = errors.New("no hints available")

	// ErrWrongVariant is returned when a grouping action is applied to a
	// letter session or vice versa.
	ErrWrongVariant = errors.New("action not supported by this variant")
)

// InvariantError indicates a programming error: a session observed a
// state its invariants forbid. The host halts the current session and
// reports the diagnostic payload.
type InvariantError struct {
	Op      string
	Detail  string
	Payload map[string]any
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("session invariant violated in %s: %s", e.Op, e.Detail)
}
