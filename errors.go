package physics

import (
	"errors"
	"fmt"
)

// Sentinel errors callers can match with errors.Is. Every API-boundary
// failure wraps exactly one of these; internal solver/TOI code never
// returns an error (see TimeOfImpact's State, which plays that role for
// iteration-bounded loops that are expected to run out of budget).
var (
	// ErrInvalidArgument marks a bad input at the API boundary: a vertex
	// radius out of [WorldConf.MinVertexRadius, MaxVertexRadius], a
	// degenerate polygon, a nil body/shape id used where one is required.
	ErrInvalidArgument = errors.New("physics: invalid argument")

	// ErrOutOfRange marks dereferencing an id an arena doesn't recognize,
	// or an index a tree doesn't have.
	ErrOutOfRange = errors.New("physics: out of range")

	// ErrLengthExceeded marks an Add that would exceed the configured
	// per-kind capacity (MaxBodies, MaxJoints, MaxContacts, MaxShapes).
	ErrLengthExceeded = errors.New("physics: length exceeded")

	// ErrWrongState marks a mutating call attempted while the World is
	// mid-Step.
	ErrWrongState = errors.New("physics: wrong state")
)

// apiError wraps a sentinel with a short diagnostic, matching §7's "typed
// error value carrying a short diagnostic string".
type apiError struct {
	sentinel error
	detail   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.sentinel, e.detail)
}

func (e *apiError) Unwrap() error {
	return e.sentinel
}

func invalidArgument(format string, args ...any) error {
	return &apiError{sentinel: ErrInvalidArgument, detail: fmt.Sprintf(format, args...)}
}

func outOfRange(format string, args ...any) error {
	return &apiError{sentinel: ErrOutOfRange, detail: fmt.Sprintf(format, args...)}
}

func lengthExceeded(format string, args ...any) error {
	return &apiError{sentinel: ErrLengthExceeded, detail: fmt.Sprintf(format, args...)}
}

func wrongState(format string, args ...any) error {
	return &apiError{sentinel: ErrWrongState, detail: fmt.Sprintf(format, args...)}
}
