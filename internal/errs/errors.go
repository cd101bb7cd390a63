package errs

import (
	"errors"
	"fmt"
)

// Common sentinel errors for cross-layer signaling.
var (
	// ErrNotFound is returned by every lookup whose identifier does not resolve.
	ErrNotFound = errors.New("not_found")
	// ErrInvalid marks a rejected argument; always raised before any I/O.
	ErrInvalid = errors.New("invalid")
	ErrConflict = errors.New("conflict")
	// ErrUpstream tags failures coming from a store or the event sink.
	ErrUpstream = errors.New("upstream")
)

// Invalid returns an ErrInvalid carrying a human readable reason.
func Invalid(reason string) error { return fmt.Errorf("%w: %s", ErrInvalid, reason) }

// NotFound returns an ErrNotFound naming the missing thing.
func NotFound(what string) error { return fmt.Errorf("%s: %w", what, ErrNotFound) }

// Upstream wraps a collaborator failure with operation context. Sentinel errors
// produced by our own layers pass through untouched so callers can still match them.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalid) || errors.Is(err, ErrConflict) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}
