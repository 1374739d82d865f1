package game

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("room not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrStoreUnavailable   = errors.New("store unavailable, try again")
	ErrInvalidInput       = errors.New("invalid input")
)

// errUnchanged aborts a room update without writing; the operation reports success.
var errUnchanged = errors.New("room unchanged")

// GuardError is returned when a transition guard rejects an operation.
type GuardError struct {
	Reason string
}

func (e *GuardError) Error() string {
	return "precondition failed: " + e.Reason
}

func (e *GuardError) Is(target error) bool {
	return target == ErrPreconditionFailed
}

func guard(format string, args ...any) error {
	return &GuardError{Reason: fmt.Sprintf(format, args...)}
}

func notFound(roomID string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, roomID)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// storeError maps store failures onto ErrStoreUnavailable and passes the
// engine's own error kinds through.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrPreconditionFailed),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
