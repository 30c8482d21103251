package admission

import (
	"errors"
	"fmt"
)

var (
	ErrVenueNotFound = errors.New("venue not found")
	ErrVenueInactive = errors.New("venue is not accepting bookings")

	// ErrSlotUnavailable is the admission race loser's answer: the slot was
	// taken between the availability read and the insert (or was never
	// free). The caller should re-query availability; the request is never
	// silently retried or moved to another slot.
	ErrSlotUnavailable = errors.New("slot no longer available, re-query availability")

	ErrRateLimited = errors.New("too many booking attempts")
)

// ValidationError reports malformed or out-of-range input. Surfaced to the
// caller immediately, never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
