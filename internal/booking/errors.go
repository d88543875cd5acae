// Package booking implements the slot/position reservation engine: age
// eligibility, availability projections, the interactive kart assignment
// cursor, administrative blocking and the reservation workflows.  All state
// lives behind the Store interfaces; the engine itself keeps nothing.
package booking

import (
	"errors"
	"strings"
)

// ErrConflict is returned when another actor took a requested position or
// turn between the availability snapshot and the commit.  The operation is
// safe to retry after re-resolving availability.
var ErrConflict = errors.New("position no longer available")

// ErrTurnBlocked is returned when a commit targets an administratively
// blocked turn.  Handlers map it to 409 like ErrConflict.
var ErrTurnBlocked = errors.New("turn is blocked")

// ErrReservationNotFound is returned when a reservation id references
// nothing.  Terminal; handlers map it to 404.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrTurnNotFound is returned when a turn id does not belong to the
// reservation being edited.
var ErrTurnNotFound = errors.New("turn not found")

// ValidationError carries every problem found in a submission.  The whole
// submission is rejected; nothing is partially accepted.  Never retried
// automatically.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// validation builds a ValidationError from the given problems, or nil when
// there are none.
func validation(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
