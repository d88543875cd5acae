package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/gokartmania/turn-reservation/internal/model"
)

// Blocking applies administrative blocks over the turn-state store.  A
// block forces a turn unavailable for new bookings without touching its
// occupancy: the staff action must never evict a paying party.
type Blocking struct {
	store Store
}

// NewBlocking builds a Blocking manager over the given store.
func NewBlocking(store Store) *Blocking {
	return &Blocking{store: store}
}

// SetBlocked blocks or unblocks the full cross-product of the given dates,
// schedules and turn numbers.  Empty schedule or turn lists expand to the
// whole day ("all day" convenience).  It returns how many turn keys were
// written.
func (b *Blocking) SetBlocked(ctx context.Context, dates []string, schedules []string, turnNumbers []int, blocked bool) (int, error) {
	var problems []string
	if len(dates) == 0 {
		problems = append(problems, "at least one date is required")
	}
	for _, d := range dates {
		if _, err := time.Parse(model.DateFormat, d); err != nil {
			problems = append(problems, fmt.Sprintf("invalid date %q", d))
		}
	}
	if len(schedules) == 0 {
		schedules = model.ScheduleHours
	}
	for _, s := range schedules {
		if !model.ValidSchedule(s) {
			problems = append(problems, fmt.Sprintf("unknown schedule %q", s))
		}
	}
	if len(turnNumbers) == 0 {
		turnNumbers = model.TurnNumbers
	}
	for _, n := range turnNumbers {
		if !model.ValidTurnNumber(n) {
			problems = append(problems, fmt.Sprintf("unknown turn number %d", n))
		}
	}
	if err := validation(problems); err != nil {
		return 0, err
	}

	keys := make([]model.TurnKey, 0, len(dates)*len(schedules)*len(turnNumbers))
	for _, d := range dates {
		for _, s := range schedules {
			for _, n := range turnNumbers {
				keys = append(keys, model.TurnKey{Date: d, Schedule: s, TurnNumber: n})
			}
		}
	}
	if err := b.store.SetBlocked(ctx, keys, blocked); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// BlockedTurns lists the blocked turn keys of a date for the admin
// calendar.
func (b *Blocking) BlockedTurns(ctx context.Context, date string) ([]model.TurnKey, error) {
	if _, err := time.Parse(model.DateFormat, date); err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("invalid date %q", date)}}
	}
	return b.store.BlockedTurns(ctx, date)
}
