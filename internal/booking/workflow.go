package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gokartmania/turn-reservation/internal/model"
)

// TurnRequest asks for one turn with an explicit kart assignment.  For
// requests against an existing reservation the positions map kart number to
// persisted pilot id.
type TurnRequest struct {
	Date       string         `json:"date"`
	Schedule   string         `json:"schedule"`
	TurnNumber int            `json:"turn_number"`
	Positions  map[int]uint64 `json:"positions"`
}

// Key returns the turn the request targets.
func (r TurnRequest) Key() model.TurnKey {
	return model.TurnKey{Date: r.Date, Schedule: r.Schedule, TurnNumber: r.TurnNumber}
}

// CreateTurnRequest is the create-time variant of TurnRequest: pilots have
// no ids yet, so positions map kart number to the pilot's index in the
// submitted party (0-based).
type CreateTurnRequest struct {
	Date       string      `json:"date"`
	Schedule   string      `json:"schedule"`
	TurnNumber int         `json:"turn_number"`
	Positions  map[int]int `json:"positions"`
}

// Workflow orchestrates reservation writes.  Every multi-step operation is
// all-or-nothing: a failed commit rolls the whole submission back so
// callers can retry idempotently after re-resolving availability.
type Workflow struct {
	store        Store
	reservations ReservationStore
	now          func() time.Time
}

// NewWorkflow builds a Workflow.  now may be nil; tests inject a fixed
// clock.
func NewWorkflow(store Store, reservations ReservationStore, now func() time.Time) *Workflow {
	if now == nil {
		now = time.Now
	}
	return &Workflow{store: store, reservations: reservations, now: now}
}

// validateKey checks date, schedule and turn number against the fixed grid
// and rejects dates already in the past.
func (w *Workflow) validateKey(key model.TurnKey) []string {
	var problems []string
	d, err := time.Parse(model.DateFormat, key.Date)
	if err != nil {
		problems = append(problems, fmt.Sprintf("invalid date %q", key.Date))
	} else if today, _ := time.Parse(model.DateFormat, w.now().UTC().Format(model.DateFormat)); d.Before(today) {
		problems = append(problems, fmt.Sprintf("date %s is in the past", key.Date))
	}
	if !model.ValidSchedule(key.Schedule) {
		problems = append(problems, fmt.Sprintf("unknown schedule %q", key.Schedule))
	}
	if !model.ValidTurnNumber(key.TurnNumber) {
		problems = append(problems, fmt.Sprintf("unknown turn number %d", key.TurnNumber))
	}
	return problems
}

// validateAssignment checks the position map seats the whole party exactly
// once on real karts.  seen maps pilot reference -> already used.
func validateAssignment(positions map[int]uint64, partySize int, known func(uint64) bool) []string {
	var problems []string
	if len(positions) != partySize {
		problems = append(problems, fmt.Sprintf("%d positions for a party of %d", len(positions), partySize))
	}
	seen := make(map[uint64]bool, len(positions))
	for pos, pilot := range positions {
		if !model.ValidPosition(pos) {
			problems = append(problems, fmt.Sprintf("invalid position %d", pos))
		}
		if !known(pilot) {
			problems = append(problems, fmt.Sprintf("unknown pilot %d on position %d", pilot, pos))
			continue
		}
		if seen[pilot] {
			problems = append(problems, fmt.Sprintf("pilot %d assigned twice", pilot))
		}
		seen[pilot] = true
	}
	return problems
}

// Create validates a new party, persists it and commits every requested
// turn.  If any pilot fails the age check the whole submission is rejected
// with an aggregate ValidationError.  If any commit loses its race the
// already-committed turns are released, the reservation is cancelled and
// the conflict is returned: no partial reservation survives.
func (w *Workflow) Create(ctx context.Context, group model.Group, pilots []model.Pilot, reqs []CreateTurnRequest) (*model.Reservation, error) {
	if err := ValidateParty(group, pilots, w.now().UTC()); err != nil {
		return nil, err
	}
	var problems []string
	if len(pilots) == 0 {
		problems = append(problems, "at least one pilot is required")
	}
	if len(reqs) == 0 {
		problems = append(problems, "at least one turn is required")
	}
	for i, req := range reqs {
		for _, p := range w.validateKey(model.TurnKey{Date: req.Date, Schedule: req.Schedule, TurnNumber: req.TurnNumber}) {
			problems = append(problems, fmt.Sprintf("turn %d: %s", i+1, p))
		}
		if len(req.Positions) != len(pilots) {
			problems = append(problems, fmt.Sprintf("turn %d: %d positions for a party of %d", i+1, len(req.Positions), len(pilots)))
		}
		seen := make(map[int]bool, len(req.Positions))
		for pos, idx := range req.Positions {
			if !model.ValidPosition(pos) {
				problems = append(problems, fmt.Sprintf("turn %d: invalid position %d", i+1, pos))
			}
			if idx < 0 || idx >= len(pilots) {
				problems = append(problems, fmt.Sprintf("turn %d: unknown pilot index %d", i+1, idx))
				continue
			}
			if seen[idx] {
				problems = append(problems, fmt.Sprintf("turn %d: pilot index %d assigned twice", i+1, idx))
			}
			seen[idx] = true
		}
	}
	if err := validation(problems); err != nil {
		return nil, err
	}

	res := &model.Reservation{Group: group, Status: model.ReservationPending, Pilots: pilots}
	if err := w.reservations.CreateReservation(ctx, res); err != nil {
		return nil, err
	}

	committed := make([]uint64, 0, len(reqs))
	for _, req := range reqs {
		positions := make(map[int]uint64, len(req.Positions))
		for pos, idx := range req.Positions {
			positions[pos] = res.Pilots[idx].ID
		}
		turn, err := w.store.CommitAssignment(ctx, model.TurnKey{Date: req.Date, Schedule: req.Schedule, TurnNumber: req.TurnNumber}, positions, res.ID)
		if err != nil {
			w.rollback(ctx, res.ID, committed)
			return nil, err
		}
		committed = append(committed, turn.ID)
	}
	if err := w.reservations.UpdateStatus(ctx, res.ID, model.ReservationConfirmed); err != nil {
		w.rollback(ctx, res.ID, committed)
		return nil, err
	}
	return w.reservations.Reservation(ctx, res.ID)
}

// rollback releases every turn committed so far and cancels the
// reservation.  Release errors are swallowed: the reservation is already
// failing and positions left behind are reclaimed when the cancelled
// reservation is cleaned up.
func (w *Workflow) rollback(ctx context.Context, reservationID uint64, turnIDs []uint64) {
	for _, id := range turnIDs {
		_ = w.store.ReleaseTurn(ctx, reservationID, id)
	}
	_ = w.reservations.UpdateStatus(ctx, reservationID, model.ReservationCancelled)
}

// Reservation loads a reservation with its party and committed turns.
func (w *Workflow) Reservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	return w.reservations.Reservation(ctx, id)
}

// loadActive fetches a reservation that can still be mutated.
func (w *Workflow) loadActive(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := w.reservations.Reservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status == model.ReservationCancelled {
		return nil, ErrReservationNotFound
	}
	return res, nil
}

// AddTurn commits one more turn for an existing reservation.  The whole
// party is seated or the request fails.
func (w *Workflow) AddTurn(ctx context.Context, reservationID uint64, req TurnRequest) (*model.Reservation, error) {
	res, err := w.loadActive(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	problems := w.validateKey(req.Key())
	problems = append(problems, validateAssignment(req.Positions, len(res.Pilots), func(id uint64) bool {
		_, ok := res.Pilot(id)
		return ok
	})...)
	if err := validation(problems); err != nil {
		return nil, err
	}
	if _, err := w.store.CommitAssignment(ctx, req.Key(), req.Positions, res.ID); err != nil {
		return nil, err
	}
	return w.reservations.Reservation(ctx, res.ID)
}

// EditTurn moves one committed turn of a reservation to a new date,
// schedule, turn number or kart layout.  Positions the reservation already
// holds count as free during the conflict check, so editing your own turn
// never conflicts with yourself.  The new turn is committed before the old
// one is released; a conflict leaves the old booking untouched.
func (w *Workflow) EditTurn(ctx context.Context, reservationID, turnID uint64, req TurnRequest) (*model.Reservation, error) {
	res, err := w.loadActive(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	var current *model.ReservationTurn
	for i := range res.Turns {
		if res.Turns[i].TurnID == turnID {
			current = &res.Turns[i]
			break
		}
	}
	if current == nil {
		return nil, ErrTurnNotFound
	}
	problems := w.validateKey(req.Key())
	problems = append(problems, validateAssignment(req.Positions, len(res.Pilots), func(id uint64) bool {
		_, ok := res.Pilot(id)
		return ok
	})...)
	if err := validation(problems); err != nil {
		return nil, err
	}

	turn, err := w.store.CommitAssignment(ctx, req.Key(), req.Positions, res.ID)
	if err != nil {
		return nil, err
	}
	if turn.ID != turnID {
		if err := w.store.ReleaseTurn(ctx, res.ID, turnID); err != nil {
			return nil, err
		}
	}
	return w.reservations.Reservation(ctx, res.ID)
}

// CancelTurns releases every position the reservation holds on the given
// date and reports how many karts were freed.  When nothing remains booked
// the reservation flips to CANCELLED; the row itself is never deleted.
func (w *Workflow) CancelTurns(ctx context.Context, reservationID uint64, date string) (int, error) {
	res, err := w.loadActive(ctx, reservationID)
	if err != nil {
		return 0, err
	}
	if _, err := time.Parse(model.DateFormat, date); err != nil {
		return 0, &ValidationError{Problems: []string{fmt.Sprintf("invalid date %q", date)}}
	}
	released, err := w.store.ReleaseByDate(ctx, res.ID, date)
	if err != nil {
		return 0, err
	}
	refreshed, err := w.reservations.Reservation(ctx, res.ID)
	if err != nil {
		return released, err
	}
	if len(refreshed.Turns) == 0 {
		if err := w.reservations.UpdateStatus(ctx, res.ID, model.ReservationCancelled); err != nil && !errors.Is(err, ErrReservationNotFound) {
			return released, err
		}
	}
	return released, nil
}
