package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/gokartmania/turn-reservation/internal/model"
)

// Resolver computes availability projections over the turn-state store.
// Every operation is a pure read of a snapshot; callers must re-validate at
// commit time (the ConflictError path) rather than trust a snapshot to stay
// true.  Nothing is cached between calls.
type Resolver struct {
	store Store
	now   func() time.Time
}

// NewResolver builds a Resolver over the given store.  now may be nil, in
// which case time.Now is used; tests inject a fixed clock.
func NewResolver(store Store, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{store: store, now: now}
}

// today returns the current UTC calendar day.
func (r *Resolver) today() string {
	return r.now().UTC().Format(model.DateFormat)
}

// indexTurns maps materialized turns by schedule and turn number so that
// missing entries read as all-free.
func indexTurns(turns []model.Turn) map[string]map[int]model.Turn {
	idx := make(map[string]map[int]model.Turn)
	for _, t := range turns {
		byNumber, ok := idx[t.Key.Schedule]
		if !ok {
			byNumber = make(map[int]model.Turn)
			idx[t.Key.Schedule] = byNumber
		}
		byNumber[t.Key.TurnNumber] = t
	}
	return idx
}

// tierOf aggregates a day's materialized turns into a capacity tier.  A
// turn counts as gone when it is full or blocked; lazily-missing turns are
// free.  The day is Full while at most half its turns are gone, Half after
// that, None once every turn is gone.
func tierOf(turns []model.Turn) model.Tier {
	gone := 0
	for _, t := range turns {
		if !t.Open() {
			gone++
		}
	}
	total := model.TurnsPerDay
	switch {
	case gone >= total:
		return model.TierNone
	case gone*2 <= total:
		return model.TierFull
	default:
		return model.TierHalf
	}
}

// DateAvailability returns the capacity tier for every date in
// [start, end].  Dates before today are never returned; a range entirely in
// the past yields an empty list.
func (r *Resolver) DateAvailability(ctx context.Context, start, end string) ([]model.DateAvailability, error) {
	from, err := time.Parse(model.DateFormat, start)
	if err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("invalid start date %q", start)}}
	}
	to, err := time.Parse(model.DateFormat, end)
	if err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("invalid end date %q", end)}}
	}
	if to.Before(from) {
		return nil, &ValidationError{Problems: []string{"end date before start date"}}
	}
	if today, _ := time.Parse(model.DateFormat, r.today()); from.Before(today) {
		from = today
	}
	if to.Before(from) {
		return []model.DateAvailability{}, nil
	}

	byDate, err := r.store.TurnsInRange(ctx, from.Format(model.DateFormat), to.Format(model.DateFormat))
	if err != nil {
		return nil, err
	}
	out := make([]model.DateAvailability, 0)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		date := d.Format(model.DateFormat)
		out = append(out, model.DateAvailability{Date: date, Tier: tierOf(byDate[date])})
	}
	return out, nil
}

// OpenSchedules returns every hour block of the date that can still take
// bookings, with the state of each turn and its positions.  Blocks whose
// turns are all full or blocked are filtered out entirely.
func (r *Resolver) OpenSchedules(ctx context.Context, date string) ([]model.ScheduleAvailability, error) {
	if _, err := time.Parse(model.DateFormat, date); err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("invalid date %q", date)}}
	}
	turns, err := r.store.TurnsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	idx := indexTurns(turns)

	out := make([]model.ScheduleAvailability, 0, len(model.ScheduleHours))
	for _, hour := range model.ScheduleHours {
		sched := model.ScheduleAvailability{Schedule: hour}
		anyOpen := false
		for _, n := range model.TurnNumbers {
			t := idx[hour][n]
			t.Key = model.TurnKey{Date: date, Schedule: hour, TurnNumber: n}
			summary := model.TurnSummary{Turn: n, Positions: t.PositionView()}
			if t.Open() {
				summary.Status = 1
				anyOpen = true
			}
			sched.Turns = append(sched.Turns, summary)
		}
		if anyOpen {
			out = append(out, sched)
		}
	}
	return out, nil
}

// OpenTurns returns the turn numbers of the schedule that are neither full
// nor blocked.
func (r *Resolver) OpenTurns(ctx context.Context, date, schedule string) ([]int, error) {
	if !model.ValidSchedule(schedule) {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("unknown schedule %q", schedule)}}
	}
	turns, err := r.store.TurnsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	idx := indexTurns(turns)

	open := make([]int, 0, len(model.TurnNumbers))
	for _, n := range model.TurnNumbers {
		if idx[schedule][n].Open() {
			open = append(open, n)
		}
	}
	return open, nil
}

// OpenPositions returns the fixed list of kart slots for one turn, each
// annotated free or occupied with the occupant's nickname.  A turn with no
// stored state comes back entirely free.
func (r *Resolver) OpenPositions(ctx context.Context, key model.TurnKey) ([]model.Position, error) {
	if !model.ValidSchedule(key.Schedule) || !model.ValidTurnNumber(key.TurnNumber) {
		return nil, &ValidationError{Problems: []string{"unknown schedule or turn number"}}
	}
	t, err := r.store.Turn(ctx, key)
	if err != nil {
		return nil, err
	}
	return t.PositionView(), nil
}
