package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/gokartmania/turn-reservation/internal/model"
)

func TestOpenPositions(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	r := NewResolver(ms, fixedNow)
	w := NewWorkflow(ms, ms, fixedNow)
	key := model.TurnKey{Date: "2024-06-10", Schedule: "14", TurnNumber: 2}

	t.Run("unmaterialized turn is entirely free", func(t *testing.T) {
		positions, err := r.OpenPositions(ctx, key)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(positions) != model.PositionCount {
			t.Fatalf("got %d slots, want %d", len(positions), model.PositionCount)
		}
		for _, p := range positions {
			if p.Status != 1 || p.Pilot != "" {
				t.Fatalf("fresh slot not free: %+v", p)
			}
		}
	})

	t.Run("committed positions are reported occupied with nicknames", func(t *testing.T) {
		mustCreate(t, w, adultParty("ana", "beto"), CreateTurnRequest{
			Date: key.Date, Schedule: key.Schedule, TurnNumber: key.TurnNumber,
			Positions: map[int]int{3: 0, 5: 1},
		})
		positions, err := r.OpenPositions(ctx, key)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		byKart := make(map[int]model.Position, len(positions))
		for _, p := range positions {
			byKart[p.Position] = p
		}
		if byKart[3].Status != 0 || byKart[3].Pilot != "ana" {
			t.Errorf("position 3 = %+v, want occupied by ana", byKart[3])
		}
		if byKart[5].Status != 0 || byKart[5].Pilot != "beto" {
			t.Errorf("position 5 = %+v, want occupied by beto", byKart[5])
		}
		free := 0
		for _, p := range positions {
			if p.Status == 1 {
				free++
			}
		}
		if free != model.PositionCount-2 {
			t.Errorf("got %d free slots, want %d", free, model.PositionCount-2)
		}
	})

	t.Run("unknown schedule or turn is rejected", func(t *testing.T) {
		var verr *ValidationError
		_, err := r.OpenPositions(ctx, model.TurnKey{Date: key.Date, Schedule: "23", TurnNumber: 1})
		if !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
		_, err = r.OpenPositions(ctx, model.TurnKey{Date: key.Date, Schedule: "14", TurnNumber: 6})
		if !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
	})
}

func TestOpenTurns(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	r := NewResolver(ms, fixedNow)
	w := NewWorkflow(ms, ms, fixedNow)

	t.Run("all turns open on an untouched schedule", func(t *testing.T) {
		open, err := r.OpenTurns(ctx, "2024-06-01", "11")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(open) != len(model.TurnNumbers) {
			t.Fatalf("open = %v, want all of %v", open, model.TurnNumbers)
		}
	})

	t.Run("blocked turns are excluded", func(t *testing.T) {
		b := NewBlocking(ms)
		if _, err := b.SetBlocked(ctx, []string{"2024-06-01"}, []string{"11"}, []int{1, 2}, true); err != nil {
			t.Fatalf("block: %v", err)
		}
		open, err := r.OpenTurns(ctx, "2024-06-01", "11")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []int{3, 4, 5}
		if len(open) != len(want) {
			t.Fatalf("open = %v, want %v", open, want)
		}
		for i, n := range want {
			if open[i] != n {
				t.Fatalf("open = %v, want %v", open, want)
			}
		}
	})

	t.Run("full turns are excluded, partial turns stay open", func(t *testing.T) {
		full := make(map[int]int, model.PositionCount)
		nicks := make([]string, 0, model.PositionCount)
		for i := 0; i < model.PositionCount; i++ {
			full[i+1] = i
			nicks = append(nicks, string(rune('a'+i)))
		}
		mustCreate(t, w, adultParty(nicks...), CreateTurnRequest{
			Date: "2024-06-01", Schedule: "12", TurnNumber: 1, Positions: full,
		})
		mustCreate(t, w, adultParty("solo"), CreateTurnRequest{
			Date: "2024-06-01", Schedule: "12", TurnNumber: 2, Positions: map[int]int{4: 0},
		})
		open, err := r.OpenTurns(ctx, "2024-06-01", "12")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(open) != 4 || open[0] != 2 {
			t.Fatalf("open = %v, want [2 3 4 5]", open)
		}
	})

	t.Run("unknown schedule is rejected", func(t *testing.T) {
		var verr *ValidationError
		if _, err := r.OpenTurns(ctx, "2024-06-01", "10"); !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
	})
}

func TestOpenSchedules(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	r := NewResolver(ms, fixedNow)
	b := NewBlocking(ms)

	if _, err := b.SetBlocked(ctx, []string{"2024-06-07"}, []string{"13"}, nil, true); err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := b.SetBlocked(ctx, []string{"2024-06-07"}, []string{"14"}, []int{5}, true); err != nil {
		t.Fatalf("block: %v", err)
	}

	schedules, err := r.OpenSchedules(ctx, "2024-06-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	byHour := make(map[string]model.ScheduleAvailability, len(schedules))
	for _, s := range schedules {
		byHour[s.Schedule] = s
	}

	t.Run("fully blocked hour is filtered out", func(t *testing.T) {
		if _, ok := byHour["13"]; ok {
			t.Fatal("schedule 13 listed despite every turn blocked")
		}
		if len(schedules) != len(model.ScheduleHours)-1 {
			t.Fatalf("got %d schedules, want %d", len(schedules), len(model.ScheduleHours)-1)
		}
	})

	t.Run("partially blocked hour keeps per-turn status", func(t *testing.T) {
		s, ok := byHour["14"]
		if !ok {
			t.Fatal("schedule 14 missing")
		}
		if len(s.Turns) != len(model.TurnNumbers) {
			t.Fatalf("got %d turns, want %d", len(s.Turns), len(model.TurnNumbers))
		}
		for _, turn := range s.Turns {
			wantStatus := 1
			if turn.Turn == 5 {
				wantStatus = 0
			}
			if turn.Status != wantStatus {
				t.Errorf("turn %d status = %d, want %d", turn.Turn, turn.Status, wantStatus)
			}
			if len(turn.Positions) != model.PositionCount {
				t.Errorf("turn %d has %d position slots", turn.Turn, len(turn.Positions))
			}
		}
	})

	t.Run("invalid date is rejected", func(t *testing.T) {
		var verr *ValidationError
		if _, err := r.OpenSchedules(ctx, "junio 7"); !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
	})
}

func TestDateAvailability(t *testing.T) {
	ctx := context.Background()
	ms := newMemStore()
	r := NewResolver(ms, fixedNow)
	b := NewBlocking(ms)

	// 2024-06-03: every turn gone.  2024-06-04: 28 of 55 gone, just past
	// half.  2024-06-05: 27 gone, still within half.
	if _, err := b.SetBlocked(ctx, []string{"2024-06-03"}, nil, nil, true); err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := b.SetBlocked(ctx, []string{"2024-06-04"}, []string{"11", "12", "13", "14", "15"}, nil, true); err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := b.SetBlocked(ctx, []string{"2024-06-04"}, []string{"16"}, []int{1, 2, 3}, true); err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := b.SetBlocked(ctx, []string{"2024-06-05"}, []string{"11", "12", "13", "14", "15"}, nil, true); err != nil {
		t.Fatalf("block: %v", err)
	}
	if _, err := b.SetBlocked(ctx, []string{"2024-06-05"}, []string{"16"}, []int{1, 2}, true); err != nil {
		t.Fatalf("block: %v", err)
	}

	t.Run("tiers follow the gone-turn count", func(t *testing.T) {
		days, err := r.DateAvailability(ctx, "2024-06-02", "2024-06-05")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := map[string]model.Tier{
			"2024-06-02": model.TierFull,
			"2024-06-03": model.TierNone,
			"2024-06-04": model.TierHalf,
			"2024-06-05": model.TierFull,
		}
		if len(days) != len(want) {
			t.Fatalf("got %d days, want %d", len(days), len(want))
		}
		for _, d := range days {
			if d.Tier != want[d.Date] {
				t.Errorf("%s tier = %d, want %d", d.Date, d.Tier, want[d.Date])
			}
		}
	})

	t.Run("past dates are clamped to today", func(t *testing.T) {
		days, err := r.DateAvailability(ctx, "2024-05-28", "2024-06-02")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(days) != 2 || days[0].Date != "2024-06-01" {
			t.Fatalf("days = %+v, want 2024-06-01 and 2024-06-02", days)
		}
	})

	t.Run("range entirely in the past is empty", func(t *testing.T) {
		days, err := r.DateAvailability(ctx, "2024-05-01", "2024-05-15")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(days) != 0 {
			t.Fatalf("days = %+v, want empty", days)
		}
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		var verr *ValidationError
		if _, err := r.DateAvailability(ctx, "2024-06-10", "2024-06-05"); !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
	})

	t.Run("malformed dates are rejected", func(t *testing.T) {
		var verr *ValidationError
		if _, err := r.DateAvailability(ctx, "06/01/2024", "2024-06-05"); !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
	})
}
