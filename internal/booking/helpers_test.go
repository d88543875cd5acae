package booking

import (
	"context"
	"testing"
	"time"

	"github.com/gokartmania/turn-reservation/internal/model"
)

// testNow is the fixed clock every engine test runs under.
var testNow = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// born returns a birth date a clean number of whole years before testNow,
// with a few days of slack so the floor(days/365) age lands exactly on
// years.
func born(years int) time.Time {
	return testNow.AddDate(0, 0, -(years*365 + 10))
}

func driver(nick string, years int) model.Pilot {
	return model.Pilot{Name: nick, Nickname: nick, BirthDate: born(years), Licensed: true}
}

func adultParty(nicks ...string) []model.Pilot {
	pilots := make([]model.Pilot, 0, len(nicks))
	for _, n := range nicks {
		pilots = append(pilots, driver(n, 30))
	}
	return pilots
}

func mustCreate(t *testing.T, w *Workflow, pilots []model.Pilot, reqs ...CreateTurnRequest) *model.Reservation {
	t.Helper()
	res, err := w.Create(context.Background(), model.GroupAdults, pilots, reqs)
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	return res
}
