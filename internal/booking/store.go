package booking

import (
	"context"

	"github.com/gokartmania/turn-reservation/internal/model"
)

// Store is the turn-state boundary the engine reads and writes through.
// Reads are snapshots: a missing turn is entirely free (lazy
// materialization) and results are only guaranteed consistent with the
// instant they ran.  CommitAssignment is the single mutation path for
// occupancy and must be atomic per turn: the still-free check and the write
// happen as one unit, serialized against concurrent commits on the same
// (date, schedule, turn_number).
type Store interface {
	// Turn returns the turn at key.  A turn with no stored state comes
	// back with an empty position map, Blocked false and version zero.
	Turn(ctx context.Context, key model.TurnKey) (model.Turn, error)

	// TurnsByDate returns every materialized turn of the date, blocked
	// flags included.  Turns absent from the result are all-free.
	TurnsByDate(ctx context.Context, date string) ([]model.Turn, error)

	// TurnsInRange returns materialized turns for every date in
	// [start, end], keyed by date.  Dates with no entry are all-free.
	TurnsInRange(ctx context.Context, start, end string) (map[string][]model.Turn, error)

	// CommitAssignment writes positions (kart number -> pilot id) for the
	// reservation onto the turn.  It fails with ErrTurnBlocked when the
	// turn is blocked and with ErrConflict when any requested position is
	// held by a different reservation; positions already held by the same
	// reservation count as free so a party can edit its own turn.  On
	// success prior positions of the reservation on this turn are
	// replaced, the turn version is bumped and the committed turn is
	// returned.  Partial writes are forbidden.
	CommitAssignment(ctx context.Context, key model.TurnKey, positions map[int]uint64, reservationID uint64) (model.Turn, error)

	// ReleaseTurn frees every position the reservation holds on the given
	// turn id.
	ReleaseTurn(ctx context.Context, reservationID, turnID uint64) error

	// ReleaseByDate frees every position the reservation holds on the
	// given date and reports how many karts were released.
	ReleaseByDate(ctx context.Context, reservationID uint64, date string) (int, error)

	// SetBlocked applies or removes the administrative block on each key.
	// Blocking is idempotent and never touches occupancy.
	SetBlocked(ctx context.Context, keys []model.TurnKey, blocked bool) error

	// BlockedTurns lists the blocked turn keys of a date.
	BlockedTurns(ctx context.Context, date string) ([]model.TurnKey, error)
}

// ReservationStore persists reservations and their pilots.  Turn occupancy
// is not stored here; it is reconstructed from the turn state when a
// reservation is loaded.
type ReservationStore interface {
	// CreateReservation inserts the reservation and its party, filling in
	// the generated ids.
	CreateReservation(ctx context.Context, res *model.Reservation) error

	// Reservation loads a reservation with its pilots and committed
	// turns.  Returns ErrReservationNotFound for unknown ids.
	Reservation(ctx context.Context, id uint64) (*model.Reservation, error)

	// UpdateStatus moves the reservation between PENDING, CONFIRMED and
	// CANCELLED.
	UpdateStatus(ctx context.Context, id uint64, status string) error
}
