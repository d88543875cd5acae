package model

import "time"

// Block is an administrative record marking one turn unavailable regardless
// of occupancy.  Blocks and bookings are independent axes on the same turn:
// blocking a turn with existing occupants evicts nobody, it only stops new
// bookings, and unblocking never has to guess what occupancy looked like
// before.
type Block struct {
	ID        uint64    `json:"id"`
	Date      string    `json:"date"`
	Schedule  string    `json:"schedule"`
	Turn      int       `json:"turn"`
	CreatedAt time.Time `json:"-"`
}

// Key returns the turn the block applies to.
func (b Block) Key() TurnKey {
	return TurnKey{Date: b.Date, Schedule: b.Schedule, TurnNumber: b.Turn}
}
