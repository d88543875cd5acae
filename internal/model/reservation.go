package model

import "time"

// Reservation statuses.  A cancelled reservation keeps its row; only its
// positions are released back to free.
const (
	ReservationPending   = "PENDING"
	ReservationConfirmed = "CONFIRMED"
	ReservationCancelled = "CANCELLED"
)

// ReservationTurn is one committed turn of a reservation: where the party
// races and which kart each pilot holds.
type ReservationTurn struct {
	TurnID     uint64         `json:"turn_id"`
	Date       string         `json:"date"`
	Schedule   string         `json:"schedule"`
	TurnNumber int            `json:"turn_number"`
	Positions  map[int]uint64 `json:"positions"` // kart number -> pilot id
}

// Reservation groups a party of pilots with one or more committed turns.
// Invariant: every turn seats the whole party, one kart per pilot.
//
// Fields:
//  ID         – reservations.id.
//  Group      – age band the party races under.
//  Status     – PENDING, CONFIRMED or CANCELLED.
//  Pilots     – the party, in submission order.
//  Turns      – committed turns, reconstructed from position rows.
//  PaymentRef – external payment reference, if any (payment itself is
//               handled by a separate collaborator).
//  CreatedAt  – creation timestamp.
type Reservation struct {
	ID         uint64            `json:"id"`
	Group      Group             `json:"group"`
	Status     string            `json:"status"`
	Pilots     []Pilot           `json:"pilots"`
	Turns      []ReservationTurn `json:"turns"`
	PaymentRef *string           `json:"payment_ref,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Pilot returns the party member with the given id, if present.
func (r *Reservation) Pilot(id uint64) (Pilot, bool) {
	for _, p := range r.Pilots {
		if p.ID == id {
			return p, true
		}
	}
	return Pilot{}, false
}
