package model

// TurnStatus is the derived state of a turn.  Occupancy and the
// administrative block flag are independent axes; Blocked wins whenever the
// flag is set, regardless of how many karts are taken.
type TurnStatus string

const (
	TurnFree    TurnStatus = "FREE"    // no kart taken
	TurnPartial TurnStatus = "PARTIAL" // some karts taken, some free
	TurnFull    TurnStatus = "FULL"    // every kart taken
	TurnBlocked TurnStatus = "BLOCKED" // administratively unavailable
)

// TurnKey identifies one bookable turn instance.  Date is an ISO calendar
// day (YYYY-MM-DD), Schedule one of ScheduleHours and TurnNumber one of
// TurnNumbers.
type TurnKey struct {
	Date       string `json:"date"`
	Schedule   string `json:"schedule"`
	TurnNumber int    `json:"turn_number"`
}

// Occupant records who holds a kart inside a turn.  The nickname is carried
// so edit flows can show who already sits where without another lookup.
type Occupant struct {
	PilotID       uint64 `json:"pilot_id"`
	ReservationID uint64 `json:"-"`
	Nickname      string `json:"nickname"`
}

// Turn is the unit of booking: up to PositionCount karts at a given
// date/schedule/turn-number.  Turns materialize lazily; a turn absent from
// the store is all-free with version zero.
//
// Fields:
//  ID        – turns.id, zero until the row exists.
//  Key       – date, schedule and turn number.
//  Positions – kart number -> occupant, at most PositionCount entries.
//  Blocked   – administrative block flag, independent of occupancy.
//  Version   – bumped on every committed write, used for conflict checks.
type Turn struct {
	ID        uint64           `json:"id,omitempty"`
	Key       TurnKey          `json:"key"`
	Positions map[int]Occupant `json:"positions,omitempty"`
	Blocked   bool             `json:"blocked"`
	Version   uint32           `json:"version"`
}

// Status derives the turn state from the block flag and occupancy.
func (t Turn) Status() TurnStatus {
	switch {
	case t.Blocked:
		return TurnBlocked
	case len(t.Positions) == 0:
		return TurnFree
	case len(t.Positions) >= PositionCount:
		return TurnFull
	default:
		return TurnPartial
	}
}

// Open reports whether new bookings may still land on the turn.
func (t Turn) Open() bool {
	s := t.Status()
	return s == TurnFree || s == TurnPartial
}

// Position is the wire representation of one kart slot.  Status follows the
// legacy convention: 1 means free, 0 means taken.
type Position struct {
	Position int    `json:"position"`
	Status   int    `json:"status"`
	Pilot    string `json:"pilot,omitempty"`
}

// PositionView expands a turn into its full fixed list of PositionCount
// slots, each annotated free/occupied with the occupant's nickname.
func (t Turn) PositionView() []Position {
	out := make([]Position, 0, PositionCount)
	for p := 1; p <= PositionCount; p++ {
		pos := Position{Position: p, Status: 1}
		if occ, ok := t.Positions[p]; ok {
			pos.Status = 0
			pos.Pilot = occ.Nickname
		}
		out = append(out, pos)
	}
	return out
}
