package model

// DateFormat is the calendar-day layout used everywhere on the wire and in
// the store (MySQL DATE columns, UTC).
const DateFormat = "2006-01-02"

// Tier is the aggregated free-capacity level of a calendar day, painted on
// the booking calendar.
type Tier int

const (
	TierNone Tier = 0 // every turn full or blocked
	TierHalf Tier = 1 // more than half the turns gone
	TierFull Tier = 2 // at most half the turns gone
)

// DateAvailability pairs a calendar day with its capacity tier.
type DateAvailability struct {
	Date string `json:"date"`
	Tier Tier   `json:"tier"`
}

// ScheduleAvailability is one open hour block of a date together with the
// state of its turns.  Turn status follows the legacy convention: 1 means
// the turn can still take bookings, 0 means it cannot.
type ScheduleAvailability struct {
	Schedule string        `json:"schedule"`
	Turns    []TurnSummary `json:"turns"`
}

// TurnSummary is the per-turn entry inside ScheduleAvailability.
type TurnSummary struct {
	Turn      int        `json:"turn"`
	Status    int        `json:"status"`
	Positions []Position `json:"positions"`
}
