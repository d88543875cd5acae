// Package queue defines message payloads exchanged over the message broker.
package queue

// TurnConfirmedEvent is published each time a kart assignment is committed
// onto a turn.  It carries enough for downstream consumers to log or
// notify without querying the primary database.
type TurnConfirmedEvent struct {
	ReservationID uint64            `json:"reservation_id"`
	Date          string            `json:"date"`
	Schedule      string            `json:"schedule"`
	TurnNumber    int               `json:"turn_number"`
	Group         string            `json:"group"`
	Positions     map[string]string `json:"positions"` // "pos<N>" -> pilot nickname
	ConfirmedAt   string            `json:"confirmed_at"`
}

// TurnsBlockedEvent is published when staff block or unblock a range of
// turns, so downstream calendars and dashboards can refresh.
type TurnsBlockedEvent struct {
	Days      []string `json:"days"`
	Schedules []string `json:"schedules"`
	Turns     []int    `json:"turns"`
	Blocked   bool     `json:"blocked"`
	Count     int      `json:"count"`
	ChangedAt string   `json:"changed_at"`
}
