package model

import "time"

// Group selects the age band a reservation races under.  Every turn of a
// reservation inherits the reservation's group.
type Group string

const (
	GroupChildren Group = "CHILDREN" // ages 5 through 12
	GroupAdults   Group = "ADULTS"   // ages 12 and up
)

// ValidGroup reports whether g is a known activity group.
func ValidGroup(g Group) bool {
	return g == GroupChildren || g == GroupAdults
}

// Pilot is one person to be seated in a kart.  Pilots are created when a
// reservation is first submitted and are immutable afterwards except for
// the license-purchase flags.
//
// Fields:
//  ID         – pilots.id.
//  Name       – given name.
//  LastName   – family name (optional).
//  Nickname   – display name painted on occupied positions.
//  BirthDate  – used by the age eligibility check.
//  Licensed   – pilot already owns a racing license.
//  BuyLicense – pilot will purchase a license with this reservation.
//  CreatedAt  – insertion timestamp.
type Pilot struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	LastName   string    `json:"last_name,omitempty"`
	Nickname   string    `json:"nickname"`
	BirthDate  time.Time `json:"birth_date"`
	Licensed   bool      `json:"licensed"`
	BuyLicense bool      `json:"buy_license"`
	CreatedAt  time.Time `json:"-"`
}

// Driving reports whether the pilot will actually take a kart.  A companion
// who neither owns nor buys a license is exempt from the age check.
func (p Pilot) Driving() bool {
	return p.Licensed || p.BuyLicense
}
