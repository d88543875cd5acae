package booking

import (
	"fmt"
	"time"

	"github.com/gokartmania/turn-reservation/internal/model"
)

// Age bands per activity group.  Children race between 5 and 12 inclusive;
// adults from 12 up with no ceiling.
const (
	childMinAge = 5
	childMaxAge = 12
	adultMinAge = 12
)

// Age computes a pilot's age in whole years as floor(days/365), matching
// the legacy check bit for bit.  The truncation ignores calendar months and
// leap days, so a pilot within a few days of a birthday can land on either
// side; kept deliberately for behavioral compatibility.
func Age(birthDate, referenceDate time.Time) int {
	diff := referenceDate.Sub(birthDate)
	if diff < 0 {
		diff = -diff
	}
	days := int(diff.Hours() / 24)
	return days / 365
}

// Eligible reports whether a birth date satisfies the group's age band at
// the reference date.  Pure and side-effect free so clients can mirror it
// for immediate feedback.
func Eligible(group model.Group, birthDate, referenceDate time.Time) bool {
	age := Age(birthDate, referenceDate)
	switch group {
	case model.GroupChildren:
		return age >= childMinAge && age <= childMaxAge
	case model.GroupAdults:
		return age >= adultMinAge
	default:
		return false
	}
}

// ValidateParty checks every pilot of a submission against the group's age
// band.  Pilots who neither own nor buy a license are non-driving
// companions and skip the check.  Any failure rejects the whole party; the
// returned ValidationError names each offending pilot.
func ValidateParty(group model.Group, pilots []model.Pilot, referenceDate time.Time) error {
	var problems []string
	if !model.ValidGroup(group) {
		problems = append(problems, fmt.Sprintf("unknown group %q", group))
		return validation(problems)
	}
	for i, p := range pilots {
		if !p.Driving() {
			continue
		}
		if p.BirthDate.IsZero() {
			problems = append(problems, fmt.Sprintf("pilot %d (%s): birth date is required", i+1, p.Nickname))
			continue
		}
		if !Eligible(group, p.BirthDate, referenceDate) {
			problems = append(problems, fmt.Sprintf("pilot %d (%s): age %d outside the %s band", i+1, p.Nickname, Age(p.BirthDate, referenceDate), group))
		}
	}
	return validation(problems)
}
