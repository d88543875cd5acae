package model

// The venue runs a fixed daily grid: eleven hour blocks, five turns per
// block, eight karts per turn.  The grid never varies per date; a date with
// no stored rows simply has every turn free.

// ScheduleHours lists the hour blocks of a day in running order.  Each
// value doubles as the schedule identifier on the wire ("11" means the
// 11:00 block).
var ScheduleHours = []string{"11", "12", "13", "14", "15", "16", "17", "18", "19", "20", "21"}

// TurnNumbers lists the turn slots inside one schedule block.
var TurnNumbers = []int{1, 2, 3, 4, 5}

// PositionCount is the number of physical karts in a turn.  Positions are
// numbered 1..PositionCount.
const PositionCount = 8

// TurnsPerDay is the total number of bookable turns on any date.
var TurnsPerDay = len(ScheduleHours) * len(TurnNumbers)

// ValidSchedule reports whether s is one of the fixed hour blocks.
func ValidSchedule(s string) bool {
	for _, h := range ScheduleHours {
		if h == s {
			return true
		}
	}
	return false
}

// ValidTurnNumber reports whether n is one of the fixed turn slots.
func ValidTurnNumber(n int) bool {
	return n >= 1 && n <= len(TurnNumbers)
}

// ValidPosition reports whether p is a real kart number.
func ValidPosition(p int) bool {
	return p >= 1 && p <= PositionCount
}
