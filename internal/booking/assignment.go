package booking

import "github.com/gokartmania/turn-reservation/internal/model"

// Assignment is an in-flight kart selection: kart number -> pilot id.
// Assignments are drafts built by Toggle on the client's behalf; nothing is
// persisted until the workflow commits them through the Store.
type Assignment map[int]uint64

// clone copies an assignment so Toggle never mutates its input.
func (a Assignment) clone() Assignment {
	out := make(Assignment, len(a))
	for pos, pilot := range a {
		out[pos] = pilot
	}
	return out
}

// contains reports whether the pilot is already seated somewhere.
func (a Assignment) contains(pilotID uint64) bool {
	for _, id := range a {
		if id == pilotID {
			return true
		}
	}
	return false
}

// firstUnassigned returns the index of the first pilot, in party order, not
// present in the assignment, or -1 when everyone is seated.  The scan is
// bounded by the party size, so rotation terminates even with the whole
// party assigned.
func firstUnassigned(a Assignment, pilots []model.Pilot) int {
	for i, p := range pilots {
		if !a.contains(p.ID) {
			return i
		}
	}
	return -1
}

// Toggle flips one kart in the draft and returns the new assignment and
// pilot cursor.  Selecting a free kart binds the pilot under the cursor and
// advances the cursor to the next unseated pilot; the cursor never runs
// past the end of the party.  Selecting is a no-op once every pilot is
// seated.  Deselecting an occupied kart frees its pilot and rewinds the
// cursor to the first unseated pilot, so the freed pilot is offered again
// next.
func Toggle(a Assignment, position int, pilots []model.Pilot, cursor int) (Assignment, int) {
	if len(pilots) == 0 || !model.ValidPosition(position) {
		return a.clone(), cursor
	}
	next := a.clone()

	if _, occupied := next[position]; occupied {
		delete(next, position)
		return next, firstUnassigned(next, pilots)
	}

	// all pilots seated: reject the selection, keep the draft as-is
	if len(next) >= len(pilots) {
		return next, cursor
	}
	if cursor < 0 || cursor >= len(pilots) || next.contains(pilots[cursor].ID) {
		cursor = firstUnassigned(next, pilots)
	}
	next[position] = pilots[cursor].ID
	if i := firstUnassigned(next, pilots); i >= 0 {
		cursor = i
	}
	return next, cursor
}
