package reminder

import (
	"time"

	"taskdo/internal/task"
)

// DefaultLead is how long before the due instant the reminder fires.
const DefaultLead = 30 * time.Minute

// DueAt composes the task's due date and due time into an absolute instant
// in loc. Composition goes through time.Date so the zone's own rules apply;
// the same wall clock maps to different instants across DST transitions.
//
// Returns false when either due field is missing or the time string does not
// parse (malformed input fails closed to "no due instant").
func DueAt(t *task.Todo, loc *time.Location) (time.Time, bool) {
	if t.DueDate == nil || t.DueTime == nil {
		return time.Time{}, false
	}

	hm, err := time.Parse("15:04", *t.DueTime)
	if err != nil {
		if hm, err = time.Parse("15:04:05", *t.DueTime); err != nil {
			return time.Time{}, false
		}
	}

	y, m, d := t.DueDate.Date()
	return time.Date(y, m, d, hm.Hour(), hm.Minute(), 0, 0, loc), true
}

// FireTime decides whether a reminder should exist for the task and, if so,
// at what instant: lead before the due instant, never at or before now.
// Pure: no I/O, deterministic given (task, now, loc, lead).
func FireTime(t *task.Todo, now time.Time, loc *time.Location, lead time.Duration) (time.Time, bool) {
	if t.Completed {
		return time.Time{}, false
	}

	due, ok := DueAt(t, loc)
	if !ok {
		return time.Time{}, false
	}

	fire := due.Add(-lead)
	if !fire.After(now) {
		return time.Time{}, false
	}
	return fire, true
}
