package scheduler

import (
	"time"

	"github.com/example/personal-calendar/internal/calendar"
)

// RescheduleRequest asks to move an event so that its anchor falls on
// TargetDay.
type RescheduleRequest struct {
	EventID   string
	TargetDay time.Time
}

// Conflicts returns the occurrences on targetDay that clash with candidate:
// those belonging to a different event with exactly the same time string.
// All-day candidates never clash.
func Conflicts(candidate Event, targetDay time.Time, occurrences []Occurrence) []Occurrence {
	if candidate.AllDay() {
		return nil
	}

	var clashes []Occurrence
	for _, occ := range occurrences {
		if occ.Event.ID == candidate.ID {
			continue
		}
		if occ.Event.AllDay() || occ.Event.Time != candidate.Time {
			continue
		}
		if !occ.Date.IsZero() && !calendar.SameDay(occ.Date, targetDay.In(occ.Date.Location())) {
			continue
		}
		clashes = append(clashes, occ)
	}
	return clashes
}

// HasConflict reports whether moving candidate to targetDay would place it at
// the same time as another event already occurring that day.
func HasConflict(candidate Event, targetDay time.Time, occurrences []Occurrence) bool {
	return len(Conflicts(candidate, targetDay, occurrences)) > 0
}
