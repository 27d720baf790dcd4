package scheduler

import (
	"slices"
	"time"

	"github.com/example/personal-calendar/internal/recurrence"
)

// Event is a stored event definition. Every field is always present; Repeat
// decides which of WeekDays and CustomInterval carry meaning.
type Event struct {
	ID          string
	Title       string
	Description string
	// Time is the "HH:MM" wall-clock time, empty for all-day events.
	Time string
	// Anchor is the first occurrence: the creation date combined with Time.
	Anchor         time.Time
	Repeat         recurrence.Repeat
	WeekDays       []time.Weekday
	CustomInterval int
}

// AllDay reports whether the event has no wall-clock time.
func (e Event) AllDay() bool {
	return e.Time == ""
}

// Rule returns the recurrence rule used to expand the event.
func (e Event) Rule() recurrence.Rule {
	return recurrence.Rule{
		Repeat:   e.Repeat,
		Anchor:   e.Anchor,
		Weekdays: e.WeekDays,
		Interval: e.CustomInterval,
	}
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	e.WeekDays = slices.Clone(e.WeekDays)
	return e
}

// Occurrence is one visible instance of an event on a concrete day. It is
// derived on demand and never persisted.
type Occurrence struct {
	Event Event
	// Date is the occurrence day carrying the event's wall-clock time.
	Date time.Time
}

// CloneEvents returns a deep copy of events.
func CloneEvents(events []Event) []Event {
	if events == nil {
		return nil
	}
	out := make([]Event, len(events))
	for i, event := range events {
		out[i] = event.Clone()
	}
	return out
}

// FindEvent returns the index of the event with the given id, or -1.
func FindEvent(events []Event, id string) int {
	return slices.IndexFunc(events, func(e Event) bool { return e.ID == id })
}
