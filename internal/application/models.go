package application

import (
	"time"

	"github.com/example/personal-calendar/internal/scheduler"
)

// EventDraft captures caller provided event fields for create and update.
type EventDraft struct {
	Title       string
	Description string
	// Date supplies the calendar day of the anchor; its clock is ignored.
	Date time.Time
	// Time is "HH:MM" or empty for an all-day event.
	Time   string
	Repeat string
	// WeekDays holds weekday indices, 0 for Sunday through 6 for Saturday.
	WeekDays []int
	// CustomInterval defaults to 1 when nil.
	CustomInterval *int
}

// MonthQuery selects the grid to render.
type MonthQuery struct {
	// Month is any instant inside the month to show.
	Month time.Time
	// Query filters occurrences by title or description when non-empty.
	Query string
}

// MonthView is the week-aligned grid for one month.
type MonthView struct {
	Month time.Time
	Start time.Time
	End   time.Time
	Days  []GridDay
}

// GridDay is one cell of the month grid.
type GridDay struct {
	Date        time.Time
	InMonth     bool
	Today       bool
	Occurrences []scheduler.Occurrence
}
