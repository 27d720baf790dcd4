package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/personal-calendar/internal/calendar"
)

// Repeat selects which expansion rule applies to an event.
type Repeat string

const (
	// RepeatNone produces a single occurrence on the anchor day.
	RepeatNone Repeat = "none"
	// RepeatDaily produces an occurrence on every day from the anchor onward.
	RepeatDaily Repeat = "daily"
	// RepeatWeekly produces occurrences on the selected weekdays.
	RepeatWeekly Repeat = "weekly"
	// RepeatMonthly produces occurrences on the anchor's day of month.
	RepeatMonthly Repeat = "monthly"
	// RepeatCustom produces an occurrence every Interval days.
	RepeatCustom Repeat = "custom"
)

// ErrInvalidRepeat indicates the recurrence kind is not supported.
var ErrInvalidRepeat = errors.New("recurrence: invalid repeat kind")

// ParseRepeat maps a stored or user supplied value onto a Repeat. An empty
// value is treated as RepeatNone.
func ParseRepeat(value string) (Repeat, error) {
	switch r := Repeat(strings.ToLower(strings.TrimSpace(value))); r {
	case "":
		return RepeatNone, nil
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatCustom:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRepeat, value)
	}
}

// Rule describes the recurrence of a single event.
//
// Weekdays is only consulted for RepeatWeekly and Interval only for
// RepeatCustom.
type Rule struct {
	Repeat   Repeat
	Anchor   time.Time
	Weekdays []time.Weekday
	Interval int
}

// Engine expands recurrence rules into concrete occurrence dates.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that evaluates calendar days in loc.
// If loc is nil, the host's local time zone is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{location: loc}
}

// Location returns the time zone the engine evaluates calendar days in.
func (e *Engine) Location() *time.Location {
	if e == nil || e.location == nil {
		return time.Local
	}
	return e.location
}

// Expand returns every calendar day in [start, end] on which the rule
// occurs, in ascending order. Each result carries the anchor's wall-clock
// time; only the calendar day varies.
//
// Days before the anchor's calendar day never match. Monthly rules do not
// clamp to month end, so an anchor on the 31st skips shorter months. Custom
// intervals below one are treated as one.
func (e *Engine) Expand(rule Rule, start, end time.Time) []time.Time {
	loc := e.Location()

	anchor := rule.Anchor.In(loc)
	anchorDay := calendar.StartOfDay(anchor)

	lower := calendar.StartOfDay(start.In(loc))
	if lower.Before(anchorDay) {
		lower = anchorDay
	}
	upper := calendar.StartOfDay(end.In(loc))
	if upper.Before(lower) {
		return nil
	}

	if rule.Repeat == RepeatNone || rule.Repeat == "" {
		if calendar.SameDay(lower, anchorDay) {
			return []time.Time{anchor}
		}
		return nil
	}

	weekdaySet := make(map[time.Weekday]struct{}, len(rule.Weekdays))
	for _, day := range rule.Weekdays {
		weekdaySet[day] = struct{}{}
	}
	if rule.Repeat == RepeatWeekly && len(weekdaySet) == 0 {
		return nil
	}

	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	occurrences := make([]time.Time, 0)
	for _, day := range calendar.EnumerateDays(lower, upper) {
		if !occursOn(rule.Repeat, anchorDay, day, weekdaySet, interval) {
			continue
		}
		occurrences = append(occurrences, withClock(day, anchor, loc))
	}

	return occurrences
}

// OccursOn reports whether the rule produces an occurrence on day.
func (e *Engine) OccursOn(rule Rule, day time.Time) bool {
	return len(e.Expand(rule, day, day)) > 0
}

func occursOn(repeat Repeat, anchorDay, day time.Time, weekdaySet map[time.Weekday]struct{}, interval int) bool {
	switch repeat {
	case RepeatDaily:
		return true
	case RepeatWeekly:
		_, ok := weekdaySet[day.Weekday()]
		return ok
	case RepeatMonthly:
		return day.Day() == anchorDay.Day()
	case RepeatCustom:
		return calendar.DaysBetween(day, anchorDay)%interval == 0
	default:
		return false
	}
}

func withClock(day, clock time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), loc)
}
