// Package calendar provides pure calendar-day utilities used to lay out the
// month grid: week-aligned visible ranges, day enumeration and whole-day
// arithmetic that is unaffected by daylight-saving transitions.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// WeekStart is the first column of the month grid.
const WeekStart = time.Sunday

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same year/month/day, each
// interpreted in its own location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the number of whole calendar days from `from` to `to`.
// The result is negative when to precedes from. Wall-clock time is ignored.
func DaysBetween(to, from time.Time) int {
	ty, tm, td := to.Date()
	fy, fm, fd := from.Date()
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	return int((t.Unix() - f.Unix()) / secondsPerDay)
}

// AddDays moves t by n calendar days, preserving its wall-clock time.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns midnight on the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// StartOfWeek returns midnight on the WeekStart day on or before t.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) - int(WeekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// EndOfWeek returns midnight on the last grid column on or after t.
func EndOfWeek(t time.Time) time.Time {
	return StartOfWeek(t).AddDate(0, 0, 6)
}

// VisibleRange computes the week-aligned span shown for the month containing
// anchorMonth. Both bounds are midnights and the span is a whole number of
// weeks.
func VisibleRange(anchorMonth time.Time) (time.Time, time.Time) {
	start := StartOfWeek(StartOfMonth(anchorMonth))
	end := EndOfWeek(EndOfMonth(anchorMonth))
	return start, end
}

// EnumerateDays lists every calendar day from start to end inclusive in
// ascending order. It returns nil when end precedes start.
func EnumerateDays(start, end time.Time) []time.Time {
	first := StartOfDay(start)
	last := StartOfDay(end.In(start.Location()))
	n := DaysBetween(last, first)
	if n < 0 {
		return nil
	}

	days := make([]time.Time, 0, n+1)
	for i := 0; i <= n; i++ {
		days = append(days, first.AddDate(0, 0, i))
	}
	return days
}

// InMonth reports whether day belongs to the same month as anchorMonth.
func InMonth(day, anchorMonth time.Time) bool {
	return day.Year() == anchorMonth.Year() && day.Month() == anchorMonth.Month()
}

// DateKey formats the calendar day of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD value into midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: invalid date %q: %w", value, err)
	}
	return t, nil
}

// ParseMonth parses a YYYY-MM value into midnight on the first of the month
// in loc.
func ParseMonth(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(monthLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: invalid month %q: %w", value, err)
	}
	return t, nil
}

// MonthKey formats the month of t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}
