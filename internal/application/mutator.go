package application

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/example/personal-calendar/internal/persistence"
	"github.com/example/personal-calendar/internal/recurrence"
	"github.com/example/personal-calendar/internal/scheduler"
)

const clockLayout = "15:04"

// CreateEvent appends a new event built from draft under id. The input slice
// is never modified.
func CreateEvent(events []scheduler.Event, draft EventDraft, id string, loc *time.Location) ([]scheduler.Event, scheduler.Event, error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(id) == "" {
		vErr.add("id", "id is required")
	} else if scheduler.FindEvent(events, id) >= 0 {
		vErr.add("id", "id already exists")
	}

	event, err := buildEvent(id, draft, loc)
	if err != nil {
		var dErr *ValidationError
		if errors.As(err, &dErr) {
			vErr.merge(dErr)
		} else {
			return nil, scheduler.Event{}, err
		}
	}
	if vErr.HasErrors() {
		return nil, scheduler.Event{}, vErr
	}

	next := make([]scheduler.Event, 0, len(events)+1)
	next = append(next, scheduler.CloneEvents(events)...)
	next = append(next, event)
	return next, event.Clone(), nil
}

// UpdateEvent replaces the event with the given id by one built from draft,
// keeping the id and list position.
func UpdateEvent(events []scheduler.Event, id string, draft EventDraft, loc *time.Location) ([]scheduler.Event, scheduler.Event, error) {
	idx := scheduler.FindEvent(events, id)
	if idx < 0 {
		return nil, scheduler.Event{}, ErrNotFound
	}

	event, err := buildEvent(id, draft, loc)
	if err != nil {
		return nil, scheduler.Event{}, err
	}

	next := scheduler.CloneEvents(events)
	next[idx] = event
	return next, event.Clone(), nil
}

// DeleteEvent removes the event with the given id. An unknown id leaves the
// list unchanged.
func DeleteEvent(events []scheduler.Event, id string) []scheduler.Event {
	next := make([]scheduler.Event, 0, len(events))
	for _, event := range events {
		if event.ID != id {
			next = append(next, event.Clone())
		}
	}
	return next
}

// RescheduleEvent moves the anchor of the event with the given id to the
// calendar day of newDay, keeping its wall-clock time. Callers check for
// conflicts first.
func RescheduleEvent(events []scheduler.Event, id string, newDay time.Time) ([]scheduler.Event, scheduler.Event, error) {
	idx := scheduler.FindEvent(events, id)
	if idx < 0 {
		return nil, scheduler.Event{}, ErrNotFound
	}
	if newDay.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		return nil, scheduler.Event{}, vErr
	}

	next := scheduler.CloneEvents(events)
	anchor := next[idx].Anchor
	y, m, d := newDay.Date()
	next[idx].Anchor = time.Date(y, m, d, anchor.Hour(), anchor.Minute(), anchor.Second(), 0, anchor.Location())
	return next, next[idx].Clone(), nil
}

func buildEvent(id string, draft EventDraft, loc *time.Location) (scheduler.Event, error) {
	if loc == nil {
		loc = time.Local
	}
	vErr := &ValidationError{}

	title := strings.TrimSpace(draft.Title)
	if title == "" {
		vErr.add("title", "title is required")
	}

	clock := strings.TrimSpace(draft.Time)
	hour, minute, ok := parseClock(clock)
	if !ok {
		vErr.add("time", "time must be HH:MM")
	}

	if draft.Date.IsZero() {
		vErr.add("date", "date is required")
	}

	repeat, err := recurrence.ParseRepeat(draft.Repeat)
	if err != nil {
		vErr.add("repeat", "repeat must be one of none, daily, weekly, monthly, custom")
	}

	weekdays, err := normalizeWeekdays(draft.WeekDays)
	if err != nil {
		vErr.add("weekDays", err.Error())
	}

	interval := 1
	if draft.CustomInterval != nil {
		interval = *draft.CustomInterval
	}
	if interval < 1 {
		if repeat == recurrence.RepeatCustom {
			vErr.add("customInterval", "customInterval must be at least 1")
		}
		interval = 1
	}

	if vErr.HasErrors() {
		return scheduler.Event{}, vErr
	}

	y, m, d := draft.Date.Date()
	return scheduler.Event{
		ID:             id,
		Title:          title,
		Description:    draft.Description,
		Time:           clock,
		Anchor:         time.Date(y, m, d, hour, minute, 0, 0, loc),
		Repeat:         repeat,
		WeekDays:       weekdays,
		CustomInterval: interval,
	}, nil
}

// parseClock accepts "" (all-day) or a strict two-digit "HH:MM".
func parseClock(value string) (hour, minute int, ok bool) {
	if value == "" {
		return 0, 0, true
	}
	if len(value) != len(clockLayout) {
		return 0, 0, false
	}
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

func normalizeWeekdays(days []int) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(days))
	for _, day := range days {
		if day < int(time.Sunday) || day > int(time.Saturday) {
			return nil, fmt.Errorf("weekday %d out of range 0-6", day)
		}
		if !slices.Contains(out, time.Weekday(day)) {
			out = append(out, time.Weekday(day))
		}
	}
	slices.Sort(out)
	return out, nil
}

// decodeRecord rebuilds an event from its stored form. Records missing a
// repeat kind are one-off events; a missing or non-positive interval is 1.
func decodeRecord(record persistence.EventRecord, loc *time.Location) (scheduler.Event, error) {
	corrupt := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", persistence.ErrCorruptRecord, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(record.ID) == "" {
		return scheduler.Event{}, corrupt("missing id")
	}
	if strings.TrimSpace(record.Title) == "" {
		return scheduler.Event{}, corrupt("event %s has no title", record.ID)
	}

	day, err := parseAnchor(record.Date, loc)
	if err != nil {
		return scheduler.Event{}, corrupt("event %s has malformed date %q", record.ID, record.Date)
	}

	hour, minute, ok := parseClock(record.Time)
	if !ok {
		return scheduler.Event{}, corrupt("event %s has malformed time %q", record.ID, record.Time)
	}
	// The stored time field wins over whatever clock the date carries.
	y, m, d := day.Date()
	anchor := time.Date(y, m, d, hour, minute, 0, 0, day.Location())

	repeat, err := recurrence.ParseRepeat(record.Repeat)
	if err != nil {
		return scheduler.Event{}, corrupt("event %s has unknown repeat %q", record.ID, record.Repeat)
	}

	weekdays, err := normalizeWeekdays(record.WeekDays)
	if err != nil {
		return scheduler.Event{}, corrupt("event %s: %v", record.ID, err)
	}

	interval := record.CustomInterval
	if interval < 1 {
		interval = 1
	}

	return scheduler.Event{
		ID:             record.ID,
		Title:          record.Title,
		Description:    record.Description,
		Time:           record.Time,
		Anchor:         anchor,
		Repeat:         repeat,
		WeekDays:       weekdays,
		CustomInterval: interval,
	}, nil
}

// parseAnchor accepts RFC 3339 date-times, with or without fractional
// seconds, and bare YYYY-MM-DD dates.
func parseAnchor(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(loc), nil
	}
	return time.ParseInLocation(time.DateOnly, value, loc)
}

func encodeEvent(event scheduler.Event) persistence.EventRecord {
	record := persistence.EventRecord{
		ID:             event.ID,
		Title:          event.Title,
		Description:    event.Description,
		Time:           event.Time,
		Date:           event.Anchor.Format(time.RFC3339),
		Repeat:         string(event.Repeat),
		CustomInterval: event.CustomInterval,
	}
	if len(event.WeekDays) > 0 {
		record.WeekDays = make([]int, len(event.WeekDays))
		for i, day := range event.WeekDays {
			record.WeekDays[i] = int(day)
		}
	}
	return record
}

func encodeEvents(events []scheduler.Event) []persistence.EventRecord {
	records := make([]persistence.EventRecord, len(events))
	for i, event := range events {
		records[i] = encodeEvent(event)
	}
	return records
}
