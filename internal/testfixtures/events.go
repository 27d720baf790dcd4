package testfixtures

import (
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/example/personal-calendar/internal/application"
	"github.com/example/personal-calendar/internal/persistence"
	"github.com/example/personal-calendar/internal/recurrence"
	"github.com/example/personal-calendar/internal/scheduler"
)

var eventCounter uint64

// EventFixture is a deterministic event definition that can be materialised
// as a domain event, a stored record or a create/update draft.
type EventFixture struct {
	ID             string
	Title          string
	Description    string
	Time           string
	Day            time.Time
	Repeat         recurrence.Repeat
	WeekDays       []time.Weekday
	CustomInterval int
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a one-off all-day event on ReferenceDay with
// optional overrides.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	fixture := EventFixture{
		ID:             fmt.Sprintf("fixture-%03d", idx),
		Title:          fmt.Sprintf("Event %03d", idx),
		Day:            ReferenceDay(),
		Repeat:         recurrence.RepeatNone,
		CustomInterval: 1,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated id.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) { f.ID = id }
}

// WithEventTitle overrides the generated title.
func WithEventTitle(title string) EventOption {
	return func(f *EventFixture) { f.Title = title }
}

// WithEventDescription sets the description.
func WithEventDescription(description string) EventOption {
	return func(f *EventFixture) { f.Description = description }
}

// WithEventTime sets the "HH:MM" time, making the event timed.
func WithEventTime(clock string) EventOption {
	return func(f *EventFixture) { f.Time = clock }
}

// WithEventDay sets the anchor day.
func WithEventDay(day time.Time) EventOption {
	return func(f *EventFixture) { f.Day = day }
}

// WithEventRepeat sets the recurrence kind.
func WithEventRepeat(repeat recurrence.Repeat) EventOption {
	return func(f *EventFixture) { f.Repeat = repeat }
}

// WithEventWeekDays makes the event repeat weekly on days.
func WithEventWeekDays(days ...time.Weekday) EventOption {
	return func(f *EventFixture) {
		f.Repeat = recurrence.RepeatWeekly
		f.WeekDays = days
	}
}

// WithEventEvery makes the event repeat every interval days.
func WithEventEvery(interval int) EventOption {
	return func(f *EventFixture) {
		f.Repeat = recurrence.RepeatCustom
		f.CustomInterval = interval
	}
}

// Anchor combines Day and Time in the day's location.
func (f EventFixture) Anchor() time.Time {
	y, m, d := f.Day.Date()
	hour, minute := 0, 0
	if f.Time != "" {
		if t, err := time.Parse("15:04", f.Time); err == nil {
			hour, minute = t.Hour(), t.Minute()
		}
	}
	return time.Date(y, m, d, hour, minute, 0, 0, f.Day.Location())
}

// Event materialises the fixture as a domain event.
func (f EventFixture) Event() scheduler.Event {
	return scheduler.Event{
		ID:             f.ID,
		Title:          f.Title,
		Description:    f.Description,
		Time:           f.Time,
		Anchor:         f.Anchor(),
		Repeat:         f.Repeat,
		WeekDays:       slices.Clone(f.WeekDays),
		CustomInterval: f.CustomInterval,
	}
}

// Record materialises the fixture in its stored form.
func (f EventFixture) Record() persistence.EventRecord {
	record := persistence.EventRecord{
		ID:             f.ID,
		Title:          f.Title,
		Description:    f.Description,
		Time:           f.Time,
		Date:           f.Anchor().Format(time.RFC3339),
		Repeat:         string(f.Repeat),
		CustomInterval: f.CustomInterval,
	}
	for _, day := range f.WeekDays {
		record.WeekDays = append(record.WeekDays, int(day))
	}
	return record
}

// Draft materialises the fixture as create/update input.
func (f EventFixture) Draft() application.EventDraft {
	interval := f.CustomInterval
	draft := application.EventDraft{
		Title:          f.Title,
		Description:    f.Description,
		Date:           f.Day,
		Time:           f.Time,
		Repeat:         string(f.Repeat),
		CustomInterval: &interval,
	}
	for _, day := range f.WeekDays {
		draft.WeekDays = append(draft.WeekDays, int(day))
	}
	return draft
}
