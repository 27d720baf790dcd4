// Package ics renders stored events as an iCalendar (RFC 5545) feed so the
// calendar can be subscribed to from other clients.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/personal-calendar/internal/calendar"
	"github.com/example/personal-calendar/internal/recurrence"
	"github.com/example/personal-calendar/internal/scheduler"
)

const (
	defaultProductID = "-//personal-calendar//EN"
	defaultName      = "Personal calendar"
	timedDuration    = time.Hour
)

// Options controls the calendar envelope.
type Options struct {
	ProductID string
	Name      string
	// Now stamps every VEVENT with DTSTAMP.
	Now time.Time
}

// Encode renders events as a VCALENDAR document. Timed events last one hour;
// all-day events span their day. Weekly events without weekdays never occur
// and are left out.
func Encode(engine *recurrence.Engine, events []scheduler.Event, opts Options) (string, error) {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	if opts.ProductID == "" {
		opts.ProductID = defaultProductID
	}
	if opts.Name == "" {
		opts.Name = defaultName
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetProductId(opts.ProductID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(opts.Name)
	cal.SetXWRTimezone(engine.Location().String())

	for _, event := range events {
		if err := addEvent(cal, engine, event, opts.Now); err != nil {
			return "", err
		}
	}
	return cal.Serialize(), nil
}

func addEvent(cal *ical.Calendar, engine *recurrence.Engine, event scheduler.Event, now time.Time) error {
	rule := event.Rule()
	rrule, repeats, err := recurrence.RRule(rule)
	if err != nil {
		return fmt.Errorf("ics: event %s: %w", event.ID, err)
	}

	start, ok := firstOccurrence(engine, rule)
	if !ok {
		return nil
	}

	vevent := cal.AddEvent(event.ID)
	vevent.SetDtStampTime(now)
	vevent.SetSummary(event.Title)
	if event.Description != "" {
		vevent.SetDescription(event.Description)
	}

	if event.AllDay() {
		day := calendar.StartOfDay(start)
		vevent.SetAllDayStartAt(day)
		vevent.SetAllDayEndAt(calendar.AddDays(day, 1))
	} else {
		vevent.SetStartAt(start)
		vevent.SetEndAt(start.Add(timedDuration))
	}

	if repeats {
		vevent.AddRrule(rrule)
	}
	return nil
}

// firstOccurrence returns the first day the rule actually produces, which
// for weekly rules may be after the anchor. DTSTART must be an instance.
func firstOccurrence(engine *recurrence.Engine, rule recurrence.Rule) (time.Time, bool) {
	if rule.Repeat != recurrence.RepeatWeekly {
		return rule.Anchor, true
	}
	week := engine.Expand(rule, rule.Anchor, calendar.AddDays(rule.Anchor, 6))
	if len(week) == 0 {
		return time.Time{}, false
	}
	return week[0], true
}
