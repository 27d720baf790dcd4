package recurrence

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Options converts the rule into rrule-go options anchored at rule.Anchor.
// The boolean is false for rules that do not repeat, including weekly rules
// without any weekday selected.
func Options(rule Rule) (rrule.ROption, bool) {
	opt := rrule.ROption{
		Dtstart:  rule.Anchor,
		Interval: 1,
	}

	switch rule.Repeat {
	case RepeatDaily:
		opt.Freq = rrule.DAILY
	case RepeatWeekly:
		days := sortedWeekdays(rule.Weekdays)
		if len(days) == 0 {
			return rrule.ROption{}, false
		}
		opt.Freq = rrule.WEEKLY
		opt.Wkst = rrule.SU
		for _, day := range days {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[day])
		}
	case RepeatMonthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{rule.Anchor.Day()}
	case RepeatCustom:
		opt.Freq = rrule.DAILY
		if rule.Interval > 1 {
			opt.Interval = rule.Interval
		}
	default:
		return rrule.ROption{}, false
	}

	return opt, true
}

// RRule renders the rule as an RFC 5545 RRULE value (without the "RRULE:"
// prefix and without DTSTART). The boolean is false when the rule does not
// repeat.
func RRule(rule Rule) (string, bool, error) {
	opt, ok := Options(rule)
	if !ok {
		return "", false, nil
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return "", false, fmt.Errorf("recurrence: build rrule: %w", err)
	}
	return r.OrigOptions.RRuleString(), true, nil
}

func sortedWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]struct{}, len(days))
	out := make([]time.Weekday, 0, len(days))
	for _, day := range days {
		if day < time.Sunday || day > time.Saturday {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
