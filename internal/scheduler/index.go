package scheduler

import (
	"sort"
	"strings"
	"time"

	"github.com/example/personal-calendar/internal/calendar"
	"github.com/example/personal-calendar/internal/recurrence"
)

// Index groups occurrences by calendar day for a visible range.
type Index struct {
	days map[string][]Occurrence
}

// BuildIndex expands every event over [start, end] and groups the results by
// calendar day. Occurrences landing on the same day keep the order in which
// their events appear in events.
func BuildIndex(engine *recurrence.Engine, events []Event, start, end time.Time) *Index {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}

	idx := &Index{days: make(map[string][]Occurrence)}
	for _, event := range events {
		for _, date := range engine.Expand(event.Rule(), start, end) {
			key := calendar.DateKey(date)
			idx.days[key] = append(idx.days[key], Occurrence{Event: event, Date: date})
		}
	}
	return idx
}

// On returns the occurrences for the calendar day of day.
func (idx *Index) On(day time.Time) []Occurrence {
	if idx == nil {
		return nil
	}
	return idx.days[calendar.DateKey(day)]
}

// Days returns the keys (YYYY-MM-DD) of days holding at least one
// occurrence, ascending.
func (idx *Index) Days() []string {
	if idx == nil {
		return nil
	}
	keys := make([]string, 0, len(idx.days))
	for key, occurrences := range idx.days {
		if len(occurrences) > 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len returns the total number of occurrences in the index.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	total := 0
	for _, occurrences := range idx.days {
		total += len(occurrences)
	}
	return total
}

// Filter keeps occurrences whose title or description contains query,
// ignoring case. The query is matched as given, surrounding spaces included.
// An empty query returns the receiver unchanged.
func (idx *Index) Filter(query string) *Index {
	needle := strings.ToLower(query)
	if idx == nil || needle == "" {
		return idx
	}

	filtered := &Index{days: make(map[string][]Occurrence, len(idx.days))}
	for key, occurrences := range idx.days {
		kept := make([]Occurrence, 0, len(occurrences))
		for _, occ := range occurrences {
			if matches(occ.Event, needle) {
				kept = append(kept, occ)
			}
		}
		if len(kept) > 0 {
			filtered.days[key] = kept
		}
	}
	return filtered
}

func matches(event Event, needle string) bool {
	if strings.Contains(strings.ToLower(event.Title), needle) {
		return true
	}
	if event.Description == "" {
		return false
	}
	return strings.Contains(strings.ToLower(event.Description), needle)
}
