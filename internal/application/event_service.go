package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/personal-calendar/internal/calendar"
	"github.com/example/personal-calendar/internal/ics"
	"github.com/example/personal-calendar/internal/persistence"
	"github.com/example/personal-calendar/internal/recurrence"
	"github.com/example/personal-calendar/internal/scheduler"
)

// EventService owns the in-memory event list. The list is the source of
// truth; every mutation replaces it wholesale and is saved to the store
// before it becomes visible.
type EventService struct {
	store       persistence.EventStore
	engine      *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger

	mu     sync.RWMutex
	events []scheduler.Event
}

// NewEventService constructs an event service with the provided dependencies.
// A nil store keeps events in memory only; a nil idGenerator issues UUIDs.
func NewEventService(store persistence.EventStore, engine *recurrence.Engine, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(store, engine, idGenerator, now, nil)
}

// NewEventServiceWithLogger constructs an event service with a specified logger.
func NewEventServiceWithLogger(store persistence.EventStore, engine *recurrence.Engine, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		store:       store,
		engine:      engine,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// Location returns the calendar's time zone.
func (s *EventService) Location() *time.Location {
	return s.engine.Location()
}

// Load replaces the in-memory list with the store's contents. Corrupt
// records are logged and skipped; the number of events kept is returned.
func (s *EventService) Load(ctx context.Context) (loaded int, err error) {
	if s == nil {
		return 0, fmt.Errorf("EventService is nil")
	}

	logger := s.loggerWith(ctx, "Load")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load events", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_count", loaded).InfoContext(ctx, "events loaded")
	}()

	if s.store == nil {
		return 0, nil
	}

	records, err := s.store.Load(ctx)
	if errors.Is(err, persistence.ErrCorruptRecord) {
		logger.WarnContext(ctx, "event store unreadable, starting empty", "error", err, "error_kind", ErrorKind(err))
		records, err = nil, nil
	}
	if err != nil {
		return 0, err
	}

	events := make([]scheduler.Event, 0, len(records))
	for i, record := range records {
		event, decodeErr := decodeRecord(record, s.engine.Location())
		if decodeErr == nil && scheduler.FindEvent(events, event.ID) >= 0 {
			decodeErr = fmt.Errorf("%w: duplicate id %s", persistence.ErrCorruptRecord, event.ID)
		}
		if decodeErr != nil {
			logger.WarnContext(ctx, "skipping corrupt event record",
				"index", i,
				"event_id", record.ID,
				"error", decodeErr,
				"error_kind", ErrorKind(decodeErr),
			)
			continue
		}
		events = append(events, event)
	}

	s.mu.Lock()
	s.events = events
	s.mu.Unlock()

	return len(events), nil
}

// List returns a copy of every event in stored order.
func (s *EventService) List(ctx context.Context) []scheduler.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scheduler.CloneEvents(s.events)
}

// Get returns the event with the given id.
func (s *EventService) Get(ctx context.Context, id string) (scheduler.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := scheduler.FindEvent(s.events, id)
	if idx < 0 {
		return scheduler.Event{}, ErrNotFound
	}
	return s.events[idx].Clone(), nil
}

// Create validates draft and stores a new event under a fresh id.
func (s *EventService) Create(ctx context.Context, draft EventDraft) (event scheduler.Event, err error) {
	logger := s.loggerWith(ctx, "Create")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID, "repeat", event.Repeat).InfoContext(ctx, "event created")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	next, event, err := CreateEvent(s.events, draft, s.idGenerator(), s.engine.Location())
	if err != nil {
		return scheduler.Event{}, err
	}
	if err = s.commit(ctx, next); err != nil {
		return scheduler.Event{}, err
	}
	return event, nil
}

// Update replaces the event with the given id.
func (s *EventService) Update(ctx context.Context, id string, draft EventDraft) (event scheduler.Event, err error) {
	logger := s.loggerWith(ctx, "Update", "event_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event updated")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	next, event, err := UpdateEvent(s.events, id, draft, s.engine.Location())
	if err != nil {
		return scheduler.Event{}, err
	}
	if err = s.commit(ctx, next); err != nil {
		return scheduler.Event{}, err
	}
	return event, nil
}

// Delete removes the event with the given id, reporting ErrNotFound when it
// does not exist.
func (s *EventService) Delete(ctx context.Context, id string) (err error) {
	logger := s.loggerWith(ctx, "Delete", "event_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event deleted")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if scheduler.FindEvent(s.events, id) < 0 {
		return ErrNotFound
	}
	return s.commit(ctx, DeleteEvent(s.events, id))
}

// Reschedule moves an event's anchor to the requested day unless another
// event already occupies the same time slot there.
func (s *EventService) Reschedule(ctx context.Context, req scheduler.RescheduleRequest) (event scheduler.Event, err error) {
	logger := s.loggerWith(ctx, "Reschedule", "event_id", req.EventID, "target_day", calendar.DateKey(req.TargetDay))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reschedule event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event rescheduled")
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := scheduler.FindEvent(s.events, req.EventID)
	if idx < 0 {
		return scheduler.Event{}, ErrNotFound
	}
	if req.TargetDay.IsZero() {
		vErr := &ValidationError{}
		vErr.add("date", "date is required")
		return scheduler.Event{}, vErr
	}

	candidate := s.events[idx]
	y, m, d := req.TargetDay.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, s.engine.Location())

	index := scheduler.BuildIndex(s.engine, s.events, day, day)
	if clashes := scheduler.Conflicts(candidate, day, index.On(day)); len(clashes) > 0 {
		ids := make([]string, 0, len(clashes))
		for _, occ := range clashes {
			ids = append(ids, occ.Event.ID)
		}
		return scheduler.Event{}, &ConflictError{
			EventID:        candidate.ID,
			TargetDay:      day,
			Time:           candidate.Time,
			ConflictingIDs: ids,
		}
	}

	next, event, err := RescheduleEvent(s.events, req.EventID, day)
	if err != nil {
		return scheduler.Event{}, err
	}
	if err = s.commit(ctx, next); err != nil {
		return scheduler.Event{}, err
	}
	return event, nil
}

// Month builds the week-aligned grid for the requested month, filtered by
// query when one is given.
func (s *EventService) Month(ctx context.Context, query MonthQuery) MonthView {
	loc := s.engine.Location()
	month := query.Month
	if month.IsZero() {
		month = s.now()
	}
	month = calendar.StartOfMonth(month.In(loc))
	start, end := calendar.VisibleRange(month)

	s.mu.RLock()
	index := scheduler.BuildIndex(s.engine, s.events, start, end)
	s.mu.RUnlock()
	index = index.Filter(query.Query)

	today := s.now().In(loc)
	days := calendar.EnumerateDays(start, end)
	view := MonthView{Month: month, Start: start, End: end, Days: make([]GridDay, 0, len(days))}
	for _, day := range days {
		view.Days = append(view.Days, GridDay{
			Date:        day,
			InMonth:     calendar.InMonth(day, month),
			Today:       calendar.SameDay(day, today),
			Occurrences: index.On(day),
		})
	}

	s.loggerWith(ctx, "Month", "month", calendar.MonthKey(month)).
		With("occurrence_count", index.Len()).
		DebugContext(ctx, "month view built")
	return view
}

// Export renders every event as an iCalendar feed.
func (s *EventService) Export(ctx context.Context) (string, error) {
	events := s.List(ctx)
	out, err := ics.Encode(s.engine, events, ics.Options{Now: s.now()})
	if err != nil {
		s.loggerWith(ctx, "Export").ErrorContext(ctx, "failed to export events", "error", err, "error_kind", ErrorKind(err))
		return "", err
	}
	return out, nil
}

// commit saves next and, once stored, makes it the current list. Callers
// hold the write lock.
func (s *EventService) commit(ctx context.Context, next []scheduler.Event) error {
	if s.store != nil {
		if err := s.store.Save(ctx, encodeEvents(next)); err != nil {
			return fmt.Errorf("save events: %w", err)
		}
	}
	s.events = next
	return nil
}
