package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/personal-calendar/internal/application"
	"github.com/example/personal-calendar/internal/calendar"
	"github.com/example/personal-calendar/internal/scheduler"
)

type eventService interface {
	List(ctx context.Context) []scheduler.Event
	Get(ctx context.Context, id string) (scheduler.Event, error)
	Create(ctx context.Context, draft application.EventDraft) (scheduler.Event, error)
	Update(ctx context.Context, id string, draft application.EventDraft) (scheduler.Event, error)
	Delete(ctx context.Context, id string) error
	Reschedule(ctx context.Context, req scheduler.RescheduleRequest) (scheduler.Event, error)
	Location() *time.Location
}

type EventHandler struct {
	service   eventService
	responder responder
	logger    *slog.Logger
}

func NewEventHandler(service eventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: service, responder: newResponder(logger), logger: logger}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	events := h.service.List(r.Context())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEventsResponse{Events: toEventDTOs(events)})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := eventIDFromRequest(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	event, err := h.service.Get(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event)})
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	draft, err := req.toDraft(h.service.Location())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	event, err := h.service.Create(r.Context(), draft)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Location", "/events/"+event.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, eventResponse{Event: toEventDTO(event)})
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := eventIDFromRequest(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	draft, err := req.toDraft(h.service.Location())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	event, err := h.service.Update(r.Context(), eventID, draft)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event)})
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := eventIDFromRequest(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	if err := h.service.Delete(r.Context(), eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *EventHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := eventIDFromRequest(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	day, err := parseDay(req.Date, h.service.Location())
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	event, err := h.service.Reschedule(r.Context(), scheduler.RescheduleRequest{EventID: eventID, TargetDay: day})
	if err != nil {
		handlerLogger(r.Context(), h.logger, "EventHandler", "Reschedule", "event_id", eventID).
			DebugContext(r.Context(), "reschedule rejected", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event)})
}

func eventIDFromRequest(r *http.Request) (string, bool) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		return "", false
	}
	return eventID, true
}

type eventRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Repeat         string `json:"repeat"`
	WeekDays       []int  `json:"weekDays"`
	CustomInterval *int   `json:"customInterval"`
}

func (r eventRequest) toDraft(loc *time.Location) (application.EventDraft, error) {
	day, err := parseDay(r.Date, loc)
	if err != nil {
		return application.EventDraft{}, err
	}
	return application.EventDraft{
		Title:          r.Title,
		Description:    r.Description,
		Date:           day,
		Time:           strings.TrimSpace(r.Time),
		Repeat:         strings.TrimSpace(r.Repeat),
		WeekDays:       append([]int(nil), r.WeekDays...),
		CustomInterval: r.CustomInterval,
	}, nil
}

type rescheduleRequest struct {
	Date string `json:"date"`
}

// parseDay accepts YYYY-MM-DD or an RFC 3339 timestamp. An empty value is
// the zero time so that the service reports the missing date.
func parseDay(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if day, err := calendar.ParseDate(value, loc); err == nil {
		return day, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		if loc != nil {
			ts = ts.In(loc)
		}
		return ts, nil
	}
	return time.Time{}, errInvalidDate
}

type eventResponse struct {
	Event eventDTO `json:"event"`
}

type listEventsResponse struct {
	Events []eventDTO `json:"events"`
}

type eventDTO struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	AllDay         bool   `json:"all_day"`
	Repeat         string `json:"repeat"`
	WeekDays       []int  `json:"weekDays"`
	CustomInterval int    `json:"customInterval"`
}

func toEventDTO(event scheduler.Event) eventDTO {
	weekDays := make([]int, 0, len(event.WeekDays))
	for _, day := range event.WeekDays {
		weekDays = append(weekDays, int(day))
	}
	return eventDTO{
		ID:             event.ID,
		Title:          event.Title,
		Description:    event.Description,
		Date:           event.Anchor.Format(time.RFC3339),
		Time:           event.Time,
		AllDay:         event.AllDay(),
		Repeat:         string(event.Repeat),
		WeekDays:       weekDays,
		CustomInterval: event.CustomInterval,
	}
}

func toEventDTOs(events []scheduler.Event) []eventDTO {
	dtos := make([]eventDTO, 0, len(events))
	for _, event := range events {
		dtos = append(dtos, toEventDTO(event))
	}
	return dtos
}
