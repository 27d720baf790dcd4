package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/personal-calendar/internal/application"
	"github.com/example/personal-calendar/internal/calendar"
)

type calendarService interface {
	Month(ctx context.Context, query application.MonthQuery) application.MonthView
	Export(ctx context.Context) (string, error)
	Location() *time.Location
}

type CalendarHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{service: service, responder: newResponder(logger), logger: logger}
}

func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	values := r.URL.Query()
	query := application.MonthQuery{Query: values.Get("q")}
	if month := strings.TrimSpace(values.Get("month")); month != "" {
		parsed, err := calendar.ParseMonth(month, h.service.Location())
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonth)
			return
		}
		query.Month = parsed
	}

	view := h.service.Month(r.Context(), query)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMonthResponse(view, query.Query))
}

func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	body, err := h.service.Export(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		handlerLogger(r.Context(), h.logger, "CalendarHandler", "Export").
			ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}

type monthResponse struct {
	Month string   `json:"month"`
	Start string   `json:"start"`
	End   string   `json:"end"`
	Query string   `json:"query,omitempty"`
	Days  []dayDTO `json:"days"`
}

type dayDTO struct {
	Date        string          `json:"date"`
	InMonth     bool            `json:"in_month"`
	Today       bool            `json:"today"`
	Occurrences []occurrenceDTO `json:"occurrences"`
}

type occurrenceDTO struct {
	EventID     string `json:"event_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Time        string `json:"time"`
	AllDay      bool   `json:"all_day"`
	Repeat      string `json:"repeat"`
	Start       string `json:"start"`
}

func toMonthResponse(view application.MonthView, query string) monthResponse {
	days := make([]dayDTO, 0, len(view.Days))
	for _, day := range view.Days {
		occurrences := make([]occurrenceDTO, 0, len(day.Occurrences))
		for _, occ := range day.Occurrences {
			occurrences = append(occurrences, occurrenceDTO{
				EventID:     occ.Event.ID,
				Title:       occ.Event.Title,
				Description: occ.Event.Description,
				Time:        occ.Event.Time,
				AllDay:      occ.Event.AllDay(),
				Repeat:      string(occ.Event.Repeat),
				Start:       occ.Date.Format(time.RFC3339),
			})
		}
		days = append(days, dayDTO{
			Date:        calendar.DateKey(day.Date),
			InMonth:     day.InMonth,
			Today:       day.Today,
			Occurrences: occurrences,
		})
	}
	return monthResponse{
		Month: calendar.MonthKey(view.Month),
		Start: calendar.DateKey(view.Start),
		End:   calendar.DateKey(view.End),
		Query: query,
		Days:  days,
	}
}
