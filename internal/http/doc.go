// Package http provides HTTP handlers and middleware for the calendar API.
//
// The router exposes the following endpoints:
//   - GET /calendar?month=YYYY-MM&q=: the week-aligned month grid. Response:
//     {"month","start","end","query","days":[{"date","in_month","today",
//     "occurrences":[...]}]} with each occurrence carrying its event fields
//     and the concrete start on that day. month defaults to the current month.
//   - GET /calendar.ics: every event as an iCalendar feed with RRULEs.
//   - GET /events, POST /events: list events in stored order or create one
//     from the `eventRequest` payload defined in event_handler.go.
//   - GET /events/{id}, PUT /events/{id}, DELETE /events/{id}: fetch, replace
//     or remove a single event.
//   - POST /events/{id}/reschedule: body {"date":"YYYY-MM-DD"}. Moves the
//     event to that day keeping its time; 409 with "conflicting_ids" when
//     another event already holds the same time slot there.
//   - GET /healthz: store reachability, never behind authentication.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
