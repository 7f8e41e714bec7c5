package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/appointments-planner/internal/application"
)

type calendarService interface {
	MonthView(ctx context.Context, principal application.Principal, q application.MonthQuery) (application.MonthView, error)
	DayView(ctx context.Context, principal application.Principal, q application.DayQuery) (application.DayView, error)
}

type searchService interface {
	Search(ctx context.Context, principal application.Principal, q application.SearchQuery) (application.SearchResults, error)
}

// CalendarHandler serves the month grid and the search endpoint as JSON.
type CalendarHandler struct {
	calendar  calendarService
	search    searchService
	responder responder
	logger    *slog.Logger
}

func newCalendarHandler(calendar calendarService, search searchService, rs responder, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{calendar: calendar, search: search, responder: rs, logger: defaultLogger(logger)}
}

// Month returns the bucketed grid for /{year}/{month}, filtered by person_id
// and location_id.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	year, month, err := yearMonthParams(r)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	view, err := h.calendar.MonthView(r.Context(), principal, application.MonthQuery{
		Year:       year,
		Month:      month,
		PersonID:   q.Get("person_id"),
		LocationID: q.Get("location_id"),
	})
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMonthDTO(view))
}

// Search runs a free-text search over q restricted by type.
func (h *CalendarHandler) Search(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	results, err := h.search.Search(r.Context(), principal, searchQuery(r))
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	handlerLogger(r.Context(), h.logger, "CalendarHandler", "Search").
		DebugContext(r.Context(), "search completed", "total", results.Total())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSearchDTO(results))
}

func searchQuery(r *http.Request) application.SearchQuery {
	q := r.URL.Query()
	return application.SearchQuery{Term: q.Get("q"), Type: application.ParseSearchType(q.Get("type"))}
}
