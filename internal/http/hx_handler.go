package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/flosch/pongo2/v6"
	"github.com/go-chi/chi/v5"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/auth"
	"github.com/example/appointments-planner/internal/persistence"
)

type appointmentReader interface {
	Get(ctx context.Context, principal application.Principal, id string) (persistence.Appointment, error)
}

// FragmentHandler renders the htmx partials swapped into the pages.
type FragmentHandler struct {
	calendar     calendarService
	appointments appointmentReader
	responder    responder
	logger       *slog.Logger
}

func newFragmentHandler(calendar calendarService, appointments appointmentReader, rs responder, logger *slog.Logger) *FragmentHandler {
	return &FragmentHandler{calendar: calendar, appointments: appointments, responder: rs, logger: defaultLogger(logger)}
}

// CalendarPartial renders the month grid for year, month and direction,
// keeping the person and location filters.
func (h *FragmentHandler) CalendarPartial(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	query, err := monthQuery(r)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	view, err := h.calendar.MonthView(r.Context(), principal, query)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.html(w, r, http.StatusOK, "partials/calendar.html", pongo2.Context{"view": view, "principal": principal})
}

// DayView renders the appointments of one day.
func (h *FragmentHandler) DayView(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	q := r.URL.Query()
	view, err := h.calendar.DayView(r.Context(), principal, application.DayQuery{
		Date:       chi.URLParam(r, "date"),
		PersonID:   q.Get("person_id"),
		LocationID: q.Get("location_id"),
	})
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.html(w, r, http.StatusOK, "fragments/day_view.html", pongo2.Context{"day": view, "principal": principal})
}

// AppointmentDetail renders the appointment modal.
func (h *FragmentHandler) AppointmentDetail(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	appointment, err := h.appointments.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.html(w, r, http.StatusOK, "fragments/appointment_detail.html", pongo2.Context{
		"appointment": appointment,
		"principal":   principal,
	})
}

// CloseModal empties the modal container.
func (h *FragmentHandler) CloseModal(w http.ResponseWriter, r *http.Request) {
	h.responder.html(w, r, http.StatusOK, "fragments/close_modal.html", nil)
}

// LoginForm renders the login form, preselecting the role a failed request asked for.
func (h *FragmentHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	data := pongo2.Context{}
	if role, ok := auth.ParseRole(r.URL.Query().Get("required_role")); ok {
		data["required_role"] = string(role)
		data["required_role_label"] = role.Label()
	}
	h.responder.html(w, r, http.StatusOK, "fragments/login_form.html", data)
}
