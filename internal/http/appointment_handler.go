package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/persistence"
)

type appointmentService interface {
	List(ctx context.Context, principal application.Principal, raw application.RawAppointmentFilter) ([]persistence.Appointment, error)
	Get(ctx context.Context, principal application.Principal, id string) (persistence.Appointment, error)
	ByDate(ctx context.Context, principal application.Principal, isoDate string) ([]persistence.Appointment, error)
	ByMonth(ctx context.Context, principal application.Principal, year, month int) ([]persistence.Appointment, error)
	Create(ctx context.Context, principal application.Principal, input application.AppointmentInput) (persistence.Appointment, error)
	Update(ctx context.Context, principal application.Principal, id string, input application.AppointmentInput) (persistence.Appointment, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
}

// AppointmentHandler serves the appointment JSON API.
type AppointmentHandler struct {
	service   appointmentService
	responder responder
	logger    *slog.Logger
}

func newAppointmentHandler(service appointmentService, rs responder, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{service: service, responder: rs, logger: defaultLogger(logger)}
}

func (h *AppointmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AppointmentHandler", operation, attrs...)
}

// List filters appointments by the query parameters start_date, end_date,
// location_id, person_id, plan_period_id and q.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	appointments, err := h.service.List(r.Context(), principal, rawFilter(r))
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, mapSlice(appointments, toAppointmentDTO))
}

// Get returns one appointment.
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	appointment, err := h.service.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentDTO(appointment))
}

// ByDate returns the appointments of one day in display order.
func (h *AppointmentHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	appointments, err := h.service.ByDate(r.Context(), principal, chi.URLParam(r, "date"))
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, mapSlice(appointments, toAppointmentDTO))
}

// ByMonth returns the appointments of one month.
func (h *AppointmentHandler) ByMonth(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	year, month, err := yearMonthParams(r)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	appointments, err := h.service.ByMonth(r.Context(), principal, year, month)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, mapSlice(appointments, toAppointmentDTO))
}

// Create stores a new appointment.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	var req appointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	appointment, err := h.service.Create(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.log(r.Context(), "Create", "appointment_id", appointment.ID).InfoContext(r.Context(), "appointment created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAppointmentDTO(appointment))
}

// Update rewrites an appointment.
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")
	var req appointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	appointment, err := h.service.Update(r.Context(), principal, id, req.toInput())
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.log(r.Context(), "Update", "appointment_id", id).InfoContext(r.Context(), "appointment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentDTO(appointment))
}

// Delete removes an appointment.
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.log(r.Context(), "Delete", "appointment_id", id).InfoContext(r.Context(), "appointment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func rawFilter(r *http.Request) application.RawAppointmentFilter {
	q := r.URL.Query()
	return application.RawAppointmentFilter{
		PersonID:     q.Get("person_id"),
		LocationID:   q.Get("location_id"),
		PlanPeriodID: q.Get("plan_period_id"),
		StartDate:    q.Get("start_date"),
		EndDate:      q.Get("end_date"),
		Query:        q.Get("q"),
	}
}

func yearMonthParams(r *http.Request) (int, int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, badRequest("year %q", chi.URLParam(r, "year"))
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return 0, 0, badRequest("month %q", chi.URLParam(r, "month"))
	}
	if err := application.ValidateYearMonth(year, month); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}
