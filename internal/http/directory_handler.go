package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/persistence"
)

type personService interface {
	List(ctx context.Context, principal application.Principal) ([]persistence.Person, error)
	Get(ctx context.Context, principal application.Principal, id string) (persistence.Person, error)
	Detail(ctx context.Context, principal application.Principal, id string) (application.PersonDetail, error)
	Create(ctx context.Context, principal application.Principal, input application.PersonInput) (persistence.Person, error)
	Update(ctx context.Context, principal application.Principal, id string, input application.PersonInput) (persistence.Person, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
}

type locationService interface {
	List(ctx context.Context, principal application.Principal) ([]persistence.Location, error)
	Get(ctx context.Context, principal application.Principal, id string) (persistence.Location, error)
	Detail(ctx context.Context, principal application.Principal, id string) (application.LocationDetail, error)
	Create(ctx context.Context, principal application.Principal, input application.LocationInput) (persistence.Location, error)
	Update(ctx context.Context, principal application.Principal, id string, input application.LocationInput) (persistence.Location, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
}

type upcomingLister interface {
	UpcomingForPerson(ctx context.Context, principal application.Principal, personID string) ([]persistence.Appointment, error)
	UpcomingForLocation(ctx context.Context, principal application.Principal, locationID string) ([]persistence.Appointment, error)
}

type calendarWriter interface {
	Write(w io.Writer, name string, appointments []persistence.Appointment) error
}

// DirectoryHandler serves persons and locations including their iCalendar feeds.
type DirectoryHandler struct {
	persons      personService
	locations    locationService
	appointments upcomingLister
	exporter     calendarWriter
	responder    responder
	logger       *slog.Logger
}

func newDirectoryHandler(persons personService, locations locationService, appointments upcomingLister, exporter calendarWriter, rs responder, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		persons:      persons,
		locations:    locations,
		appointments: appointments,
		exporter:     exporter,
		responder:    rs,
		logger:       defaultLogger(logger),
	}
}

func (h *DirectoryHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "DirectoryHandler", operation, attrs...)
}

// ListPersons returns all persons in German collation order.
func (h *DirectoryHandler) ListPersons(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	persons, err := h.persons.List(r.Context(), principal)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, mapSlice(persons, toPersonDTO))
}

// GetPerson returns one person.
func (h *DirectoryHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	person, err := h.persons.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPersonDTO(person))
}

// CreatePerson stores a new person.
func (h *DirectoryHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	var req personRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	person, err := h.persons.Create(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.log(r.Context(), "CreatePerson", "person_id", person.ID).InfoContext(r.Context(), "person created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toPersonDTO(person))
}

// UpdatePerson rewrites a person.
func (h *DirectoryHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	var req personRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	person, err := h.persons.Update(r.Context(), principal, chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPersonDTO(person))
}

// DeletePerson removes a person that is no longer assigned anywhere.
func (h *DirectoryHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.persons.Delete(r.Context(), principal, id); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.log(r.Context(), "DeletePerson", "person_id", id).InfoContext(r.Context(), "person deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// PersonCalendar streams the person's upcoming appointments as iCalendar.
func (h *DirectoryHandler) PersonCalendar(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")
	person, err := h.persons.Get(r.Context(), principal, id)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	appointments, err := h.appointments.UpcomingForPerson(r.Context(), principal, id)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.writeCalendar(w, r, person.FullName(), "person-"+id, appointments)
}

// ListLocations returns all locations by name.
func (h *DirectoryHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	locations, err := h.locations.List(r.Context(), principal)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, mapSlice(locations, toLocationDTO))
}

// GetLocation returns one location with its address.
func (h *DirectoryHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	location, err := h.locations.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toLocationDTO(location))
}

// CreateLocation stores a new location and its address.
func (h *DirectoryHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	location, err := h.locations.Create(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.log(r.Context(), "CreateLocation", "location_id", location.ID).InfoContext(r.Context(), "location created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toLocationDTO(location))
}

// UpdateLocation rewrites a location and its address.
func (h *DirectoryHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	location, err := h.locations.Update(r.Context(), principal, chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toLocationDTO(location))
}

// DeleteLocation removes a location without appointments.
func (h *DirectoryHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.locations.Delete(r.Context(), principal, id); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.log(r.Context(), "DeleteLocation", "location_id", id).InfoContext(r.Context(), "location deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// LocationCalendar streams the location's upcoming appointments as iCalendar.
func (h *DirectoryHandler) LocationCalendar(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")
	location, err := h.locations.Get(r.Context(), principal, id)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	appointments, err := h.appointments.UpcomingForLocation(r.Context(), principal, id)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.writeCalendar(w, r, location.Name, "location-"+id, appointments)
}

func (h *DirectoryHandler) writeCalendar(w http.ResponseWriter, r *http.Request, name, filename string, appointments []persistence.Appointment) {
	var buf bytes.Buffer
	if err := h.exporter.Write(&buf, name, appointments); err != nil {
		h.responder.fail(w, r, fmt.Errorf("export calendar %s: %w", filename, err))
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", strings.ToLower(filename)+".ics"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
