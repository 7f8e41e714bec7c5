package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/go-chi/chi/v5"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/auth"
	"github.com/example/appointments-planner/internal/calendar"
	"github.com/example/appointments-planner/internal/persistence"
)

type planLister interface {
	List(ctx context.Context, principal application.Principal, planPeriodID string) ([]persistence.Plan, error)
	Get(ctx context.Context, principal application.Principal, id string) (persistence.Plan, error)
}

type planPeriodLister interface {
	List(ctx context.Context, principal application.Principal) ([]persistence.PlanPeriod, error)
}

type directoryReader interface {
	List(ctx context.Context, principal application.Principal) ([]persistence.Person, error)
	Detail(ctx context.Context, principal application.Principal, id string) (application.PersonDetail, error)
}

type locationReader interface {
	List(ctx context.Context, principal application.Principal) ([]persistence.Location, error)
	Detail(ctx context.Context, principal application.Principal, id string) (application.LocationDetail, error)
}

// WebServices bundles what the HTML pages read from.
type WebServices struct {
	Calendar  calendarService
	Search    searchService
	Plans     planLister
	Periods   planPeriodLister
	Persons   directoryReader
	Locations locationReader
}

// WebHandler renders the full HTML pages.
type WebHandler struct {
	services  WebServices
	gate      *Gate
	responder responder
	logger    *slog.Logger
}

func newWebHandler(services WebServices, gate *Gate, rs responder, logger *slog.Logger) *WebHandler {
	return &WebHandler{services: services, gate: gate, responder: rs, logger: defaultLogger(logger)}
}

func page(r *http.Request, nav string, extra pongo2.Context) pongo2.Context {
	data := pongo2.Context{
		"principal":  principalOrAnonymous(r.Context()),
		"nav":        nav,
		"request_id": RequestIDFromContext(r.Context()),
	}
	return data.Update(extra)
}

// Index renders the month calendar. Visitors below employee get the login prompt instead.
func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	principal := h.gate.Optional(r)
	ctx := ContextWithPrincipal(r.Context(), principal)
	r = r.WithContext(ctx)

	if !principal.Can(auth.RoleEmployee) {
		h.responder.html(w, r, http.StatusOK, "index.html", page(r, "calendar", pongo2.Context{
			"show_login":          true,
			"required_role":       string(auth.RoleEmployee),
			"required_role_label": auth.RoleEmployee.Label(),
		}))
		return
	}

	query, err := monthQuery(r)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	view, err := h.services.Calendar.MonthView(ctx, principal, query)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.html(w, r, http.StatusOK, "index.html", page(r, "calendar", pongo2.Context{"view": view}))
}

// Plans lists plan periods and the plans of the selected one.
func (h *WebHandler) Plans(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	periods, err := h.services.Periods.List(r.Context(), principal)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	selected := r.URL.Query().Get("plan_period_id")
	plans, err := h.services.Plans.List(r.Context(), principal, selected)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.html(w, r, http.StatusOK, "plans.html", page(r, "plans", pongo2.Context{
		"periods":  periods,
		"plans":    plans,
		"selected": selected,
	}))
}

// Plan shows one plan with its appointments.
func (h *WebHandler) Plan(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	plan, err := h.services.Plans.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.html(w, r, http.StatusOK, "plan_detail.html", page(r, "plans", pongo2.Context{"plan": plan}))
}

// Locations lists all locations.
func (h *WebHandler) Locations(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	locations, err := h.services.Locations.List(r.Context(), principal)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.html(w, r, http.StatusOK, "locations.html", page(r, "locations", pongo2.Context{"locations": locations}))
}

// Location shows a location with its upcoming and recent appointments.
func (h *WebHandler) Location(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	detail, err := h.services.Locations.Detail(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.html(w, r, http.StatusOK, "location_detail.html", page(r, "locations", pongo2.Context{"detail": detail}))
}

// Persons lists all persons.
func (h *WebHandler) Persons(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	persons, err := h.services.Persons.List(r.Context(), principal)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.html(w, r, http.StatusOK, "persons.html", page(r, "persons", pongo2.Context{"persons": persons}))
}

// Person shows a person with their upcoming and recent appointments.
func (h *WebHandler) Person(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	detail, err := h.services.Persons.Detail(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.html(w, r, http.StatusOK, "person_detail.html", page(r, "persons", pongo2.Context{"detail": detail}))
}

// Search renders the search form and, for a non-empty term, its results.
func (h *WebHandler) Search(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	query := searchQuery(r)
	results, err := h.services.Search.Search(r.Context(), principal, query)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.html(w, r, http.StatusOK, "search.html", page(r, "search", pongo2.Context{
		"results": results,
		"query":   query.Term,
		"type":    string(query.Type),
		"types":   searchTypes,
	}))
}

type searchTypeOption struct {
	Value string
	Label string
}

var searchTypes = []searchTypeOption{
	{Value: string(application.SearchAll), Label: "Alle"},
	{Value: string(application.SearchAppointments), Label: "Termine"},
	{Value: string(application.SearchPersons), Label: "Personen"},
	{Value: string(application.SearchLocations), Label: "Einrichtungen"},
	{Value: string(application.SearchPlans), Label: "Pläne"},
}

// monthQuery reads year, month, direction and the filters from the query
// string. Missing year or month select the current one; a given value must
// name a real year and month.
func monthQuery(r *http.Request) (application.MonthQuery, error) {
	q := r.URL.Query()
	year, err := optionalInt(q.Get("year"))
	if err != nil {
		return application.MonthQuery{}, badRequest("year %q", q.Get("year"))
	}
	month, err := optionalInt(q.Get("month"))
	if err != nil {
		return application.MonthQuery{}, badRequest("month %q", q.Get("month"))
	}
	checkYear, checkMonth := 1, 1
	if strings.TrimSpace(q.Get("year")) != "" {
		checkYear = year
	}
	if strings.TrimSpace(q.Get("month")) != "" {
		checkMonth = month
	}
	if err := application.ValidateYearMonth(checkYear, checkMonth); err != nil {
		return application.MonthQuery{}, err
	}
	return application.MonthQuery{
		Year:           year,
		Month:          month,
		Direction:      calendar.Direction(strings.ToLower(strings.TrimSpace(q.Get("direction")))),
		PersonID:       q.Get("person_id"),
		LocationID:     q.Get("location_id"),
		IncludeOptions: true,
	}, nil
}

func optionalInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
