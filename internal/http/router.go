package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/auth"
)

type authBackend interface {
	authService
	PrincipalResolver
}

type userBackend interface {
	userRegistrar
	userService
}

type appointmentBackend interface {
	appointmentService
	upcomingLister
}

// RouterConfig is the application context handed to the router. Every
// service is required; Metrics is optional.
type RouterConfig struct {
	Auth         authBackend
	Users        userBackend
	Persons      personService
	Locations    locationService
	Periods      planPeriodService
	Appointments appointmentBackend
	Plans        planService
	Calendar     calendarService
	Search       searchService
	Exporter     calendarWriter

	Renderer     *Renderer
	Metrics      *Metrics
	Logger       *slog.Logger
	Debug        bool
	CookieSecure bool
	Middleware   []func(http.Handler) http.Handler
}

// NewRouter wires handlers, guards and middleware onto a chi router.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	rs := newResponder(logger, cfg.Renderer, cfg.Debug)
	gate := NewGate(cfg.Auth, rs, logger)

	authHandler := newAuthHandler(cfg.Auth, cfg.Users, cfg.CookieSecure, rs, logger)
	users := newUserHandler(cfg.Users, rs, logger)
	appointments := newAppointmentHandler(cfg.Appointments, rs, logger)
	plans := newPlanHandler(cfg.Plans, cfg.Periods, rs, logger)
	directory := newDirectoryHandler(cfg.Persons, cfg.Locations, cfg.Appointments, cfg.Exporter, rs, logger)
	calendarHandler := newCalendarHandler(cfg.Calendar, cfg.Search, rs, logger)
	fragments := newFragmentHandler(cfg.Calendar, cfg.Appointments, rs, logger)
	web := newWebHandler(WebServices{
		Calendar:  cfg.Calendar,
		Search:    cfg.Search,
		Plans:     cfg.Plans,
		Periods:   cfg.Periods,
		Persons:   cfg.Persons,
		Locations: cfg.Locations,
	}, gate, rs, logger)

	mux := chi.NewRouter()
	mux.Use(RequestID, RequestLogger(logger), chimw.Recoverer)
	if cfg.Metrics != nil {
		mux.Use(cfg.Metrics.Middleware)
	}
	mux.Use(cfg.Middleware...)

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rs.fail(w, r, application.ErrNotFound)
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rs.fail(w, r, badRequest("method %s not allowed on %s", r.Method, r.URL.Path))
	})

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		rs.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	mux.Route("/auth", func(sr chi.Router) {
		sr.Post("/token", authHandler.Token)
		sr.Post("/web-token", authHandler.WebToken)
		sr.Get("/logout", authHandler.Logout)
		sr.Post("/logout", authHandler.Logout)
		sr.With(gate.RequireBearer(auth.RoleAdmin)).Post("/register", authHandler.Register)
		sr.With(gate.RequireBearer(auth.RoleEmployee)).Get("/me", authHandler.Me)
	})

	mux.Route("/api", func(api chi.Router) {
		api.Use(gate.RequireBearer(auth.RoleEmployee))

		api.Route("/appointments", func(sr chi.Router) {
			sr.Get("/", appointments.List)
			sr.Get("/by-date/{date}", appointments.ByDate)
			sr.Get("/by-month/{year}/{month}", appointments.ByMonth)
			sr.Get("/{id}", appointments.Get)
			sr.Group(func(mut chi.Router) {
				mut.Use(gate.RequireBearer(auth.RoleDispatcher))
				mut.Post("/", appointments.Create)
				mut.Put("/{id}", appointments.Update)
				mut.Delete("/{id}", appointments.Delete)
			})
		})

		api.Route("/plans", func(sr chi.Router) {
			sr.Get("/", plans.List)
			sr.Get("/{id}", plans.Get)
			sr.Group(func(mut chi.Router) {
				mut.Use(gate.RequireBearer(auth.RoleDispatcher))
				mut.Post("/", plans.Create)
				mut.Put("/{id}", plans.Update)
				mut.Delete("/{id}", plans.Delete)
			})
		})

		api.Route("/plan-periods", func(sr chi.Router) {
			sr.Get("/", plans.ListPeriods)
			sr.Get("/{id}", plans.GetPeriod)
			sr.Group(func(mut chi.Router) {
				mut.Use(gate.RequireBearer(auth.RoleDispatcher))
				mut.Post("/", plans.CreatePeriod)
				mut.Delete("/{id}", plans.DeletePeriod)
			})
		})

		api.Route("/persons", func(sr chi.Router) {
			sr.Get("/", directory.ListPersons)
			sr.Get("/{id}", directory.GetPerson)
			sr.Get("/{id}/calendar.ics", directory.PersonCalendar)
			sr.Group(func(mut chi.Router) {
				mut.Use(gate.RequireBearer(auth.RoleAdmin))
				mut.Post("/", directory.CreatePerson)
				mut.Put("/{id}", directory.UpdatePerson)
				mut.Delete("/{id}", directory.DeletePerson)
			})
		})

		api.Route("/locations", func(sr chi.Router) {
			sr.Get("/", directory.ListLocations)
			sr.Get("/{id}", directory.GetLocation)
			sr.Get("/{id}/calendar.ics", directory.LocationCalendar)
			sr.Group(func(mut chi.Router) {
				mut.Use(gate.RequireBearer(auth.RoleAdmin))
				mut.Post("/", directory.CreateLocation)
				mut.Put("/{id}", directory.UpdateLocation)
				mut.Delete("/{id}", directory.DeleteLocation)
			})
		})

		api.Route("/users", func(sr chi.Router) {
			sr.Use(gate.RequireBearer(auth.RoleAdmin))
			sr.Get("/", users.List)
			sr.Put("/{username}/disabled", users.SetDisabled)
		})

		api.Get("/calendar/{year}/{month}", calendarHandler.Month)
		api.Get("/search", calendarHandler.Search)
	})

	mux.Get("/", web.Index)
	mux.Group(func(sr chi.Router) {
		sr.Use(gate.RequireCookie(auth.RoleEmployee))
		sr.Get("/plans", web.Plans)
		sr.Get("/plans/{id}", web.Plan)
		sr.Get("/locations", web.Locations)
		sr.Get("/locations/{id}", web.Location)
		sr.Get("/persons", web.Persons)
		sr.Get("/persons/{id}", web.Person)
		sr.Get("/search", web.Search)
	})

	mux.Route("/hx", func(sr chi.Router) {
		sr.Get("/close-modal", fragments.CloseModal)
		sr.Get("/login-form", fragments.LoginForm)
		sr.Group(func(p chi.Router) {
			p.Use(gate.RequireCookie(auth.RoleEmployee))
			p.Get("/calendar-partial", fragments.CalendarPartial)
			p.Get("/day-view/{date}", fragments.DayView)
			p.Get("/appointments/{id}/detail", fragments.AppointmentDetail)
		})
	})

	return mux
}

var (
	_ authBackend        = (*application.AuthService)(nil)
	_ userBackend        = (*application.UserService)(nil)
	_ personService      = (*application.PersonService)(nil)
	_ locationService    = (*application.LocationService)(nil)
	_ planPeriodService  = (*application.PlanPeriodService)(nil)
	_ appointmentBackend = (*application.AppointmentService)(nil)
	_ planService        = (*application.PlanService)(nil)
	_ calendarService    = (*application.CalendarService)(nil)
	_ searchService      = (*application.SearchService)(nil)
)

