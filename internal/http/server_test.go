package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/auth"
	"github.com/example/appointments-planner/internal/calendar"
	"github.com/example/appointments-planner/internal/ics"
	"github.com/example/appointments-planner/internal/persistence"
	"github.com/example/appointments-planner/internal/testfixtures"
)

const testPassword = "geheim-123"

var root = application.Principal{Username: "root", Role: auth.RoleSupervisor}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastHash(password string) (string, error) {
	return auth.HashPasswordWithParams(password, auth.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16})
}

// testServer is the full router over a fresh SQLite database with the clock
// fixed at 2024-03-14 09:30 UTC.
type testServer struct {
	handler      http.Handler
	clock        *testfixtures.Clock
	tokens       *auth.TokenManager
	metrics      *Metrics
	users        *application.UserService
	persons      *application.PersonService
	locations    *application.LocationService
	periods      *application.PlanPeriodService
	appointments *application.AppointmentService
	plans        *application.PlanService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	h := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(time.Time{})
	now := clock.NowFunc()
	logger := discardLogger()

	tokens, err := auth.NewTokenManager("http-test-secret", now)
	require.NoError(t, err)
	renderer, err := NewRenderer(false)
	require.NoError(t, err)

	s := &testServer{clock: clock, tokens: tokens, metrics: NewMetrics()}
	s.users = application.NewUserServiceWithLogger(h.Users, h.Persons, fastHash, logger)
	s.persons = application.NewPersonServiceWithLogger(h.Persons, h.Appointments, nil, now, logger)
	s.locations = application.NewLocationServiceWithLogger(h.Locations, h.Appointments, nil, now, logger)
	s.periods = application.NewPlanPeriodServiceWithLogger(h.PlanPeriods, nil, logger)
	s.appointments = application.NewAppointmentServiceWithLogger(h.Appointments, h.PlanPeriods, h.Locations, h.Persons, nil, now, logger)
	s.plans = application.NewPlanServiceWithLogger(h.Plans, h.PlanPeriods, h.Appointments, nil, logger)
	calendarService := application.NewCalendarServiceWithLogger(h.Appointments, h.Storage, calendar.NewHolidays(), now, logger)
	searchService := application.NewSearchServiceWithLogger(s.appointments, s.persons, s.locations, s.plans, logger)
	authService := application.NewAuthServiceWithLogger(h.Users, tokens, auth.VerifyPassword, time.Hour, logger)

	s.handler = NewRouter(RouterConfig{
		Auth:         authService,
		Users:        s.users,
		Persons:      s.persons,
		Locations:    s.locations,
		Periods:      s.periods,
		Appointments: s.appointments,
		Plans:        s.plans,
		Calendar:     calendarService,
		Search:       searchService,
		Exporter:     ics.NewExporter(time.UTC, now),
		Renderer:     renderer,
		Metrics:      s.metrics,
		Logger:       logger,
	})
	return s
}

// account registers username with role and returns a bearer token for it.
func (s *testServer) account(t *testing.T, username string, role auth.Role) string {
	t.Helper()
	_, err := s.users.Register(context.Background(), root, application.RegisterUserInput{
		Username: username,
		Password: testPassword,
		Role:     string(role),
	})
	require.NoError(t, err)
	token, _, err := s.tokens.Issue(username, role, "", time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) api(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

func (s *testServer) page(target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	}
	return s.do(req)
}

func (s *testServer) form(target string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

// world is a small schedule in March 2024: one period, one location, one
// person and one appointment on the 14th at 09:00.
type world struct {
	period      persistence.PlanPeriod
	location    persistence.Location
	person      persistence.Person
	appointment persistence.Appointment
}

func (s *testServer) seedWorld(t *testing.T) world {
	t.Helper()
	ctx := context.Background()

	period, err := s.periods.Create(ctx, root, application.PlanPeriodInput{Name: "März 2024", StartDate: "2024-03-01", EndDate: "2024-03-31"})
	require.NoError(t, err)
	location, err := s.locations.Create(ctx, root, application.LocationInput{
		Name:    "Haus Sonnenschein",
		Address: application.AddressInput{Street: "Lindenweg 4", PostalCode: "20095", City: "Hamburg"},
	})
	require.NoError(t, err)
	person, err := s.persons.Create(ctx, root, application.PersonInput{FirstName: "Anna", LastName: "Albers", Email: "anna@example.org"})
	require.NoError(t, err)
	appointment, err := s.appointments.Create(ctx, root, application.AppointmentInput{
		PlanPeriodID: period.ID,
		LocationID:   location.ID,
		Date:         "2024-03-14",
		StartTime:    "09:00",
		Delta:        "1:30",
		PersonIDs:    []string{person.ID},
		Guests:       []string{"Frau Kowalski"},
		Notes:        "Frühdienst",
	})
	require.NoError(t, err)
	return world{period: period, location: location, person: person, appointment: appointment}
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func httptestRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}
