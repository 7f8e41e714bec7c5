package application

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/appointments-planner/internal/auth"
	"github.com/example/appointments-planner/internal/calendar"
	"github.com/example/appointments-planner/internal/persistence"
	"github.com/example/appointments-planner/internal/testfixtures"
)

var (
	anonymous  = Principal{}
	guest      = Principal{Username: "gast", Role: auth.RoleGuest}
	employee   = Principal{Username: "erika", Role: auth.RoleEmployee}
	dispatcher = Principal{Username: "dieter", Role: auth.RoleDispatcher}
	admin      = Principal{Username: "anna", Role: auth.RoleAdmin}
	supervisor = Principal{Username: "sven", Role: auth.RoleSupervisor}
)

var fastHash = func(password string) (string, error) {
	return auth.HashPasswordWithParams(password, auth.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// env wires every service against a fresh SQLite database. The clock starts
// at 2024-03-14 09:30 UTC.
type env struct {
	harness      *testfixtures.SQLiteHarness
	clock        *testfixtures.Clock
	users        *UserService
	persons      *PersonService
	locations    *LocationService
	periods      *PlanPeriodService
	appointments *AppointmentService
	plans        *PlanService
	calendar     *CalendarService
	search       *SearchService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	h := testfixtures.NewSQLiteHarness(t)
	clock := testfixtures.NewClock(time.Time{})
	now := clock.NowFunc()
	logger := discardLogger()

	e := &env{harness: h, clock: clock}
	e.users = NewUserServiceWithLogger(h.Users, h.Persons, fastHash, logger)
	e.persons = NewPersonServiceWithLogger(h.Persons, h.Appointments, nil, now, logger)
	e.locations = NewLocationServiceWithLogger(h.Locations, h.Appointments, nil, now, logger)
	e.periods = NewPlanPeriodServiceWithLogger(h.PlanPeriods, nil, logger)
	e.appointments = NewAppointmentServiceWithLogger(h.Appointments, h.PlanPeriods, h.Locations, h.Persons, nil, now, logger)
	e.plans = NewPlanServiceWithLogger(h.Plans, h.PlanPeriods, h.Appointments, nil, logger)
	e.calendar = NewCalendarServiceWithLogger(h.Appointments, h.Storage, calendar.NewHolidays(), now, logger)
	e.search = NewSearchServiceWithLogger(e.appointments, e.persons, e.locations, e.plans, logger)
	return e
}

func (e *env) period(t *testing.T, name, start, end string) persistence.PlanPeriod {
	t.Helper()
	p, err := e.periods.Create(context.Background(), dispatcher, PlanPeriodInput{Name: name, StartDate: start, EndDate: end})
	require.NoError(t, err)
	return p
}

func (e *env) location(t *testing.T, name, city string) persistence.Location {
	t.Helper()
	l, err := e.locations.Create(context.Background(), admin, LocationInput{
		Name:    name,
		Address: AddressInput{Street: "Marktplatz 1", PostalCode: "12345", City: city},
	})
	require.NoError(t, err)
	return l
}

func (e *env) person(t *testing.T, first, last string) persistence.Person {
	t.Helper()
	p, err := e.persons.Create(context.Background(), admin, PersonInput{FirstName: first, LastName: last})
	require.NoError(t, err)
	return p
}

func (e *env) appointment(t *testing.T, input AppointmentInput) persistence.Appointment {
	t.Helper()
	if input.StartTime == "" {
		input.StartTime = "09:00"
	}
	if input.Delta == "" {
		input.Delta = "1:00"
	}
	a, err := e.appointments.Create(context.Background(), dispatcher, input)
	require.NoError(t, err)
	return a
}

func appointmentIDs(list []persistence.Appointment) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}
