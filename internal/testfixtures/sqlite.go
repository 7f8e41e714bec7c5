package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/appointments-planner/internal/persistence"
	"github.com/example/appointments-planner/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary, migrated
// SQLite database.
type SQLiteHarness struct {
	Storage *sqlite.Storage

	Locations    persistence.LocationRepository
	Persons      persistence.PersonRepository
	PlanPeriods  persistence.PlanPeriodRepository
	Appointments persistence.AppointmentRepository
	Plans        persistence.PlanRepository
	Users        persistence.UserRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a fresh database in a temporary directory and applies
// every migration. Close is registered with tb automatically.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "planner.db")
	storage, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:      storage,
		Locations:    storage,
		Persons:      storage,
		PlanPeriods:  storage,
		Appointments: storage,
		Plans:        storage,
		Users:        storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

// SeedAppointment stores the appointment together with its plan period,
// location and persons, skipping references that already exist.
func (h *SQLiteHarness) SeedAppointment(tb testing.TB, appointment persistence.Appointment) persistence.Appointment {
	tb.Helper()
	ctx := context.Background()

	if _, err := h.PlanPeriods.GetPlanPeriod(ctx, appointment.PlanPeriod.ID); err != nil {
		if err := h.PlanPeriods.CreatePlanPeriod(ctx, appointment.PlanPeriod); err != nil {
			tb.Fatalf("seed plan period %s: %v", appointment.PlanPeriod.ID, err)
		}
	}
	if _, err := h.Locations.GetLocation(ctx, appointment.Location.ID); err != nil {
		if err := h.Locations.CreateLocation(ctx, appointment.Location); err != nil {
			tb.Fatalf("seed location %s: %v", appointment.Location.ID, err)
		}
	}
	for _, person := range appointment.Persons {
		if _, err := h.Persons.GetPerson(ctx, person.ID); err != nil {
			if err := h.Persons.CreatePerson(ctx, person); err != nil {
				tb.Fatalf("seed person %s: %v", person.ID, err)
			}
		}
	}
	if err := h.Appointments.CreateAppointment(ctx, appointment); err != nil {
		tb.Fatalf("seed appointment %s: %v", appointment.ID, err)
	}
	return appointment
}
