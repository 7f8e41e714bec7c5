// Package seed loads sample data from YAML and stores it through the
// application services.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/auth"
	"github.com/example/appointments-planner/internal/calendar"
	"github.com/example/appointments-planner/internal/persistence"
)

//go:embed data/default.yaml
var defaultData []byte

// Document is the YAML layout of a seed file. Entries reference each other
// through their Key.
type Document struct {
	Locations    []Location    `yaml:"locations"`
	Persons      []Person      `yaml:"persons"`
	PlanPeriods  []PlanPeriod  `yaml:"plan_periods"`
	Appointments []Appointment `yaml:"appointments"`
	Plans        []Plan        `yaml:"plans"`
}

type Location struct {
	Key        string `yaml:"key"`
	Name       string `yaml:"name"`
	Street     string `yaml:"street"`
	PostalCode string `yaml:"postal_code"`
	City       string `yaml:"city"`
}

type Person struct {
	Key       string `yaml:"key"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
}

// PlanPeriod spans the whole month MonthOffset months after the current one.
// An empty Name becomes "Planungsperiode <Monat> <Jahr>".
type PlanPeriod struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	MonthOffset int    `yaml:"month_offset"`
}

// Appointment falls on Day of its plan period's month.
type Appointment struct {
	Key       string   `yaml:"key"`
	Period    string   `yaml:"period"`
	Location  string   `yaml:"location"`
	Day       int      `yaml:"day"`
	StartTime string   `yaml:"start_time"`
	Delta     string   `yaml:"delta"`
	Persons   []string `yaml:"persons"`
	Guests    []string `yaml:"guests"`
	Notes     string   `yaml:"notes"`
}

type Plan struct {
	Name         string   `yaml:"name"`
	Notes        string   `yaml:"notes"`
	Period       string   `yaml:"period"`
	Appointments []string `yaml:"appointments"`
}

// Parse decodes a seed document. Unknown fields are rejected.
func Parse(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, nil
		}
		return Document{}, fmt.Errorf("seed: decode: %w", err)
	}
	return doc, nil
}

// Default returns the embedded sample data.
func Default() (Document, error) {
	return Parse(bytes.NewReader(defaultData))
}

// Services are the write operations the seeder needs.
type Services struct {
	Locations interface {
		Create(ctx context.Context, principal application.Principal, input application.LocationInput) (persistence.Location, error)
	}
	Persons interface {
		Create(ctx context.Context, principal application.Principal, input application.PersonInput) (persistence.Person, error)
	}
	PlanPeriods interface {
		Create(ctx context.Context, principal application.Principal, input application.PlanPeriodInput) (persistence.PlanPeriod, error)
	}
	Appointments interface {
		Create(ctx context.Context, principal application.Principal, input application.AppointmentInput) (persistence.Appointment, error)
	}
	Plans interface {
		Create(ctx context.Context, principal application.Principal, input application.PlanInput) (persistence.Plan, error)
	}
}

// Report counts the records created by Apply.
type Report struct {
	Locations    int
	Persons      int
	PlanPeriods  int
	Appointments int
	Plans        int
}

// Seeder writes documents through the application services so every record
// passes the regular validation.
type Seeder struct {
	services  Services
	now       func() time.Time
	logger    *slog.Logger
	principal application.Principal
}

// NewSeeder constructs a Seeder. now anchors month offsets.
func NewSeeder(services Services, now func() time.Time, logger *slog.Logger) *Seeder {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		services:  services,
		now:       now,
		logger:    logger.With(slog.String("component", "Seeder")),
		principal: application.Principal{Username: "seed", Role: auth.RoleSupervisor},
	}
}

// Apply stores doc in dependency order. It stops at the first failure; records
// written before that stay in place.
func (s *Seeder) Apply(ctx context.Context, doc Document) (Report, error) {
	var report Report

	locations := make(map[string]string, len(doc.Locations))
	for _, l := range doc.Locations {
		created, err := s.services.Locations.Create(ctx, s.principal, application.LocationInput{
			Name:    l.Name,
			Address: application.AddressInput{Street: l.Street, PostalCode: l.PostalCode, City: l.City},
		})
		if err != nil {
			return report, fmt.Errorf("seed: location %q: %w", l.Key, err)
		}
		locations[l.Key] = created.ID
		report.Locations++
	}

	persons := make(map[string]string, len(doc.Persons))
	for _, p := range doc.Persons {
		created, err := s.services.Persons.Create(ctx, s.principal, application.PersonInput{
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Email:     p.Email,
		})
		if err != nil {
			return report, fmt.Errorf("seed: person %q: %w", p.Key, err)
		}
		persons[p.Key] = created.ID
		report.Persons++
	}

	today := calendar.DateOf(s.now())
	periods := make(map[string]persistence.PlanPeriod, len(doc.PlanPeriods))
	for _, pp := range doc.PlanPeriods {
		first := time.Date(today.Year(), today.Month()+time.Month(pp.MonthOffset), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		name := pp.Name
		if name == "" {
			name = fmt.Sprintf("Planungsperiode %s %d", calendar.MonthName(first.Month()), first.Year())
		}
		created, err := s.services.PlanPeriods.Create(ctx, s.principal, application.PlanPeriodInput{
			Name:      name,
			StartDate: first.Format(time.DateOnly),
			EndDate:   last.Format(time.DateOnly),
		})
		if err != nil {
			return report, fmt.Errorf("seed: plan period %q: %w", pp.Key, err)
		}
		periods[pp.Key] = created
		report.PlanPeriods++
	}

	appointments := make(map[string]string, len(doc.Appointments))
	for _, a := range doc.Appointments {
		period, ok := periods[a.Period]
		if !ok {
			return report, fmt.Errorf("seed: appointment %q: unknown plan period %q", a.Key, a.Period)
		}
		locationID, ok := locations[a.Location]
		if !ok {
			return report, fmt.Errorf("seed: appointment %q: unknown location %q", a.Key, a.Location)
		}
		personIDs, err := resolve(persons, a.Persons, "person")
		if err != nil {
			return report, fmt.Errorf("seed: appointment %q: %w", a.Key, err)
		}
		date := period.StartDate.AddDate(0, 0, a.Day-1)
		created, err := s.services.Appointments.Create(ctx, s.principal, application.AppointmentInput{
			PlanPeriodID: period.ID,
			LocationID:   locationID,
			Date:         date.Format(time.DateOnly),
			StartTime:    a.StartTime,
			Delta:        a.Delta,
			PersonIDs:    personIDs,
			Guests:       a.Guests,
			Notes:        a.Notes,
		})
		if err != nil {
			return report, fmt.Errorf("seed: appointment %q: %w", a.Key, err)
		}
		appointments[a.Key] = created.ID
		report.Appointments++
	}

	for _, p := range doc.Plans {
		period, ok := periods[p.Period]
		if !ok {
			return report, fmt.Errorf("seed: plan %q: unknown plan period %q", p.Name, p.Period)
		}
		appointmentIDs, err := resolve(appointments, p.Appointments, "appointment")
		if err != nil {
			return report, fmt.Errorf("seed: plan %q: %w", p.Name, err)
		}
		if _, err := s.services.Plans.Create(ctx, s.principal, application.PlanInput{
			Name:           p.Name,
			Notes:          p.Notes,
			PlanPeriodID:   period.ID,
			AppointmentIDs: appointmentIDs,
		}); err != nil {
			return report, fmt.Errorf("seed: plan %q: %w", p.Name, err)
		}
		report.Plans++
	}

	s.logger.InfoContext(ctx, "seed data applied",
		slog.Int("locations", report.Locations),
		slog.Int("persons", report.Persons),
		slog.Int("plan_periods", report.PlanPeriods),
		slog.Int("appointments", report.Appointments),
		slog.Int("plans", report.Plans),
	)
	return report, nil
}

func resolve(ids map[string]string, keys []string, kind string) ([]string, error) {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		id, ok := ids[key]
		if !ok {
			return nil, fmt.Errorf("unknown %s %q", kind, key)
		}
		out = append(out, id)
	}
	return out, nil
}
