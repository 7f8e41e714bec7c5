package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/appointments-planner/internal/persistence"
)

var (
	locationCounter    uint64
	personCounter      uint64
	planPeriodCounter  uint64
	appointmentCounter uint64
)

var referenceTime = time.Date(2024, time.March, 14, 9, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ----------------------------- Location fixtures -----------------------------

// LocationOption configures a generated location.
type LocationOption func(*persistence.Location)

// NewLocation returns a deterministic location with an address.
func NewLocation(opts ...LocationOption) persistence.Location {
	idx := atomic.AddUint64(&locationCounter, 1)
	location := persistence.Location{
		ID:   fmt.Sprintf("location-%03d", idx),
		Name: fmt.Sprintf("Einrichtung %03d", idx),
		Address: persistence.Address{
			ID:         fmt.Sprintf("address-%03d", idx),
			Street:     fmt.Sprintf("Hauptstraße %d", idx),
			PostalCode: "10115",
			City:       "Berlin",
		},
	}
	for _, opt := range opts {
		opt(&location)
	}
	return location
}

// WithLocationID overrides the generated location ID.
func WithLocationID(id string) LocationOption {
	return func(l *persistence.Location) {
		l.ID = id
	}
}

// WithLocationName overrides the generated name.
func WithLocationName(name string) LocationOption {
	return func(l *persistence.Location) {
		l.Name = name
	}
}

// WithLocationCity overrides the address city.
func WithLocationCity(city string) LocationOption {
	return func(l *persistence.Location) {
		l.Address.City = city
	}
}

// ------------------------------ Person fixtures ------------------------------

// PersonOption configures a generated person.
type PersonOption func(*persistence.Person)

// NewPerson returns a deterministic person.
func NewPerson(opts ...PersonOption) persistence.Person {
	idx := atomic.AddUint64(&personCounter, 1)
	person := persistence.Person{
		ID:        fmt.Sprintf("person-%03d", idx),
		FirstName: fmt.Sprintf("Vorname%03d", idx),
		LastName:  fmt.Sprintf("Nachname%03d", idx),
		Email:     fmt.Sprintf("person-%03d@example.com", idx),
	}
	for _, opt := range opts {
		opt(&person)
	}
	return person
}

// WithPersonID overrides the generated person ID.
func WithPersonID(id string) PersonOption {
	return func(p *persistence.Person) {
		p.ID = id
	}
}

// WithPersonName overrides first and last name.
func WithPersonName(first, last string) PersonOption {
	return func(p *persistence.Person) {
		p.FirstName = first
		p.LastName = last
	}
}

// WithPersonEmail overrides the e-mail address.
func WithPersonEmail(email string) PersonOption {
	return func(p *persistence.Person) {
		p.Email = email
	}
}

// ---------------------------- Plan period fixtures ----------------------------

// PlanPeriodOption configures a generated plan period.
type PlanPeriodOption func(*persistence.PlanPeriod)

// NewPlanPeriod returns a plan period covering the month of ReferenceTime.
func NewPlanPeriod(opts ...PlanPeriodOption) persistence.PlanPeriod {
	idx := atomic.AddUint64(&planPeriodCounter, 1)
	period := persistence.PlanPeriod{
		ID:        fmt.Sprintf("period-%03d", idx),
		Name:      fmt.Sprintf("Planungszeitraum %03d", idx),
		StartDate: Date(2024, time.March, 1),
		EndDate:   Date(2024, time.March, 31),
	}
	for _, opt := range opts {
		opt(&period)
	}
	return period
}

// WithPlanPeriodID overrides the generated plan period ID.
func WithPlanPeriodID(id string) PlanPeriodOption {
	return func(p *persistence.PlanPeriod) {
		p.ID = id
	}
}

// WithPlanPeriodRange overrides the inclusive date range.
func WithPlanPeriodRange(start, end time.Time) PlanPeriodOption {
	return func(p *persistence.PlanPeriod) {
		p.StartDate = start
		p.EndDate = end
	}
}

// ---------------------------- Appointment fixtures ----------------------------

// AppointmentOption configures a generated appointment.
type AppointmentOption func(*persistence.Appointment)

// NewAppointment returns a one hour appointment at 09:00 on the reference day.
// Callers normally pass WithAppointmentLocation and WithAppointmentPlanPeriod
// so the references resolve in storage tests.
func NewAppointment(opts ...AppointmentOption) persistence.Appointment {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	appointment := persistence.Appointment{
		ID:         fmt.Sprintf("appointment-%03d", idx),
		PlanPeriod: NewPlanPeriod(),
		Date:       Date(2024, time.March, 14),
		StartTime:  9 * time.Hour,
		Delta:      time.Hour,
		Location:   NewLocation(),
	}
	for _, opt := range opts {
		opt(&appointment)
	}
	return appointment
}

// WithAppointmentID overrides the generated appointment ID.
func WithAppointmentID(id string) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.ID = id
	}
}

// WithAppointmentDate sets the appointment day.
func WithAppointmentDate(date time.Time) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.Date = date
	}
}

// WithAppointmentTime sets the start offset and the duration.
func WithAppointmentTime(start, delta time.Duration) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.StartTime = start
		a.Delta = delta
	}
}

// WithAppointmentLocation sets the location.
func WithAppointmentLocation(location persistence.Location) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.Location = location
	}
}

// WithAppointmentPlanPeriod sets the plan period.
func WithAppointmentPlanPeriod(period persistence.PlanPeriod) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.PlanPeriod = period
	}
}

// WithAppointmentPersons replaces the assigned persons.
func WithAppointmentPersons(persons ...persistence.Person) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.Persons = append([]persistence.Person(nil), persons...)
	}
}

// WithAppointmentGuests replaces the guest list.
func WithAppointmentGuests(guests ...string) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.Guests = append([]string(nil), guests...)
	}
}

// WithAppointmentNotes sets the notes.
func WithAppointmentNotes(notes string) AppointmentOption {
	return func(a *persistence.Appointment) {
		a.Notes = notes
	}
}
