package persistence

import (
	"context"
	"time"
)

// LocationRepository stores locations together with their address.
type LocationRepository interface {
	CreateLocation(ctx context.Context, location Location) error
	UpdateLocation(ctx context.Context, location Location) error
	GetLocation(ctx context.Context, id string) (Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
	DeleteLocation(ctx context.Context, id string) error
}

// PersonRepository stores persons.
type PersonRepository interface {
	CreatePerson(ctx context.Context, person Person) error
	UpdatePerson(ctx context.Context, person Person) error
	GetPerson(ctx context.Context, id string) (Person, error)
	ListPersons(ctx context.Context) ([]Person, error)
	DeletePerson(ctx context.Context, id string) error
}

// PlanPeriodRepository stores plan periods.
type PlanPeriodRepository interface {
	CreatePlanPeriod(ctx context.Context, period PlanPeriod) error
	GetPlanPeriod(ctx context.Context, id string) (PlanPeriod, error)
	ListPlanPeriods(ctx context.Context) ([]PlanPeriod, error)
	DeletePlanPeriod(ctx context.Context, id string) error
}

// AppointmentFilter narrows appointment queries. Zero values mean "no restriction";
// From and To are inclusive calendar dates.
type AppointmentFilter struct {
	From         *time.Time
	To           *time.Time
	PlanPeriodID string
	LocationID   string
	PersonID     string
}

// AppointmentRepository stores appointments with their person assignments.
// Reads return fully hydrated appointments ordered by date and start time.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) error
	UpdateAppointment(ctx context.Context, appointment Appointment) error
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

// PlanRepository stores plans and their appointment membership.
type PlanRepository interface {
	CreatePlan(ctx context.Context, plan Plan) error
	UpdatePlan(ctx context.Context, plan Plan) error
	GetPlan(ctx context.Context, id string) (Plan, error)
	ListPlans(ctx context.Context, planPeriodID string) ([]Plan, error)
	DeletePlan(ctx context.Context, id string) error
}

// UserRepository stores login accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}
