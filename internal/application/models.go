package application

import (
	"time"

	"github.com/example/appointments-planner/internal/auth"
	"github.com/example/appointments-planner/internal/calendar"
	"github.com/example/appointments-planner/internal/persistence"
)

// Principal represents the authenticated user invoking a service method. The
// zero value is the anonymous caller.
type Principal struct {
	Username string
	PersonID string
	Role     auth.Role
	Disabled bool
}

// Authenticated reports whether the principal stands for a logged-in account.
func (p Principal) Authenticated() bool {
	return p.Username != "" && !p.Disabled
}

// Can reports whether the principal's role satisfies required.
func (p Principal) Can(required auth.Role) bool {
	return p.Authenticated() && auth.HasPermission(required, p.Role)
}

// LoginParams captures the credentials submitted by a login form or token request.
type LoginParams struct {
	Username string
	Password string
}

// LoginResult is a successful login: the principal and its signed token.
type LoginResult struct {
	Principal Principal
	Token     string
	ExpiresAt time.Time
}

// User is an account as exposed to callers; the password hash never leaves the service.
type User struct {
	Username string
	PersonID string
	Role     auth.Role
	Disabled bool
}

// RegisterUserInput captures the fields of a new account.
type RegisterUserInput struct {
	Username string
	Password string
	PersonID string
	Role     string
}

// AddressInput captures the postal address of a location.
type AddressInput struct {
	Street     string
	PostalCode string
	City       string
}

// LocationInput captures caller provided location fields.
type LocationInput struct {
	Name    string
	Address AddressInput
}

// PersonInput captures caller provided person fields.
type PersonInput struct {
	FirstName string
	LastName  string
	Email     string
}

// PlanPeriodInput captures caller provided plan period fields. Dates use
// yyyy-mm-dd.
type PlanPeriodInput struct {
	Name      string
	StartDate string
	EndDate   string
}

// AppointmentInput captures caller provided appointment fields. Date uses
// yyyy-mm-dd, StartTime HH:MM and Delta H:MM or a Go duration such as "90m".
type AppointmentInput struct {
	PlanPeriodID string
	LocationID   string
	Date         string
	StartTime    string
	Delta        string
	PersonIDs    []string
	Guests       []string
	Notes        string
}

// PlanInput captures caller provided plan fields.
type PlanInput struct {
	Name           string
	Notes          string
	PlanPeriodID   string
	AppointmentIDs []string
}

// RawAppointmentFilter holds unparsed filter values as they arrive from query
// strings or forms.
type RawAppointmentFilter struct {
	PersonID     string
	LocationID   string
	PlanPeriodID string
	StartDate    string
	EndDate      string
	Query        string
}

// AppointmentQuery is a resolved filter: predicates for the store plus an
// optional free-text term applied afterwards.
type AppointmentQuery struct {
	Filter persistence.AppointmentFilter
	Term   string
}

// ActiveFilter names an applied calendar filter for display.
type ActiveFilter struct {
	ID   string
	Name string
}

// ActiveFilters lists the person and location filters currently applied.
type ActiveFilters struct {
	Person   *ActiveFilter
	Location *ActiveFilter
}

// Any reports whether a filter label is present.
func (a ActiveFilters) Any() bool {
	return a.Person != nil || a.Location != nil
}

// FilterOptions are the choices offered by the calendar filter form.
type FilterOptions struct {
	Persons   []persistence.Person
	Locations []persistence.Location
}

// MonthQuery selects a calendar month and its filters. Zero Year or Month
// stands for a value the caller did not supply and means the current one;
// callers reading user input must reject an explicit zero themselves.
type MonthQuery struct {
	Year           int
	Month          int
	Direction      calendar.Direction
	PersonID       string
	LocationID     string
	IncludeOptions bool
}

// MonthView is a bucketed month grid ready for rendering.
type MonthView struct {
	Grid          *calendar.Month
	Today         time.Time
	WeekdayNames  []string
	ActiveFilters ActiveFilters
	Options       *FilterOptions
}

// DayQuery selects one day and its filters.
type DayQuery struct {
	Date       string
	PersonID   string
	LocationID string
}

// DayView is one day with its appointments in display order.
type DayView struct {
	Date          time.Time
	Weekday       string
	Holiday       string
	Appointments  []persistence.Appointment
	ActiveFilters ActiveFilters
}

// PersonDetail is a person with the appointments around today.
type PersonDetail struct {
	Person   persistence.Person
	Upcoming []persistence.Appointment
	Recent   []persistence.Appointment
}

// LocationDetail is a location with the appointments around today.
type LocationDetail struct {
	Location persistence.Location
	Upcoming []persistence.Appointment
	Recent   []persistence.Appointment
}

// SearchType restricts a search to one kind of record.
type SearchType string

const (
	SearchAll          SearchType = "all"
	SearchAppointments SearchType = "appointments"
	SearchPersons      SearchType = "persons"
	SearchLocations    SearchType = "locations"
	SearchPlans        SearchType = "plans"
)

// ParseSearchType maps a query value onto a SearchType; unknown values search everything.
func ParseSearchType(value string) SearchType {
	switch t := SearchType(value); t {
	case SearchAppointments, SearchPersons, SearchLocations, SearchPlans:
		return t
	default:
		return SearchAll
	}
}

// includes reports whether a search of type t covers kind.
func (t SearchType) includes(kind SearchType) bool {
	return t == SearchAll || t == kind
}

// SearchQuery is a free-text search request.
type SearchQuery struct {
	Term string
	Type SearchType
}

// SearchResults holds the capped matches per record kind.
type SearchResults struct {
	Term         string
	Type         SearchType
	Appointments []persistence.Appointment
	Persons      []persistence.Person
	Locations    []persistence.Location
	Plans        []persistence.Plan
}

// Total returns the number of matches across all kinds.
func (r SearchResults) Total() int {
	return len(r.Appointments) + len(r.Persons) + len(r.Locations) + len(r.Plans)
}
