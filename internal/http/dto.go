package http

import (
	"time"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/calendar"
	"github.com/example/appointments-planner/internal/persistence"
)

type addressDTO struct {
	ID         string `json:"id,omitempty"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
}

type locationDTO struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Color   string     `json:"color"`
	Address addressDTO `json:"address"`
}

type personDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Email     string `json:"email,omitempty"`
}

type planPeriodDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type appointmentDTO struct {
	ID         string        `json:"id"`
	PlanPeriod planPeriodDTO `json:"plan_period"`
	Date       string        `json:"date"`
	StartTime  string        `json:"start_time"`
	Delta      string        `json:"delta"`
	Location   locationDTO   `json:"location"`
	Persons    []personDTO   `json:"persons"`
	Guests     []string      `json:"guests"`
	Notes      string        `json:"notes"`
}

type planDTO struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Notes        string           `json:"notes"`
	PlanPeriod   planPeriodDTO    `json:"plan_period"`
	Appointments []appointmentDTO `json:"appointments"`
}

type userDTO struct {
	Username  string `json:"username"`
	PersonID  string `json:"person_id,omitempty"`
	Role      string `json:"role"`
	RoleLabel string `json:"role_label"`
	Disabled  bool   `json:"disabled"`
}

type activeFilterDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type activeFiltersDTO struct {
	Person   *activeFilterDTO `json:"person,omitempty"`
	Location *activeFilterDTO `json:"location,omitempty"`
}

type dayDTO struct {
	Date         string           `json:"date"`
	Day          int              `json:"day"`
	InMonth      bool             `json:"in_month"`
	IsToday      bool             `json:"is_today"`
	IsWeekend    bool             `json:"is_weekend"`
	Holiday      string           `json:"holiday,omitempty"`
	Appointments []appointmentDTO `json:"appointments"`
}

type monthDTO struct {
	Year          int              `json:"year"`
	Month         int              `json:"month"`
	MonthName     string           `json:"month_name"`
	Today         string           `json:"today"`
	WeekdayNames  []string         `json:"weekday_names"`
	Weeks         [][]dayDTO       `json:"weeks"`
	ActiveFilters activeFiltersDTO `json:"active_filters"`
}

type searchDTO struct {
	Query        string           `json:"q"`
	Type         string           `json:"type"`
	Total        int              `json:"total"`
	Appointments []appointmentDTO `json:"appointments"`
	Persons      []personDTO      `json:"persons"`
	Locations    []locationDTO    `json:"locations"`
	Plans        []planDTO        `json:"plans"`
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(calendar.ISODateLayout)
}

func toLocationDTO(l persistence.Location) locationDTO {
	return locationDTO{
		ID:    l.ID,
		Name:  l.Name,
		Color: calendar.LocationColor(l.Name),
		Address: addressDTO{
			ID:         l.Address.ID,
			Street:     l.Address.Street,
			PostalCode: l.Address.PostalCode,
			City:       l.Address.City,
		},
	}
}

func toPersonDTO(p persistence.Person) personDTO {
	return personDTO{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName, FullName: p.FullName(), Email: p.Email}
}

func toPlanPeriodDTO(p persistence.PlanPeriod) planPeriodDTO {
	return planPeriodDTO{ID: p.ID, Name: p.Name, StartDate: isoDate(p.StartDate), EndDate: isoDate(p.EndDate)}
}

func toAppointmentDTO(a persistence.Appointment) appointmentDTO {
	guests := a.Guests
	if guests == nil {
		guests = []string{}
	}
	return appointmentDTO{
		ID:         a.ID,
		PlanPeriod: toPlanPeriodDTO(a.PlanPeriod),
		Date:       isoDate(a.Date),
		StartTime:  calendar.FormatClock(a.StartTime),
		Delta:      calendar.FormatDuration(a.Delta),
		Location:   toLocationDTO(a.Location),
		Persons:    mapSlice(a.Persons, toPersonDTO),
		Guests:     guests,
		Notes:      a.Notes,
	}
}

func toPlanDTO(p persistence.Plan) planDTO {
	return planDTO{
		ID:           p.ID,
		Name:         p.Name,
		Notes:        p.Notes,
		PlanPeriod:   toPlanPeriodDTO(p.PlanPeriod),
		Appointments: mapSlice(p.Appointments, toAppointmentDTO),
	}
}

func toUserDTO(u application.User) userDTO {
	return userDTO{Username: u.Username, PersonID: u.PersonID, Role: string(u.Role), RoleLabel: u.Role.Label(), Disabled: u.Disabled}
}

func toActiveFiltersDTO(a application.ActiveFilters) activeFiltersDTO {
	var out activeFiltersDTO
	if a.Person != nil {
		out.Person = &activeFilterDTO{ID: a.Person.ID, Name: a.Person.Name}
	}
	if a.Location != nil {
		out.Location = &activeFilterDTO{ID: a.Location.ID, Name: a.Location.Name}
	}
	return out
}

func toMonthDTO(view application.MonthView) monthDTO {
	grid := view.Grid
	out := monthDTO{
		Year:          grid.Year,
		Month:         int(grid.Month),
		MonthName:     grid.Name(),
		Today:         isoDate(view.Today),
		WeekdayNames:  view.WeekdayNames,
		Weeks:         make([][]dayDTO, 0, len(grid.Weeks)),
		ActiveFilters: toActiveFiltersDTO(view.ActiveFilters),
	}
	for _, week := range grid.Weeks {
		days := make([]dayDTO, 0, len(week.Days))
		for _, d := range week.Days {
			days = append(days, dayDTO{
				Date:         d.ISODate(),
				Day:          d.Number(),
				InMonth:      d.InMonth,
				IsToday:      d.IsToday,
				IsWeekend:    d.IsWeekend,
				Holiday:      d.Holiday,
				Appointments: mapSlice(d.Appointments, toAppointmentDTO),
			})
		}
		out.Weeks = append(out.Weeks, days)
	}
	return out
}

func toSearchDTO(r application.SearchResults) searchDTO {
	return searchDTO{
		Query:        r.Term,
		Type:         string(r.Type),
		Total:        r.Total(),
		Appointments: mapSlice(r.Appointments, toAppointmentDTO),
		Persons:      mapSlice(r.Persons, toPersonDTO),
		Locations:    mapSlice(r.Locations, toLocationDTO),
		Plans:        mapSlice(r.Plans, toPlanDTO),
	}
}

// mapSlice converts every element and never returns nil, so JSON lists encode as [].
func mapSlice[T, U any](in []T, convert func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, convert(v))
	}
	return out
}

type appointmentRequest struct {
	PlanPeriodID string   `json:"plan_period_id"`
	LocationID   string   `json:"location_id"`
	Date         string   `json:"date"`
	StartTime    string   `json:"start_time"`
	Delta        string   `json:"delta"`
	PersonIDs    []string `json:"person_ids"`
	Guests       []string `json:"guests"`
	Notes        string   `json:"notes"`
}

func (r appointmentRequest) toInput() application.AppointmentInput {
	return application.AppointmentInput{
		PlanPeriodID: r.PlanPeriodID,
		LocationID:   r.LocationID,
		Date:         r.Date,
		StartTime:    r.StartTime,
		Delta:        r.Delta,
		PersonIDs:    r.PersonIDs,
		Guests:       r.Guests,
		Notes:        r.Notes,
	}
}

type planRequest struct {
	Name           string   `json:"name"`
	Notes          string   `json:"notes"`
	PlanPeriodID   string   `json:"plan_period_id"`
	AppointmentIDs []string `json:"appointment_ids"`
}

func (r planRequest) toInput() application.PlanInput {
	return application.PlanInput{Name: r.Name, Notes: r.Notes, PlanPeriodID: r.PlanPeriodID, AppointmentIDs: r.AppointmentIDs}
}

type planPeriodRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (r planPeriodRequest) toInput() application.PlanPeriodInput {
	return application.PlanPeriodInput{Name: r.Name, StartDate: r.StartDate, EndDate: r.EndDate}
}

type personRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (r personRequest) toInput() application.PersonInput {
	return application.PersonInput{FirstName: r.FirstName, LastName: r.LastName, Email: r.Email}
}

type locationRequest struct {
	Name    string     `json:"name"`
	Address addressDTO `json:"address"`
}

func (r locationRequest) toInput() application.LocationInput {
	return application.LocationInput{
		Name: r.Name,
		Address: application.AddressInput{
			Street:     r.Address.Street,
			PostalCode: r.Address.PostalCode,
			City:       r.Address.City,
		},
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	PersonID string `json:"person_id"`
	Role     string `json:"role"`
}

type disabledRequest struct {
	Disabled bool `json:"disabled"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}

type principalResponse struct {
	Username  string `json:"username"`
	PersonID  string `json:"person_id,omitempty"`
	Role      string `json:"role"`
	RoleLabel string `json:"role_label"`
}
