package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/appointments-planner/internal/calendar"
	"github.com/example/appointments-planner/internal/persistence"
)

// CalendarDirectory provides the person and location lookups behind filter
// labels and filter options.
type CalendarDirectory interface {
	GetPerson(ctx context.Context, id string) (persistence.Person, error)
	ListPersons(ctx context.Context) ([]persistence.Person, error)
	GetLocation(ctx context.Context, id string) (persistence.Location, error)
	ListLocations(ctx context.Context) ([]persistence.Location, error)
}

// CalendarService builds month and day views from the appointment store.
type CalendarService struct {
	appointments AppointmentLister
	directory    CalendarDirectory
	holidays     *calendar.Holidays
	now          func() time.Time
	logger       *slog.Logger
}

// NewCalendarService constructs a calendar service. now decides what "today"
// is, so it should return times in the display time zone.
func NewCalendarService(appointments AppointmentLister, directory CalendarDirectory, holidays *calendar.Holidays, now func() time.Time) *CalendarService {
	return NewCalendarServiceWithLogger(appointments, directory, holidays, now, nil)
}

// NewCalendarServiceWithLogger constructs a calendar service with a specified logger.
func NewCalendarServiceWithLogger(appointments AppointmentLister, directory CalendarDirectory, holidays *calendar.Holidays, now func() time.Time, logger *slog.Logger) *CalendarService {
	if now == nil {
		now = time.Now
	}
	return &CalendarService{
		appointments: appointments,
		directory:    directory,
		holidays:     holidays,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *CalendarService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CalendarService", operation, attrs...)
}

const invalidMonthMessage = "Ungültiger Monat. Der Monat muss zwischen 1 und 12 liegen."

// ValidateYearMonth rejects years outside 1..9999 and months outside 1..12.
func ValidateYearMonth(year, month int) error {
	v := &ValidationError{}
	if year < 1 || year > 9999 {
		v.add("year", "Ungültiges Jahr. Das Jahr muss zwischen 1 und 9999 liegen.")
	}
	if calendar.ValidateMonth(month) != nil {
		v.add("month", invalidMonthMessage)
	}
	if v.HasErrors() {
		return v
	}
	return nil
}

// Today returns the current calendar date.
func (s *CalendarService) Today() time.Time {
	return calendar.DateOf(s.now())
}

// MonthView builds the grid for the requested month after applying the
// navigation direction, buckets the filtered appointments onto it and, when
// asked, loads the filter options. Options are read from the store on every
// call.
func (s *CalendarService) MonthView(ctx context.Context, principal Principal, q MonthQuery) (view MonthView, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}
	logger := s.loggerWith(ctx, "MonthView",
		"principal", principal.Username,
		"year", q.Year,
		"month", q.Month,
		"direction", string(q.Direction),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build month view", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "month view built", "cells", view.Grid.Days())
	}()

	if err = authorize(principal, readRole); err != nil {
		return
	}

	today := s.Today()
	year, month := q.Year, q.Month
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	if err = ValidateYearMonth(year, month); err != nil {
		return
	}
	if year, month, err = calendar.AdjustMonth(year, month, q.Direction, today); err != nil {
		err = fieldError("month", invalidMonthMessage)
		return
	}

	var grid *calendar.Month
	grid, err = calendar.BuildMonth(year, month, today)
	if err != nil {
		return
	}
	grid.MarkHolidays(s.holidays)

	query, _ := ResolveAppointmentFilter(RawAppointmentFilter{PersonID: q.PersonID, LocationID: q.LocationID})
	first, last := grid.First(), grid.Last()
	query.Filter.From, query.Filter.To = &first, &last

	var appointments []persistence.Appointment
	appointments, err = s.appointments.ListAppointments(ctx, query.Filter)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	grid.Bucket(appointments)

	view = MonthView{
		Grid:         grid,
		Today:        today,
		WeekdayNames: calendar.WeekdayNames(),
	}
	view.ActiveFilters, err = s.activeFilters(ctx, query.Filter)
	if err != nil {
		return
	}
	if q.IncludeOptions {
		var options FilterOptions
		options, err = s.filterOptions(ctx)
		if err != nil {
			return
		}
		view.Options = &options
	}
	return
}

// DayView returns one yyyy-mm-dd day with its filtered appointments in display order.
func (s *CalendarService) DayView(ctx context.Context, principal Principal, q DayQuery) (view DayView, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}
	logger := s.loggerWith(ctx, "DayView", "principal", principal.Username, "date", q.Date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build day view", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if err = authorize(principal, readRole); err != nil {
		return
	}
	var day time.Time
	day, err = parseISODate(q.Date)
	if err != nil {
		err = fieldError("date", "Ungültiges Datumsformat. Bitte verwenden Sie das Format YYYY-MM-DD.")
		return
	}

	query, _ := ResolveAppointmentFilter(RawAppointmentFilter{PersonID: q.PersonID, LocationID: q.LocationID})
	query.Filter.From, query.Filter.To = &day, &day

	var appointments []persistence.Appointment
	appointments, err = s.appointments.ListAppointments(ctx, query.Filter)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	calendar.SortAppointments(appointments)

	view = DayView{
		Date:         day,
		Weekday:      calendar.WeekdayName(day.Weekday()),
		Appointments: appointments,
	}
	if name, ok := s.holidays.Name(day); ok {
		view.Holiday = name
	}
	view.ActiveFilters, err = s.activeFilters(ctx, query.Filter)
	return
}

// activeFilters names the applied person and location filters. An identifier
// that resolves to nothing keeps filtering but gets no label.
func (s *CalendarService) activeFilters(ctx context.Context, filter persistence.AppointmentFilter) (ActiveFilters, error) {
	var active ActiveFilters
	if s.directory == nil {
		return active, nil
	}
	if filter.PersonID != "" {
		person, err := s.directory.GetPerson(ctx, filter.PersonID)
		switch {
		case err == nil:
			active.Person = &ActiveFilter{ID: person.ID, Name: person.FullName()}
		case !errors.Is(err, persistence.ErrNotFound):
			return ActiveFilters{}, mapRepoError(err)
		}
	}
	if filter.LocationID != "" {
		location, err := s.directory.GetLocation(ctx, filter.LocationID)
		switch {
		case err == nil:
			active.Location = &ActiveFilter{ID: location.ID, Name: location.Name}
		case !errors.Is(err, persistence.ErrNotFound):
			return ActiveFilters{}, mapRepoError(err)
		}
	}
	return active, nil
}

func (s *CalendarService) filterOptions(ctx context.Context) (FilterOptions, error) {
	if s.directory == nil {
		return FilterOptions{}, nil
	}
	persons, err := s.directory.ListPersons(ctx)
	if err != nil {
		return FilterOptions{}, mapRepoError(err)
	}
	locations, err := s.directory.ListLocations(ctx)
	if err != nil {
		return FilterOptions{}, mapRepoError(err)
	}
	SortPersons(persons)
	SortLocations(locations)
	return FilterOptions{Persons: persons, Locations: locations}, nil
}
