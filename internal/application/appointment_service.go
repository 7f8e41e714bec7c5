package application

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/example/appointments-planner/internal/calendar"
	"github.com/example/appointments-planner/internal/persistence"
)

const (
	recentWindowDays = 30
	maxNotesLength   = 2000
	maxDelta         = 24 * time.Hour
)

// AppointmentLister reads appointments matching a filter in chronological order.
type AppointmentLister interface {
	ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error)
}

// AppointmentService orchestrates validation, authorization and persistence for appointments.
type AppointmentService struct {
	appointments persistence.AppointmentRepository
	periods      persistence.PlanPeriodRepository
	locations    persistence.LocationRepository
	persons      persistence.PersonRepository
	sanitizer    *bluemonday.Policy
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewAppointmentService constructs an appointment service with the provided dependencies.
func NewAppointmentService(
	appointments persistence.AppointmentRepository,
	periods persistence.PlanPeriodRepository,
	locations persistence.LocationRepository,
	persons persistence.PersonRepository,
	idGenerator func() string,
	now func() time.Time,
) *AppointmentService {
	return NewAppointmentServiceWithLogger(appointments, periods, locations, persons, idGenerator, now, nil)
}

// NewAppointmentServiceWithLogger constructs an appointment service with a specified logger.
func NewAppointmentServiceWithLogger(
	appointments persistence.AppointmentRepository,
	periods persistence.PlanPeriodRepository,
	locations persistence.LocationRepository,
	persons persistence.PersonRepository,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *AppointmentService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &AppointmentService{
		appointments: appointments,
		periods:      periods,
		locations:    locations,
		persons:      persons,
		sanitizer:    bluemonday.StrictPolicy(),
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *AppointmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AppointmentService", operation, attrs...)
}

// List returns appointments matching the raw filter in chronological order. A
// free-text term narrows the result and caps it at SearchLimit.
func (s *AppointmentService) List(ctx context.Context, principal Principal, raw RawAppointmentFilter) (appointments []persistence.Appointment, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	logger := s.loggerWith(ctx, "List", "principal", principal.Username)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list appointments", "appointments listed", "count", len(appointments))
	}()

	if err = authorize(principal, readRole); err != nil {
		return
	}
	var query AppointmentQuery
	query, err = ResolveAppointmentFilter(raw)
	if err != nil {
		return
	}
	appointments, err = s.appointments.ListAppointments(ctx, query.Filter)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	appointments = FilterAppointments(appointments, query.Term)
	return
}

// Get loads one appointment.
func (s *AppointmentService) Get(ctx context.Context, principal Principal, id string) (appointment persistence.Appointment, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	if err = authorize(principal, readRole); err != nil {
		return
	}
	appointment, err = s.appointments.GetAppointment(ctx, id)
	err = mapRepoError(err)
	return
}

// ByDate returns the appointments of one yyyy-mm-dd day in display order.
func (s *AppointmentService) ByDate(ctx context.Context, principal Principal, isoDate string) ([]persistence.Appointment, error) {
	if s == nil {
		return nil, fmt.Errorf("AppointmentService is nil")
	}
	if err := authorize(principal, readRole); err != nil {
		return nil, err
	}
	day, err := parseISODate(isoDate)
	if err != nil {
		return nil, fieldError("date", "Ungültiges Datumsformat. Bitte verwenden Sie das Format YYYY-MM-DD.")
	}
	list, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{From: &day, To: &day})
	if err != nil {
		return nil, mapRepoError(err)
	}
	calendar.SortAppointments(list)
	return list, nil
}

// ByMonth returns the appointments dated inside year/month.
func (s *AppointmentService) ByMonth(ctx context.Context, principal Principal, year, month int) ([]persistence.Appointment, error) {
	if s == nil {
		return nil, fmt.Errorf("AppointmentService is nil")
	}
	if err := authorize(principal, readRole); err != nil {
		return nil, err
	}
	if err := ValidateYearMonth(year, month); err != nil {
		return nil, err
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	list, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{From: &from, To: &to})
	return list, mapRepoError(err)
}

// Search returns at most SearchLimit appointments matching term.
func (s *AppointmentService) Search(ctx context.Context, principal Principal, term string) ([]persistence.Appointment, error) {
	if strings.TrimSpace(term) == "" {
		return nil, nil
	}
	return s.List(ctx, principal, RawAppointmentFilter{Query: term})
}

// UpcomingForPerson lists the person's appointments from today on.
func (s *AppointmentService) UpcomingForPerson(ctx context.Context, principal Principal, personID string) ([]persistence.Appointment, error) {
	return s.window(ctx, principal, persistence.AppointmentFilter{PersonID: personID}, true)
}

// RecentForPerson lists the person's appointments of the last 30 days, newest first.
func (s *AppointmentService) RecentForPerson(ctx context.Context, principal Principal, personID string) ([]persistence.Appointment, error) {
	return s.window(ctx, principal, persistence.AppointmentFilter{PersonID: personID}, false)
}

// UpcomingForLocation lists the location's appointments from today on.
func (s *AppointmentService) UpcomingForLocation(ctx context.Context, principal Principal, locationID string) ([]persistence.Appointment, error) {
	return s.window(ctx, principal, persistence.AppointmentFilter{LocationID: locationID}, true)
}

// RecentForLocation lists the location's appointments of the last 30 days, newest first.
func (s *AppointmentService) RecentForLocation(ctx context.Context, principal Principal, locationID string) ([]persistence.Appointment, error) {
	return s.window(ctx, principal, persistence.AppointmentFilter{LocationID: locationID}, false)
}

func (s *AppointmentService) window(ctx context.Context, principal Principal, filter persistence.AppointmentFilter, upcoming bool) ([]persistence.Appointment, error) {
	if s == nil {
		return nil, fmt.Errorf("AppointmentService is nil")
	}
	if err := authorize(principal, readRole); err != nil {
		return nil, err
	}
	today := calendar.DateOf(s.now())
	if upcoming {
		return listUpcoming(ctx, s.appointments, filter, today)
	}
	return listRecent(ctx, s.appointments, filter, today)
}

// Create validates input and stores a new appointment.
func (s *AppointmentService) Create(ctx context.Context, principal Principal, input AppointmentInput) (appointment persistence.Appointment, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Create", "principal", principal.Username)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create appointment", "appointment created",
			"appointment_id", appointment.ID, "date", appointment.Date.Format(calendar.ISODateLayout))
	}()

	if err = authorize(principal, scheduleRole); err != nil {
		return
	}
	var candidate persistence.Appointment
	candidate, err = s.build(ctx, input)
	if err != nil {
		return
	}
	candidate.ID = s.idGenerator()
	if err = mapRepoError(s.appointments.CreateAppointment(ctx, candidate)); err != nil {
		return
	}
	appointment = candidate
	return
}

// Update validates input and rewrites an existing appointment.
func (s *AppointmentService) Update(ctx context.Context, principal Principal, id string, input AppointmentInput) (appointment persistence.Appointment, err error) {
	if s == nil {
		err = fmt.Errorf("AppointmentService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Update", "principal", principal.Username, "appointment_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update appointment", "appointment updated")
	}()

	if err = authorize(principal, scheduleRole); err != nil {
		return
	}
	if _, err = s.appointments.GetAppointment(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}
	var candidate persistence.Appointment
	candidate, err = s.build(ctx, input)
	if err != nil {
		return
	}
	candidate.ID = id
	if err = mapRepoError(s.appointments.UpdateAppointment(ctx, candidate)); err != nil {
		return
	}
	appointment = candidate
	return
}

// Delete removes an appointment together with its plan memberships.
func (s *AppointmentService) Delete(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("AppointmentService is nil")
	}
	logger := s.loggerWith(ctx, "Delete", "principal", principal.Username, "appointment_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete appointment", "appointment deleted")
	}()

	if err = authorize(principal, scheduleRole); err != nil {
		return
	}
	err = mapRepoError(s.appointments.DeleteAppointment(ctx, id))
	return
}

// build validates input and resolves its references into an appointment without ID.
func (s *AppointmentService) build(ctx context.Context, input AppointmentInput) (persistence.Appointment, error) {
	vErr := &ValidationError{}
	var appt persistence.Appointment

	date, err := parseISODate(input.Date)
	if err != nil {
		vErr.add("date", "Ungültiges Datumsformat. Bitte verwenden Sie das Format YYYY-MM-DD.")
	}
	appt.Date = date

	if appt.StartTime, err = parseClock(input.StartTime); err != nil {
		vErr.add("start_time", "Ungültige Uhrzeit. Bitte verwenden Sie das Format HH:MM.")
	}
	switch delta, err := parseDelta(input.Delta); {
	case err != nil:
		vErr.add("delta", "Ungültige Dauer. Bitte verwenden Sie das Format H:MM.")
	case delta <= 0 || delta > maxDelta:
		vErr.add("delta", "Die Dauer muss größer als 0 und höchstens 24 Stunden sein.")
	default:
		appt.Delta = delta
	}

	notes := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(input.Notes)))
	if len([]rune(notes)) > maxNotesLength {
		vErr.add("notes", fmt.Sprintf("Die Notizen dürfen höchstens %d Zeichen lang sein.", maxNotesLength))
	}
	appt.Notes = notes
	appt.Guests = cleanList(input.Guests)

	if err := s.resolveReferences(ctx, input, &appt, vErr); err != nil {
		return persistence.Appointment{}, err
	}
	if appt.PlanPeriod.ID != "" && !appt.Date.IsZero() && !appt.PlanPeriod.Contains(appt.Date) {
		vErr.add("date", "Das Datum liegt außerhalb des Planungszeitraums.")
	}
	if vErr.HasErrors() {
		return persistence.Appointment{}, vErr
	}
	return appt, nil
}

// resolveReferences loads the plan period, location and persons. Missing
// records become field errors; store failures are returned.
func (s *AppointmentService) resolveReferences(ctx context.Context, input AppointmentInput, appt *persistence.Appointment, vErr *ValidationError) error {
	var err error
	if id := strings.TrimSpace(input.PlanPeriodID); id == "" {
		vErr.add("plan_period_id", "Planungszeitraum ist erforderlich.")
	} else if appt.PlanPeriod, err = s.periods.GetPlanPeriod(ctx, id); err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			return mapRepoError(err)
		}
		vErr.add("plan_period_id", "Planungszeitraum nicht gefunden")
	}

	if id := strings.TrimSpace(input.LocationID); id == "" {
		vErr.add("location_id", "Arbeitsort ist erforderlich.")
	} else if appt.Location, err = s.locations.GetLocation(ctx, id); err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			return mapRepoError(err)
		}
		vErr.add("location_id", "Arbeitsort nicht gefunden")
	}

	for _, id := range cleanList(input.PersonIDs) {
		person, err := s.persons.GetPerson(ctx, id)
		if err != nil {
			if !errors.Is(err, persistence.ErrNotFound) {
				return mapRepoError(err)
			}
			vErr.add("person_ids", "Person nicht gefunden")
			continue
		}
		appt.Persons = append(appt.Persons, person)
	}
	return nil
}

// listUpcoming returns appointments dated today or later.
func listUpcoming(ctx context.Context, repo AppointmentLister, filter persistence.AppointmentFilter, today time.Time) ([]persistence.Appointment, error) {
	filter.From, filter.To = &today, nil
	list, err := repo.ListAppointments(ctx, filter)
	return list, mapRepoError(err)
}

// listRecent returns appointments of the 30 days before today, newest first.
func listRecent(ctx context.Context, repo AppointmentLister, filter persistence.AppointmentFilter, today time.Time) ([]persistence.Appointment, error) {
	from := today.AddDate(0, 0, -recentWindowDays)
	to := today.AddDate(0, 0, -1)
	filter.From, filter.To = &from, &to
	list, err := repo.ListAppointments(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

// appointmentsAround loads both windows for a detail page.
func appointmentsAround(ctx context.Context, repo AppointmentLister, filter persistence.AppointmentFilter, now time.Time) (upcoming, recent []persistence.Appointment, err error) {
	if repo == nil {
		return nil, nil, nil
	}
	today := calendar.DateOf(now)
	if upcoming, err = listUpcoming(ctx, repo, filter, today); err != nil {
		return nil, nil, err
	}
	if recent, err = listRecent(ctx, repo, filter, today); err != nil {
		return nil, nil, err
	}
	return upcoming, recent, nil
}
