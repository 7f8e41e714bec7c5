package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/appointments-planner/internal/persistence"
)

type scheduleWorld struct {
	period persistence.PlanPeriod
	north  persistence.Location
	south  persistence.Location
	anna   persistence.Person
	bernd  persistence.Person
}

func newScheduleWorld(t *testing.T, e *env) scheduleWorld {
	t.Helper()
	return scheduleWorld{
		period: e.period(t, "März 2024", "2024-03-01", "2024-03-31"),
		north:  e.location(t, "Nord", "Hamburg"),
		south:  e.location(t, "Süd", "München"),
		anna:   e.person(t, "Anna", "Albers"),
		bernd:  e.person(t, "Bernd", "Brandt"),
	}
}

func TestAppointmentService_Create(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	w := newScheduleWorld(t, e)
	ctx := context.Background()

	created, err := e.appointments.Create(ctx, dispatcher, AppointmentInput{
		PlanPeriodID: w.period.ID,
		LocationID:   w.north.ID,
		Date:         "2024-03-20",
		StartTime:    "14:30",
		Delta:        "1:45",
		PersonIDs:    []string{w.bernd.ID, w.anna.ID, w.anna.ID},
		Guests:       []string{" Frau Kowalski ", "", "Frau Kowalski"},
		Notes:        `<script>alert(1)</script>Tor 3 & Rampe <b>B</b>`,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := e.appointments.Get(ctx, employee, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-20", got.Date.Format("2006-01-02"))
	assert.Equal(t, 14*time.Hour+30*time.Minute, got.StartTime)
	assert.Equal(t, time.Hour+45*time.Minute, got.Delta)
	assert.Equal(t, w.north.ID, got.Location.ID)
	assert.Equal(t, []string{"Frau Kowalski"}, got.Guests)
	assert.Equal(t, "Tor 3 & Rampe B", got.Notes)
	require.Len(t, got.Persons, 2)
	assert.Equal(t, w.anna.ID, got.Persons[0].ID)
}

func TestAppointmentService_CreateValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	w := newScheduleWorld(t, e)
	ctx := context.Background()

	tests := []struct {
		name   string
		input  AppointmentInput
		fields []string
	}{
		{
			name:   "missing references",
			input:  AppointmentInput{Date: "2024-03-20", StartTime: "09:00", Delta: "1:00"},
			fields: []string{"plan_period_id", "location_id"},
		},
		{
			name:   "unknown references",
			input:  AppointmentInput{PlanPeriodID: "nope", LocationID: "nope", PersonIDs: []string{"nope"}, Date: "2024-03-20", StartTime: "09:00", Delta: "1:00"},
			fields: []string{"plan_period_id", "location_id", "person_ids"},
		},
		{
			name:   "bad formats",
			input:  AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "20.03.2024", StartTime: "25:00", Delta: "eine Stunde"},
			fields: []string{"date", "start_time", "delta"},
		},
		{
			name:   "zero duration",
			input:  AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "2024-03-20", StartTime: "09:00", Delta: "0:00"},
			fields: []string{"delta"},
		},
		{
			name:   "outside plan period",
			input:  AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "2024-04-01", StartTime: "09:00", Delta: "1:00"},
			fields: []string{"date"},
		},
		{
			name:   "outside plan period reported with other field errors",
			input:  AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "2024-04-01", StartTime: "09:00", Delta: "0:00"},
			fields: []string{"date", "delta"},
		},
		{
			name:   "notes too long",
			input:  AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "2024-03-20", StartTime: "09:00", Delta: "90m", Notes: strings.Repeat("x", maxNotesLength+1)},
			fields: []string{"notes"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.appointments.Create(ctx, dispatcher, tt.input)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			for _, f := range tt.fields {
				assert.Contains(t, vErr.FieldErrors, f)
			}
		})
	}
}

func TestAppointmentService_Authorization(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	w := newScheduleWorld(t, e)
	ctx := context.Background()
	input := AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "2024-03-20", StartTime: "09:00", Delta: "1:00"}

	_, err := e.appointments.Create(ctx, employee, input)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.appointments.Create(ctx, anonymous, input)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	_, err = e.appointments.List(ctx, guest, RawAppointmentFilter{})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.appointments.List(ctx, Principal{Username: "otto", Role: dispatcher.Role, Disabled: true}, RawAppointmentFilter{})
	assert.ErrorIs(t, err, ErrAuthenticationRequired)

	created := e.appointment(t, input)
	assert.ErrorIs(t, e.appointments.Delete(ctx, employee, created.ID), ErrForbidden)
}

func TestAppointmentService_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	w := newScheduleWorld(t, e)
	ctx := context.Background()

	created := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "2024-03-20", PersonIDs: []string{w.anna.ID}})

	_, err := e.appointments.Update(ctx, dispatcher, created.ID, AppointmentInput{
		PlanPeriodID: w.period.ID,
		LocationID:   w.south.ID,
		Date:         "2024-03-21",
		StartTime:    "07:15",
		Delta:        "0:30",
		PersonIDs:    []string{w.bernd.ID},
	})
	require.NoError(t, err)

	got, err := e.appointments.Get(ctx, employee, created.ID)
	require.NoError(t, err)
	assert.Equal(t, w.south.ID, got.Location.ID)
	assert.Equal(t, 7*time.Hour+15*time.Minute, got.StartTime)
	require.Len(t, got.Persons, 1)
	assert.Equal(t, w.bernd.ID, got.Persons[0].ID)

	_, err = e.appointments.Update(ctx, dispatcher, "missing", AppointmentInput{})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, e.appointments.Delete(ctx, dispatcher, created.ID))
	_, err = e.appointments.Get(ctx, employee, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, e.appointments.Delete(ctx, dispatcher, created.ID), ErrNotFound)
}

func TestAppointmentService_ListFilters(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	w := newScheduleWorld(t, e)
	ctx := context.Background()

	a1 := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "2024-03-05", PersonIDs: []string{w.anna.ID}})
	a2 := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.south.ID, Date: "2024-03-06", PersonIDs: []string{w.bernd.ID}, Guests: []string{"Frau Kowalski"}})
	a3 := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "2024-03-07", StartTime: "08:00", Notes: "Inventur"})

	all, err := e.appointments.List(ctx, employee, RawAppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{a1.ID, a2.ID, a3.ID}, appointmentIDs(all))

	byPerson, err := e.appointments.List(ctx, employee, RawAppointmentFilter{PersonID: w.anna.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{a1.ID}, appointmentIDs(byPerson))

	byLocation, err := e.appointments.List(ctx, employee, RawAppointmentFilter{LocationID: w.north.ID, StartDate: "2024-03-06"})
	require.NoError(t, err)
	assert.Equal(t, []string{a3.ID}, appointmentIDs(byLocation))

	malformed, err := e.appointments.List(ctx, employee, RawAppointmentFilter{PersonID: "kein-uuid"})
	require.NoError(t, err)
	assert.Len(t, malformed, 3)

	byGuest, err := e.appointments.List(ctx, employee, RawAppointmentFilter{Query: "kowalski"})
	require.NoError(t, err)
	assert.Equal(t, []string{a2.ID}, appointmentIDs(byGuest))

	_, err = e.appointments.List(ctx, employee, RawAppointmentFilter{EndDate: "morgen"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "end_date")

	found, err := e.appointments.Search(ctx, employee, "INVENTUR")
	require.NoError(t, err)
	assert.Equal(t, []string{a3.ID}, appointmentIDs(found))
	none, err := e.appointments.Search(ctx, employee, " ")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAppointmentService_ByDateAndMonth(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	w := newScheduleWorld(t, e)
	ctx := context.Background()

	long := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "2024-03-20", StartTime: "09:00", Delta: "3:00"})
	short := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.south.ID, Date: "2024-03-20", StartTime: "09:00", Delta: "0:30"})
	early := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.south.ID, Date: "2024-03-20", StartTime: "07:00"})
	other := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.south.ID, Date: "2024-03-01"})

	day, err := e.appointments.ByDate(ctx, employee, "2024-03-20")
	require.NoError(t, err)
	assert.Equal(t, []string{early.ID, short.ID, long.ID}, appointmentIDs(day))

	_, err = e.appointments.ByDate(ctx, employee, "gestern")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "date")

	month, err := e.appointments.ByMonth(ctx, employee, 2024, 3)
	require.NoError(t, err)
	assert.Len(t, month, 4)
	assert.Equal(t, other.ID, month[0].ID)

	empty, err := e.appointments.ByMonth(ctx, employee, 2024, 4)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = e.appointments.ByMonth(ctx, employee, 2024, 13)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "month")

	_, err = e.appointments.ByMonth(ctx, employee, 2024, 0)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "month")

	_, err = e.appointments.ByMonth(ctx, employee, 0, 3)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "year")
}

func TestAppointmentService_Windows(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	w := newScheduleWorld(t, e)
	ctx := context.Background()

	// clock is 2024-03-14
	before := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "2024-03-02", PersonIDs: []string{w.anna.ID}})
	yesterday := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "2024-03-13", PersonIDs: []string{w.anna.ID}})
	today := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.south.ID, Date: "2024-03-14", PersonIDs: []string{w.anna.ID}})

	upcoming, err := e.appointments.UpcomingForPerson(ctx, employee, w.anna.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{today.ID}, appointmentIDs(upcoming))

	recent, err := e.appointments.RecentForPerson(ctx, employee, w.anna.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{yesterday.ID, before.ID}, appointmentIDs(recent))

	upcomingNorth, err := e.appointments.UpcomingForLocation(ctx, employee, w.north.ID)
	require.NoError(t, err)
	assert.Empty(t, upcomingNorth)

	recentNorth, err := e.appointments.RecentForLocation(ctx, employee, w.north.ID)
	require.NoError(t, err)
	assert.Len(t, recentNorth, 2)

	e.clock.Advance(40 * 24 * time.Hour)
	recent, err = e.appointments.RecentForPerson(ctx, employee, w.anna.ID)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
