package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanService_Lifecycle(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	w := newScheduleWorld(t, e)
	ctx := context.Background()

	later := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "2024-03-25"})
	sooner := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.south.ID, Date: "2024-03-04"})

	plan, err := e.plans.Create(ctx, dispatcher, PlanInput{
		Name:           " Frühschicht ",
		Notes:          "Entwurf",
		PlanPeriodID:   w.period.ID,
		AppointmentIDs: []string{later.ID, sooner.ID, later.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Frühschicht", plan.Name)
	assert.Equal(t, []string{sooner.ID, later.ID}, appointmentIDs(plan.Appointments))

	got, err := e.plans.Get(ctx, employee, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{sooner.ID, later.ID}, appointmentIDs(got.Appointments))
	assert.Equal(t, w.period.ID, got.PlanPeriod.ID)

	_, err = e.plans.Update(ctx, dispatcher, plan.ID, PlanInput{Name: "Spätschicht", PlanPeriodID: w.period.ID, AppointmentIDs: []string{later.ID}})
	require.NoError(t, err)
	got, err = e.plans.Get(ctx, employee, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spätschicht", got.Name)
	assert.Equal(t, []string{later.ID}, appointmentIDs(got.Appointments))

	listed, err := e.plans.List(ctx, employee, w.period.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	ignored, err := e.plans.List(ctx, employee, "kein-zeitraum")
	require.NoError(t, err)
	assert.Len(t, ignored, 1)

	found, err := e.plans.Search(ctx, employee, "spät")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, e.plans.Delete(ctx, dispatcher, plan.ID))
	_, err = e.plans.Get(ctx, employee, plan.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.appointments.Get(ctx, employee, later.ID)
	assert.NoError(t, err)
}

func TestPlanService_Validation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	w := newScheduleWorld(t, e)
	ctx := context.Background()
	april := e.period(t, "April 2024", "2024-04-01", "2024-04-30")
	march := e.appointment(t, AppointmentInput{PlanPeriodID: w.period.ID, LocationID: w.north.ID, Date: "2024-03-25"})

	_, err := e.plans.Create(ctx, dispatcher, PlanInput{Name: "April", PlanPeriodID: april.ID, AppointmentIDs: []string{march.ID}})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "appointment_ids")

	_, err = e.plans.Create(ctx, dispatcher, PlanInput{AppointmentIDs: []string{"weg"}})
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "name")
	assert.Contains(t, vErr.FieldErrors, "plan_period_id")
	assert.Contains(t, vErr.FieldErrors, "appointment_ids")

	_, err = e.plans.Create(ctx, employee, PlanInput{Name: "x", PlanPeriodID: april.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.plans.Update(ctx, dispatcher, "missing", PlanInput{Name: "x", PlanPeriodID: april.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}
