package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/appointments-planner/internal/persistence"
)

func TestNewAppointmentDefaults(t *testing.T) {
	appt := NewAppointment()

	assert.Equal(t, 9*time.Hour, appt.StartTime)
	assert.Equal(t, time.Hour, appt.Delta)
	assert.True(t, appt.PlanPeriod.Contains(appt.Date))
	assert.NotEmpty(t, appt.Location.Address.ID)
}

func TestNewPersonIDsAreUnique(t *testing.T) {
	first := NewPerson()
	second := NewPerson()
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Email, second.Email)
}

func TestSQLiteHarnessSeedAppointment(t *testing.T) {
	h := NewSQLiteHarness(t)
	period := NewPlanPeriod()
	location := NewLocation()
	person := NewPerson()

	for i := 0; i < 2; i++ {
		h.SeedAppointment(t, NewAppointment(
			WithAppointmentPlanPeriod(period),
			WithAppointmentLocation(location),
			WithAppointmentPersons(person),
		))
	}

	list, err := h.Appointments.ListAppointments(context.Background(), persistence.AppointmentFilter{PersonID: person.ID})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
