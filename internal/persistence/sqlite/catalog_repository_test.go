package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/appointments-planner/internal/persistence"
)

func TestLocationRepository_CRUD(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	list, err := w.storage.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Nord", list[0].Name)

	updated := w.north
	updated.Name = "Nord-Ost"
	updated.Address.Street = "Ostweg 9"
	require.NoError(t, w.storage.UpdateLocation(ctx, updated))

	got, err := w.storage.GetLocation(ctx, w.north.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nord-Ost", got.Name)
	assert.Equal(t, "Ostweg 9", got.Address.Street)
	assert.Equal(t, w.north.Address.ID, got.Address.ID)

	require.NoError(t, w.storage.DeleteLocation(ctx, w.south.ID))
	_, err = w.storage.GetLocation(ctx, w.south.ID)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	assert.ErrorIs(t, w.storage.DeleteLocation(ctx, w.south.ID), persistence.ErrNotFound)
}

func TestLocationRepository_DeleteInUse(t *testing.T) {
	w := newWorld(t)
	w.add(t, persistence.Appointment{ID: "a-1", Date: day(2024, time.March, 3)})

	err := w.storage.DeleteLocation(context.Background(), w.north.ID)
	assert.ErrorIs(t, err, persistence.ErrForeignKeyViolation)

	_, err = w.storage.GetLocation(context.Background(), w.north.ID)
	assert.NoError(t, err)
}

func TestPersonRepository_CRUD(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	persons, err := w.storage.ListPersons(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 2)
	assert.Equal(t, "Albers", persons[0].LastName)

	// empty e-mail addresses do not collide
	require.NoError(t, w.storage.CreatePerson(ctx, persistence.Person{ID: "p-c", FirstName: "Carla", LastName: "Conrad"}))

	dup := persistence.Person{ID: "p-d", FirstName: "Doris", LastName: "Dorn", Email: w.anna.Email}
	assert.ErrorIs(t, w.storage.CreatePerson(ctx, dup), persistence.ErrDuplicate)

	changed := w.bernd
	changed.Email = "bernd@example.com"
	require.NoError(t, w.storage.UpdatePerson(ctx, changed))
	got, err := w.storage.GetPerson(ctx, w.bernd.ID)
	require.NoError(t, err)
	assert.Equal(t, "bernd@example.com", got.Email)

	_, err = w.storage.GetPerson(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestPersonRepository_DeleteAssigned(t *testing.T) {
	w := newWorld(t)
	w.add(t, persistence.Appointment{ID: "a-1", Date: day(2024, time.March, 3), Persons: []persistence.Person{w.bernd}})

	err := w.storage.DeletePerson(context.Background(), w.bernd.ID)
	assert.ErrorIs(t, err, persistence.ErrForeignKeyViolation)
	require.NoError(t, w.storage.DeletePerson(context.Background(), w.anna.ID))
}

func TestPlanPeriodRepository(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	april := persistence.PlanPeriod{ID: "pp-2", Name: "April 2024", StartDate: day(2024, time.April, 1), EndDate: day(2024, time.April, 30)}
	require.NoError(t, w.storage.CreatePlanPeriod(ctx, april))

	periods, err := w.storage.ListPlanPeriods(ctx)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "pp-2", periods[0].ID)

	inverted := persistence.PlanPeriod{ID: "pp-3", Name: "kaputt", StartDate: day(2024, time.May, 2), EndDate: day(2024, time.May, 1)}
	assert.ErrorIs(t, w.storage.CreatePlanPeriod(ctx, inverted), persistence.ErrConstraintViolation)

	w.add(t, persistence.Appointment{ID: "a-1", Date: day(2024, time.March, 3)})
	assert.ErrorIs(t, w.storage.DeletePlanPeriod(ctx, w.period.ID), persistence.ErrForeignKeyViolation)
	require.NoError(t, w.storage.DeletePlanPeriod(ctx, april.ID))
}

func TestPlanRepository_Membership(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	late := w.add(t, persistence.Appointment{ID: "a-late", Date: day(2024, time.March, 9), StartTime: 15 * time.Hour})
	early := w.add(t, persistence.Appointment{ID: "a-early", Date: day(2024, time.March, 9), StartTime: 7 * time.Hour})

	plan := persistence.Plan{
		ID:           "plan-1",
		Name:         "Frühdienst",
		PlanPeriod:   w.period,
		Appointments: []persistence.Appointment{late, early, late},
	}
	require.NoError(t, w.storage.CreatePlan(ctx, plan))

	got, err := w.storage.GetPlan(ctx, "plan-1")
	require.NoError(t, err)
	require.Len(t, got.Appointments, 2)
	assert.Equal(t, "a-early", got.Appointments[0].ID)
	assert.Equal(t, "a-late", got.Appointments[1].ID)

	plan.Appointments = []persistence.Appointment{early}
	plan.Notes = "nur morgens"
	require.NoError(t, w.storage.UpdatePlan(ctx, plan))

	plans, err := w.storage.ListPlans(ctx, w.period.ID)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "nur morgens", plans[0].Notes)
	require.Len(t, plans[0].Appointments, 1)

	other, err := w.storage.ListPlans(ctx, "pp-unknown")
	require.NoError(t, err)
	assert.Empty(t, other)

	// deleting an appointment drops it from the plan
	require.NoError(t, w.storage.DeleteAppointment(ctx, "a-early"))
	got, err = w.storage.GetPlan(ctx, "plan-1")
	require.NoError(t, err)
	assert.Empty(t, got.Appointments)

	require.NoError(t, w.storage.DeletePlan(ctx, "plan-1"))
	_, err = w.storage.GetPlan(ctx, "plan-1")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestUserRepository(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	user := persistence.User{Username: "anna", PasswordHash: "hash", PersonID: w.anna.ID, Role: "dispatcher"}
	require.NoError(t, w.storage.CreateUser(ctx, user))
	assert.ErrorIs(t, w.storage.CreateUser(ctx, user), persistence.ErrDuplicate)

	got, err := w.storage.GetUser(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	user.Role = "admin"
	user.Disabled = true
	user.PersonID = ""
	require.NoError(t, w.storage.UpdateUser(ctx, user))
	got, err = w.storage.GetUser(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Role)
	assert.True(t, got.Disabled)
	assert.Empty(t, got.PersonID)

	require.NoError(t, w.storage.CreateUser(ctx, persistence.User{Username: "bernd", PasswordHash: "h", PersonID: w.bernd.ID, Role: "employee"}))
	users, err := w.storage.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "anna", users[0].Username)

	// removing the person detaches the account instead of deleting it
	require.NoError(t, w.storage.DeletePerson(ctx, w.bernd.ID))
	got, err = w.storage.GetUser(ctx, "bernd")
	require.NoError(t, err)
	assert.Empty(t, got.PersonID)

	_, err = w.storage.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	assert.ErrorIs(t, w.storage.UpdateUser(ctx, persistence.User{Username: "nobody", PasswordHash: "x"}), persistence.ErrNotFound)
}
