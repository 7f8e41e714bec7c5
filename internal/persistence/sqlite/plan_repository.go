package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/example/appointments-planner/internal/persistence"
)

type planRow struct {
	ID              string `db:"id"`
	Name            string `db:"name"`
	Notes           string `db:"notes"`
	PlanPeriodID    string `db:"plan_period_id"`
	PlanPeriodName  string `db:"plan_period_name"`
	PlanPeriodStart string `db:"plan_period_start"`
	PlanPeriodEnd   string `db:"plan_period_end"`
}

type planMembershipRow struct {
	PlanID        string `db:"plan_id"`
	AppointmentID string `db:"appointment_id"`
}

const selectPlans = `
SELECT
	p.id, p.name, p.notes,
	pp.id AS plan_period_id, pp.name AS plan_period_name,
	pp.start_date AS plan_period_start, pp.end_date AS plan_period_end
FROM plans p
JOIN plan_periods pp ON pp.id = p.plan_period_id`

// CreatePlan inserts the plan and its appointment memberships.
func (s *Storage) CreatePlan(ctx context.Context, plan persistence.Plan) error {
	if plan.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO plans (id, name, notes, plan_period_id) VALUES (?, ?, ?, ?)`,
			plan.ID, plan.Name, plan.Notes, plan.PlanPeriod.ID,
		); err != nil {
			return mapError(err)
		}
		return replacePlanAppointments(ctx, tx, plan)
	})
}

// UpdatePlan rewrites the plan and replaces its appointment memberships.
func (s *Storage) UpdatePlan(ctx context.Context, plan persistence.Plan) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE plans SET name = ?, notes = ?, plan_period_id = ? WHERE id = ?`,
			plan.Name, plan.Notes, plan.PlanPeriod.ID, plan.ID,
		)
		if err != nil {
			return mapError(err)
		}
		if err := expectAffected(result); err != nil {
			return err
		}
		return replacePlanAppointments(ctx, tx, plan)
	})
}

// GetPlan loads one plan with its appointments.
func (s *Storage) GetPlan(ctx context.Context, id string) (persistence.Plan, error) {
	plans, err := s.queryPlans(ctx, ` WHERE p.id = ?`, id)
	if err != nil {
		return persistence.Plan{}, err
	}
	if len(plans) == 0 {
		return persistence.Plan{}, persistence.ErrNotFound
	}
	return plans[0], nil
}

// ListPlans returns plans ordered by name, restricted to one plan period when
// planPeriodID is set.
func (s *Storage) ListPlans(ctx context.Context, planPeriodID string) ([]persistence.Plan, error) {
	if planPeriodID != "" {
		return s.queryPlans(ctx, ` WHERE p.plan_period_id = ?`, planPeriodID)
	}
	return s.queryPlans(ctx, "")
}

// DeletePlan removes a plan; its memberships cascade, appointments stay.
func (s *Storage) DeletePlan(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

func (s *Storage) queryPlans(ctx context.Context, where string, args ...any) ([]persistence.Plan, error) {
	var rows []planRow
	if err := s.db.SelectContext(ctx, &rows, selectPlans+where+` ORDER BY p.name, p.id`, args...); err != nil {
		return nil, mapError(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	plans := make([]persistence.Plan, 0, len(rows))
	planIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		period, err := planPeriodRow{
			ID:        row.PlanPeriodID,
			Name:      row.PlanPeriodName,
			StartDate: row.PlanPeriodStart,
			EndDate:   row.PlanPeriodEnd,
		}.toPlanPeriod()
		if err != nil {
			return nil, err
		}
		plans = append(plans, persistence.Plan{ID: row.ID, Name: row.Name, Notes: row.Notes, PlanPeriod: period})
		planIDs = append(planIDs, row.ID)
	}

	query, inArgs, err := sqlx.In(`SELECT plan_id, appointment_id FROM plan_appointments WHERE plan_id IN (?)`, planIDs)
	if err != nil {
		return nil, err
	}
	var memberships []planMembershipRow
	if err := s.db.SelectContext(ctx, &memberships, query, inArgs...); err != nil {
		return nil, mapError(err)
	}
	if len(memberships) == 0 {
		return plans, nil
	}

	appointmentIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		appointmentIDs = append(appointmentIDs, m.AppointmentID)
	}
	inQuery, inArgs, err := sqlx.In(` WHERE ap.id IN (?)`, appointmentIDs)
	if err != nil {
		return nil, err
	}
	appointments, err := queryAppointments(ctx, s.db, inQuery, inArgs)
	if err != nil {
		return nil, err
	}

	members := make(map[string]map[string]struct{}, len(plans))
	for _, m := range memberships {
		if members[m.PlanID] == nil {
			members[m.PlanID] = make(map[string]struct{})
		}
		members[m.PlanID][m.AppointmentID] = struct{}{}
	}
	// appointments are already in chronological order; keep it per plan.
	for i := range plans {
		set := members[plans[i].ID]
		for _, appt := range appointments {
			if _, ok := set[appt.ID]; ok {
				plans[i].Appointments = append(plans[i].Appointments, appt)
			}
		}
	}
	return plans, nil
}

func replacePlanAppointments(ctx context.Context, tx *sqlx.Tx, plan persistence.Plan) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM plan_appointments WHERE plan_id = ?`, plan.ID); err != nil {
		return mapError(err)
	}
	seen := make(map[string]struct{}, len(plan.Appointments))
	for _, appt := range plan.Appointments {
		if _, dup := seen[appt.ID]; dup {
			continue
		}
		seen[appt.ID] = struct{}{}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO plan_appointments (plan_id, appointment_id) VALUES (?, ?)`,
			plan.ID, appt.ID,
		); err != nil {
			return mapError(err)
		}
	}
	return nil
}
