package sqlite

import (
	"context"

	"github.com/example/appointments-planner/internal/persistence"
)

type planPeriodRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	StartDate string `db:"start_date"`
	EndDate   string `db:"end_date"`
}

func (r planPeriodRow) toPlanPeriod() (persistence.PlanPeriod, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return persistence.PlanPeriod{}, err
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		return persistence.PlanPeriod{}, err
	}
	return persistence.PlanPeriod{ID: r.ID, Name: r.Name, StartDate: start, EndDate: end}, nil
}

// CreatePlanPeriod inserts a plan period.
func (s *Storage) CreatePlanPeriod(ctx context.Context, period persistence.PlanPeriod) error {
	if period.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plan_periods (id, name, start_date, end_date) VALUES (?, ?, ?, ?)`,
		period.ID, period.Name, formatDate(period.StartDate), formatDate(period.EndDate),
	)
	return mapError(err)
}

// GetPlanPeriod loads one plan period.
func (s *Storage) GetPlanPeriod(ctx context.Context, id string) (persistence.PlanPeriod, error) {
	var row planPeriodRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT id, name, start_date, end_date FROM plan_periods WHERE id = ?`, id,
	); err != nil {
		return persistence.PlanPeriod{}, mapError(err)
	}
	return row.toPlanPeriod()
}

// ListPlanPeriods returns all plan periods, most recent first.
func (s *Storage) ListPlanPeriods(ctx context.Context) ([]persistence.PlanPeriod, error) {
	var rows []planPeriodRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name, start_date, end_date FROM plan_periods ORDER BY start_date DESC, name`,
	); err != nil {
		return nil, mapError(err)
	}
	out := make([]persistence.PlanPeriod, 0, len(rows))
	for _, row := range rows {
		period, err := row.toPlanPeriod()
		if err != nil {
			return nil, err
		}
		out = append(out, period)
	}
	return out, nil
}

// DeletePlanPeriod removes an unused plan period.
func (s *Storage) DeletePlanPeriod(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM plan_periods WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}
