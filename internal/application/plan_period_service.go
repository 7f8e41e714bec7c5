package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/example/appointments-planner/internal/persistence"
)

// PlanPeriodService manages the date ranges appointments and plans belong to.
type PlanPeriodService struct {
	periods     persistence.PlanPeriodRepository
	idGenerator func() string
	logger      *slog.Logger
}

// NewPlanPeriodService constructs a plan period service.
func NewPlanPeriodService(periods persistence.PlanPeriodRepository, idGenerator func() string) *PlanPeriodService {
	return NewPlanPeriodServiceWithLogger(periods, idGenerator, nil)
}

// NewPlanPeriodServiceWithLogger constructs a plan period service with a specified logger.
func NewPlanPeriodServiceWithLogger(periods persistence.PlanPeriodRepository, idGenerator func() string, logger *slog.Logger) *PlanPeriodService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	return &PlanPeriodService{periods: periods, idGenerator: idGenerator, logger: defaultLogger(logger)}
}

func (s *PlanPeriodService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PlanPeriodService", operation, attrs...)
}

// List returns all plan periods, most recent first.
func (s *PlanPeriodService) List(ctx context.Context, principal Principal) (periods []persistence.PlanPeriod, err error) {
	if s == nil {
		err = fmt.Errorf("PlanPeriodService is nil")
		return
	}
	if err = authorize(principal, readRole); err != nil {
		return
	}
	periods, err = s.periods.ListPlanPeriods(ctx)
	err = mapRepoError(err)
	return
}

// Get loads one plan period.
func (s *PlanPeriodService) Get(ctx context.Context, principal Principal, id string) (period persistence.PlanPeriod, err error) {
	if s == nil {
		err = fmt.Errorf("PlanPeriodService is nil")
		return
	}
	if err = authorize(principal, readRole); err != nil {
		return
	}
	period, err = s.periods.GetPlanPeriod(ctx, id)
	err = mapRepoError(err)
	return
}

// Create validates and stores a plan period. The start must not be after the end.
func (s *PlanPeriodService) Create(ctx context.Context, principal Principal, input PlanPeriodInput) (period persistence.PlanPeriod, err error) {
	if s == nil {
		err = fmt.Errorf("PlanPeriodService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Create", "principal", principal.Username)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create plan period", "plan period created", "plan_period_id", period.ID)
	}()

	if err = authorize(principal, scheduleRole); err != nil {
		return
	}

	vErr := &ValidationError{}
	name := strings.TrimSpace(input.Name)
	requireName(vErr, "name", name, "Name")
	start, startErr := parseISODate(input.StartDate)
	if startErr != nil {
		vErr.add("start_date", "Ungültiges Datumsformat. Bitte verwenden Sie das Format YYYY-MM-DD.")
	}
	end, endErr := parseISODate(input.EndDate)
	if endErr != nil {
		vErr.add("end_date", "Ungültiges Datumsformat. Bitte verwenden Sie das Format YYYY-MM-DD.")
	}
	if startErr == nil && endErr == nil && start.After(end) {
		vErr.add("end_date", "Das Enddatum darf nicht vor dem Startdatum liegen.")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	candidate := persistence.PlanPeriod{ID: s.idGenerator(), Name: name, StartDate: start, EndDate: end}
	if err = mapRepoError(s.periods.CreatePlanPeriod(ctx, candidate)); err != nil {
		return
	}
	period = candidate
	return
}

// Delete removes a plan period. It fails with ErrConflict while appointments or plans use it.
func (s *PlanPeriodService) Delete(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("PlanPeriodService is nil")
	}
	logger := s.loggerWith(ctx, "Delete", "principal", principal.Username, "plan_period_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete plan period", "plan period deleted")
	}()

	if err = authorize(principal, scheduleRole); err != nil {
		return
	}
	err = mapRepoError(s.periods.DeletePlanPeriod(ctx, id))
	return
}
