package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/example/appointments-planner/internal/calendar"
	"github.com/example/appointments-planner/internal/persistence"
)

// PlanService manages named selections of appointments within one plan period.
type PlanService struct {
	plans        persistence.PlanRepository
	periods      persistence.PlanPeriodRepository
	appointments persistence.AppointmentRepository
	idGenerator  func() string
	logger       *slog.Logger
}

// NewPlanService constructs a plan service with the provided dependencies.
func NewPlanService(plans persistence.PlanRepository, periods persistence.PlanPeriodRepository, appointments persistence.AppointmentRepository, idGenerator func() string) *PlanService {
	return NewPlanServiceWithLogger(plans, periods, appointments, idGenerator, nil)
}

// NewPlanServiceWithLogger constructs a plan service with a specified logger.
func NewPlanServiceWithLogger(plans persistence.PlanRepository, periods persistence.PlanPeriodRepository, appointments persistence.AppointmentRepository, idGenerator func() string, logger *slog.Logger) *PlanService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	return &PlanService{
		plans:        plans,
		periods:      periods,
		appointments: appointments,
		idGenerator:  idGenerator,
		logger:       defaultLogger(logger),
	}
}

func (s *PlanService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PlanService", operation, attrs...)
}

// List returns plans ordered by name. A well-formed planPeriodID restricts the
// list to that period; a malformed one is ignored.
func (s *PlanService) List(ctx context.Context, principal Principal, planPeriodID string) (plans []persistence.Plan, err error) {
	if s == nil {
		err = fmt.Errorf("PlanService is nil")
		return
	}
	if err = authorize(principal, readRole); err != nil {
		return
	}
	plans, err = s.plans.ListPlans(ctx, normalizeID(planPeriodID))
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "List").ErrorContext(ctx, "failed to list plans", "error", err, "error_kind", ErrorKind(err))
	}
	return
}

// Get loads one plan with its appointments in chronological order.
func (s *PlanService) Get(ctx context.Context, principal Principal, id string) (plan persistence.Plan, err error) {
	if s == nil {
		err = fmt.Errorf("PlanService is nil")
		return
	}
	if err = authorize(principal, readRole); err != nil {
		return
	}
	plan, err = s.plans.GetPlan(ctx, id)
	err = mapRepoError(err)
	return
}

// Create validates input and stores a new plan.
func (s *PlanService) Create(ctx context.Context, principal Principal, input PlanInput) (plan persistence.Plan, err error) {
	if s == nil {
		err = fmt.Errorf("PlanService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Create", "principal", principal.Username)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create plan", "plan created",
			"plan_id", plan.ID, "appointments", len(plan.Appointments))
	}()

	if err = authorize(principal, scheduleRole); err != nil {
		return
	}
	var candidate persistence.Plan
	candidate, err = s.build(ctx, input)
	if err != nil {
		return
	}
	candidate.ID = s.idGenerator()
	if err = mapRepoError(s.plans.CreatePlan(ctx, candidate)); err != nil {
		return
	}
	plan = candidate
	return
}

// Update validates input and rewrites an existing plan, replacing its appointments.
func (s *PlanService) Update(ctx context.Context, principal Principal, id string, input PlanInput) (plan persistence.Plan, err error) {
	if s == nil {
		err = fmt.Errorf("PlanService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Update", "principal", principal.Username, "plan_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update plan", "plan updated")
	}()

	if err = authorize(principal, scheduleRole); err != nil {
		return
	}
	if _, err = s.plans.GetPlan(ctx, id); err != nil {
		err = mapRepoError(err)
		return
	}
	var candidate persistence.Plan
	candidate, err = s.build(ctx, input)
	if err != nil {
		return
	}
	candidate.ID = id
	if err = mapRepoError(s.plans.UpdatePlan(ctx, candidate)); err != nil {
		return
	}
	plan = candidate
	return
}

// Delete removes a plan; its appointments stay.
func (s *PlanService) Delete(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("PlanService is nil")
	}
	logger := s.loggerWith(ctx, "Delete", "principal", principal.Username, "plan_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete plan", "plan deleted")
	}()

	if err = authorize(principal, scheduleRole); err != nil {
		return
	}
	err = mapRepoError(s.plans.DeletePlan(ctx, id))
	return
}

// Search returns at most SearchLimit plans matching term.
func (s *PlanService) Search(ctx context.Context, principal Principal, term string) ([]persistence.Plan, error) {
	if strings.TrimSpace(term) == "" {
		return nil, nil
	}
	plans, err := s.List(ctx, principal, "")
	if err != nil {
		return nil, err
	}
	return filterLimited(plans, SearchLimit, func(p persistence.Plan) bool {
		return MatchPlan(p, term)
	}), nil
}

// build validates input; every appointment must belong to the plan's period.
func (s *PlanService) build(ctx context.Context, input PlanInput) (persistence.Plan, error) {
	plan := persistence.Plan{
		Name:  strings.TrimSpace(input.Name),
		Notes: strings.TrimSpace(input.Notes),
	}
	vErr := &ValidationError{}
	requireName(vErr, "name", plan.Name, "Name")

	periodID := strings.TrimSpace(input.PlanPeriodID)
	if periodID == "" {
		vErr.add("plan_period_id", "Planungszeitraum ist erforderlich.")
	} else {
		period, err := s.periods.GetPlanPeriod(ctx, periodID)
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			vErr.add("plan_period_id", "Planungszeitraum nicht gefunden")
		case err != nil:
			return persistence.Plan{}, mapRepoError(err)
		default:
			plan.PlanPeriod = period
		}
	}

	for _, id := range cleanList(input.AppointmentIDs) {
		appt, err := s.appointments.GetAppointment(ctx, id)
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			vErr.add("appointment_ids", "Termin nicht gefunden")
			continue
		case err != nil:
			return persistence.Plan{}, mapRepoError(err)
		}
		if plan.PlanPeriod.ID != "" && appt.PlanPeriod.ID != plan.PlanPeriod.ID {
			vErr.add("appointment_ids", "Alle Termine müssen zum Planungszeitraum des Plans gehören.")
			continue
		}
		plan.Appointments = append(plan.Appointments, appt)
	}

	if vErr.HasErrors() {
		return persistence.Plan{}, vErr
	}
	calendar.SortChronologically(plan.Appointments)
	return plan, nil
}
