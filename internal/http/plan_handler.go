package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/persistence"
)

type planService interface {
	List(ctx context.Context, principal application.Principal, planPeriodID string) ([]persistence.Plan, error)
	Get(ctx context.Context, principal application.Principal, id string) (persistence.Plan, error)
	Create(ctx context.Context, principal application.Principal, input application.PlanInput) (persistence.Plan, error)
	Update(ctx context.Context, principal application.Principal, id string, input application.PlanInput) (persistence.Plan, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
}

type planPeriodService interface {
	List(ctx context.Context, principal application.Principal) ([]persistence.PlanPeriod, error)
	Get(ctx context.Context, principal application.Principal, id string) (persistence.PlanPeriod, error)
	Create(ctx context.Context, principal application.Principal, input application.PlanPeriodInput) (persistence.PlanPeriod, error)
	Delete(ctx context.Context, principal application.Principal, id string) error
}

// PlanHandler serves plans and plan periods.
type PlanHandler struct {
	plans     planService
	periods   planPeriodService
	responder responder
	logger    *slog.Logger
}

func newPlanHandler(plans planService, periods planPeriodService, rs responder, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{plans: plans, periods: periods, responder: rs, logger: defaultLogger(logger)}
}

func (h *PlanHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "PlanHandler", operation, attrs...)
}

// List returns plans, optionally restricted by plan_period_id.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	plans, err := h.plans.List(r.Context(), principal, r.URL.Query().Get("plan_period_id"))
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, mapSlice(plans, toPlanDTO))
}

// Get returns one plan with its appointments.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	plan, err := h.plans.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPlanDTO(plan))
}

// Create stores a new plan.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	var req planRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	plan, err := h.plans.Create(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.log(r.Context(), "Create", "plan_id", plan.ID).InfoContext(r.Context(), "plan created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toPlanDTO(plan))
}

// Update rewrites a plan and its appointment list.
func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	var req planRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	plan, err := h.plans.Update(r.Context(), principal, chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPlanDTO(plan))
}

// Delete removes a plan.
func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.plans.Delete(r.Context(), principal, id); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.log(r.Context(), "Delete", "plan_id", id).InfoContext(r.Context(), "plan deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ListPeriods returns every plan period, most recent first.
func (h *PlanHandler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	periods, err := h.periods.List(r.Context(), principal)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, mapSlice(periods, toPlanPeriodDTO))
}

// GetPeriod returns one plan period.
func (h *PlanHandler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	period, err := h.periods.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPlanPeriodDTO(period))
}

// CreatePeriod stores a new plan period.
func (h *PlanHandler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	var req planPeriodRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	period, err := h.periods.Create(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toPlanPeriodDTO(period))
}

// DeletePeriod removes an unused plan period.
func (h *PlanHandler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.periods.Delete(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
