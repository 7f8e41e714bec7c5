package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/appointments-planner/internal/application"
)

type userService interface {
	List(ctx context.Context, principal application.Principal) ([]application.User, error)
	SetDisabled(ctx context.Context, principal application.Principal, username string, disabled bool) (application.User, error)
}

// UserHandler exposes account administration.
type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func newUserHandler(service userService, rs responder, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: service, responder: rs, logger: defaultLogger(logger)}
}

// List returns every account.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	users, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, mapSlice(users, toUserDTO))
}

// SetDisabled enables or disables the account named in the path.
func (h *UserHandler) SetDisabled(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	username := chi.URLParam(r, "username")

	var req disabledRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.fail(w, r, err)
		return
	}

	user, err := h.service.SetDisabled(r.Context(), principal, username, req.Disabled)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	handlerLogger(r.Context(), h.logger, "UserHandler", "SetDisabled", "username", username).
		InfoContext(r.Context(), "account state changed", "disabled", user.Disabled)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}
