package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/example/appointments-planner/internal/application"
)

type authService interface {
	Login(ctx context.Context, params application.LoginParams) (application.LoginResult, error)
	TokenTTL() time.Duration
}

type userRegistrar interface {
	Register(ctx context.Context, principal application.Principal, input application.RegisterUserInput) (application.User, error)
}

// AuthHandler issues tokens for API clients and browsers.
type AuthHandler struct {
	service      authService
	users        userRegistrar
	cookieSecure bool
	responder    responder
	logger       *slog.Logger
}

func newAuthHandler(service authService, users userRegistrar, cookieSecure bool, rs responder, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, users: users, cookieSecure: cookieSecure, responder: rs, logger: defaultLogger(logger)}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Token exchanges form credentials for a bearer token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	params, err := loginParams(r)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	logger := h.log(r.Context(), "Token", "username", params.Username)

	result, err := h.service.Login(r.Context(), params)
	if err != nil {
		if errors.Is(err, application.ErrAccountDisabled) {
			err = application.ErrInvalidCredentials
		}
		h.responder.fail(w, r, err)
		return
	}

	logger.InfoContext(r.Context(), "token issued", "role", string(result.Principal.Role))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, tokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		ExpiresAt:   result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// WebToken logs a browser in by setting the token cookie. Bad credentials
// render an inline error instead of failing the request.
func (h *AuthHandler) WebToken(w http.ResponseWriter, r *http.Request) {
	params, err := loginParams(r)
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	logger := h.log(r.Context(), "WebToken", "username", params.Username)

	result, err := h.service.Login(r.Context(), params)
	switch {
	case errors.Is(err, application.ErrInvalidCredentials), errors.Is(err, application.ErrAccountDisabled):
		logger.InfoContext(r.Context(), "web login rejected", "error_kind", application.ErrorKind(err))
		h.responder.html(w, r, http.StatusOK, "fragments/login_error.html", pongo2.Context{
			"message": "Ungültiger Benutzername oder Passwort",
		})
		return
	case err != nil:
		h.responder.fail(w, r, err)
		return
	}

	http.SetCookie(w, h.tokenCookie(result.Token))
	w.Header().Set("HX-Trigger", "loginSuccess")
	logger.InfoContext(r.Context(), "web login succeeded", "role", string(result.Principal.Role))
	h.responder.html(w, r, http.StatusOK, "fragments/login_success.html", pongo2.Context{"principal": result.Principal})
}

// Logout clears the token cookie and sends the browser home.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.clearedCookie())
	h.log(r.Context(), "Logout").InfoContext(r.Context(), "cookie cleared")

	if strings.EqualFold(r.Header.Get("HX-Request"), "true") {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Register creates an account on behalf of the bearer principal.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.fail(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), principal, application.RegisterUserInput{
		Username: req.Username,
		Password: req.Password,
		PersonID: req.PersonID,
		Role:     req.Role,
	})
	if err != nil {
		h.responder.fail(w, r, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toUserDTO(user))
}

// Me returns the bearer principal.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, principalResponse{
		Username:  principal.Username,
		PersonID:  principal.PersonID,
		Role:      string(principal.Role),
		RoleLabel: principal.Role.Label(),
	})
}

func (h *AuthHandler) tokenCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.service.TokenTTL() / time.Second),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) clearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func loginParams(r *http.Request) (application.LoginParams, error) {
	if err := r.ParseForm(); err != nil {
		return application.LoginParams{}, badRequest("parse form: %v", err)
	}
	return application.LoginParams{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}, nil
}

const maxBodyBytes = 1 << 20

// decodeJSON reads one JSON document from the request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("decode body: %v", err)
	}
	return nil
}
