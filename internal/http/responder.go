package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf16"

	"github.com/flosch/pongo2/v6"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/auth"
)

// surface is the kind of client a path serves.
type surface int

const (
	surfaceWeb surface = iota
	surfaceAPI
	surfaceFragment
)

// surfaceOf classifies a request path. JSON clients live under /api/ and the
// token endpoints, htmx fragments under /hx/ and the web login endpoint.
func surfaceOf(path string) surface {
	switch {
	case strings.HasPrefix(path, "/api/"),
		path == "/auth/token",
		path == "/auth/register",
		path == "/auth/me":
		return surfaceAPI
	case strings.HasPrefix(path, "/hx/"),
		path == "/auth/web-token":
		return surfaceFragment
	default:
		return surfaceWeb
	}
}

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// problem is an error reduced to what every surface renders.
type problem struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
	Auth    *AuthError
}

func describe(err error) problem {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		p := problem{Status: authErr.Status(), Auth: authErr}
		if authErr.Kind == AuthForbidden {
			p.Code = "AUTH_FORBIDDEN"
			p.Message = fmt.Sprintf("Für diese Aktion ist mindestens die Rolle %q erforderlich.", authErr.Required.Label())
		} else {
			p.Code = "AUTH_REQUIRED"
			p.Message = "Nicht authentifiziert. Bitte melden Sie sich an."
		}
		return p
	}

	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		return problem{Status: http.StatusUnprocessableEntity, Code: "VALIDATION_FAILED", Message: "Validierungsfehler bei der Anfrage", Fields: vErr.FieldErrors}
	case errors.Is(err, errBadRequest):
		return problem{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: "Ungültige Anfrage."}
	case errors.Is(err, application.ErrAuthenticationRequired):
		return problem{Status: http.StatusUnauthorized, Code: "AUTH_REQUIRED", Message: "Nicht authentifiziert. Bitte melden Sie sich an."}
	case errors.Is(err, application.ErrForbidden):
		return problem{Status: http.StatusForbidden, Code: "AUTH_FORBIDDEN", Message: "Keine Berechtigung für diese Aktion."}
	case errors.Is(err, application.ErrInvalidCredentials):
		return problem{Status: http.StatusUnauthorized, Code: "AUTH_INVALID_CREDENTIALS", Message: "Ungültiger Benutzername oder Passwort"}
	case errors.Is(err, application.ErrAccountDisabled):
		return problem{Status: http.StatusForbidden, Code: "AUTH_ACCOUNT_DISABLED", Message: "Das Benutzerkonto ist deaktiviert."}
	case errors.Is(err, application.ErrNotFound):
		return problem{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "Die angeforderte Ressource wurde nicht gefunden"}
	case errors.Is(err, application.ErrAlreadyExists):
		return problem{Status: http.StatusConflict, Code: "ALREADY_EXISTS", Message: "Der Eintrag existiert bereits."}
	case errors.Is(err, application.ErrConflict):
		return problem{Status: http.StatusConflict, Code: "CONFLICT", Message: "Der Eintrag wird noch verwendet und kann nicht gelöscht werden."}
	default:
		return problem{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: "Ein interner Serverfehler ist aufgetreten"}
	}
}

// showLogin reports whether the client should be prompted to log in and for which role.
func (p problem) showLogin() (auth.Role, bool) {
	if p.Auth != nil {
		return p.Auth.Required, p.Auth.ShowLogin
	}
	return "", p.Status == http.StatusUnauthorized || p.Status == http.StatusForbidden
}

type errorResponse struct {
	Message    string            `json:"message"`
	StatusCode int               `json:"status_code"`
	ErrorCode  string            `json:"error_code"`
	Errors     map[string]string `json:"errors,omitempty"`
}

type responder struct {
	logger   *slog.Logger
	renderer *Renderer
	debug    bool
}

func newResponder(logger *slog.Logger, renderer *Renderer, debug bool) responder {
	return responder{logger: defaultLogger(logger), renderer: renderer, debug: debug}
}

func (rs responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return rs.logger
}

func (rs responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		rs.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// html renders a template with status. Rendering happens into a buffer so a
// template failure still produces a clean 500.
func (rs responder) html(w http.ResponseWriter, r *http.Request, status int, name string, data pongo2.Context) {
	var buf bytes.Buffer
	if err := rs.renderer.Render(&buf, name, data); err != nil {
		rs.loggerFor(r.Context()).ErrorContext(r.Context(), "failed to render template", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// fail renders err for the surface the request came from.
func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	p := describe(err)

	logger := rs.loggerFor(ctx)
	if p.Status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", "status", p.Status, "error", err, "error_kind", application.ErrorKind(err))
	} else {
		logger.InfoContext(ctx, "request rejected", "status", p.Status, "error", err, "error_kind", application.ErrorKind(err))
	}

	switch surfaceOf(r.URL.Path) {
	case surfaceAPI:
		if p.Status == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		rs.writeJSON(ctx, w, p.Status, errorResponse{
			Message:    p.Message,
			StatusCode: p.Status,
			ErrorCode:  p.Code,
			Errors:     p.Fields,
		})
	case surfaceFragment:
		trigger := map[string]any{
			"showMessage": map[string]any{"level": "error", "message": p.Message, "status": p.Status},
		}
		if role, ok := p.showLogin(); ok {
			trigger["showLogin"] = map[string]any{"requiredRole": string(role), "requiredRoleLabel": role.Label()}
		}
		if header, encErr := asciiJSON(trigger); encErr == nil {
			w.Header().Set("HX-Trigger", header)
		}
		rs.html(w, r, http.StatusOK, "fragments/error.html", pongo2.Context{"problem": p})
	default:
		data := pongo2.Context{"problem": p, "principal": principalOrAnonymous(ctx)}
		if role, ok := p.showLogin(); ok {
			data["show_login"] = true
			data["required_role"] = string(role)
			data["required_role_label"] = role.Label()
		}
		if rs.debug && p.Status >= http.StatusInternalServerError {
			data["detail"] = err.Error()
		}
		rs.html(w, r, p.Status, "error.html", data)
	}
}

func principalOrAnonymous(ctx context.Context) application.Principal {
	principal, _ := PrincipalFromContext(ctx)
	return principal
}

// asciiJSON marshals v and escapes every non-ASCII rune so the result is safe
// to carry in a response header.
func asciiJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, r := range string(raw) {
		if r < 0x80 {
			b.WriteRune(r)
			continue
		}
		for _, unit := range utf16.Encode([]rune{r}) {
			fmt.Fprintf(&b, `\u%04x`, unit)
		}
	}
	return b.String(), nil
}
