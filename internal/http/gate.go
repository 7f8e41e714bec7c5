package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/auth"
)

// CookieName is the cookie carrying the browser token.
const CookieName = "appointments_token"

// Transport names where a request carries its token.
type Transport int

const (
	// TransportBearer reads the Authorization header and rejects requests
	// without a valid token before any role check.
	TransportBearer Transport = iota
	// TransportCookie reads CookieName; a missing or invalid token leaves the
	// request anonymous and the role check decides.
	TransportCookie
)

// AuthErrorKind separates missing authentication from insufficient rank.
type AuthErrorKind int

const (
	AuthUnauthenticated AuthErrorKind = iota + 1
	AuthForbidden
)

// AuthError is the outcome of a failed gate check. It carries everything the
// responder needs to render the failure, including whether to prompt for login.
type AuthError struct {
	Kind      AuthErrorKind
	Transport Transport
	Required  auth.Role
	Actual    auth.Role
	ShowLogin bool
	Err       error
}

func (e *AuthError) Error() string {
	if e.Kind == AuthForbidden {
		return "forbidden: requires role " + string(e.Required)
	}
	return "authentication required"
}

// Unwrap exposes the matching application sentinel.
func (e *AuthError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if e.Kind == AuthForbidden {
		return application.ErrForbidden
	}
	return application.ErrAuthenticationRequired
}

// Status returns the HTTP status for the error.
func (e *AuthError) Status() int {
	if e.Kind == AuthForbidden {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// PrincipalResolver turns a raw token into the current principal. A false
// result means the token does not identify an active account.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (application.Principal, bool, error)
}

// Gate authorizes requests against the role hierarchy.
type Gate struct {
	resolver  PrincipalResolver
	responder responder
	logger    *slog.Logger
}

// NewGate constructs a gate around resolver.
func NewGate(resolver PrincipalResolver, responder responder, logger *slog.Logger) *Gate {
	return &Gate{resolver: resolver, responder: responder, logger: defaultLogger(logger)}
}

// Authorize resolves the principal of r via transport and checks it against
// required. Store failures while resolving are treated as anonymous and logged.
func (g *Gate) Authorize(r *http.Request, transport Transport, required auth.Role) (application.Principal, *AuthError) {
	return g.check(g.resolve(r.Context(), tokenFrom(r, transport)), transport, required)
}

func (g *Gate) check(principal application.Principal, transport Transport, required auth.Role) (application.Principal, *AuthError) {
	if transport == TransportBearer && !principal.Authenticated() {
		return application.Principal{}, &AuthError{Kind: AuthUnauthenticated, Transport: transport, Required: required}
	}
	if !principal.Authenticated() {
		return application.Principal{}, &AuthError{Kind: AuthUnauthenticated, Transport: transport, Required: required, ShowLogin: true}
	}
	if !principal.Can(required) {
		return principal, &AuthError{
			Kind:      AuthForbidden,
			Transport: transport,
			Required:  required,
			Actual:    principal.Role,
			ShowLogin: transport == TransportCookie,
		}
	}
	return principal, nil
}

// Optional resolves the cookie principal without enforcing anything. Public
// pages use it to show who is logged in.
func (g *Gate) Optional(r *http.Request) application.Principal {
	return g.resolve(r.Context(), tokenFrom(r, TransportCookie))
}

func (g *Gate) resolve(ctx context.Context, token string) application.Principal {
	if token == "" || g.resolver == nil {
		return application.Principal{}
	}
	principal, ok, err := g.resolver.ResolvePrincipal(ctx, token)
	if err != nil {
		handlerLogger(ctx, g.logger, "Gate", "resolve").ErrorContext(ctx, "failed to resolve principal",
			"error", err, "error_kind", application.ErrorKind(err))
		return application.Principal{}
	}
	if !ok {
		return application.Principal{}
	}
	return principal
}

// RequireBearer rejects requests without a bearer token of at least role.
func (g *Gate) RequireBearer(role auth.Role) func(http.Handler) http.Handler {
	return g.require(TransportBearer, role)
}

// RequireCookie rejects requests without a cookie token of at least role.
func (g *Gate) RequireCookie(role auth.Role) func(http.Handler) http.Handler {
	return g.require(TransportCookie, role)
}

func (g *Gate) require(transport Transport, role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				principal application.Principal
				authErr   *AuthError
			)
			// nested guards reuse the principal the outer one resolved
			if prior, ok := authorizedPrincipal(r.Context(), transport); ok {
				principal, authErr = g.check(prior, transport, role)
			} else {
				principal, authErr = g.Authorize(r, transport, role)
			}
			if authErr != nil {
				handlerLogger(r.Context(), g.logger, "Gate", "Authorize",
					"required_role", string(role),
					"actual_role", string(authErr.Actual),
				).InfoContext(r.Context(), "request rejected", "error_kind", application.ErrorKind(authErr))
				g.responder.fail(w, r, authErr)
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithAuthorized(r.Context(), transport, principal)))
		})
	}
}

func tokenFrom(r *http.Request, transport Transport) string {
	if r == nil {
		return ""
	}
	if transport == TransportCookie {
		if cookie, err := r.Cookie(CookieName); err == nil {
			return strings.TrimSpace(cookie.Value)
		}
		return ""
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
