package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/appointments-planner/internal/auth"
	"github.com/example/appointments-planner/internal/persistence"
)

// UserStore is the account lookup needed for authentication.
type UserStore interface {
	GetUser(ctx context.Context, username string) (persistence.User, error)
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(username string, role auth.Role, personID string, ttl time.Duration) (string, time.Time, error)
	Verify(token string) (auth.Claims, bool)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(encodedHash, password string) error

// AuthService performs logins and resolves principals from presented tokens.
type AuthService struct {
	users          UserStore
	tokens         TokenIssuer
	verifyPassword PasswordVerifier
	tokenTTL       time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users UserStore, tokens TokenIssuer, verify PasswordVerifier, tokenTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(users, tokens, verify, tokenTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
// Both transports share tokenTTL; it defaults to one hour.
func NewAuthServiceWithLogger(users UserStore, tokens TokenIssuer, verify PasswordVerifier, tokenTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = auth.VerifyPassword
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &AuthService{
		users:          users,
		tokens:         tokens,
		verifyPassword: verify,
		tokenTTL:       tokenTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// TokenTTL returns the lifetime of issued tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// Login checks the credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.users == nil || s.tokens == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	username := strings.TrimSpace(params.Username)
	logger := s.loggerWith(ctx, "Login", "username", username)
	defer func() {
		logOutcome(ctx, logger, err, "login failed", "login succeeded", "role", result.Principal.Role)
	}()

	if username == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var user persistence.User
	user, err = s.users.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if err = s.verifyPassword(user.PasswordHash, params.Password); err != nil {
		err = ErrInvalidCredentials
		return
	}
	if user.Disabled {
		err = ErrAccountDisabled
		return
	}

	role := auth.Role(user.Role)
	var (
		token     string
		expiresAt time.Time
	)
	token, expiresAt, err = s.tokens.Issue(user.Username, role, user.PersonID, s.tokenTTL)
	if err != nil {
		err = fmt.Errorf("issue token: %w", err)
		return
	}

	result = LoginResult{
		Principal: Principal{Username: user.Username, PersonID: user.PersonID, Role: role},
		Token:     token,
		ExpiresAt: expiresAt,
	}
	return
}

// ResolvePrincipal verifies token and loads the account it names. An invalid
// token, an unknown user and a disabled account all yield ok == false without
// an error; err is reserved for store failures.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (principal Principal, ok bool, err error) {
	if s == nil || s.tokens == nil || s.users == nil {
		return Principal{}, false, nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, false, nil
	}

	claims, valid := s.tokens.Verify(token)
	if !valid {
		return Principal{}, false, nil
	}

	user, err := s.users.GetUser(ctx, claims.Username())
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, false, nil
		}
		s.loggerWith(ctx, "ResolvePrincipal", "username", claims.Username()).
			ErrorContext(ctx, "failed to load user", "error", err, "error_kind", ErrorKind(err))
		return Principal{}, false, err
	}
	if user.Disabled {
		return Principal{}, false, nil
	}

	// The stored role wins over the claim so demotions apply to live tokens.
	role := auth.Role(user.Role)
	if !role.Valid() {
		return Principal{}, false, nil
	}
	return Principal{Username: user.Username, PersonID: user.PersonID, Role: role}, true, nil
}
