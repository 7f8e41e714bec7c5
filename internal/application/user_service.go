package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/example/appointments-planner/internal/auth"
	"github.com/example/appointments-planner/internal/persistence"
)

// UserRepository captures the account persistence needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user persistence.User) error
	UpdateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, username string) (persistence.User, error)
	ListUsers(ctx context.Context) ([]persistence.User, error)
}

// PersonLookup resolves person references.
type PersonLookup interface {
	GetPerson(ctx context.Context, id string) (persistence.Person, error)
}

// PasswordHasher turns a plain password into a storable hash.
type PasswordHasher func(password string) (string, error)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{3,64}$`)

// UserService manages login accounts.
type UserService struct {
	users   UserRepository
	persons PersonLookup
	hash    PasswordHasher
	logger  *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, persons PersonLookup, hash PasswordHasher) *UserService {
	return NewUserServiceWithLogger(users, persons, hash, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, persons PersonLookup, hash PasswordHasher, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = auth.HashPassword
	}
	return &UserService{users: users, persons: persons, hash: hash, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Register creates an account. Administrators may not hand out a role that
// ranks above their own.
func (s *UserService) Register(ctx context.Context, principal Principal, input RegisterUserInput) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Register",
		"principal", principal.Username,
		"username", strings.TrimSpace(input.Username),
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to register user", "user registered", "role", user.Role)
	}()

	if err = authorize(principal, directoryRole); err != nil {
		return
	}

	var record persistence.User
	record, err = s.newAccount(ctx, input)
	if err != nil {
		return
	}
	if !auth.HasPermission(auth.Role(record.Role), principal.Role) {
		err = fmt.Errorf("%w: cannot grant role %q", ErrForbidden, record.Role)
		return
	}

	if err = mapRepoError(s.users.CreateUser(ctx, record)); err != nil {
		return
	}
	user = toUser(record)
	return
}

// EnsureAdmin creates an administrator account unless the username exists.
// It is meant for bootstrapping and performs no authorization.
func (s *UserService) EnsureAdmin(ctx context.Context, input RegisterUserInput) (user User, created bool, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "EnsureAdmin", "username", strings.TrimSpace(input.Username))
	defer func() {
		logOutcome(ctx, logger, err, "failed to ensure admin", "admin ensured", "created", created)
	}()

	var existing persistence.User
	existing, err = s.users.GetUser(ctx, strings.TrimSpace(input.Username))
	switch {
	case err == nil:
		user = toUser(existing)
		return
	case !errors.Is(err, persistence.ErrNotFound):
		err = mapRepoError(err)
		return
	}

	if input.Role == "" {
		input.Role = string(auth.RoleAdmin)
	}
	var record persistence.User
	record, err = s.newAccount(ctx, input)
	if err != nil {
		return
	}
	if err = mapRepoError(s.users.CreateUser(ctx, record)); err != nil {
		return
	}
	user, created = toUser(record), true
	return
}

// List returns every account ordered by username.
func (s *UserService) List(ctx context.Context, principal Principal) (users []User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	logger := s.loggerWith(ctx, "List", "principal", principal.Username)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list users", "users listed", "count", len(users))
	}()

	if err = authorize(principal, directoryRole); err != nil {
		return
	}
	var records []persistence.User
	records, err = s.users.ListUsers(ctx)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	users = make([]User, 0, len(records))
	for _, r := range records {
		users = append(users, toUser(r))
	}
	return
}

// SetDisabled enables or disables an account. Disabling takes effect on live
// tokens immediately because every request reloads the account.
func (s *UserService) SetDisabled(ctx context.Context, principal Principal, username string, disabled bool) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	logger := s.loggerWith(ctx, "SetDisabled",
		"principal", principal.Username,
		"username", username,
		"disabled", disabled,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to change account state", "account state changed")
	}()

	if err = authorize(principal, directoryRole); err != nil {
		return
	}
	if disabled && username == principal.Username {
		err = fieldError("username", "Das eigene Konto kann nicht deaktiviert werden.")
		return
	}

	var record persistence.User
	record, err = s.users.GetUser(ctx, username)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if !auth.HasPermission(auth.Role(record.Role), principal.Role) {
		err = fmt.Errorf("%w: account %q outranks principal", ErrForbidden, username)
		return
	}
	record.Disabled = disabled
	if err = mapRepoError(s.users.UpdateUser(ctx, record)); err != nil {
		return
	}
	user = toUser(record)
	return
}

func (s *UserService) newAccount(ctx context.Context, input RegisterUserInput) (persistence.User, error) {
	username := strings.TrimSpace(input.Username)
	personID := strings.TrimSpace(input.PersonID)

	vErr := &ValidationError{}
	if !usernamePattern.MatchString(username) {
		vErr.add("username", "Der Benutzername muss 3 bis 64 Zeichen lang sein und darf nur Buchstaben, Ziffern, Punkt, Unterstrich und Bindestrich enthalten.")
	}
	if len(input.Password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("Das Passwort muss mindestens %d Zeichen lang sein.", minPasswordLength))
	}
	role := auth.RoleEmployee
	if strings.TrimSpace(input.Role) != "" {
		parsed, ok := auth.ParseRole(input.Role)
		if !ok {
			vErr.add("role", "Unbekannte Rolle.")
		}
		role = parsed
	}
	if personID != "" && s.persons != nil {
		if _, err := s.persons.GetPerson(ctx, personID); err != nil {
			if !errors.Is(err, persistence.ErrNotFound) {
				return persistence.User{}, mapRepoError(err)
			}
			vErr.add("person_id", "Person nicht gefunden")
		}
	}
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return persistence.User{}, fmt.Errorf("hash password: %w", err)
	}
	return persistence.User{
		Username:     username,
		PasswordHash: hash,
		PersonID:     personID,
		Role:         string(role),
	}, nil
}

func toUser(record persistence.User) User {
	return User{
		Username: record.Username,
		PersonID: record.PersonID,
		Role:     auth.Role(record.Role),
		Disabled: record.Disabled,
	}
}
