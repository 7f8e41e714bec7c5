package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/appointments-planner/internal/persistence"
)

type userRow struct {
	Username     string         `db:"username"`
	PasswordHash string         `db:"password_hash"`
	PersonID     sql.NullString `db:"person_id"`
	Role         string         `db:"role"`
	Disabled     bool           `db:"disabled"`
}

func (r userRow) toUser() persistence.User {
	return persistence.User{
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		PersonID:     r.PersonID.String,
		Role:         r.Role,
		Disabled:     r.Disabled,
	}
}

func nullable(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}

// CreateUser inserts a login account. Usernames are unique.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	if user.Username == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, person_id, role, disabled) VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.PasswordHash, nullable(user.PersonID), user.Role, user.Disabled,
	)
	return mapError(err)
}

// UpdateUser rewrites the account identified by username.
func (s *Storage) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, person_id = ?, role = ?, disabled = ? WHERE username = ?`,
		user.PasswordHash, nullable(user.PersonID), user.Role, user.Disabled, user.Username,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

// GetUser loads an account by username.
func (s *Storage) GetUser(ctx context.Context, username string) (persistence.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT username, password_hash, person_id, role, disabled FROM users WHERE username = ?`, username,
	); err != nil {
		return persistence.User{}, mapError(err)
	}
	return row.toUser(), nil
}

// ListUsers returns all accounts ordered by username.
func (s *Storage) ListUsers(ctx context.Context) ([]persistence.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT username, password_hash, person_id, role, disabled FROM users ORDER BY username`,
	); err != nil {
		return nil, mapError(err)
	}
	out := make([]persistence.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toUser())
	}
	return out, nil
}
