package sqlite

import (
	"context"

	"github.com/example/appointments-planner/internal/persistence"
)

type personRow struct {
	ID        string `db:"id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Email     string `db:"email"`
}

func (r personRow) toPerson() persistence.Person {
	return persistence.Person{ID: r.ID, FirstName: r.FirstName, LastName: r.LastName, Email: r.Email}
}

// CreatePerson inserts a person. Non-empty e-mail addresses are unique.
func (s *Storage) CreatePerson(ctx context.Context, person persistence.Person) error {
	if person.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO persons (id, first_name, last_name, email) VALUES (?, ?, ?, ?)`,
		person.ID, person.FirstName, person.LastName, person.Email,
	)
	return mapError(err)
}

// UpdatePerson rewrites every field of the person.
func (s *Storage) UpdatePerson(ctx context.Context, person persistence.Person) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE persons SET first_name = ?, last_name = ?, email = ? WHERE id = ?`,
		person.FirstName, person.LastName, person.Email, person.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

// GetPerson loads one person.
func (s *Storage) GetPerson(ctx context.Context, id string) (persistence.Person, error) {
	var row personRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, first_name, last_name, email FROM persons WHERE id = ?`, id); err != nil {
		return persistence.Person{}, mapError(err)
	}
	return row.toPerson(), nil
}

// ListPersons returns all persons ordered by last and first name.
func (s *Storage) ListPersons(ctx context.Context) ([]persistence.Person, error) {
	var rows []personRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, first_name, last_name, email FROM persons ORDER BY last_name, first_name, id`,
	); err != nil {
		return nil, mapError(err)
	}
	out := make([]persistence.Person, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toPerson())
	}
	return out, nil
}

// DeletePerson removes a person. It fails with ErrForeignKeyViolation while the
// person is assigned to appointments.
func (s *Storage) DeletePerson(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}
