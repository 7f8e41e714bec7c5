package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/example/appointments-planner/internal/persistence"
)

type locationRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	AddressID  string `db:"address_id"`
	Street     string `db:"street"`
	PostalCode string `db:"postal_code"`
	City       string `db:"city"`
}

func (r locationRow) toLocation() persistence.Location {
	return persistence.Location{
		ID:   r.ID,
		Name: r.Name,
		Address: persistence.Address{
			ID:         r.AddressID,
			Street:     r.Street,
			PostalCode: r.PostalCode,
			City:       r.City,
		},
	}
}

const selectLocations = `
SELECT l.id, l.name, a.id AS address_id, a.street, a.postal_code, a.city
FROM locations l
JOIN addresses a ON a.id = l.address_id`

// CreateLocation inserts the location and its address.
func (s *Storage) CreateLocation(ctx context.Context, location persistence.Location) error {
	if location.ID == "" || location.Address.ID == "" {
		return persistence.ErrConstraintViolation
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		a := location.Address
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO addresses (id, street, postal_code, city) VALUES (?, ?, ?, ?)`,
			a.ID, a.Street, a.PostalCode, a.City,
		); err != nil {
			return mapError(err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO locations (id, name, address_id) VALUES (?, ?, ?)`,
			location.ID, location.Name, a.ID,
		); err != nil {
			return mapError(err)
		}
		return nil
	})
}

// UpdateLocation rewrites the name and the linked address.
func (s *Storage) UpdateLocation(ctx context.Context, location persistence.Location) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var addressID string
		if err := tx.GetContext(ctx, &addressID, `SELECT address_id FROM locations WHERE id = ?`, location.ID); err != nil {
			return mapError(err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE locations SET name = ? WHERE id = ?`, location.Name, location.ID,
		); err != nil {
			return mapError(err)
		}
		a := location.Address
		if _, err := tx.ExecContext(ctx,
			`UPDATE addresses SET street = ?, postal_code = ?, city = ? WHERE id = ?`,
			a.Street, a.PostalCode, a.City, addressID,
		); err != nil {
			return mapError(err)
		}
		return nil
	})
}

// GetLocation loads one location with its address.
func (s *Storage) GetLocation(ctx context.Context, id string) (persistence.Location, error) {
	var row locationRow
	if err := s.db.GetContext(ctx, &row, selectLocations+` WHERE l.id = ?`, id); err != nil {
		return persistence.Location{}, mapError(err)
	}
	return row.toLocation(), nil
}

// ListLocations returns all locations ordered by name.
func (s *Storage) ListLocations(ctx context.Context) ([]persistence.Location, error) {
	var rows []locationRow
	if err := s.db.SelectContext(ctx, &rows, selectLocations+` ORDER BY l.name, l.id`); err != nil {
		return nil, mapError(err)
	}
	out := make([]persistence.Location, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toLocation())
	}
	return out, nil
}

// DeleteLocation removes the location and its address. It fails with
// ErrForeignKeyViolation while appointments still reference the location.
func (s *Storage) DeleteLocation(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var addressID string
		if err := tx.GetContext(ctx, &addressID, `SELECT address_id FROM locations WHERE id = ?`, id); err != nil {
			return mapError(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id); err != nil {
			return mapError(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM addresses WHERE id = ?`, addressID); err != nil {
			return mapError(err)
		}
		return nil
	})
}
