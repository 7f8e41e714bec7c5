package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/appointments-planner/internal/persistence"
)

type appointmentRow struct {
	ID              string `db:"id"`
	Date            string `db:"date"`
	StartSeconds    int64  `db:"start_seconds"`
	DeltaSeconds    int64  `db:"delta_seconds"`
	Guests          string `db:"guests"`
	Notes           string `db:"notes"`
	PlanPeriodID    string `db:"plan_period_id"`
	PlanPeriodName  string `db:"plan_period_name"`
	PlanPeriodStart string `db:"plan_period_start"`
	PlanPeriodEnd   string `db:"plan_period_end"`
	LocationID      string `db:"location_id"`
	LocationName    string `db:"location_name"`
	AddressID       string `db:"address_id"`
	Street          string `db:"street"`
	PostalCode      string `db:"postal_code"`
	City            string `db:"city"`
}

type appointmentPersonRow struct {
	AppointmentID string `db:"appointment_id"`
	personRow
}

const selectAppointments = `
SELECT
	ap.id, ap.date, ap.start_seconds, ap.delta_seconds, ap.guests, ap.notes,
	pp.id AS plan_period_id, pp.name AS plan_period_name,
	pp.start_date AS plan_period_start, pp.end_date AS plan_period_end,
	l.id AS location_id, l.name AS location_name,
	a.id AS address_id, a.street, a.postal_code, a.city
FROM appointments ap
JOIN plan_periods pp ON pp.id = ap.plan_period_id
JOIN locations l ON l.id = ap.location_id
JOIN addresses a ON a.id = l.address_id`

const orderAppointments = ` ORDER BY ap.date, ap.start_seconds, ap.delta_seconds, ap.id`

func (r appointmentRow) toAppointment() (persistence.Appointment, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return persistence.Appointment{}, err
	}
	period, err := planPeriodRow{
		ID:        r.PlanPeriodID,
		Name:      r.PlanPeriodName,
		StartDate: r.PlanPeriodStart,
		EndDate:   r.PlanPeriodEnd,
	}.toPlanPeriod()
	if err != nil {
		return persistence.Appointment{}, err
	}

	var guests []string
	if r.Guests != "" {
		if err := json.Unmarshal([]byte(r.Guests), &guests); err != nil {
			return persistence.Appointment{}, fmt.Errorf("sqlite: decode guests of %s: %w", r.ID, err)
		}
	}

	location := locationRow{
		ID:         r.LocationID,
		Name:       r.LocationName,
		AddressID:  r.AddressID,
		Street:     r.Street,
		PostalCode: r.PostalCode,
		City:       r.City,
	}.toLocation()

	return persistence.Appointment{
		ID:         r.ID,
		PlanPeriod: period,
		Date:       date,
		StartTime:  time.Duration(r.StartSeconds) * time.Second,
		Delta:      time.Duration(r.DeltaSeconds) * time.Second,
		Location:   location,
		Guests:     guests,
		Notes:      r.Notes,
	}, nil
}

// CreateAppointment inserts the appointment and its person assignments.
func (s *Storage) CreateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrConstraintViolation
	}
	guests, err := encodeGuests(appointment.Guests)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO appointments (id, plan_period_id, date, start_seconds, delta_seconds, location_id, guests, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			appointment.ID,
			appointment.PlanPeriod.ID,
			formatDate(appointment.Date),
			int64(appointment.StartTime/time.Second),
			int64(appointment.Delta/time.Second),
			appointment.Location.ID,
			guests,
			appointment.Notes,
		); err != nil {
			return mapError(err)
		}
		return replaceAppointmentPersons(ctx, tx, appointment.ID, appointment.PersonIDs())
	})
}

// UpdateAppointment rewrites the appointment and replaces its person assignments.
func (s *Storage) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	guests, err := encodeGuests(appointment.Guests)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE appointments
			SET plan_period_id = ?, date = ?, start_seconds = ?, delta_seconds = ?, location_id = ?, guests = ?, notes = ?
			WHERE id = ?`,
			appointment.PlanPeriod.ID,
			formatDate(appointment.Date),
			int64(appointment.StartTime/time.Second),
			int64(appointment.Delta/time.Second),
			appointment.Location.ID,
			guests,
			appointment.Notes,
			appointment.ID,
		)
		if err != nil {
			return mapError(err)
		}
		if err := expectAffected(result); err != nil {
			return err
		}
		return replaceAppointmentPersons(ctx, tx, appointment.ID, appointment.PersonIDs())
	})
}

// GetAppointment loads one fully hydrated appointment.
func (s *Storage) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	list, err := queryAppointments(ctx, s.db, ` WHERE ap.id = ?`, []any{id})
	if err != nil {
		return persistence.Appointment{}, err
	}
	if len(list) == 0 {
		return persistence.Appointment{}, persistence.ErrNotFound
	}
	return list[0], nil
}

// ListAppointments returns appointments matching filter ordered by date, start and duration.
func (s *Storage) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	var (
		conds []string
		args  []any
	)
	if filter.From != nil {
		conds = append(conds, `ap.date >= ?`)
		args = append(args, formatDate(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, `ap.date <= ?`)
		args = append(args, formatDate(*filter.To))
	}
	if filter.PlanPeriodID != "" {
		conds = append(conds, `ap.plan_period_id = ?`)
		args = append(args, filter.PlanPeriodID)
	}
	if filter.LocationID != "" {
		conds = append(conds, `ap.location_id = ?`)
		args = append(args, filter.LocationID)
	}
	if filter.PersonID != "" {
		conds = append(conds, `ap.id IN (SELECT appointment_id FROM appointment_persons WHERE person_id = ?)`)
		args = append(args, filter.PersonID)
	}

	where := ""
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, ` AND `)
	}
	return queryAppointments(ctx, s.db, where, args)
}

// DeleteAppointment removes an appointment; assignments and plan memberships cascade.
func (s *Storage) DeleteAppointment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

func queryAppointments(ctx context.Context, q sqlx.QueryerContext, where string, args []any) ([]persistence.Appointment, error) {
	var rows []appointmentRow
	if err := sqlx.SelectContext(ctx, q, &rows, selectAppointments+where+orderAppointments, args...); err != nil {
		return nil, mapError(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]persistence.Appointment, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		appt, err := row.toAppointment()
		if err != nil {
			return nil, err
		}
		out = append(out, appt)
		ids = append(ids, appt.ID)
	}

	persons, err := appointmentPersons(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Persons = persons[out[i].ID]
	}
	return out, nil
}

func appointmentPersons(ctx context.Context, q sqlx.QueryerContext, appointmentIDs []string) (map[string][]persistence.Person, error) {
	query, args, err := sqlx.In(`
		SELECT ap.appointment_id, p.id, p.first_name, p.last_name, p.email
		FROM appointment_persons ap
		JOIN persons p ON p.id = ap.person_id
		WHERE ap.appointment_id IN (?)
		ORDER BY p.last_name, p.first_name, p.id`, appointmentIDs)
	if err != nil {
		return nil, err
	}

	var rows []appointmentPersonRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, mapError(err)
	}

	byAppointment := make(map[string][]persistence.Person, len(appointmentIDs))
	for _, row := range rows {
		byAppointment[row.AppointmentID] = append(byAppointment[row.AppointmentID], row.personRow.toPerson())
	}
	return byAppointment, nil
}

func replaceAppointmentPersons(ctx context.Context, tx *sqlx.Tx, appointmentID string, personIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM appointment_persons WHERE appointment_id = ?`, appointmentID); err != nil {
		return mapError(err)
	}
	seen := make(map[string]struct{}, len(personIDs))
	for _, personID := range personIDs {
		if _, dup := seen[personID]; dup {
			continue
		}
		seen[personID] = struct{}{}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO appointment_persons (appointment_id, person_id) VALUES (?, ?)`,
			appointmentID, personID,
		); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func encodeGuests(guests []string) (string, error) {
	if guests == nil {
		guests = []string{}
	}
	encoded, err := json.Marshal(guests)
	if err != nil {
		return "", fmt.Errorf("sqlite: encode guests: %w", err)
	}
	return string(encoded), nil
}
