package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

const versionTableDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TEXT NOT NULL,
	checksum   TEXT NOT NULL
)`

// Runner applies migrations to one database.
type Runner struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewRunner constructs a Runner. A nil logger falls back to slog.Default.
func NewRunner(db *sqlx.DB, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{db: db, logger: logger, now: time.Now}
}

// Up applies every migration not yet recorded and returns the versions it ran.
// Each migration runs in its own transaction together with its bookkeeping row.
func (r *Runner) Up(ctx context.Context, migrations []Migration) ([]string, error) {
	applied, err := r.appliedByVersion(ctx)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, m := range migrations {
		if prior, ok := applied[m.Version]; ok {
			if prior.Checksum != m.Checksum {
				return ran, newError(m.Version, m.File, "verify checksum", ErrChecksumMismatch)
			}
			continue
		}

		start := r.now()
		if err := r.apply(ctx, m); err != nil {
			return ran, err
		}
		r.logger.InfoContext(ctx, "migration applied",
			"version", m.Version,
			"description", m.Description,
			"duration", r.now().Sub(start),
		)
		ran = append(ran, m.Version)
	}
	return ran, nil
}

// Pending returns the migrations that Up would run.
func (r *Runner) Pending(ctx context.Context, migrations []Migration) ([]Migration, error) {
	applied, err := r.appliedByVersion(ctx)
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, m := range migrations {
		if _, ok := applied[m.Version]; !ok {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// Applied lists recorded migrations ordered by version.
func (r *Runner) Applied(ctx context.Context) ([]Applied, error) {
	if _, err := r.db.ExecContext(ctx, versionTableDDL); err != nil {
		return nil, newError("", "schema_migrations", "create version table", err)
	}

	var rows []struct {
		Version   string `db:"version"`
		AppliedAt string `db:"applied_at"`
		Checksum  string `db:"checksum"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT version, applied_at, checksum FROM schema_migrations ORDER BY CAST(version AS INTEGER)`); err != nil {
		return nil, newError("", "schema_migrations", "list applied", err)
	}

	out := make([]Applied, 0, len(rows))
	for _, row := range rows {
		at, err := time.Parse(time.RFC3339, row.AppliedAt)
		if err != nil {
			return nil, newError(row.Version, "schema_migrations", "parse applied_at", err)
		}
		out = append(out, Applied{Version: row.Version, AppliedAt: at, Checksum: row.Checksum})
	}
	return out, nil
}

func (r *Runner) appliedByVersion(ctx context.Context) (map[string]Applied, error) {
	list, err := r.Applied(ctx)
	if err != nil {
		return nil, err
	}
	byVersion := make(map[string]Applied, len(list))
	for _, a := range list {
		byVersion[a.Version] = a
	}
	return byVersion, nil
}

func (r *Runner) apply(ctx context.Context, m Migration) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return newError(m.Version, m.File, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range splitStatements(m.SQL) {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			err = newError(m.Version, m.File, fmt.Sprintf("execute statement %d", i+1), execErr)
			return err
		}
	}

	if _, execErr := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at, checksum) VALUES (?, ?, ?)`,
		m.Version, r.now().UTC().Format(time.RFC3339), m.Checksum,
	); execErr != nil {
		err = newError(m.Version, m.File, "record migration", execErr)
		return err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = newError(m.Version, m.File, "commit", commitErr)
		return err
	}
	return nil
}
