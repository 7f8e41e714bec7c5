// Package sqlite implements the persistence repositories on SQLite through sqlx
// and the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/example/appointments-planner/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Storage implements every repository contract of the persistence package.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open connects to the SQLite database at dsn and enables foreign keys. A bare
// path or ":memory:" is accepted as well as a file: URI.
func Open(dsn string) (*Storage, error) {
	return OpenWithLogger(dsn, nil)
}

// OpenWithLogger is Open with a logger for migration progress.
func OpenWithLogger(dsn string, logger *slog.Logger) (*Storage, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: empty dsn")
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlx.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single connection keeps pragmas and in-memory databases consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy timeout: %w", err)
	}

	return &Storage{db: db, logger: logger}, nil
}

// DB exposes the underlying handle.
func (s *Storage) DB() *sqlx.DB {
	return s.db
}

// Close releases the database handle.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies pending embedded migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	_, err := s.MigrateWithReport(ctx)
	return err
}

// MigrateWithReport applies pending embedded migrations and returns their versions.
func (s *Storage) MigrateWithReport(ctx context.Context) ([]string, error) {
	migrations, err := migration.Scan(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	return migration.NewRunner(s.db, s.logger).Up(ctx, migrations)
}

// PendingMigrations lists embedded migrations not applied yet.
func (s *Storage) PendingMigrations(ctx context.Context) ([]migration.Migration, error) {
	migrations, err := migration.Scan(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	return migration.NewRunner(s.db, s.logger).Pending(ctx, migrations)
}

// withTx runs fn in a transaction, committing when it returns nil.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", mapError(err))
	}
	return nil
}
