package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFileName indicates a file that does not follow {version}_{name}.sql.
	ErrInvalidFileName = errors.New("migration: invalid file name")
	// ErrDuplicateVersion indicates that two files share a version.
	ErrDuplicateVersion = errors.New("migration: duplicate version")
	// ErrEmptyMigration indicates a file without statements.
	ErrEmptyMigration = errors.New("migration: no statements")
	// ErrChecksumMismatch indicates an applied migration whose file changed afterwards.
	ErrChecksumMismatch = errors.New("migration: checksum mismatch")
)

// Error wraps a failure with the migration and step it happened in.
type Error struct {
	Version   string
	File      string
	Operation string
	Err       error
}

func (e *Error) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("migration %s (%s): %s: %v", e.Version, e.File, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration (%s): %s: %v", e.File, e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(version, file, operation string, err error) *Error {
	return &Error{Version: version, File: file, Operation: operation, Err: err}
}
