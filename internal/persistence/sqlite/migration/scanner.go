// Package migration applies versioned SQL files to a SQLite database and
// tracks them in the schema_migrations table.
package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Migration is one versioned SQL file.
type Migration struct {
	Version     string
	Description string
	File        string
	SQL         string
	Checksum    string
}

// Applied describes a row of schema_migrations.
type Applied struct {
	Version   string    `db:"version"`
	AppliedAt time.Time `db:"applied_at"`
	Checksum  string    `db:"checksum"`
}

// Scan reads every *.sql file directly under dir in fsys and returns them
// ordered by numeric version.
func Scan(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, newError("", dir, "read directory", err)
	}

	seen := make(map[string]string)
	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		match := fileNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, newError("", entry.Name(), "validate file name", ErrInvalidFileName)
		}
		version := match[1]
		if other, ok := seen[version]; ok {
			return nil, newError(version, entry.Name(), "check duplicates",
				fmt.Errorf("%w: also in %s", ErrDuplicateVersion, other))
		}
		seen[version] = entry.Name()

		body, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, newError(version, entry.Name(), "read file", err)
		}
		if len(splitStatements(string(body))) == 0 {
			return nil, newError(version, entry.Name(), "parse", ErrEmptyMigration)
		}

		sum := sha256.Sum256(body)
		migrations = append(migrations, Migration{
			Version:     version,
			Description: strings.ReplaceAll(match[2], "_", " "),
			File:        entry.Name(),
			SQL:         string(body),
			Checksum:    hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		a, _ := strconv.Atoi(migrations[i].Version)
		b, _ := strconv.Atoi(migrations[j].Version)
		return a < b
	})
	return migrations, nil
}

// splitStatements breaks a script on semicolons and drops blank and comment-only parts.
func splitStatements(script string) []string {
	var out []string
	for _, raw := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			out = append(out, strings.TrimSpace(strings.Join(lines, "\n")))
		}
	}
	return out
}
