package application

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/appointments-planner/internal/auth"
	"github.com/example/appointments-planner/internal/calendar"
	"github.com/example/appointments-planner/internal/persistence"
)

// Minimum roles per kind of operation.
const (
	readRole      = auth.RoleEmployee
	scheduleRole  = auth.RoleDispatcher
	directoryRole = auth.RoleAdmin
)

// authorize returns ErrAuthenticationRequired for anonymous or disabled
// principals and ErrForbidden when the role ranks below required.
func authorize(principal Principal, required auth.Role) error {
	if !principal.Authenticated() {
		return ErrAuthenticationRequired
	}
	if !auth.HasPermission(required, principal.Role) {
		return fmt.Errorf("%w: role %q below %q", ErrForbidden, principal.Role, required)
	}
	return nil
}

// mapRepoError translates persistence sentinels into application errors.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrConflict
	case errors.Is(err, persistence.ErrConstraintViolation):
		return fieldError("record", "Die Angaben verletzen eine Datenbankregel.")
	}
	return err
}

func parseISODate(value string) (time.Time, error) {
	t, err := time.Parse(calendar.ISODateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// parseClock parses HH:MM or HH:MM:SS into an offset from midnight.
func parseClock(value string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	limits := []int{23, 59, 59}
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	var offset time.Duration
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid time %q", value)
		}
		offset += time.Duration(n) * units[i]
	}
	return offset, nil
}

// parseDelta accepts H:MM as well as Go duration strings like "90m".
func parseDelta(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if strings.Contains(value, ":") {
		parts := strings.Split(value, ":")
		if len(parts) != 2 {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		hours, err := strconv.Atoi(parts[0])
		if err != nil || hours < 0 {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		minutes, err := strconv.Atoi(parts[1])
		if err != nil || minutes < 0 || minutes > 59 {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
	}
	return time.ParseDuration(value)
}

// cleanList trims entries, drops empty ones and removes duplicates keeping order.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
