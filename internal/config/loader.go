// Package config loads the planner configuration from an optional YAML file
// and PLANNER_* environment variables through viper.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/example/appointments-planner/internal/calendar"
	"github.com/example/appointments-planner/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. PLANNER_AUTH_SECRET.
const EnvPrefix = "PLANNER"

// Config captures the settings of the planner service.
type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
	Web      WebConfig
	Calendar CalendarConfig
}

type HTTPConfig struct {
	Port              int
	ReadHeaderTimeout time.Duration
}

// Addr is the listen address for Port on all interfaces.
func (c HTTPConfig) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

type DatabaseConfig struct {
	DSN string
}

type AuthConfig struct {
	Secret       string
	TokenTTL     time.Duration
	CookieSecure bool
}

type LogConfig struct {
	Level string
}

type WebConfig struct {
	Debug bool
}

type CalendarConfig struct {
	Timezone string
	Holidays []calendar.Holiday
}

// Location resolves Timezone. Load has validated it already.
func (c CalendarConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

var defaults = map[string]any{
	"http.port":                "8080",
	"http.read_header_timeout": "10s",
	"database.dsn":             "planner.db",
	"auth.secret":              "",
	"auth.token_ttl":           "60m",
	"auth.cookie_secure":       "false",
	"log.level":                "info",
	"web.debug":                "false",
	"calendar.timezone":        "Europe/Berlin",
}

// Error lists every missing and invalid key found by Load.
type Error struct {
	Missing []string
	Invalid []string
}

func (e *Error) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, "Pflichtwerte fehlen: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "ungültige Werte: "+strings.Join(e.Invalid, ", "))
	}
	return "Konfiguration fehlerhaft: " + strings.Join(parts, "; ")
}

// Load reads path when it is non-empty, applies PLANNER_* environment
// overrides and defaults, and validates the result. All problems are reported
// together as *Error.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("Konfigurationsdatei %s nicht lesbar: %w", path, err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var (
		cfg     Config
		problem Error
	)
	invalid := func(key string) {
		problem.Invalid = append(problem.Invalid, describeKey(key))
	}
	str := func(key string) string {
		return strings.TrimSpace(v.GetString(key))
	}
	duration := func(key string) time.Duration {
		d, err := time.ParseDuration(str(key))
		if err != nil || d <= 0 {
			invalid(key)
		}
		return d
	}
	boolean := func(key string) bool {
		b, err := strconv.ParseBool(str(key))
		if err != nil {
			invalid(key)
		}
		return b
	}

	port, err := strconv.Atoi(str("http.port"))
	if err != nil || port <= 0 || port > 65535 {
		invalid("http.port")
	}
	cfg.HTTP.Port = port
	cfg.HTTP.ReadHeaderTimeout = duration("http.read_header_timeout")

	if cfg.Database.DSN = str("database.dsn"); cfg.Database.DSN == "" {
		problem.Missing = append(problem.Missing, describeKey("database.dsn"))
	}

	if cfg.Auth.Secret = str("auth.secret"); cfg.Auth.Secret == "" {
		problem.Missing = append(problem.Missing, describeKey("auth.secret"))
	}
	cfg.Auth.TokenTTL = duration("auth.token_ttl")
	cfg.Auth.CookieSecure = boolean("auth.cookie_secure")

	cfg.Log.Level = str("log.level")
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		invalid("log.level")
	}
	cfg.Web.Debug = boolean("web.debug")

	cfg.Calendar.Timezone = str("calendar.timezone")
	if _, err := time.LoadLocation(cfg.Calendar.Timezone); err != nil || cfg.Calendar.Timezone == "" {
		invalid("calendar.timezone")
	}
	if err := v.UnmarshalKey("calendar.holidays", &cfg.Calendar.Holidays); err != nil {
		invalid("calendar.holidays")
	}
	for _, h := range cfg.Calendar.Holidays {
		if !validHoliday(h) {
			invalid("calendar.holidays")
			break
		}
	}

	if len(problem.Missing) > 0 || len(problem.Invalid) > 0 {
		return Config{}, &problem
	}
	return cfg, nil
}

func validHoliday(h calendar.Holiday) bool {
	if strings.TrimSpace(h.Name) == "" || h.Month < 1 || h.Month > 12 || h.Day < 1 {
		return false
	}
	// 2024 is a leap year, so 29 February passes.
	last := time.Date(2024, time.Month(h.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return h.Day <= last
}

func describeKey(key string) string {
	return fmt.Sprintf("%s (%s_%s)", key, EnvPrefix, strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
}
