package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/appointments-planner/internal/application"
	"github.com/example/appointments-planner/internal/auth"
	"github.com/example/appointments-planner/internal/calendar"
	"github.com/example/appointments-planner/internal/config"
	"github.com/example/appointments-planner/internal/logging"
	"github.com/example/appointments-planner/internal/persistence/sqlite"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type app struct {
	configPath string
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "planner",
		Short: "Terminplaner für Einrichtungen, Personen und Planungsperioden",
		Long: `Terminplaner

Stellt Kalender, Termine und Pläne als Weboberfläche und JSON-API bereit.
Konfiguration über --config (YAML) und PLANNER_*-Umgebungsvariablen.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Pfad zur YAML-Konfigurationsdatei")

	root.AddCommand(
		a.serveCmd(),
		a.migrateCmd(),
		a.seedCmd(),
		a.createAdminCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Versionsinformationen ausgeben",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "planner %s\n", cmd.Root().Version)
		},
	}
}

// runtime bundles what every subcommand needs: configuration, logger, the
// opened storage and the configured wall clock.
type runtime struct {
	cfg     config.Config
	logger  *slog.Logger
	storage *sqlite.Storage
	loc     *time.Location
	now     func() time.Time
}

// open loads configuration and opens the database. With migrate set, pending
// migrations are applied first.
func (a *app) open(ctx context.Context, migrate bool) (*runtime, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, a.stderr)
	if err != nil {
		return nil, err
	}
	storage, err := sqlite.OpenWithLogger(cfg.Database.DSN, logger)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := storage.Migrate(ctx); err != nil {
			_ = storage.Close()
			return nil, fmt.Errorf("Migration fehlgeschlagen: %w", err)
		}
	}

	loc := cfg.Calendar.Location()
	return &runtime{
		cfg:     cfg,
		logger:  logger,
		storage: storage,
		loc:     loc,
		now:     func() time.Time { return time.Now().In(loc) },
	}, nil
}

func (rt *runtime) close() {
	if err := rt.storage.Close(); err != nil {
		rt.logger.Error("failed to close storage", "error", err)
	}
}

type services struct {
	auth         *application.AuthService
	users        *application.UserService
	persons      *application.PersonService
	locations    *application.LocationService
	periods      *application.PlanPeriodService
	appointments *application.AppointmentService
	plans        *application.PlanService
	calendar     *application.CalendarService
	search       *application.SearchService
}

func newServices(rt *runtime) (*services, error) {
	tokens, err := auth.NewTokenManager(rt.cfg.Auth.Secret, rt.now)
	if err != nil {
		return nil, err
	}
	st, logger, now := rt.storage, rt.logger, rt.now

	s := &services{
		auth:         application.NewAuthServiceWithLogger(st, tokens, auth.VerifyPassword, rt.cfg.Auth.TokenTTL, logger),
		users:        application.NewUserServiceWithLogger(st, st, auth.HashPassword, logger),
		persons:      application.NewPersonServiceWithLogger(st, st, nil, now, logger),
		locations:    application.NewLocationServiceWithLogger(st, st, nil, now, logger),
		periods:      application.NewPlanPeriodServiceWithLogger(st, nil, logger),
		appointments: application.NewAppointmentServiceWithLogger(st, st, st, st, nil, now, logger),
		plans:        application.NewPlanServiceWithLogger(st, st, st, nil, logger),
		calendar:     application.NewCalendarServiceWithLogger(st, st, calendar.NewHolidays(rt.cfg.Calendar.Holidays...), now, logger),
	}
	s.search = application.NewSearchServiceWithLogger(s.appointments, s.persons, s.locations, s.plans, logger)
	return s, nil
}
