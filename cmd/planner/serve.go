package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	httptransport "github.com/example/appointments-planner/internal/http"
	"github.com/example/appointments-planner/internal/ics"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Webserver starten",
		Long:  "Wendet ausstehende Migrationen an und startet den HTTP-Server. SIGINT und SIGTERM beenden ihn geordnet.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.close()

			handler, err := newHandler(rt)
			if err != nil {
				return err
			}
			server := &http.Server{
				Addr:              rt.cfg.HTTP.Addr(),
				Handler:           handler,
				ReadHeaderTimeout: rt.cfg.HTTP.ReadHeaderTimeout,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
				ErrorLog:          slog.NewLogLogger(rt.logger.Handler(), slog.LevelError),
			}
			return serve(cmd.Context(), server, rt.logger)
		},
	}
}

func newHandler(rt *runtime) (http.Handler, error) {
	svc, err := newServices(rt)
	if err != nil {
		return nil, err
	}
	renderer, err := httptransport.NewRenderer(rt.cfg.Web.Debug)
	if err != nil {
		return nil, err
	}
	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         svc.auth,
		Users:        svc.users,
		Persons:      svc.persons,
		Locations:    svc.locations,
		Periods:      svc.periods,
		Appointments: svc.appointments,
		Plans:        svc.plans,
		Calendar:     svc.calendar,
		Search:       svc.search,
		Exporter:     ics.NewExporter(rt.loc, rt.now),
		Renderer:     renderer,
		Metrics:      httptransport.NewMetrics(),
		Logger:       rt.logger,
		Debug:        rt.cfg.Web.Debug,
		CookieSecure: rt.cfg.Auth.CookieSecure,
	}), nil
}

// serve runs server until ctx is cancelled, then drains open requests.
func serve(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("planner listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("Server beendet: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("Herunterfahren fehlgeschlagen: %w", err)
	}
	return nil
}
