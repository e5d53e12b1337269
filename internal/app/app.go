package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"salarycli/internal/analysis"
	"salarycli/internal/charts"
	"salarycli/internal/middleware"
	"salarycli/internal/services"
	handlers "salarycli/internal/transport/http"
)

// Application is the dashboard server
type Application struct {
	runtime *Runtime
	logger  *slog.Logger

	Dashboard  *services.DashboardService
	Prediction *services.PredictionService
	Health     *services.HealthService
	Router     http.Handler
	Server     *http.Server
}

// NewApplication loads the cleaned dataset and wires services, routes and the
// HTTP server. A missing dataset is not fatal: the server starts and /healthz
// reports it unhealthy until the cleaning stage has been run.
func NewApplication(rt *Runtime) (*Application, error) {
	logger := rt.Logger
	cfg := rt.Config

	dashboard, err := services.LoadDashboardService(cfg, rt.Paths, logger)
	switch {
	case errors.Is(err, services.ErrDatasetNotLoaded):
		logger.Warn("dashboard starting without data",
			slog.String("cleaned_data", rt.Paths.CleanedData),
			slog.String("error", err.Error()))
		dashboard = services.NewDashboardService(nil,
			analysis.NewAnalyzer(logger, analysis.OptionsFromConfig(cfg.Analysis)),
			charts.NewRenderer(rt.Paths, logger, charts.OptionsFromConfig(cfg.Charts)),
			nil, logger)
	case err != nil:
		return nil, fmt.Errorf("failed to initialize dashboard service: %w", err)
	}

	prediction := services.NewPredictionService(rt.Paths, cfg.ML.DefaultModel, logger)
	health := services.NewHealthService(dashboard, prediction, logger)

	httpMetrics, err := middleware.NewHTTPMetrics(rt.Providers.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register HTTP metrics: %w", err)
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Dashboard:      dashboard,
		Prediction:     prediction,
		Health:         health,
		Metrics:        rt.Providers.PrometheusHTTP,
		HTTPMetrics:    httpMetrics,
		Tracer:         rt.Providers.Tracer,
		RateLimit:      cfg.Server.RateLimit,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
	})

	return &Application{
		runtime:    rt,
		logger:     logger,
		Dashboard:  dashboard,
		Prediction: prediction,
		Health:     health,
		Router:     router,
		Server: &http.Server{
			Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}, nil
}

// Serve accepts connections on ln until ctx is cancelled, then shuts the
// server down gracefully
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Server.Serve(ln)
	}()

	a.logger.InfoContext(ctx, "dashboard listening",
		slog.String("address", "http://"+ln.Addr().String()),
		slog.Int("respondents", a.Dashboard.Respondents()))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	return a.Stop(context.WithoutCancel(ctx))
}

// Stop gracefully stops the server
func (a *Application) Stop(ctx context.Context) error {
	a.logger.InfoContext(ctx, "shutting down dashboard")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.runtime.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.logger.InfoContext(ctx, "dashboard shutdown complete")
	return nil
}

// Run listens on the configured address until SIGINT or SIGTERM
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}
