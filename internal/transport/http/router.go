package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"salarycli/internal/config"
	apierrors "salarycli/internal/errors"
	"salarycli/internal/middleware"
)

// RouterDeps is everything the router wires together. Tracer, HTTPMetrics and
// Metrics are optional.
type RouterDeps struct {
	Dashboard      DashboardService
	Prediction     PredictionService
	Health         HealthService
	Metrics        http.Handler
	HTTPMetrics    *middleware.HTTPMetrics
	Tracer         trace.Tracer
	RateLimit      config.RateLimitConfig
	RequestTimeout time.Duration
	IncludeStack   bool
	Logger         *slog.Logger
}

// NewRouter builds the dashboard routes and middleware chain
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := apierrors.NewErrorHandler(logger, deps.IncludeStack)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if deps.Tracer != nil {
		r.Use(middleware.Tracing(deps.Tracer))
	}
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Handler)
	}
	r.Use(apierrors.NewRequestLogger(errorHandler, logger).Handler)
	if deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.RequestTimeout))
	}
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	health := NewHealthHandler(deps.Health, logger)
	r.Get("/healthz", health.HealthCheck)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	dashboard := NewDashboardHandler(deps.Dashboard, logger, errorHandler)
	r.Get("/", NewPageHandler(deps.Dashboard, logger, errorHandler).Index)
	r.Mount("/charts", dashboard.ChartRoutes())

	r.Route("/api", func(r chi.Router) {
		var limit func(http.Handler) http.Handler
		if deps.RateLimit.Enabled {
			limit = middleware.NewRateLimiter(deps.RateLimit.RPS, deps.RateLimit.Burst, errorHandler, logger).Handler
		}
		r.Mount("/predict", NewPredictHandler(deps.Prediction, logger, errorHandler).Routes(limit))
		r.Mount("/", dashboard.Routes())
	})
	return r
}
