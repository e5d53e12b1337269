package http

import (
	"context"

	"salarycli/internal/analysis"
	"salarycli/internal/services"
)

// DashboardService is what the dashboard handlers need from the service layer
type DashboardService interface {
	Summary(ctx context.Context, f analysis.Filter) (*services.Summary, error)
	Distribution(ctx context.Context, f analysis.Filter) (*services.Distribution, error)
	Career(ctx context.Context, f analysis.Filter) (*services.Career, error)
	Location(ctx context.Context, f analysis.Filter) (*services.Location, error)
	ROI(ctx context.Context, f analysis.Filter) (*services.ROI, error)
	Gender(ctx context.Context, f analysis.Filter) (*services.Gender, error)
	Tests(ctx context.Context, f analysis.Filter) (*services.Tests, error)
	Participation(ctx context.Context, f analysis.Filter) (*analysis.HourlyParticipation, error)
	Chart(ctx context.Context, name string, f analysis.Filter) ([]byte, error)
	FilterOptions() services.FilterOptions
}

// PredictionService scores salary prediction requests
type PredictionService interface {
	Predict(ctx context.Context, req services.PredictRequest) (*services.PredictResponse, error)
	Schema(model string) ([]string, error)
}

// HealthService reports the state of the dashboard
type HealthService interface {
	HealthCheck(ctx context.Context) services.HealthStatus
}

var (
	_ DashboardService  = (*services.DashboardService)(nil)
	_ PredictionService = (*services.PredictionService)(nil)
	_ HealthService     = (*services.HealthService)(nil)
)
