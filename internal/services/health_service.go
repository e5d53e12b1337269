package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"salarycli/internal/config"
)

// HealthService provides health check functionality
type HealthService struct {
	version    string
	dashboard  *DashboardService
	prediction *PredictionService
	startTime  time.Time
	logger     *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(dashboard *DashboardService, prediction *PredictionService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:    config.AppVersion,
		dashboard:  dashboard,
		prediction: prediction,
		startTime:  time.Now(),
		logger:     logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck reports "healthy" when the dataset is loaded and "degraded"
// when only the prediction model is missing
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
		Services: make(map[string]ServiceHealth),
	}

	if s.dashboard == nil || s.dashboard.Respondents() == 0 {
		status.Status = "unhealthy"
		status.Services["dataset"] = ServiceHealth{Status: "unavailable", Message: ErrDatasetNotLoaded.Error()}
	} else {
		status.Services["dataset"] = ServiceHealth{Status: "ok"}
	}

	if s.prediction != nil && s.prediction.Available() {
		status.Services["model"] = ServiceHealth{Status: "ok"}
	} else {
		if status.Status == "healthy" {
			status.Status = "degraded"
		}
		status.Services["model"] = ServiceHealth{Status: "unavailable", Message: "no trained model found"}
	}

	if status.Status != "healthy" {
		s.logger.WarnContext(ctx, "health check not healthy", slog.String("status", status.Status))
	}
	return status
}

// Healthy reports whether the dashboard can serve requests
func (h HealthStatus) Healthy() bool {
	return h.Status != "unhealthy"
}
