package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salarycli/internal/analysis"
	"salarycli/internal/charts"
	apierrors "salarycli/internal/errors"
)

// DashboardHandler serves the JSON aggregates and the chart images
type DashboardHandler struct {
	service      DashboardService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the aggregate routes mounted under /api
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", serve(h, h.service.Summary))
	r.Get("/distribution", serve(h, h.service.Distribution))
	r.Get("/career", serve(h, h.service.Career))
	r.Get("/location", serve(h, h.service.Location))
	r.Get("/roi", serve(h, h.service.ROI))
	r.Get("/gender", serve(h, h.service.Gender))
	r.Get("/tests", serve(h, h.service.Tests))
	r.Get("/participation", serve(h, h.service.Participation))
	r.Get("/filters", h.GetFilterOptions)
	r.Get("/charts", h.ListCharts)
	return r
}

// ChartRoutes returns the image routes mounted under /charts
func (h *DashboardHandler) ChartRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{name}.png", h.GetChart)
	return r
}

// serve handles GET requests that map a filter to one aggregate
func serve[T any](h *DashboardHandler, fetch func(context.Context, analysis.Filter) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := ParseFilter(r.URL.Query())
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		out, err := fetch(r.Context(), f)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		render.JSON(w, r, out)
	}
}

// GetFilterOptions handles GET /api/filters
func (h *DashboardHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.FilterOptions())
}

// ChartInfo describes one chart the dashboard can draw
type ChartInfo struct {
	Name    string `json:"name"`
	Caption string `json:"caption"`
	URL     string `json:"url"`
}

// ListCharts handles GET /api/charts
func (h *DashboardHandler) ListCharts(w http.ResponseWriter, r *http.Request) {
	names := charts.Names()
	out := make([]ChartInfo, 0, len(names))
	for _, name := range names {
		c, _ := charts.Lookup(name)
		out = append(out, ChartInfo{Name: name, Caption: c.Caption, URL: chartURL(name, "")})
	}
	render.JSON(w, r, out)
}

// GetChart handles GET /charts/{name}.png
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	png, err := h.service.Chart(r.Context(), name, f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.logger.WarnContext(r.Context(), "chart write failed",
			slog.String("chart", name),
			slog.String("error", err.Error()))
	}
}

func chartURL(name, query string) string {
	u := "/charts/" + name + ".png"
	if query != "" {
		u += "?" + query
	}
	return u
}
