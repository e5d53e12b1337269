package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"salarycli/internal/charts"
	"salarycli/internal/config"
	apierrors "salarycli/internal/errors"
	"salarycli/internal/services"
	"salarycli/internal/survey"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"f1":     func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
	"signed": func(v float64) string { return fmt.Sprintf("%+.1f", v) },
	"thousands": func(n int) string {
		s := strconv.Itoa(n)
		for i := len(s) - 3; i > 0; i -= 3 {
			s = s[:i] + "," + s[i:]
		}
		return s
	},
}).ParseFS(templateFS, "templates/dashboard.html"))

type pageSection struct {
	Title  string
	Charts []ChartInfo
}

var pageLayout = []struct {
	title  string
	charts []string
}{
	{"Salary Distributions", []string{"salary_histogram", "boxplot_seniority"}},
	{"Career", []string{"barplot_role_salaries", "scatter_experience_salary"}},
	{"Location & Work", []string{"boxplot_work_mode", "boxplot_company_location"}},
	{"Technology ROI", []string{"barplot_programming_roi", "barplot_frontend_roi", "barplot_tools_roi"}},
	{"Gender", []string{"boxplot_gender", "barplot_gender_programming", "barplot_gender_frontend"}},
	{"Participation", []string{"barplot_hourly_participants", "barplot_hourly_avg_salary", "heatmap_roles_by_hour"}},
}

type pageData struct {
	Title    string
	Version  string
	Options  services.FilterOptions
	Selected map[string]bool
	Summary  *services.Summary
	Message  string
	Sections []pageSection
	Note     string
}

// PageHandler renders the dashboard page
type PageHandler struct {
	service      DashboardService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPageHandler creates the HTML page handler
func NewPageHandler(service DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "page_handler")),
		errorHandler: errorHandler,
	}
}

// Index handles GET /. A filter that matches too few respondents renders the
// page with a notice instead of an error document.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	data := pageData{
		Title:    config.AppName,
		Version:  config.AppVersion,
		Options:  h.service.FilterOptions(),
		Selected: make(map[string]bool),
		Note:     survey.LocationNote,
	}
	for param, values := range r.URL.Query() {
		for _, v := range values {
			data.Selected[param+"="+v] = true
		}
	}

	summary, err := h.service.Summary(r.Context(), f)
	var apiErr *apierrors.APIError
	switch {
	case err == nil:
		data.Summary = summary
		query := FilterQuery(f).Encode()
		for _, s := range pageLayout {
			section := pageSection{Title: s.title}
			for _, name := range s.charts {
				c, _ := charts.Lookup(name)
				section.Charts = append(section.Charts, ChartInfo{Name: name, Caption: c.Caption, URL: chartURL(name, query)})
			}
			data.Sections = append(data.Sections, section)
		}
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity:
		data.Message = "No respondents match the selected filters."
	default:
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("render dashboard page: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "page write failed", slog.String("error", err.Error()))
	}
}
