package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salarycli/internal/analysis"
	"salarycli/internal/config"
	apierrors "salarycli/internal/errors"
	"salarycli/internal/middleware"
	"salarycli/internal/services"
)

type fakeDashboard struct {
	mu      sync.Mutex
	filters []analysis.Filter
	charts  []string
	err     error
}

func (f *fakeDashboard) record(filter analysis.Filter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	return f.err
}

func (f *fakeDashboard) last() analysis.Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters[len(f.filters)-1]
}

func (f *fakeDashboard) Summary(_ context.Context, filter analysis.Filter) (*services.Summary, error) {
	if err := f.record(filter); err != nil {
		return nil, err
	}
	return &services.Summary{
		Filter: filter,
		KPIs:   services.KPIs{AverageSalary: 101.34, Delta: 6.5, MedianSalary: 95, Participants: 2969, MaleRatio: 82.4},
		Insights: []services.Insight{
			{Title: "Remote Work Premium", Text: "22.6k TL more (p=0.0001, d=0.420)"},
		},
	}, nil
}

func (f *fakeDashboard) Distribution(_ context.Context, filter analysis.Filter) (*services.Distribution, error) {
	return &services.Distribution{Bins: []services.Bin{{Lower: 0, Upper: 10, Count: 3}}}, f.record(filter)
}

func (f *fakeDashboard) Career(_ context.Context, filter analysis.Filter) (*services.Career, error) {
	return &services.Career{}, f.record(filter)
}

func (f *fakeDashboard) Location(_ context.Context, filter analysis.Filter) (*services.Location, error) {
	return &services.Location{Note: "inferred"}, f.record(filter)
}

func (f *fakeDashboard) ROI(_ context.Context, filter analysis.Filter) (*services.ROI, error) {
	return &services.ROI{Threshold: 5}, f.record(filter)
}

func (f *fakeDashboard) Gender(_ context.Context, filter analysis.Filter) (*services.Gender, error) {
	return &services.Gender{MalePct: 80}, f.record(filter)
}

func (f *fakeDashboard) Tests(_ context.Context, filter analysis.Filter) (*services.Tests, error) {
	return &services.Tests{Alpha: 0.05}, f.record(filter)
}

func (f *fakeDashboard) Participation(_ context.Context, filter analysis.Filter) (*analysis.HourlyParticipation, error) {
	return &analysis.HourlyParticipation{}, f.record(filter)
}

func (f *fakeDashboard) Chart(_ context.Context, name string, filter analysis.Filter) ([]byte, error) {
	if err := f.record(filter); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.charts = append(f.charts, name)
	f.mu.Unlock()
	return []byte("\x89PNG fake"), nil
}

func (f *fakeDashboard) FilterOptions() services.FilterOptions {
	return services.FilterOptions{
		Levels:    []services.Option{{Value: "1", Label: "Junior"}, {Value: "3", Label: "Senior"}},
		WorkModes: []services.Option{{Value: "Remote", Label: "Remote"}},
		Genders:   []services.Option{{Value: "0", Label: "Male"}, {Value: "1", Label: "Female"}},
	}
}

type fakePrediction struct {
	err error
}

func (f *fakePrediction) Predict(_ context.Context, req services.PredictRequest) (*services.PredictResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.PredictResponse{Model: "random_forest", Salary: 10 * req.Features["experience_years"], Features: 2}, nil
}

func (f *fakePrediction) Schema(model string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"experience_years", "seniority_level_ic"}, nil
}

type fakeHealth struct {
	status string
}

func (f fakeHealth) HealthCheck(context.Context) services.HealthStatus {
	return services.HealthStatus{Status: f.status, Version: config.AppVersion}
}

type testServer struct {
	dashboard  *fakeDashboard
	prediction *fakePrediction
	handler    http.Handler
	registry   *prometheus.Registry
}

func newTestServer(t *testing.T, mutate func(*RouterDeps)) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	httpMetrics, err := middleware.NewHTTPMetrics(reg)
	require.NoError(t, err)

	s := &testServer{dashboard: &fakeDashboard{}, prediction: &fakePrediction{}, registry: reg}
	deps := RouterDeps{
		Dashboard:   s.dashboard,
		Prediction:  s.prediction,
		Health:      fakeHealth{status: "healthy"},
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		HTTPMetrics: httpMetrics,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&deps)
	}
	s.handler = NewRouter(deps)
	return s
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAggregateRoutes(t *testing.T) {
	tests := []struct {
		path string
		key  string
	}{
		{"/api/summary", "kpis"},
		{"/api/distribution", "bins"},
		{"/api/career", "progression"},
		{"/api/location", "note"},
		{"/api/roi", "threshold_pct"},
		{"/api/gender", "male_pct"},
		{"/api/tests", "alpha"},
		{"/api/participation", "hours"},
		{"/api/filters", "levels"},
	}
	s := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := s.do(http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
			assert.Contains(t, decodeBody(t, rec), tt.key)
		})
	}
}

func TestSummary_Filter(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(http.MethodGet, "/api/summary?level=1,3&work_mode=Remote&gender=1&experience=2.5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, analysis.Filter{
		Experience: []float64{2.5},
		Levels:     []int{1, 3},
		WorkModes:  []string{"Remote"},
		Genders:    []float64{1},
	}, s.dashboard.last())

	body := decodeBody(t, rec)
	kpis := body["kpis"].(map[string]interface{})
	assert.Equal(t, 2969.0, kpis["participants"])
}

func TestAggregateRoutes_Errors(t *testing.T) {
	t.Run("invalid filter", func(t *testing.T) {
		s := newTestServer(t, nil)
		rec := s.do(http.MethodGet, "/api/roi?level=senior&gender=7", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
		assert.Len(t, body["details"], 2)
		assert.Empty(t, s.dashboard.filters)
	})

	t.Run("insufficient data", func(t *testing.T) {
		s := newTestServer(t, nil)
		s.dashboard.err = apierrors.Wrap(apierrors.ErrInsufficientData, analysis.ErrNoRespondents)
		rec := s.do(http.MethodGet, "/api/tests?level=6", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "INSUFFICIENT_DATA", body["error_code"])
		assert.NotEmpty(t, body["trace_id"])
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := newTestServer(t, nil).do(http.MethodGet, "/api/nothing-here", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := newTestServer(t, nil).do(http.MethodDelete, "/api/summary", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestChartRoute(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(http.MethodGet, "/charts/boxplot_gender.png?work_mode=Remote", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
	assert.Equal(t, []string{"boxplot_gender"}, s.dashboard.charts)
	assert.Equal(t, []string{"Remote"}, s.dashboard.last().WorkModes)

	s.dashboard.err = apierrors.NotFoundError("chart")
	rec = s.do(http.MethodGet, "/charts/pie.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCharts(t *testing.T) {
	rec := newTestServer(t, nil).do(http.MethodGet, "/api/charts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []ChartInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.NotEmpty(t, list)
	assert.Equal(t, "salary_histogram", list[0].Name)
	assert.Equal(t, "/charts/salary_histogram.png", list[0].URL)
}

func TestPredictRoute(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/api/predict", `{"features":{"experience_years":4}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, 40.0, body["predicted_salary"])
	assert.Equal(t, "random_forest", body["model"])

	rec = s.do(http.MethodPost, "/api/predict", `{"features":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeBody(t, rec)["error_code"])

	rec = s.do(http.MethodGet, "/api/predict/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"experience_years", "seniority_level_ic"}, decodeBody(t, rec)["features"])

	s.prediction.err = apierrors.ErrModelUnavailable
	rec = s.do(http.MethodPost, "/api/predict", `{"features":{"experience_years":4}}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPredictRoute_RateLimited(t *testing.T) {
	s := newTestServer(t, func(d *RouterDeps) {
		d.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	})
	body := `{"features":{"experience_years":1}}`
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/predict", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodPost, "/api/predict", body).Code)
	// the schema route is not limited
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/predict/schema", "").Code)
}

func TestHealthRoute(t *testing.T) {
	tests := []struct {
		status string
		code   int
	}{
		{"healthy", http.StatusOK},
		{"degraded", http.StatusOK},
		{"unhealthy", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			s := newTestServer(t, func(d *RouterDeps) { d.Health = fakeHealth{status: tt.status} })
			rec := s.do(http.MethodGet, "/healthz", "")
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.status, decodeBody(t, rec)["status"])
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(http.MethodGet, "/api/summary", "")
	rec := s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/api/summary",status="200"} 1`)
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(http.MethodGet, "/?level=3&work_mode=Remote", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	page := rec.Body.String()
	assert.Contains(t, page, "101.3k TL")
	assert.Contains(t, page, "+6.5k TL vs. overall")
	assert.Contains(t, page, "2,969")
	assert.Contains(t, page, "Remote Work Premium")
	assert.Contains(t, page, `value="3" checked`)
	assert.NotContains(t, page, `value="1" checked`)
	assert.Contains(t, page, `src="/charts/salary_histogram.png?level=3&amp;work_mode=Remote"`)
	assert.Contains(t, page, "Technology ROI")
}

func TestIndexPage_NoRespondents(t *testing.T) {
	s := newTestServer(t, nil)
	s.dashboard.err = apierrors.Wrap(apierrors.ErrInsufficientData, analysis.ErrNoRespondents)
	rec := s.do(http.MethodGet, "/?level=6", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No respondents match the selected filters.")
	assert.NotContains(t, rec.Body.String(), "<img")
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    analysis.Filter
		wantErr bool
	}{
		{"empty", "", analysis.Filter{}, false},
		{"repeated and comma separated", "level=1&level=2,3", analysis.Filter{Levels: []int{1, 2, 3}}, false},
		{"blank entries", "work_mode=,Remote,&gender=", analysis.Filter{WorkModes: []string{"Remote"}}, false},
		{"fractional experience", "experience=0.5", analysis.Filter{Experience: []float64{0.5}}, false},
		{"negative level", "level=-1", analysis.Filter{}, true},
		{"gender out of range", "gender=2", analysis.Filter{}, true},
		{"bad work mode", "work_mode=../etc", analysis.Filter{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			got, err := ParseFilter(q)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterQuery(t *testing.T) {
	f := analysis.Filter{Experience: []float64{1.5}, Levels: []int{2}, WorkModes: []string{"Hybrid"}, Genders: []float64{0}}
	q := FilterQuery(f)
	assert.Equal(t, "experience=1.5&gender=0&level=2&work_mode=Hybrid", q.Encode())
	back, err := ParseFilter(q)
	require.NoError(t, err)
	assert.Equal(t, f, back)
}
