package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"salarycli/internal/analysis"
	"salarycli/internal/charts"
	"salarycli/internal/config"
	"salarycli/internal/ml"
	"salarycli/internal/stats"
	"salarycli/internal/survey"
)

const (
	histogramBins = 30
	viewCacheSize = 32
)

var (
	workModes = []string{"Remote", "Hybrid", "Office"}
	locations = []string{"Turkiye", "Avrupa", "Amerika", "Yurtdisi_TR_hub"}
)

// View is the filtered dataset with its analysis results
type View struct {
	Filter  analysis.Filter
	Data    *survey.Dataset
	Results *analysis.Results
}

// KPIs are the headline cards of the dashboard
type KPIs struct {
	AverageSalary  float64 `json:"average_salary"`
	OverallAverage float64 `json:"overall_average"`
	Delta          float64 `json:"delta"`
	MedianSalary   float64 `json:"median_salary"`
	Participants   int     `json:"participants"`
	MaleRatio      float64 `json:"male_ratio"`
}

// Insight is one highlighted two-group comparison
type Insight struct {
	Title      string  `json:"title"`
	Test       string  `json:"test"`
	Difference float64 `json:"difference"`
	P          float64 `json:"p_value"`
	CohensD    float64 `json:"cohens_d"`
	Text       string  `json:"text"`
}

// Summary is the response of /api/summary
type Summary struct {
	Filter   analysis.Filter   `json:"filter"`
	KPIs     KPIs              `json:"kpis"`
	Key      analysis.KeyStats `json:"key_statistics"`
	Insights []Insight         `json:"insights"`
}

// Bin is one histogram bar, Lower inclusive and Upper exclusive
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Distribution is the response of /api/distribution
type Distribution struct {
	Salary stats.Summary        `json:"salary"`
	Bins   []Bin                `json:"bins"`
	Levels []analysis.LevelStat `json:"levels"`
}

// Career is the response of /api/career
type Career struct {
	Progression analysis.CareerProgression `json:"progression"`
	Roles       []analysis.RoleSalary      `json:"roles"`
	Flows       []analysis.Flow            `json:"flows"`
}

// Location is the response of /api/location
type Location struct {
	WorkModes        []analysis.GroupStat `json:"work_modes"`
	Locations        []analysis.GroupStat `json:"locations"`
	RemotePremiumPct *float64             `json:"remote_premium_pct,omitempty"`
	EuropePremiumPct *float64             `json:"europe_premium_pct,omitempty"`
	Interaction      analysis.Interaction `json:"interaction"`
	Note             string               `json:"note"`
}

// ROI is the response of /api/roi
type ROI struct {
	Threshold   float64                  `json:"threshold_pct"`
	Programming []analysis.TechnologyROI `json:"programming"`
	Frontend    []analysis.TechnologyROI `json:"frontend"`
	Tools       []analysis.TechnologyROI `json:"tools"`
	Significant []analysis.TechnologyROI `json:"significant"`
}

// Gender is the response of /api/gender
type Gender struct {
	MalePct   float64                        `json:"male_pct"`
	FemalePct float64                        `json:"female_pct"`
	Test      *analysis.TwoGroupTest         `json:"test,omitempty"`
	Usage     analysis.GenderTechnologyUsage `json:"usage"`
}

// Tests is the response of /api/tests
type Tests struct {
	Alpha        float64                    `json:"alpha"`
	Tests        []analysis.TwoGroupTest    `json:"hypothesis_tests"`
	Comparisons  []analysis.GroupComparison `json:"group_comparisons"`
	Correlations []analysis.CorrelationTest `json:"correlations"`
}

// Option is one selectable value of the filter form
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterOptions lists the values each filter can take on the full dataset
type FilterOptions struct {
	Experience []Option `json:"experience"`
	Levels     []Option `json:"levels"`
	WorkModes  []Option `json:"work_modes"`
	Genders    []Option `json:"genders"`
}

// DashboardService answers dashboard queries over a dataset loaded once
type DashboardService struct {
	data     *survey.Dataset
	overall  analysis.KeyStats
	analyzer *analysis.Analyzer
	renderer *charts.Renderer
	models   *ml.Results
	logger   *slog.Logger

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]*View
	order []string
}

// NewDashboardService creates the service over an already loaded dataset.
// models may be nil when no training run has happened.
func NewDashboardService(data *survey.Dataset, analyzer *analysis.Analyzer, renderer *charts.Renderer, models *ml.Results, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DashboardService{
		data:     data,
		analyzer: analyzer,
		renderer: renderer,
		models:   models,
		logger:   logger.With(slog.String("component", "dashboard_service")),
		cache:    make(map[string]*View),
	}
	if data != nil {
		s.overall = analyzer.KeyStatistics(data)
	}
	return s
}

// LoadDashboardService reads the cleaned dataset and the optional model
// results from paths
func LoadDashboardService(cfg *config.Config, paths *config.Paths, logger *slog.Logger) (*DashboardService, error) {
	data, err := survey.LoadDataset(paths.CleanedData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetNotLoaded, err)
	}
	models, err := ml.ReadResults(paths.TablePath(config.MLResultsFile))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read model results: %w", err)
		}
		models = nil
	}
	analyzer := analysis.NewAnalyzer(logger, analysis.OptionsFromConfig(cfg.Analysis))
	renderer := charts.NewRenderer(paths, logger, charts.OptionsFromConfig(cfg.Charts))
	return NewDashboardService(data, analyzer, renderer, models, logger), nil
}

// Respondents returns the size of the unfiltered dataset
func (s *DashboardService) Respondents() int {
	if s.data == nil {
		return 0
	}
	return s.data.Len()
}

// View filters the dataset and analyses the result. Views are cached per
// filter and concurrent requests for the same filter share one computation.
func (s *DashboardService) View(ctx context.Context, f analysis.Filter) (*View, error) {
	if s.data == nil {
		return nil, toAPIError(ErrDatasetNotLoaded)
	}
	key, err := filterKey(f)
	if err != nil {
		return nil, toAPIError(err)
	}
	if v, ok := s.cached(key); ok {
		return v, nil
	}

	// shared by every caller waiting on key, so one caller leaving must not
	// cancel it
	shared := context.WithoutCancel(ctx)
	out, err, _ := s.group.Do(key, func() (interface{}, error) {
		data, err := f.Apply(s.data)
		if err != nil {
			return nil, err
		}
		res, err := s.analyzer.Run(shared, data)
		if err != nil {
			return nil, err
		}
		v := &View{Filter: f, Data: data, Results: res}
		s.store(key, v)
		s.logger.DebugContext(shared, "view computed",
			slog.String("filter", key),
			slog.Int("respondents", data.Len()))
		return v, nil
	})
	if err != nil {
		return nil, toAPIError(err)
	}
	return out.(*View), nil
}

func (s *DashboardService) cached(key string) (*View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache[key]
	return v, ok
}

func (s *DashboardService) store(key string, v *View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[key]; ok {
		return
	}
	if len(s.order) >= viewCacheSize {
		delete(s.cache, s.order[0])
		s.order = s.order[1:]
	}
	s.cache[key] = v
	s.order = append(s.order, key)
}

// filterKey is the canonical form of f, independent of value order
func filterKey(f analysis.Filter) (string, error) {
	f.Experience = slices.Sorted(slices.Values(f.Experience))
	f.Levels = slices.Sorted(slices.Values(f.Levels))
	f.WorkModes = slices.Sorted(slices.Values(f.WorkModes))
	f.Genders = slices.Sorted(slices.Values(f.Genders))
	raw, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encode filter: %w", err)
	}
	return string(raw), nil
}

// Summary returns the KPI cards and key insights
func (s *DashboardService) Summary(ctx context.Context, f analysis.Filter) (*Summary, error) {
	v, err := s.View(ctx, f)
	if err != nil {
		return nil, err
	}
	key := v.Results.Key
	out := &Summary{
		Filter: f,
		Key:    key,
		KPIs: KPIs{
			AverageSalary:  key.SalaryMean,
			OverallAverage: s.overall.SalaryMean,
			Delta:          key.SalaryMean - s.overall.SalaryMean,
			MedianSalary:   key.SalaryMedian,
			Participants:   key.Participants,
			MaleRatio:      key.MalePct,
		},
	}
	for _, in := range []struct{ test, title, verb string }{
		{"Remote vs Office", "Remote Work Premium", "more"},
		{"Europe vs Türkiye", "European Premium", "more"},
		{"Gender Gap", "Gender Gap", "difference"},
	} {
		t, ok := analysis.FindTest(v.Results.Tests, in.test)
		if !ok {
			continue
		}
		out.Insights = append(out.Insights, Insight{
			Title:      in.title,
			Test:       t.Name,
			Difference: t.MeanDiff,
			P:          t.P,
			CohensD:    t.CohensD,
			Text:       fmt.Sprintf("%.1fk TL %s (p=%.4f, d=%.3f)", t.MeanDiff, in.verb, t.P, t.CohensD),
		})
	}
	return out, nil
}

// Distribution returns the salary histogram and the per level spread
func (s *DashboardService) Distribution(ctx context.Context, f analysis.Filter) (*Distribution, error) {
	v, err := s.View(ctx, f)
	if err != nil {
		return nil, err
	}
	salaries := v.Data.Salaries(nil)
	return &Distribution{
		Salary: stats.Describe(salaries),
		Bins:   histogram(salaries, histogramBins),
		Levels: v.Results.Career.Levels,
	}, nil
}

// histogram splits values into equal width bins between their min and max
func histogram(values []float64, bins int) []Bin {
	if len(values) == 0 || bins < 1 {
		return nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		hi = lo + 1
	}
	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	// the last bin is closed on the right
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lower: dividers[i], Upper: dividers[i+1], Count: int(counts[i])}
	}
	out[bins-1].Upper = hi
	return out
}

// Career returns level statistics, transitions, role salaries and the
// level to role flows
func (s *DashboardService) Career(ctx context.Context, f analysis.Filter) (*Career, error) {
	v, err := s.View(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Career{
		Progression: v.Results.Career,
		Roles:       v.Results.Roles,
		Flows:       v.Results.Sankey,
	}, nil
}

// Location returns salaries by work mode and company location
func (s *DashboardService) Location(ctx context.Context, f analysis.Filter) (*Location, error) {
	v, err := s.View(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &Location{
		WorkModes:   groupsOf(v.Data, survey.PrefixWorkMode, workModes),
		Locations:   groupsOf(v.Data, survey.PrefixCompanyLocation, locations),
		Interaction: v.Results.Interaction,
		Note:        survey.LocationNote,
	}
	if t, ok := analysis.FindTest(v.Results.Tests, "Remote vs Office"); ok {
		out.RemotePremiumPct = premium(t)
	}
	if t, ok := analysis.FindTest(v.Results.Tests, "Europe vs Türkiye"); ok {
		out.EuropePremiumPct = premium(t)
	}
	return out, nil
}

func groupsOf(d *survey.Dataset, prefix string, values []string) []analysis.GroupStat {
	var out []analysis.GroupStat
	for _, value := range values {
		column := prefix + value
		if !d.Has(column) {
			continue
		}
		salaries := d.Salaries(d.Mask(column, 1))
		if len(salaries) == 0 {
			continue
		}
		g := analysis.GroupStat{
			Label:  survey.DisplayLabel(column, prefix),
			N:      len(salaries),
			Mean:   stats.Mean(salaries),
			Median: stats.Median(salaries),
		}
		if len(salaries) > 1 {
			g.Std = stats.StdDev(salaries)
		}
		out = append(out, g)
	}
	return out
}

// premium is the relative salary advantage of group A over group B, in percent
func premium(t analysis.TwoGroupTest) *float64 {
	if t.MeanB == 0 {
		return nil
	}
	p := (t.MeanA/t.MeanB - 1) * 100
	return &p
}

// ROI returns the technology ROI tables per category
func (s *DashboardService) ROI(ctx context.Context, f analysis.Filter) (*ROI, error) {
	v, err := s.View(ctx, f)
	if err != nil {
		return nil, err
	}
	rows := v.Results.ROI
	return &ROI{
		Threshold:   s.analyzer.Options().ROIThreshold * 100,
		Programming: analysis.FilterCategory(rows, "programming"),
		Frontend:    analysis.FilterCategory(rows, "frontend"),
		Tools:       analysis.FilterCategory(rows, "tools"),
		Significant: v.Results.SignificantROI,
	}, nil
}

// Gender returns the gender split, the gap test and technology usage by gender
func (s *DashboardService) Gender(ctx context.Context, f analysis.Filter) (*Gender, error) {
	v, err := s.View(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &Gender{
		MalePct:   v.Results.Key.MalePct,
		FemalePct: v.Results.Key.FemalePct,
		Usage:     v.Results.GenderUsage,
	}
	if t, ok := analysis.FindTest(v.Results.Tests, "Gender Gap"); ok {
		out.Test = &t
	}
	return out, nil
}

// Tests returns every statistical test computed for the filter
func (s *DashboardService) Tests(ctx context.Context, f analysis.Filter) (*Tests, error) {
	v, err := s.View(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Tests{
		Alpha:        v.Results.Alpha,
		Tests:        v.Results.Tests,
		Comparisons:  v.Results.Comparisons,
		Correlations: v.Results.Correlations,
	}, nil
}

// Participation returns the hourly participation analysis
func (s *DashboardService) Participation(ctx context.Context, f analysis.Filter) (*analysis.HourlyParticipation, error) {
	v, err := s.View(ctx, f)
	if err != nil {
		return nil, err
	}
	return &v.Results.Participation, nil
}

// Chart renders one chart for the filter as PNG
func (s *DashboardService) Chart(ctx context.Context, name string, f analysis.Filter) ([]byte, error) {
	if _, ok := charts.Lookup(name); !ok {
		return nil, toAPIError(fmt.Errorf("%w: %s", charts.ErrUnknownChart, name))
	}
	v, err := s.View(ctx, f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.renderer.WritePNG(&buf, name, charts.Input{Data: v.Data, Analysis: v.Results, ML: s.modelsFor(f)}); err != nil {
		return nil, toAPIError(err)
	}
	return buf.Bytes(), nil
}

// modelsFor drops cluster labels when the rows they index are filtered away
func (s *DashboardService) modelsFor(f analysis.Filter) *ml.Results {
	if s.models == nil || f.Empty() {
		return s.models
	}
	m := *s.models
	m.Clusters = nil
	return &m
}

// FilterOptions lists the choices of the filter form
func (s *DashboardService) FilterOptions() FilterOptions {
	var out FilterOptions
	if s.data == nil {
		return out
	}
	for _, e := range distinct(s.data.Float(survey.ColExperience)) {
		label := survey.FormatFloat(e)
		out.Experience = append(out.Experience, Option{Value: label, Label: label})
	}
	for _, l := range distinct(s.data.Float(survey.ColSeniority)) {
		out.Levels = append(out.Levels, Option{
			Value: survey.FormatFloat(l),
			Label: survey.CareerLevelLabel(int(l)),
		})
	}
	for _, column := range s.data.ColumnsWithPrefix(survey.PrefixWorkMode) {
		mode := column[len(survey.PrefixWorkMode):]
		out.WorkModes = append(out.WorkModes, Option{Value: mode, Label: survey.DisplayLabel(column, survey.PrefixWorkMode)})
	}
	for _, g := range []float64{survey.GenderMale, survey.GenderFemale} {
		out.Genders = append(out.Genders, Option{Value: survey.FormatFloat(g), Label: survey.GenderLabel(g)})
	}
	return out
}

// distinct returns the sorted unique non-NaN values
func distinct(values []float64) []float64 {
	var out []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
