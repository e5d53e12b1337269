// Package analysis runs the statistical analyses of the salary survey over a
// cleaned dataset and writes the resulting tables.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"salarycli/internal/config"
	"salarycli/internal/stats"
	"salarycli/internal/survey"
)

// ErrNoRespondents is returned when a dataset or a filtered view has no rows
var ErrNoRespondents = errors.New("no respondents")

// Options holds group-size limits and significance levels
type Options struct {
	Alpha         float64
	MinGroupSize  int
	MinROIGroup   int
	MinRoleCount  int
	MinCellSize   int
	ROIThreshold  float64
	TopTechnology int
	TopRoles      int
	HeatmapRoles  int
	ConfidenceZ   float64
}

// OptionsFromConfig copies the analysis section of the configuration
func OptionsFromConfig(cfg config.AnalysisConfig) Options {
	return Options{
		Alpha:         cfg.Alpha,
		MinGroupSize:  cfg.MinGroupSize,
		MinROIGroup:   cfg.MinROIGroup,
		MinRoleCount:  cfg.MinRoleCount,
		MinCellSize:   cfg.MinCellSize,
		ROIThreshold:  cfg.ROIThreshold,
		TopTechnology: cfg.TopTechnology,
		TopRoles:      cfg.TopRoles,
		HeatmapRoles:  cfg.HeatmapRoles,
		ConfidenceZ:   cfg.ConfidenceZ,
	}
}

// DefaultOptions returns the limits used by the published analysis
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Analysis)
}

// Results bundles every analysis of one run; it is what results.json holds
type Results struct {
	GeneratedAt      time.Time               `json:"generated_at"`
	Alpha            float64                 `json:"alpha"`
	Key              KeyStats                `json:"key_statistics"`
	Tests            []TwoGroupTest          `json:"hypothesis_tests"`
	Comparisons      []GroupComparison       `json:"group_comparisons"`
	Correlations     []CorrelationTest       `json:"correlations"`
	ROI              []TechnologyROI         `json:"technology_roi"`
	SignificantROI   []TechnologyROI         `json:"significant_roi"`
	Roles            []RoleSalary            `json:"role_salaries"`
	Career           CareerProgression       `json:"career_progression"`
	Participation    HourlyParticipation     `json:"hourly_participation"`
	Interaction      Interaction             `json:"interaction"`
	GenderUsage      GenderTechnologyUsage   `json:"gender_technology_usage"`
	TechCorrelations []TechnologyCorrelation `json:"technology_correlations"`
	Sankey           []Flow                  `json:"sankey_flows"`
}

// Analyzer computes the survey analyses
type Analyzer struct {
	logger *slog.Logger
	opts   Options
}

// NewAnalyzer creates an analyzer; a nil logger falls back to slog.Default
func NewAnalyzer(logger *slog.Logger, opts Options) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		logger: logger.With(slog.String("component", "analysis")),
		opts:   opts,
	}
}

// Options returns the limits the analyzer was created with
func (a *Analyzer) Options() Options { return a.opts }

// Run computes every analysis over d
func (a *Analyzer) Run(ctx context.Context, d *survey.Dataset) (*Results, error) {
	if d == nil || d.Len() == 0 {
		return nil, ErrNoRespondents
	}
	if !d.IsNumeric(survey.ColSalary) {
		return nil, stats.ErrInsufficientData
	}

	start := time.Now()
	res := &Results{GeneratedAt: time.Now().UTC(), Alpha: a.opts.Alpha}

	steps := []struct {
		name string
		fn   func()
	}{
		{"key_statistics", func() { res.Key = a.KeyStatistics(d) }},
		{"hypothesis_tests", func() { res.Tests = a.HypothesisTests(ctx, d) }},
		{"group_comparisons", func() { res.Comparisons = a.GroupComparisons(ctx, d) }},
		{"correlations", func() { res.Correlations = a.Correlations(ctx, d) }},
		{"technology_roi", func() {
			res.ROI = a.TechnologyROI(d)
			res.SignificantROI = SignificantROI(res.ROI, a.opts.ROIThreshold)
		}},
		{"role_salaries", func() { res.Roles = a.RoleSalaries(d) }},
		{"career_progression", func() { res.Career = a.CareerProgression(d) }},
		{"hourly_participation", func() { res.Participation = a.HourlyParticipation(d) }},
		{"interaction", func() { res.Interaction = a.Interaction(d) }},
		{"gender_technology_usage", func() { res.GenderUsage = a.GenderTechnologyUsage(d) }},
		{"technology_correlations", func() { res.TechCorrelations = a.TechnologyCorrelations(d) }},
		{"sankey_flows", func() { res.Sankey = SankeyFlows(d) }},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.fn()
		a.logger.DebugContext(ctx, "analysis completed", slog.String("analysis", s.name))
	}

	a.logger.InfoContext(ctx, "analysis finished",
		slog.Int("respondents", d.Len()),
		slog.Int("tests", len(res.Tests)),
		slog.Int("roi_rows", len(res.ROI)),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// GroupStat describes the salaries of one group
type GroupStat struct {
	Label  string  `json:"label"`
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

func groupStat(label string, values []float64) GroupStat {
	g := GroupStat{Label: label, N: len(values)}
	if len(values) > 0 {
		g.Mean = stats.Mean(values)
		g.Median = stats.Median(values)
	}
	g.Std = stdOrZero(values)
	return g
}

// stdOrZero keeps undefined deviations out of the JSON output
func stdOrZero(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stats.StdDev(values)
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
