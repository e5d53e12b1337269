// Package charts renders the survey figures as PNG files with gonum/plot and
// the career Sankey diagram as a plotly HTML page.
package charts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"salarycli/internal/analysis"
	"salarycli/internal/config"
	"salarycli/internal/ml"
	"salarycli/internal/survey"
)

var (
	// ErrNoData is returned by a chart whose columns or results are missing
	ErrNoData = errors.New("not enough data for chart")

	// ErrUnknownChart is returned for a chart name outside Names
	ErrUnknownChart = errors.New("unknown chart")
)

func noData(what string) error {
	return fmt.Errorf("%w: %s", ErrNoData, what)
}

// Input is everything a chart may draw from. Analysis and ML are optional;
// charts that need them report ErrNoData when they are nil.
type Input struct {
	Data     *survey.Dataset
	Analysis *analysis.Results
	ML       *ml.Results
}

// Chart is one named figure
type Chart struct {
	Name    string
	Caption string
	build   func(in Input) (*plot.Plot, error)
}

var registry = []Chart{
	{"salary_histogram", "Salary distribution with the mean", salaryHistogram},
	{"boxplot_seniority", "Salary distribution by career level", seniorityBoxPlot},
	{"boxplot_work_mode", "Salary distribution by work mode", workModeBoxPlot},
	{"boxplot_company_location", "Salary distribution by company location", locationBoxPlot},
	{"boxplot_gender", "Salary distribution by gender", genderBoxPlot},
	{"boxplot_employment_type", "Salary distribution by employment type", employmentBoxPlot},
	{"barplot_role_salaries", "Average salary by role", roleBars},
	{"barplot_programming_roi", "Programming language salary ROI", roiBars(survey.PrefixProgramming, "Programming Languages")},
	{"barplot_frontend_roi", "Frontend technology salary ROI", roiBars(survey.PrefixFrontend, "Frontend Technologies")},
	{"barplot_tools_roi", "Tool salary ROI", roiBars(survey.PrefixTools, "Tools")},
	{"barplot_gender_programming", "Programming language usage by gender", genderUsageBars("Programming Language Usage by Gender", func(g analysis.GenderTechnologyUsage) []analysis.GenderUsage { return g.Languages })},
	{"barplot_gender_frontend", "Frontend technology usage by gender", genderUsageBars("Frontend Technology Usage by Gender", func(g analysis.GenderTechnologyUsage) []analysis.GenderUsage { return g.Frontend })},
	{"scatter_experience_salary", "Experience against salary by career level", experienceScatter},
	{"barplot_tech_correlation", "Correlation of technologies with salary", correlationBars},
	{"barplot_hourly_avg_salary", "Average salary by survey hour", hourlySalary},
	{"barplot_hourly_participants", "Participants by survey hour", hourlyParticipants},
	{"heatmap_roles_by_hour", "Role share by survey hour", roleHourHeatmap},
	{"barplot_model_comparison", "Test and cross-validated R² by model", modelComparison},
	{"scatter_clusters", "Developer clusters", clusterScatter},
}

// Names lists every PNG chart in render order
func Names() []string {
	out := make([]string, len(registry))
	for i, c := range registry {
		out[i] = c.Name
	}
	return out
}

// Lookup returns a chart by name
func Lookup(name string) (Chart, bool) {
	for _, c := range registry {
		if c.Name == name {
			return c, true
		}
	}
	return Chart{}, false
}

// Options sets figure size and rendering concurrency
type Options struct {
	Width         vg.Length
	Height        vg.Length
	Workers       int
	SankeyPNG     bool
	ChromeTimeout time.Duration
}

// OptionsFromConfig converts the charts section; sizes are in inches
func OptionsFromConfig(cfg config.ChartsConfig) Options {
	return Options{
		Width:         vg.Length(cfg.Width) * vg.Inch,
		Height:        vg.Length(cfg.Height) * vg.Inch,
		Workers:       cfg.Workers,
		SankeyPNG:     cfg.SankeyPNG,
		ChromeTimeout: cfg.ChromeTimeout,
	}
}

// Renderer writes charts under the figures directory
type Renderer struct {
	paths  *config.Paths
	logger *slog.Logger
	opts   Options
}

// NewRenderer creates a renderer; a nil logger falls back to slog.Default
func NewRenderer(paths *config.Paths, logger *slog.Logger, opts Options) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Width <= 0 {
		opts.Width = 12 * vg.Inch
	}
	if opts.Height <= 0 {
		opts.Height = 7 * vg.Inch
	}
	return &Renderer{
		paths:  paths,
		logger: logger.With(slog.String("component", "charts")),
		opts:   opts,
	}
}

// Render builds the named chart without writing it
func (r *Renderer) Render(name string, in Input) (*plot.Plot, error) {
	c, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
	if in.Data == nil {
		return nil, noData("dataset")
	}
	return c.build(in)
}

// WritePNG renders the named chart into w
func (r *Renderer) WritePNG(w io.Writer, name string, in Input) error {
	p, err := r.Render(name, in)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(r.opts.Width, r.opts.Height, "png")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// RenderAll writes every chart concurrently and then the Sankey page.
// Charts without data are skipped; the paths written are returned.
func (r *Renderer) RenderAll(ctx context.Context, in Input) ([]string, error) {
	if err := os.MkdirAll(r.paths.FiguresDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create figures directory: %w", err)
	}
	start := time.Now()

	written := make([]string, len(registry))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.opts.Workers, 1))
	for i, c := range registry {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := r.paths.FigurePath(c.Name + ".png")
			p, err := r.Render(c.Name, in)
			if errors.Is(err, ErrNoData) {
				r.logger.InfoContext(gctx, "chart skipped", slog.String("chart", c.Name), slog.String("reason", err.Error()))
				return nil
			}
			if err != nil {
				return fmt.Errorf("chart %s: %w", c.Name, err)
			}
			if err := p.Save(r.opts.Width, r.opts.Height, path); err != nil {
				return fmt.Errorf("save %s: %w", path, err)
			}
			written[i] = path
			r.logger.DebugContext(gctx, "chart saved", slog.String("chart", c.Name), slog.String("path", path))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for _, p := range written {
		if p != "" {
			out = append(out, p)
		}
	}

	sankey, err := r.Sankey(ctx, in)
	switch {
	case errors.Is(err, ErrNoData):
		r.logger.InfoContext(ctx, "chart skipped", slog.String("chart", SankeyName), slog.String("reason", err.Error()))
	case err != nil:
		return out, err
	default:
		out = append(out, sankey...)
	}

	r.logger.InfoContext(ctx, "charts rendered",
		slog.Int("written", len(out)),
		slog.Duration("duration", time.Since(start)))
	return out, nil
}
