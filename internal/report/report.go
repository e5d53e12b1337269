// Package report renders the LaTeX salary report from the analysis and model
// results and the figures that exist on disk.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"salarycli/internal/analysis"
	"salarycli/internal/config"
	"salarycli/internal/ml"
	"salarycli/internal/survey"
)

const topROIRows = 10

// Figure is an included PNG with its caption
type Figure struct {
	Path    string
	Caption string
}

// Data is the view the template renders
type Data struct {
	Title        string
	Generated    time.Time
	Alpha        float64
	Key          analysis.KeyStats
	TopROI       []analysis.TechnologyROI
	ROIThreshold float64
	Career       analysis.CareerProgression
	Roles        []analysis.RoleSalary
	Tests        []analysis.TwoGroupTest
	Comparisons  []analysis.GroupComparison
	Experience   *analysis.CorrelationTest
	React        *analysis.TwoGroupTest
	Remote       *analysis.TwoGroupTest
	Europe       *analysis.TwoGroupTest
	Gender       *analysis.TwoGroupTest
	ML           *ml.Results
	LocationNote string

	figures map[string]Figure
}

// Figure returns the LaTeX block of a figure, or nothing when its PNG was not rendered
func (d *Data) Figure(name string) string {
	f, ok := d.figures[name]
	if !ok {
		return ""
	}
	return fmt.Sprintf("\\begin{figure}[H]\n\\centering\n\\includegraphics[width=0.9\\textwidth]{%s}\n\\caption{%s}\n\\end{figure}\n",
		f.Path, Escape(f.Caption))
}

// HasFigure reports whether a figure will be included
func (d *Data) HasFigure(name string) bool {
	_, ok := d.figures[name]
	return ok
}

// Generator writes the report
type Generator struct {
	paths        *config.Paths
	logger       *slog.Logger
	roiThreshold float64
}

// NewGenerator creates a generator; a nil logger falls back to slog.Default
func NewGenerator(paths *config.Paths, logger *slog.Logger, roiThreshold float64) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		paths:        paths,
		logger:       logger.With(slog.String("component", "report")),
		roiThreshold: roiThreshold,
	}
}

// Generate reads results.json and, when present, ml_results.json, and writes
// the report to paths.ReportTeX
func (g *Generator) Generate(ctx context.Context) (string, error) {
	res, err := analysis.ReadJSON(g.paths.ResultsJSON)
	if err != nil {
		return "", err
	}
	mlRes, err := ml.ReadResults(g.paths.TablePath(config.MLResultsFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		g.logger.InfoContext(ctx, "no model results, skipping model sections")
		mlRes = nil
	case err != nil:
		return "", err
	}

	data := g.Build(res, mlRes)
	var buf bytes.Buffer
	if err := Render(&buf, data); err != nil {
		return "", err
	}
	if err := os.MkdirAll(g.paths.ReportsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}
	if err := os.WriteFile(g.paths.ReportTeX, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	g.logger.InfoContext(ctx, "report written",
		slog.String("path", g.paths.ReportTeX),
		slog.Int("figures", len(data.figures)),
		slog.Bool("models", mlRes != nil))
	return g.paths.ReportTeX, nil
}

// Build assembles the template view; mlRes may be nil
func (g *Generator) Build(res *analysis.Results, mlRes *ml.Results) *Data {
	d := &Data{
		Title:        config.AppName + " Report",
		Generated:    res.GeneratedAt,
		Alpha:        res.Alpha,
		Key:          res.Key,
		ROIThreshold: g.roiThreshold * 100,
		Career:       res.Career,
		Roles:        res.Roles,
		Tests:        res.Tests,
		Comparisons:  res.Comparisons,
		ML:           mlRes,
		LocationNote: survey.LocationNote,
		figures:      make(map[string]Figure),
	}
	d.TopROI = res.SignificantROI
	if len(d.TopROI) > topROIRows {
		d.TopROI = d.TopROI[:topROIRows]
	}
	for name, target := range map[string]**analysis.TwoGroupTest{
		"React Usage":       &d.React,
		"Remote vs Office":  &d.Remote,
		"Europe vs Türkiye": &d.Europe,
		"Gender Gap":        &d.Gender,
	} {
		if t, ok := analysis.FindTest(res.Tests, name); ok {
			*target = &t
		}
	}
	for i := range res.Correlations {
		if res.Correlations[i].Variable == survey.ColExperience {
			d.Experience = &res.Correlations[i]
		}
	}

	for _, f := range reportFigures {
		path := g.paths.FigurePath(f.Path)
		if !config.FileExists(path) {
			continue
		}
		rel, err := filepath.Rel(g.paths.ReportsDir, path)
		if err != nil {
			rel = path
		}
		d.figures[trimExt(f.Path)] = Figure{Path: filepath.ToSlash(rel), Caption: f.Caption}
	}
	return d
}

// Render executes the LaTeX template
func Render(w io.Writer, d *Data) error {
	if err := reportTemplate.Execute(w, d); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

var reportFigures = []Figure{
	{"salary_histogram.png", "Salary distribution with the overall mean"},
	{"barplot_programming_roi.png", "Programming language salary ROI"},
	{"barplot_frontend_roi.png", "Frontend technology salary ROI"},
	{"barplot_tools_roi.png", "Tool salary ROI"},
	{"boxplot_seniority.png", "Salary distribution by career level"},
	{"barplot_role_salaries.png", "Average salary by role (top 15)"},
	{"boxplot_work_mode.png", "Salary distribution by work mode"},
	{"boxplot_company_location.png", "Salary distribution by company location. " + survey.LocationNote},
	{"boxplot_gender.png", "Salary distribution by gender"},
	{"barplot_gender_programming.png", "Programming language usage by gender (top 10)"},
	{"barplot_gender_frontend.png", "Frontend technology usage by gender (top 8)"},
	{"scatter_experience_salary.png", "Experience against salary, coloured by career level"},
	{"barplot_tech_correlation.png", "Correlation of technologies with salary"},
	{"barplot_hourly_avg_salary.png", "Average salary by survey hour"},
	{"barplot_hourly_participants.png", "Participants by survey hour"},
	{"heatmap_roles_by_hour.png", "Role share by survey hour"},
	{"sankey_career_level_role.png", "Career level to role distribution"},
	{"boxplot_employment_type.png", "Salary distribution by employment type"},
	{"barplot_model_comparison.png", "Test and cross-validated R² by model"},
	{"scatter_clusters.png", "Developer clusters by experience and salary"},
}
