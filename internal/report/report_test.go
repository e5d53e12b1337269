package report

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salarycli/internal/analysis"
	"salarycli/internal/config"
	"salarycli/internal/ml"
	"salarycli/internal/stats"
)

func sampleResults() *analysis.Results {
	return &analysis.Results{
		GeneratedAt: time.Date(2025, 8, 21, 12, 0, 0, 0, time.UTC),
		Alpha:       0.05,
		Key: analysis.KeyStats{
			Participants: 1234, SalaryMean: 95.5, SalaryMedian: 90, SalaryStd: 30.25,
			SalaryMin: 20, SalaryMax: 350, MalePct: 80, FemalePct: 20, ManagerPct: 12.5,
		},
		Tests: []analysis.TwoGroupTest{
			{Name: "Remote vs Office", GroupA: "Remote", GroupB: "Office", NA: 600, NB: 300,
				MeanA: 110, MeanB: 87.4, MeanDiff: 22.6, P: 0.0001, CohensD: 0.42, Significant: true},
			{Name: "Europe vs Türkiye", GroupA: "Europe", GroupB: "Türkiye", NA: 100, NB: 900,
				MeanA: 160, MeanB: 90, MeanDiff: 70, P: 0.02, CohensD: 1.35, Significant: true},
		},
		SignificantROI: []analysis.TechnologyROI{
			{Technology: "C#", Category: "programming", Users: 150, UserMean: 110, ROI: 12.5, ROIPct: 12.8},
		},
		Career: analysis.CareerProgression{
			Levels: []analysis.LevelStat{
				{Level: 1, Label: "Junior", Stats: stats.Summary{Count: 200, Mean: 55, Median: 50, Std: 10}},
				{Level: 2, Label: "Mid", Stats: stats.Summary{Count: 300, Mean: 80, Median: 78, Std: 12}},
			},
			Transitions: []analysis.Transition{{From: "Junior", To: "Mid", Increase: 25, IncreasePct: 45.5}},
		},
		Roles: []analysis.RoleSalary{{Role: "Backend Developer", Count: 400, Mean: 98.2}},
	}
}

func testGenerator(t *testing.T) (*Generator, *config.Paths) {
	t.Helper()
	paths, err := config.GetPaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGenerator(paths, logger, 0.05), paths
}

func TestGenerate(t *testing.T) {
	g, paths := testGenerator(t)
	require.NoError(t, analysis.WriteJSON(paths.ResultsJSON, sampleResults()))
	require.NoError(t, os.WriteFile(paths.FigurePath("boxplot_seniority.png"), []byte("png"), 0644))

	out, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, paths.ReportTeX, out)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	tex := string(raw)

	assert.Contains(t, tex, `\documentclass[12pt,a4paper]{article}`)
	assert.Contains(t, tex, "1,234 software professionals")
	assert.Contains(t, tex, "Remote & 600 & 110.0 & \\\\")
	assert.Contains(t, tex, "Cohen's d = 0.420")
	assert.Contains(t, tex, "(p = $<$ 0.001)")
	assert.Contains(t, tex, `C\# & programming & 150 & 12.5 & 110.0 & 12.8\%`)
	assert.Contains(t, tex, `\includegraphics[width=0.9\textwidth]{../figures/boxplot_seniority.png}`)
	assert.NotContains(t, tex, "boxplot_work_mode.png")
	assert.Contains(t, tex, `Junior $\rightarrow$ Mid`)
	assert.Contains(t, tex, "21 August 2025")
	assert.NotContains(t, tex, "Salary Prediction Models")
	assert.Contains(t, tex, `\end{document}`)
	assert.NotContains(t, tex, "[[")
}

func TestGenerate_WithModels(t *testing.T) {
	g, paths := testGenerator(t)
	require.NoError(t, analysis.WriteJSON(paths.ResultsJSON, sampleResults()))
	require.NoError(t, ml.WriteResults(paths.TablePath(config.MLResultsFile), &ml.Results{
		TrainSize: 800,
		TestSize:  200,
		Best:      ml.ModelBoosting,
		Models: []ml.ModelResult{
			{Name: ml.ModelBoosting, Test: ml.Metrics{R2: 0.81, MAE: 12, RMSE: 18}, CV: ml.CVResult{R2Mean: 0.74, R2Std: 0.03}},
		},
		Clusters: &ml.ClusterResult{Summary: []ml.ClusterSummary{{Cluster: 0, Size: 1000, Percentage: 100, AvgSalary: 95}}},
	}))

	out, err := g.Generate(context.Background())
	require.NoError(t, err)
	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	tex := string(raw)

	assert.Contains(t, tex, "Salary Prediction Models")
	assert.Contains(t, tex, `gradient\_boosting & 0.810 & 12.00 & 18.00 & 0.740 $\pm$ 0.030`)
	assert.Contains(t, tex, `\texttt{gradient\_boosting}`)
	assert.Contains(t, tex, "Developer Profiles")
}

func TestGenerate_MissingResults(t *testing.T) {
	g, _ := testGenerator(t)
	_, err := g.Generate(context.Background())
	assert.Error(t, err)
}

func TestRender_EmptyResults(t *testing.T) {
	g, _ := testGenerator(t)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, g.Build(&analysis.Results{}, nil)))
	assert.Contains(t, buf.String(), "No technology passed the ROI filter.")
	assert.Contains(t, buf.String(), "too small to compare")
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"C#", `C\#`},
		{"50% & more", `50\% \& more`},
		{"node_js", `node\_js`},
		{"R²", `R$^2$`},
		{"Office → home", `Office $\rightarrow$ home`},
		{`a\b`, `a\textbackslash{}b`},
		{"{x}", `\{x\}`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "1,234,567", formatInt(1234567))
	assert.Equal(t, "999", formatInt(999))
	assert.Equal(t, "-1,000", formatInt(-1000))
	assert.Equal(t, "0.0420", formatP(0.042))
	assert.Equal(t, "$<$ 0.001", formatP(0.0002))
	assert.Equal(t, "n/a", formatFloat(2, math.NaN()))
}
