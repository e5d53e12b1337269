package charts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salarycli/internal/analysis"
	"salarycli/internal/config"
	"salarycli/internal/ml"
	"salarycli/internal/survey"
)

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func testInput(t *testing.T) Input {
	t.Helper()
	header := []string{
		survey.ColTimestamp, survey.ColSalary, survey.ColGender, survey.ColExperience, survey.ColSeniority,
		survey.ColRemote, survey.ColOffice, survey.ColEurope, survey.ColTurkey,
		survey.ColReact, survey.ColPython, "tools_Docker",
		"role_Backend_Developer", "role_Frontend_Developer",
	}
	records := make([][]string, 48)
	for i := range records {
		level := i%4 + 1
		salary := 40 + 12*level + 3*(i%7)
		if (i/3)%2 == 0 {
			salary += 15
		}
		records[i] = []string{
			fmt.Sprintf("2025-06-%02d %02d:15:00", i%28+1, 9+i%6),
			strconv.Itoa(salary),
			flag(i%5 == 0),
			strconv.Itoa(level + i%3),
			strconv.Itoa(level),
			flag(i%2 == 0), flag(i%2 == 1),
			flag(i%3 == 0), flag(i%3 != 0),
			flag((i/3)%2 == 0), flag(i%2 == 1), flag(i%4 < 2),
			flag(i%2 == 0), flag(i%2 == 1),
		}
	}
	table, err := survey.NewTable(header, records)
	require.NoError(t, err)
	d := survey.FromTable(table)

	res, err := analysis.NewAnalyzer(quietLogger(), analysis.DefaultOptions()).Run(context.Background(), d)
	require.NoError(t, err)
	return Input{Data: d, Analysis: res}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRenderer(t *testing.T) (*Renderer, *config.Paths) {
	t.Helper()
	paths, err := config.GetPaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return NewRenderer(paths, quietLogger(), Options{Width: 400, Height: 300, Workers: 3}), paths
}

func TestRenderAll(t *testing.T) {
	r, paths := testRenderer(t)
	written, err := r.RenderAll(context.Background(), testInput(t))
	require.NoError(t, err)

	for _, name := range []string{
		"salary_histogram",
		"boxplot_seniority",
		"boxplot_work_mode",
		"boxplot_company_location",
		"boxplot_gender",
		"barplot_role_salaries",
		"barplot_programming_roi",
		"barplot_frontend_roi",
		"scatter_experience_salary",
		"barplot_hourly_avg_salary",
		"barplot_hourly_participants",
		"heatmap_roles_by_hour",
	} {
		path := paths.FigurePath(name + ".png")
		assert.Contains(t, written, path)
		assert.FileExists(t, path)
	}

	// no employment columns and no model results
	for _, name := range []string{"boxplot_employment_type", "barplot_model_comparison", "scatter_clusters"} {
		assert.NoFileExists(t, paths.FigurePath(name+".png"))
	}

	html := paths.FigurePath(SankeyName + ".html")
	assert.Contains(t, written, html)
	assert.NoFileExists(t, paths.FigurePath(SankeyName+".png"))
}

func TestRenderAll_Cancelled(t *testing.T) {
	r, _ := testRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.RenderAll(ctx, testInput(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRender_ModelCharts(t *testing.T) {
	r, _ := testRenderer(t)
	in := testInput(t)
	labels := make([]int, in.Data.Len())
	for i := range labels {
		labels[i] = i % 2
	}
	in.ML = &ml.Results{
		Models: []ml.ModelResult{
			{Name: ml.ModelLinear, Test: ml.Metrics{R2: 0.7}, CV: ml.CVResult{R2Mean: 0.65}},
			{Name: ml.ModelForest, Test: ml.Metrics{R2: 0.8}, CV: ml.CVResult{R2Mean: 0.72}},
		},
		Clusters: &ml.ClusterResult{
			Labels:  labels,
			Summary: []ml.ClusterSummary{{Cluster: 0, Size: 24}, {Cluster: 1, Size: 24}},
		},
	}

	for _, name := range []string{"barplot_model_comparison", "scatter_clusters"} {
		var buf bytes.Buffer
		require.NoError(t, r.WritePNG(&buf, name, in), name)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), name)
	}
}

func TestRender_Errors(t *testing.T) {
	r, _ := testRenderer(t)

	_, err := r.Render("pie_chart", testInput(t))
	assert.ErrorIs(t, err, ErrUnknownChart)

	_, err = r.Render("salary_histogram", Input{})
	assert.ErrorIs(t, err, ErrNoData)

	table, err := survey.NewTable([]string{survey.ColSalary}, [][]string{{"50"}, {"60"}, {"70"}})
	require.NoError(t, err)
	in := Input{Data: survey.FromTable(table)}
	for _, name := range []string{"boxplot_seniority", "barplot_programming_roi", "heatmap_roles_by_hour", "barplot_model_comparison"} {
		_, err := r.Render(name, in)
		assert.ErrorIs(t, err, ErrNoData, name)
	}
}

func TestNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, name := range Names() {
		assert.False(t, seen[name], name)
		seen[name] = true
		_, ok := Lookup(name)
		assert.True(t, ok)
	}
}

func TestBuildSankey(t *testing.T) {
	data := BuildSankey([]analysis.Flow{
		{Source: "Senior", Target: "Backend Developer", Value: 3},
		{Source: "Senior", Target: "Team Lead", Value: 1},
		{Source: "Team Lead", Target: "Team Lead", Value: 2},
		{Source: "Junior", Target: "Backend Developer", Value: 0},
	})
	assert.Equal(t, []string{"Senior", "Backend Developer", "Team Lead", "Team Lead"}, data.Labels)
	assert.Equal(t, []int{0, 0, 3}, data.Source)
	assert.Equal(t, []int{1, 2, 2}, data.Target)
	assert.Equal(t, []int{3, 1, 2}, data.Value)
}

func TestWriteSankeyHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "figures", "sankey.html")
	data := BuildSankey([]analysis.Flow{{Source: "Mid", Target: "Data <Scientist>", Value: 4}})
	require.NoError(t, WriteSankeyHTML(path, data))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	page := string(raw)
	assert.Contains(t, page, "Plotly.newPlot")
	assert.Contains(t, page, `"value":[4]`)
	assert.NotContains(t, page, "<Scientist>")
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
}
