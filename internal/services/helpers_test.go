package services

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"salarycli/internal/analysis"
	"salarycli/internal/charts"
	"salarycli/internal/config"
	"salarycli/internal/survey"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// testDataset builds 120 respondents whose salary grows with seniority and
// carries a remote and a European premium. Every fifth respondent is female.
func testDataset(t *testing.T) *survey.Dataset {
	t.Helper()
	return testDatasetWith(t, nil)
}

// testDatasetWith builds the testDataset respondents and lets edit change a
// record before the dataset is built
func testDatasetWith(t *testing.T, edit func(i int, record []string)) *survey.Dataset {
	t.Helper()
	header := []string{
		survey.ColTimestamp, survey.ColSalary, survey.ColGender, survey.ColExperience, survey.ColSeniority,
		survey.ColRemote, survey.ColOffice, survey.ColHybrid, survey.ColEurope, survey.ColTurkey,
		survey.ColReact, survey.ColPython,
		"role_Backend_Developer", "role_Frontend_Developer",
	}
	records := make([][]string, 120)
	for i := range records {
		level := i%4 + 1
		remote, europe := i%3 == 0, i%4 == 0
		salary := 40 + 12*level + 3*(i%7)
		if remote {
			salary += 20
		}
		if europe {
			salary += 30
		}
		records[i] = []string{
			fmt.Sprintf("2025-08-%02d %02d:10:00", 20+i%2, 8+i%12),
			strconv.Itoa(salary),
			flag(i%5 == 0),
			strconv.Itoa(level + i%3),
			strconv.Itoa(level),
			flag(remote), flag(i%3 == 1), flag(i%3 == 2),
			flag(europe), flag(!europe),
			flag((i/3)%2 == 0), flag(i%2 == 1),
			flag(i%2 == 0), flag(i%2 == 1),
		}
		if edit != nil {
			edit(i, records[i])
		}
	}
	table, err := survey.NewTable(header, records)
	require.NoError(t, err)
	return survey.FromTable(table)
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	paths, err := config.GetPaths(config.PathsConfig{BaseDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

func newTestDashboard(t *testing.T) *DashboardService {
	t.Helper()
	logger := quietLogger()
	renderer := charts.NewRenderer(testPaths(t), logger, charts.Options{Width: 300, Height: 200, Workers: 1})
	return NewDashboardService(testDataset(t), analysis.NewAnalyzer(logger, analysis.DefaultOptions()), renderer, nil, logger)
}
