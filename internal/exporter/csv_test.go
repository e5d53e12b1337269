package exporter

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"salarycli/internal/config"
	"salarycli/internal/survey"
)

func setupTestEnv(t *testing.T) (*CSVWriter, *config.Paths) {
	t.Helper()
	base := t.TempDir()
	paths, err := config.GetPaths(config.PathsConfig{BaseDir: base})
	require.NoError(t, err)
	return NewCSVWriter(paths, nil), paths
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, utf8BOM), "file should start with a BOM")
	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_ResolvePath(t *testing.T) {
	w, paths := setupTestEnv(t)
	abs := filepath.Join(t.TempDir(), "x.csv")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"table by default", "technology_roi.csv", filepath.Join(paths.TablesDir, "technology_roi.csv")},
		{"data prefix", "data/cleaned_data.csv", filepath.Join(paths.DataDir, "cleaned_data.csv")},
		{"absolute kept", abs, abs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.resolvePath(tt.in))
		})
	}
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	w, paths := setupTestEnv(t)

	require.NoError(t, w.WriteSimpleCSV("roles.csv", []string{"Role", "Mean"}, [][]string{{"Backend, API", "90.50"}}))
	require.NoError(t, w.WriteCSV("roles.csv", WriteOptions{Records: [][]string{{"QA", "60.00"}}, Append: true}))

	records := readCSV(t, paths.TablePath("roles.csv"))
	assert.Equal(t, [][]string{{"Role", "Mean"}, {"Backend, API", "90.50"}, {"QA", "60.00"}}, records)
}

func TestCSVWriter_WriteTable(t *testing.T) {
	w, paths := setupTestEnv(t)
	table, err := survey.NewTable([]string{"gender", "salary_numeric"}, [][]string{{"0", "65.5"}, {"1", ""}})
	require.NoError(t, err)

	require.NoError(t, w.WriteTable("data/cleaned_data.csv", table))

	records := readCSV(t, filepath.Join(paths.DataDir, "cleaned_data.csv"))
	assert.Equal(t, [][]string{{"gender", "salary_numeric"}, {"0", "65.5"}, {"1", ""}}, records)

	d, err := survey.LoadDataset(filepath.Join(paths.DataDir, "cleaned_data.csv"))
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
}

func TestCSVWriter_WriteWorkbook(t *testing.T) {
	w, paths := setupTestEnv(t)

	sheets := []Sheet{
		{Name: "Technology ROI", Headers: []string{"Technology", "ROI"}, Records: [][]string{{"Go", "12.5"}}},
		{Name: "A sheet name that is far too long for excel", Headers: []string{"x"}, Records: [][]string{{"n/a"}}},
	}
	require.NoError(t, w.WriteWorkbook("analysis_results.xlsx", sheets))

	f, err := excelize.OpenFile(paths.TablePath("analysis_results.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Technology ROI", "A sheet name that is far too lo"}, f.GetSheetList())
	rows, err := f.GetRows("Technology ROI")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Technology", "ROI"}, {"Go", "12.5"}}, rows)

	assert.Error(t, w.WriteWorkbook("empty.xlsx", nil))
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "3.14", FormatFloat(3.14159, 2))
	assert.Equal(t, "", FormatFloat(math.NaN(), 2))
	assert.Equal(t, "42", FormatInt(42))
	assert.Equal(t, "True", FormatBool(true))
	assert.Equal(t, "False", FormatBool(false))
}
