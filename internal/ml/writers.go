package ml

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"salarycli/internal/config"
	"salarycli/internal/exporter"
)

// Table headers
var (
	ComparisonHeaders = []string{"Model", "Test_R2", "Test_MAE", "Test_RMSE", "CV_R2", "CV_R2_Std", "CV_MAE", "CV_RMSE"}
	ImportanceHeaders = []string{"Model", "Feature", "Importance"}
	ClusterHeaders    = []string{"Cluster", "Size", "Percentage", "Avg_Salary", "Avg_Experience", "React_Users", "React_Percentage"}
)

// WriteTables stores the comparison, importance and cluster tables and the
// ml_results.json document, returning the files written
func WriteTables(paths *config.Paths, logger *slog.Logger, res *Results) ([]string, error) {
	w := exporter.NewCSVWriter(paths, logger)
	tables := []struct {
		name    string
		headers []string
		records [][]string
	}{
		{config.ModelComparisonCSV, ComparisonHeaders, ComparisonRecords(res)},
		{config.FeatureImportanceCSV, ImportanceHeaders, ImportanceRecords(res.Importances)},
	}
	if res.Clusters != nil {
		tables = append(tables, struct {
			name    string
			headers []string
			records [][]string
		}{config.ClustersCSV, ClusterHeaders, ClusterRecords(res.Clusters)})
	}

	var written []string
	for _, tbl := range tables {
		if err := w.WriteSimpleCSV(tbl.name, tbl.headers, tbl.records); err != nil {
			return written, fmt.Errorf("write %s: %w", tbl.name, err)
		}
		written = append(written, paths.TablePath(tbl.name))
	}

	path := paths.TablePath(config.MLResultsFile)
	if err := WriteResults(path, res); err != nil {
		return written, err
	}
	return append(written, path), nil
}

// ComparisonRecords renders one row per model
func ComparisonRecords(res *Results) [][]string {
	out := make([][]string, 0, len(res.Models))
	for _, m := range res.Models {
		out = append(out, []string{
			m.Name,
			f4(m.Test.R2), f4(m.Test.MAE), f4(m.Test.RMSE),
			f4(m.CV.R2Mean), f4(m.CV.R2Std), f4(m.CV.MAEMean), f4(m.CV.RMSEMean),
		})
	}
	return out
}

// ImportanceRecords renders feature importances
func ImportanceRecords(rows []FeatureImportance) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Model, r.Feature, exporter.FormatFloat(r.Importance, 6)})
	}
	return out
}

// ClusterRecords renders the cluster summary
func ClusterRecords(c *ClusterResult) [][]string {
	out := make([][]string, 0, len(c.Summary))
	for _, s := range c.Summary {
		out = append(out, []string{
			exporter.FormatInt(s.Cluster), exporter.FormatInt(s.Size), f4(s.Percentage),
			f4(s.AvgSalary), f4(s.AvgExperience), exporter.FormatInt(s.ReactUsers), f4(s.ReactPct),
		})
	}
	return out
}

// WriteResults stores the training summary; fitted models are not included
func WriteResults(path string, res *Results) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ml results: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ReadResults loads a summary written by WriteResults
func ReadResults(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ml results: %w", err)
	}
	var res Results
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode ml results %s: %w", path, err)
	}
	return &res, nil
}

func f4(v float64) string { return exporter.FormatFloat(v, 4) }
