package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"salarycli/internal/config"
	"salarycli/internal/exporter"
	"salarycli/internal/stats"
)

// Table headers
var (
	SummaryHeaders  = []string{"Test", "Test_Type", "Statistic", "P_Value", "Effect_Size", "Effect_Size_Type", "Significant", "Interpretation"}
	AdvancedHeaders = []string{"Analysis_Type", "Test_Name", "Statistic", "P_Value", "Significant", "Interpretation"}
	ROIHeaders      = []string{"Technology", "Category", "Column", "Users", "Non_Users", "User_Mean", "Non_User_Mean", "ROI", "ROI_Pct", "T_Statistic", "P_Value", "Significant"}
	RoleHeaders     = []string{"Role", "Column", "Count", "Mean_Salary"}
	CareerHeaders   = []string{"Level", "Label", "Count", "Mean", "Median", "Std", "Min", "Q25", "Q75", "Max"}
)

const decimals = 4

// Writer persists analysis results as CSV tables, a workbook and results.json
type Writer struct {
	csv    *exporter.CSVWriter
	paths  *config.Paths
	logger *slog.Logger
}

// NewWriter creates a result writer rooted at the configured tables directory
func NewWriter(paths *config.Paths, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		csv:    exporter.NewCSVWriter(paths, logger),
		paths:  paths,
		logger: logger.With(slog.String("component", "analysis_writer")),
	}
}

// Write stores every table and returns the files written
func (w *Writer) Write(ctx context.Context, res *Results) ([]string, error) {
	sheets := Sheets(res)
	files := []string{
		config.StatisticalSummaryCSV,
		config.AdvancedAnalysisCSV,
		config.TechnologyROICSV,
		config.RoleSalariesCSV,
		config.CareerProgressionCSV,
	}

	var written []string
	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := w.csv.WriteSimpleCSV(name, sheets[i].Headers, sheets[i].Records); err != nil {
			return written, fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, w.paths.TablePath(name))
	}

	if err := w.csv.WriteWorkbook(w.paths.ResultsWorkbook, sheets); err != nil {
		return written, fmt.Errorf("write workbook: %w", err)
	}
	written = append(written, w.paths.ResultsWorkbook)

	if err := WriteJSON(w.paths.ResultsJSON, res); err != nil {
		return written, err
	}
	written = append(written, w.paths.ResultsJSON)

	w.logger.InfoContext(ctx, "analysis tables written",
		slog.Int("files", len(written)),
		slog.String("tables_dir", w.paths.TablesDir))
	return written, nil
}

// Sheets lays out the result tables in the order they are written
func Sheets(res *Results) []exporter.Sheet {
	return []exporter.Sheet{
		{Name: "Statistical Summary", Headers: SummaryHeaders, Records: SummaryRecords(res)},
		{Name: "Advanced Analysis", Headers: AdvancedHeaders, Records: AdvancedRecords(res)},
		{Name: "Technology ROI", Headers: ROIHeaders, Records: ROIRecords(res.ROI)},
		{Name: "Role Salaries", Headers: RoleHeaders, Records: RoleRecords(res.Roles)},
		{Name: "Career Progression", Headers: CareerHeaders, Records: CareerRecords(res.Career)},
	}
}

// SummaryRecords flattens t-tests, ANOVAs and correlations into one table
func SummaryRecords(res *Results) [][]string {
	var rows [][]string
	for _, t := range res.Tests {
		rows = append(rows, []string{
			t.Name, "Welch t-test",
			f(t.T), f(t.P), f(t.CohensD), "Cohen's d",
			exporter.FormatBool(t.Significant), t.Interpretation,
		})
	}
	for _, c := range res.Comparisons {
		rows = append(rows, []string{
			c.Name, "One-way ANOVA",
			f(c.ANOVA.F), f(c.ANOVA.P), f(c.ANOVA.EtaSquared), "Eta-squared",
			exporter.FormatBool(c.Significant), c.Interpretation,
		})
	}
	for _, c := range res.Correlations {
		rows = append(rows, []string{
			c.Name, "Pearson Correlation",
			f(c.Pearson.R), f(c.Pearson.P), f(c.Pearson.R), "Correlation Coefficient",
			exporter.FormatBool(c.Significant), c.Interpretation,
		})
	}
	return rows
}

// AdvancedRecords lists the interaction, time and career ANOVAs
func AdvancedRecords(res *Results) [][]string {
	var rows [][]string
	add := func(kind, name string, a *stats.ANOVAResult, interpretation string) {
		if a == nil {
			return
		}
		rows = append(rows, []string{
			kind, name, f(a.F), f(a.P),
			exporter.FormatBool(a.P < res.Alpha), interpretation,
		})
	}
	in := res.Interaction
	add("Interaction Analysis", "Work Mode Effect", in.WorkModeEffect, "main effect of work mode")
	add("Interaction Analysis", "Location Effect", in.LocationEffect, "main effect of company location")
	add("Interaction Analysis", "Cell Effect", in.CellEffect, "work mode x location cells")
	add("Time-based Analysis", "Hour Bucket ANOVA", res.Participation.BucketANOVA, "salary by submission period")
	for _, a := range res.Participation.Associations {
		rows = append(rows, []string{
			"Time-based Analysis", a.Name, f(a.Result.Chi2), f(a.Result.P),
			exporter.FormatBool(a.Significant), "chi-square independence",
		})
	}
	add("Career Progression", "Career Level ANOVA", res.Career.ANOVA, "salary by seniority level")
	return rows
}

// ROIRecords renders technology ROI rows
func ROIRecords(rows []TechnologyROI) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Technology, r.Category, r.Column,
			exporter.FormatInt(r.Users), exporter.FormatInt(r.NonUsers),
			f(r.UserMean), f(r.NonUserMean), f(r.ROI), f(r.ROIPct),
			f(r.T), f(r.P), exporter.FormatBool(r.Significant),
		})
	}
	return out
}

// RoleRecords renders role salary rows
func RoleRecords(rows []RoleSalary) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Role, r.Column, exporter.FormatInt(r.Count), f(r.Mean)})
	}
	return out
}

// CareerRecords renders one row per seniority level
func CareerRecords(cp CareerProgression) [][]string {
	out := make([][]string, 0, len(cp.Levels))
	for _, l := range cp.Levels {
		s := l.Stats
		out = append(out, []string{
			exporter.FormatInt(l.Level), l.Label, exporter.FormatInt(s.Count),
			f(s.Mean), f(s.Median), f(s.Std), f(s.Min), f(s.Q25), f(s.Q75), f(s.Max),
		})
	}
	return out
}

// WriteJSON stores the results document read by the report and dashboard
func WriteJSON(path string, res *Results) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// ReadJSON loads a results document written by WriteJSON
func ReadJSON(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	var res Results
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode results %s: %w", path, err)
	}
	return &res, nil
}

func f(v float64) string { return exporter.FormatFloat(v, decimals) }
