package cleaning

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"salarycli/internal/survey"
)

// QualityReport summarises a cleaning run
type QualityReport struct {
	GeneratedAt       time.Time          `json:"generated_at"`
	InputRows         int                `json:"input_rows"`
	InputColumns      int                `json:"input_columns"`
	Rows              int                `json:"rows"`
	Columns           int                `json:"columns"`
	MissingRatios     map[string]float64 `json:"missing_ratios"`
	ImputedCells      map[string]int     `json:"imputed_cells"`
	MissingCells      int                `json:"missing_cells"`
	InvalidTimestamps int                `json:"invalid_timestamps"`
	UnparsedSalaries  int                `json:"unparsed_salaries"`
	ImputedSalaries   int                `json:"imputed_salaries"`
	ImputationMedian  float64            `json:"imputation_median"`
	SalaryMean        float64            `json:"salary_mean"`
	SalaryMedian      float64            `json:"salary_median"`
	MaleRatio         float64            `json:"male_ratio"`
	ManagerRatio      float64            `json:"manager_ratio"`
	ClipBounds        Bounds             `json:"clip_bounds"`
	ClippedValues     int                `json:"clipped_values"`
	DuplicateColumns  []string           `json:"duplicate_columns,omitempty"`
	Consistency       []ConsistencyCheck `json:"consistency"`
}

// ConsistencyCheck compares the one-hot expansion of a multi-select question
// with the distinct answers found in it
type ConsistencyCheck struct {
	Source     string   `json:"source"`
	Prefix     string   `json:"prefix"`
	TokenCount int      `json:"token_count"`
	OneHotSum  int      `json:"one_hot_sum"`
	Columns    int      `json:"columns"`
	Collisions []string `json:"collisions,omitempty"`
	Passed     bool     `json:"passed"`
}

// Consistent reports whether every multi-select check passed
func (r *QualityReport) Consistent() bool {
	for _, c := range r.Consistency {
		if !c.Passed {
			return false
		}
	}
	return true
}

// WriteJSON stores the report at path, creating parent directories
func (r *QualityReport) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cleaning report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cleaning report: %w", err)
	}
	return nil
}

// checkConsistency sums the cleaned one-hot columns of each expanded source
func checkConsistency(t *survey.Table, expansions []expansion) []ConsistencyCheck {
	checks := make([]ConsistencyCheck, 0, len(expansions))
	for _, ex := range expansions {
		prefix := CleanColumnName(ex.prefix+"__") + "_"
		check := ConsistencyCheck{
			Source:     ex.source,
			Prefix:     prefix,
			TokenCount: ex.tokens,
			Collisions: ex.dropped,
		}
		for _, name := range t.Columns() {
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			check.Columns++
			for _, v := range t.Column(name) {
				if v == "1" {
					check.OneHotSum++
				}
			}
		}
		check.Passed = check.OneHotSum == check.TokenCount
		checks = append(checks, check)
	}
	return checks
}
