// Package cleaning turns the raw survey export into the numeric dataset every
// later stage reads: renamed columns, normalised salaries, one-hot and ordinal
// encodings, expanded multi-select answers and clipped outliers.
package cleaning

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"salarycli/internal/config"
	"salarycli/internal/stats"
	"salarycli/internal/survey"
)

// Options holds the cleaning thresholds
type Options struct {
	SalaryCap        float64
	OpenEndedSalary  float64
	IQRMultiplier    float64
	ZThreshold       float64
	MissingThreshold float64
}

// OptionsFromConfig copies the cleaning section of the configuration
func OptionsFromConfig(cfg config.CleaningConfig) Options {
	return Options{
		SalaryCap:        cfg.SalaryCap,
		OpenEndedSalary:  cfg.OpenEndedSalary,
		IQRMultiplier:    cfg.IQRMultiplier,
		ZThreshold:       cfg.ZThreshold,
		MissingThreshold: cfg.MissingThreshold,
	}
}

// DefaultOptions returns the thresholds used by the published analysis
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Cleaning)
}

// Result is the cleaned table together with its quality report
type Result struct {
	Table  *survey.Table
	Report *QualityReport
}

// Cleaner runs the cleaning steps over a raw survey table
type Cleaner struct {
	logger *slog.Logger
	opts   Options
	now    func() time.Time
}

// NewCleaner creates a cleaner; a nil logger falls back to slog.Default
func NewCleaner(logger *slog.Logger, opts Options) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		logger: logger.With(slog.String("component", "cleaning")),
		opts:   opts,
		now:    time.Now,
	}
}

type step struct {
	name string
	fn   func(ctx context.Context, r *run) error
}

// run carries the state shared between steps of one Run call
type run struct {
	table      *survey.Table
	report     *QualityReport
	salaries   []float64
	expansions []expansion
}

// Run cleans a copy of raw. The input table is not modified.
func (c *Cleaner) Run(ctx context.Context, raw *survey.Table) (*Result, error) {
	if raw == nil || raw.Len() == 0 {
		return nil, survey.ErrEmptyTable
	}

	table, err := survey.NewTable(raw.Columns(), raw.Records())
	if err != nil {
		return nil, fmt.Errorf("failed to copy input table: %w", err)
	}
	r := &run{
		table: table,
		report: &QualityReport{
			GeneratedAt:   c.now().UTC(),
			InputRows:     raw.Len(),
			InputColumns:  len(raw.Columns()),
			MissingRatios: make(map[string]float64),
			ImputedCells:  make(map[string]int),
		},
	}

	steps := []step{
		{"missing_value_audit", c.auditMissing},
		{"imputation", c.impute},
		{"rename_columns", c.rename},
		{"normalize_timestamps", c.normalizeTimestamps},
		{"normalize_salary", c.normalizeSalary},
		{"infer_location", c.inferLocation},
		{"one_hot_encoding", c.encodeCategoricals},
		{"ordinal_encoding", c.encodeOrdinals},
		{"multi_select_expansion", c.expandMultiSelect},
		{"drop_duplicate_columns", c.dropDuplicateColumns},
		{"clean_column_names", c.cleanColumnNames},
		{"clip_outliers", c.clipOutliers},
		{"drop_raw_columns", c.dropRawColumns},
		{"quality_report", c.qualityReport},
	}

	start := time.Now()
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stepStart := time.Now()
		if err := s.fn(ctx, r); err != nil {
			c.logger.ErrorContext(ctx, "cleaning step failed",
				slog.String("step", s.name),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		c.logger.DebugContext(ctx, "cleaning step completed",
			slog.String("step", s.name),
			slog.Int("columns", len(r.table.Columns())),
			slog.Duration("duration", time.Since(stepStart)))
	}

	c.logger.InfoContext(ctx, "cleaning completed",
		slog.Int("rows", r.report.Rows),
		slog.Int("columns", r.report.Columns),
		slog.Float64("salary_mean", r.report.SalaryMean),
		slog.Bool("consistent", r.report.Consistent()),
		slog.Duration("duration", time.Since(start)))

	return &Result{Table: r.table, Report: r.report}, nil
}

func (c *Cleaner) auditMissing(ctx context.Context, r *run) error {
	rows := float64(r.table.Len())
	total := 0
	for name, n := range r.table.MissingCounts() {
		if n == 0 {
			continue
		}
		total += n
		ratio := float64(n) / rows
		r.report.MissingRatios[name] = ratio
		if ratio > c.opts.MissingThreshold {
			c.logger.WarnContext(ctx, "column exceeds missing value threshold",
				slog.String("column", name),
				slog.Float64("ratio", ratio),
				slog.Float64("threshold", c.opts.MissingThreshold))
		}
	}
	c.logger.InfoContext(ctx, "missing value audit",
		slog.Int("missing_cells", total),
		slog.Int("columns_with_missing", len(r.report.MissingRatios)))
	return nil
}

func (c *Cleaner) impute(ctx context.Context, r *run) error {
	headers := rawHeaders(r.table)
	for _, name := range categoricalColumns {
		raw, ok := headers[name]
		if !ok {
			continue
		}
		cells := r.table.Column(raw)
		value, ok := mode(cells)
		if !ok {
			continue
		}
		if n := fillMissing(cells, value); n > 0 {
			r.report.ImputedCells[name] = n
			c.logger.InfoContext(ctx, "filled missing values with mode",
				slog.String("column", name),
				slog.String("value", value),
				slog.Int("cells", n))
		}
	}
	for _, name := range multiSelectColumns {
		raw, ok := headers[name]
		if !ok {
			continue
		}
		if n := fillMissing(r.table.Column(raw), noneAnswer); n > 0 {
			r.report.ImputedCells[name] = n
		}
	}
	return nil
}

func (c *Cleaner) rename(_ context.Context, r *run) error {
	if err := r.table.Rename(HeaderMapping); err != nil {
		return err
	}
	var missing []string
	for _, name := range requiredColumns {
		if !r.table.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Cleaner) normalizeTimestamps(ctx context.Context, r *run) error {
	out, invalid := normalizeTimestamps(r.table.Column(survey.ColTimestamp))
	r.report.InvalidTimestamps = invalid
	if invalid > 0 {
		c.logger.WarnContext(ctx, "unparseable timestamps left empty", slog.Int("count", invalid))
	}
	return r.table.Set(survey.ColTimestamp, out)
}

func (c *Cleaner) normalizeSalary(ctx context.Context, r *run) error {
	res, err := normalizeSalaries(r.table.Column(colSalaryRange), c.opts.OpenEndedSalary)
	if err != nil {
		return err
	}
	r.salaries = res.values
	r.report.UnparsedSalaries = res.unparsed
	r.report.ImputedSalaries = res.imputed
	r.report.ImputationMedian = res.median
	if res.imputed > 0 {
		c.logger.InfoContext(ctx, "imputed salaries with median",
			slog.Int("count", res.imputed),
			slog.Float64("median", res.median))
	}
	return r.table.Set(survey.ColSalary, formatFloats(r.salaries))
}

func (c *Cleaner) inferLocation(_ context.Context, r *run) error {
	locations := r.table.Column(colCompanyLocation)
	modes := r.table.Column(colWorkMode)
	out := make([]string, len(locations))
	for i := range locations {
		out[i] = fmt.Sprint(InferLocation(locations[i], modes[i]))
	}
	return r.table.Set(survey.ColLocationInferred, out)
}

func (c *Cleaner) encodeCategoricals(ctx context.Context, r *run) error {
	for _, name := range oneHotColumns {
		added, err := oneHot(r.table, name, name)
		if err != nil {
			return err
		}
		c.logger.DebugContext(ctx, "one-hot encoded column",
			slog.String("column", name),
			slog.Int("categories", len(added)))
	}
	return nil
}

func (c *Cleaner) encodeOrdinals(_ context.Context, r *run) error {
	t := r.table
	if err := t.Set(survey.ColGender, mapCells(t.Column(survey.ColGender), genderMap, "")); err != nil {
		return err
	}
	if err := t.Set(survey.ColExperience, mapCells(t.Column(survey.ColExperience), experienceMap, "")); err != nil {
		return err
	}

	levels := t.Column(colLevel)
	if err := t.Set(survey.ColSeniority, mapCells(levels, seniorityMap, "0")); err != nil {
		return err
	}
	manager := make([]string, len(levels))
	for i, l := range levels {
		manager[i] = indicator(managementLevels[strings.TrimSpace(l)])
	}
	if err := t.Set(survey.ColManager, manager); err != nil {
		return err
	}
	_, err := oneHot(t, colLevel, strings.TrimSuffix(survey.PrefixManagement, "_"))
	return err
}

func (c *Cleaner) expandMultiSelect(ctx context.Context, r *run) error {
	for _, name := range multiSelectColumns {
		if !r.table.Has(name) {
			continue
		}
		ex, err := expandMultiSelect(r.table, name)
		if err != nil {
			return err
		}
		if len(ex.dropped) > 0 {
			c.logger.WarnContext(ctx, "multi-select labels collide after slugging",
				slog.String("column", name),
				slog.Any("labels", ex.dropped))
		}
		r.expansions = append(r.expansions, ex)
	}
	return nil
}

// dropDuplicateColumns compares names as they will read after cleaning, so
// the rename that follows cannot collide
func (c *Cleaner) dropDuplicateColumns(ctx context.Context, r *run) error {
	dropped := r.table.DropDuplicateColumns(CleanColumnName)
	r.report.DuplicateColumns = dropped
	if len(dropped) > 0 {
		c.logger.WarnContext(ctx, "dropped duplicate columns", slog.Any("columns", dropped))
	}
	return nil
}

func (c *Cleaner) cleanColumnNames(_ context.Context, r *run) error {
	return r.table.RenameAll(CleanColumnName)
}

func (c *Cleaner) clipOutliers(ctx context.Context, r *run) error {
	b := OutlierBounds(r.salaries, c.opts.IQRMultiplier, c.opts.ZThreshold, c.opts.SalaryCap)
	r.report.ClipBounds = b
	r.report.ClippedValues = Clip(r.salaries, b)
	c.logger.InfoContext(ctx, "clipped salary outliers",
		slog.Float64("lower", b.Lower),
		slog.Float64("upper", b.Upper),
		slog.Int("clipped", r.report.ClippedValues))
	return r.table.Set(survey.ColSalary, formatFloats(r.salaries))
}

func (c *Cleaner) dropRawColumns(_ context.Context, r *run) error {
	r.table.Drop(append([]string{colSalaryRange}, multiSelectColumns...)...)
	return nil
}

func (c *Cleaner) qualityReport(_ context.Context, r *run) error {
	rep := r.report
	rep.Rows = r.table.Len()
	rep.Columns = len(r.table.Columns())
	for _, n := range r.table.MissingCounts() {
		rep.MissingCells += n
	}
	rep.SalaryMean = stats.Mean(r.salaries)
	rep.SalaryMedian = stats.Median(r.salaries)
	rep.MaleRatio = share(r.table.Column(survey.ColGender), "0")
	rep.ManagerRatio = share(r.table.Column(survey.ColManager), "1")
	rep.Consistency = checkConsistency(r.table, r.expansions)
	return nil
}

func share(cells []string, value string) float64 {
	if len(cells) == 0 {
		return math.NaN()
	}
	n := 0
	for _, c := range cells {
		if c == value {
			n++
		}
	}
	return float64(n) / float64(len(cells))
}

func formatFloats(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = survey.FormatFloat(v)
	}
	return out
}
