package operations

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"salarycli/internal/analysis"
	"salarycli/internal/charts"
	"salarycli/internal/cleaning"
	"salarycli/internal/config"
	"salarycli/internal/exporter"
	"salarycli/internal/ml"
	"salarycli/internal/report"
	"salarycli/internal/storage"
	"salarycli/internal/survey"
)

// Env is what the stages need from the command that runs them
type Env struct {
	Config *config.Config
	Paths  *config.Paths
	Logger *slog.Logger

	// Source replaces the configured raw source when set
	Source survey.Source
	// NewStorage replaces the MinIO client used by the publish stage when set
	NewStorage func(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error)
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// RawSource picks the Google Sheet when one is configured, the raw file otherwise
func (e *Env) RawSource(ctx context.Context) (survey.Source, error) {
	if e.Source != nil {
		return e.Source, nil
	}
	if sh := e.Config.Sheets; sh.Enabled() {
		return survey.NewSheetsSource(ctx, sh.SpreadsheetID, sh.Range, sh.CredentialsFile)
	}
	return survey.FileSource{Path: e.Paths.RawData, Sheet: e.Config.Cleaning.Sheet}, nil
}

// dataset returns the cleaned dataset of this run, loading it when an earlier
// stage did not
func (e *Env) dataset(state *State) (*survey.Dataset, error) {
	if state.Dataset != nil {
		return state.Dataset, nil
	}
	d, err := survey.LoadDataset(e.Paths.CleanedData)
	if err != nil {
		return nil, fmt.Errorf("load cleaned data: %w", err)
	}
	state.Dataset = d
	return d, nil
}

// DefaultRegistry registers every stage in pipeline order
func DefaultRegistry(env *Env) (*Registry, error) {
	r := NewRegistry()
	for _, s := range []Stage{
		&CleaningStage{env: env},
		&AnalysisStage{env: env},
		&MLStage{env: env},
		&ChartsStage{env: env},
		&ReportStage{env: env},
		&PublishStage{env: env},
	} {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// CleaningStage reads the raw export and writes the cleaned CSV and its quality report
type CleaningStage struct{ env *Env }

func (s *CleaningStage) ID() string   { return StageCleaning }
func (s *CleaningStage) Name() string { return "Data Cleaning" }

func (s *CleaningStage) Execute(ctx context.Context, state *State) error {
	env := s.env
	src, err := env.RawSource(ctx)
	if err != nil {
		return err
	}
	raw, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", src.Describe(), err)
	}

	res, err := cleaning.NewCleaner(env.logger(), cleaning.OptionsFromConfig(env.Config.Cleaning)).Run(ctx, raw)
	if err != nil {
		return err
	}
	if err := exporter.NewCSVWriter(env.Paths, env.logger()).WriteTable(env.Paths.CleanedData, res.Table); err != nil {
		return fmt.Errorf("write cleaned data: %w", err)
	}
	if err := res.Report.WriteJSON(env.Paths.CleaningReport); err != nil {
		return err
	}

	state.Dataset = survey.FromTable(res.Table)
	state.SetRows(s.ID(), res.Table.Len())
	state.AddOutputs(s.ID(), env.Paths.CleanedData, env.Paths.CleaningReport)
	return nil
}

// AnalysisStage computes the statistics and writes the result tables
type AnalysisStage struct{ env *Env }

func (s *AnalysisStage) ID() string   { return StageAnalysis }
func (s *AnalysisStage) Name() string { return "Statistical Analysis" }

func (s *AnalysisStage) Execute(ctx context.Context, state *State) error {
	d, err := s.env.dataset(state)
	if err != nil {
		return err
	}
	res, err := analysis.NewAnalyzer(s.env.logger(), analysis.OptionsFromConfig(s.env.Config.Analysis)).Run(ctx, d)
	if err != nil {
		return err
	}
	written, err := analysis.NewWriter(s.env.Paths, s.env.logger()).Write(ctx, res)
	if err != nil {
		return err
	}
	state.Analysis = res
	state.SetRows(s.ID(), d.Len())
	state.AddOutputs(s.ID(), written...)
	return nil
}

// MLStage trains the salary models and clusters the respondents
type MLStage struct{ env *Env }

func (s *MLStage) ID() string   { return StageML }
func (s *MLStage) Name() string { return "Machine Learning" }

func (s *MLStage) Execute(ctx context.Context, state *State) error {
	d, err := s.env.dataset(state)
	if err != nil {
		return err
	}
	cfg := s.env.Config.ML
	trainer := ml.NewTrainer(s.env.logger(), ml.ParamsFromConfig(cfg), ml.TrainerOptionsFromConfig(cfg))
	res, err := trainer.Run(ctx, d)
	if err != nil {
		return err
	}
	models, err := trainer.SaveModels(ctx, s.env.Paths, res)
	if err != nil {
		return err
	}
	tables, err := ml.WriteTables(s.env.Paths, s.env.logger(), res)
	if err != nil {
		return err
	}
	state.ML = res
	state.SetRows(s.ID(), d.Len())
	state.AddOutputs(s.ID(), models...)
	state.AddOutputs(s.ID(), tables...)
	return nil
}

// ChartsStage renders every figure it has data for
type ChartsStage struct{ env *Env }

func (s *ChartsStage) ID() string   { return StageCharts }
func (s *ChartsStage) Name() string { return "Charts" }

func (s *ChartsStage) Execute(ctx context.Context, state *State) error {
	d, err := s.env.dataset(state)
	if err != nil {
		return err
	}
	in := charts.Input{Data: d, Analysis: state.Analysis, ML: state.ML}
	if in.Analysis == nil {
		if in.Analysis, err = optional(analysis.ReadJSON(s.env.Paths.ResultsJSON)); err != nil {
			return err
		}
	}
	if in.ML == nil {
		if in.ML, err = optional(ml.ReadResults(s.env.Paths.TablePath(config.MLResultsFile))); err != nil {
			return err
		}
	}

	renderer := charts.NewRenderer(s.env.Paths, s.env.logger(), charts.OptionsFromConfig(s.env.Config.Charts))
	written, err := renderer.RenderAll(ctx, in)
	if err != nil {
		return err
	}
	state.AddOutputs(s.ID(), written...)
	return nil
}

// ReportStage writes the LaTeX report from the stored results
type ReportStage struct{ env *Env }

func (s *ReportStage) ID() string   { return StageReport }
func (s *ReportStage) Name() string { return "LaTeX Report" }

func (s *ReportStage) Execute(ctx context.Context, state *State) error {
	out, err := report.NewGenerator(s.env.Paths, s.env.logger(), s.env.Config.Analysis.ROIThreshold).Generate(ctx)
	if err != nil {
		return err
	}
	state.AddOutputs(s.ID(), out)
	return nil
}

// PublishStage uploads the artifacts of the run to object storage
type PublishStage struct{ env *Env }

func (s *PublishStage) ID() string   { return StagePublish }
func (s *PublishStage) Name() string { return "Publish Artifacts" }

func (s *PublishStage) Execute(ctx context.Context, state *State) error {
	cfg := s.env.Config.Storage
	if !cfg.Enabled() {
		return Skip("no storage endpoint configured")
	}
	newStorage := s.env.NewStorage
	if newStorage == nil {
		newStorage = storage.NewMinIO
	}
	store, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	manifest, err := storage.NewPublisher(store, cfg.Prefix, s.env.logger()).Publish(ctx, s.env.Paths, state.RunID)
	if err != nil {
		return err
	}
	for _, obj := range manifest.Objects {
		state.AddOutputs(s.ID(), obj.Key)
	}
	return nil
}

// optional turns a missing file into a nil result
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return v, err
}
