package ml

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"salarycli/internal/config"
	"salarycli/internal/survey"
)

const topImportances = 10

// TrainerOptions holds split, validation and clustering settings
type TrainerOptions struct {
	TestRatio  float64
	Folds      int
	Clusters   int
	Restarts   int
	TargetR2   float64
	TargetCVR2 float64
	Models     []string
}

// TrainerOptionsFromConfig copies the ml section of the configuration
func TrainerOptionsFromConfig(cfg config.MLConfig) TrainerOptions {
	return TrainerOptions{
		TestRatio:  cfg.TestRatio,
		Folds:      cfg.Folds,
		Clusters:   cfg.Clusters,
		Restarts:   cfg.ClusterRestarts,
		TargetR2:   cfg.TargetR2,
		TargetCVR2: cfg.TargetCVR2,
		Models:     ModelNames(),
	}
}

// ModelResult holds the test and cross-validation scores of one model
type ModelResult struct {
	Name string   `json:"name"`
	Test Metrics  `json:"test"`
	CV   CVResult `json:"cv"`
}

// Targets records whether the best model reached the quality goals
type Targets struct {
	TestR2 bool `json:"test_r2"`
	CVR2   bool `json:"cv_r2"`
}

// Results is the outcome of a training run
type Results struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Features    []string            `json:"features"`
	TrainSize   int                 `json:"train_size"`
	TestSize    int                 `json:"test_size"`
	Models      []ModelResult       `json:"models"`
	Importances []FeatureImportance `json:"feature_importances"`
	Clusters    *ClusterResult      `json:"clusters,omitempty"`
	Best        string              `json:"best_model"`
	Targets     Targets             `json:"targets"`

	fitted map[string]Regressor
}

// Model returns a fitted model of this run
func (r *Results) Model(name string) (Regressor, bool) {
	m, ok := r.fitted[name]
	return m, ok
}

// Find returns the scores of a model
func (r *Results) Find(name string) (ModelResult, bool) {
	for _, m := range r.Models {
		if m.Name == name {
			return m, true
		}
	}
	return ModelResult{}, false
}

// Trainer fits, validates and compares the salary models
type Trainer struct {
	logger *slog.Logger
	params Params
	opts   TrainerOptions
}

// NewTrainer creates a trainer; a nil logger falls back to slog.Default
func NewTrainer(logger *slog.Logger, params Params, opts TrainerOptions) *Trainer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Models) == 0 {
		opts.Models = ModelNames()
	}
	return &Trainer{
		logger: logger.With(slog.String("component", "ml")),
		params: params,
		opts:   opts,
	}
}

// Run splits the data, trains every model, cross-validates it on the training
// set and clusters the respondents
func (t *Trainer) Run(ctx context.Context, d *survey.Dataset) (*Results, error) {
	m, err := FromDataset(d)
	if err != nil {
		return nil, err
	}
	train, test, err := TrainTestSplit(m, t.opts.TestRatio, t.params.Seed)
	if err != nil {
		return nil, err
	}

	t.logger.InfoContext(ctx, "training models",
		slog.Int("features", len(m.Features)),
		slog.Int("train_size", train.Len()),
		slog.Int("test_size", test.Len()))

	res := &Results{
		GeneratedAt: time.Now().UTC(),
		Features:    m.Features,
		TrainSize:   train.Len(),
		TestSize:    test.Len(),
		fitted:      make(map[string]Regressor),
	}

	for _, name := range t.opts.Models {
		start := time.Now()
		model, err := New(name, t.params)
		if err != nil {
			return nil, err
		}
		if err := model.Fit(ctx, train.X, train.Y); err != nil {
			return nil, fmt.Errorf("train %s: %w", name, err)
		}
		pred, err := model.Predict(test.X)
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w", name, err)
		}
		cv, err := CrossValidate(ctx, name, t.params, train, t.opts.Folds)
		if err != nil {
			return nil, fmt.Errorf("cross-validate %s: %w", name, err)
		}

		mr := ModelResult{Name: name, Test: Evaluate(test.Y, pred), CV: cv}
		res.Models = append(res.Models, mr)
		res.fitted[name] = model
		res.Importances = append(res.Importances, TopImportances(model, m.Features, topImportances)...)

		t.logger.InfoContext(ctx, "model trained",
			slog.String("model", name),
			slog.Float64("test_r2", mr.Test.R2),
			slog.Float64("test_mae", mr.Test.MAE),
			slog.Float64("cv_r2", cv.R2Mean),
			slog.Duration("duration", time.Since(start)))
	}

	best := slices.MaxFunc(res.Models, func(a, b ModelResult) int { return cmp.Compare(a.Test.R2, b.Test.R2) })
	res.Best = best.Name
	res.Targets = Targets{
		TestR2: best.Test.R2 > t.opts.TargetR2,
		CVR2:   best.CV.R2Mean > t.opts.TargetCVR2,
	}

	clusters, err := ClusterDevelopers(ctx, d, t.opts.Clusters, t.opts.Restarts, t.params.Seed)
	if err != nil {
		t.logger.WarnContext(ctx, "clustering skipped", slog.String("error", err.Error()))
	} else {
		res.Clusters = clusters
	}

	t.logger.InfoContext(ctx, "training finished",
		slog.String("best_model", res.Best),
		slog.Bool("test_r2_target", res.Targets.TestR2),
		slog.Bool("cv_r2_target", res.Targets.CVR2))
	return res, nil
}

// SaveModels persists every fitted model under paths.ModelsDir
func (t *Trainer) SaveModels(ctx context.Context, paths *config.Paths, res *Results) ([]string, error) {
	var written []string
	for _, mr := range res.Models {
		model, ok := res.fitted[mr.Name]
		if !ok {
			continue
		}
		path := paths.ModelPath(mr.Name)
		if err := Save(path, model, res.Features, mr.Test); err != nil {
			return written, err
		}
		written = append(written, path)
		t.logger.InfoContext(ctx, "model saved", slog.String("model", mr.Name), slog.String("path", path))
	}
	return written, nil
}
