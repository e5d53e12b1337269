// Package ml trains and evaluates the salary regression models, clusters
// respondents and persists fitted models for the predict command and the
// dashboard.
package ml

import (
	"context"
	"fmt"
	"runtime"

	"salarycli/internal/config"
)

// Model names as they appear in tables and model files
const (
	ModelLinear   = "linear_regression"
	ModelForest   = "random_forest"
	ModelBoosting = "gradient_boosting"
)

// ModelNames lists the trained models in training order
func ModelNames() []string {
	return []string{ModelLinear, ModelForest, ModelBoosting}
}

// Regressor is a trainable salary model
type Regressor interface {
	Name() string
	Fit(ctx context.Context, X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// Importancer is implemented by models that expose normalised feature importances
type Importancer interface {
	FeatureImportances() []float64
}

// Params holds the hyperparameters of every model
type Params struct {
	Seed           int64
	Trees          int
	ForestDepth    int
	BoostRounds    int
	BoostDepth     int
	LearningRate   float64
	MinSamplesLeaf int
	Workers        int
	Ridge          float64
}

// ParamsFromConfig copies the ml section of the configuration
func ParamsFromConfig(cfg config.MLConfig) Params {
	return Params{
		Seed:           cfg.Seed,
		Trees:          cfg.Trees,
		ForestDepth:    cfg.ForestDepth,
		BoostRounds:    cfg.BoostRounds,
		BoostDepth:     cfg.BoostDepth,
		LearningRate:   cfg.LearningRate,
		MinSamplesLeaf: cfg.MinSamplesLeaf,
		Workers:        cfg.Workers,
		Ridge:          defaultRidge,
	}
}

func (p Params) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.NumCPU()
}

// New creates an untrained model by name
func New(name string, p Params) (Regressor, error) {
	switch name {
	case ModelLinear:
		return NewLinearRegression(p.Ridge), nil
	case ModelForest:
		return NewRandomForest(p), nil
	case ModelBoosting:
		return NewGradientBoosting(p), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
}

func checkTraining(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, ErrTooFewSamples
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d rows, %d targets", ErrDimensionMismatch, len(X), len(y))
	}
	p := len(X[0])
	if p == 0 {
		return 0, fmt.Errorf("%w: no features", ErrDimensionMismatch)
	}
	for i, row := range X {
		if len(row) != p {
			return 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrDimensionMismatch, i, len(row), p)
		}
	}
	return p, nil
}

func checkRows(X [][]float64, p int) error {
	for i, row := range X {
		if len(row) != p {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrDimensionMismatch, i, len(row), p)
		}
	}
	return nil
}
