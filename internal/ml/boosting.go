package ml

import (
	"context"
)

// GradientBoosting fits shallow trees to the residuals of squared loss
type GradientBoosting struct {
	Rounds         int     `json:"rounds"`
	MaxDepth       int     `json:"max_depth"`
	MinSamplesLeaf int     `json:"min_samples_leaf"`
	LearningRate   float64 `json:"learning_rate"`
	Init           float64 `json:"init"`
	Trees          []*Tree `json:"trees"`
}

// NewGradientBoosting creates a boosted ensemble from the rounds, depth and learning rate in p
func NewGradientBoosting(p Params) *GradientBoosting {
	lr := p.LearningRate
	if lr <= 0 {
		lr = 0.1
	}
	return &GradientBoosting{
		Rounds:         max(p.BoostRounds, 1),
		MaxDepth:       p.BoostDepth,
		MinSamplesLeaf: p.MinSamplesLeaf,
		LearningRate:   lr,
	}
}

// Name implements Regressor
func (g *GradientBoosting) Name() string { return ModelBoosting }

// Fit starts from the mean target and adds one tree per round
func (g *GradientBoosting) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if _, err := checkTraining(X, y); err != nil {
		return err
	}
	var sum float64
	for _, v := range y {
		sum += v
	}
	g.Init = sum / float64(len(y))

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = g.Init
	}
	residual := make([]float64, len(y))
	trees := make([]*Tree, 0, g.Rounds)
	for round := 0; round < g.Rounds; round++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		tree := NewTree(g.MaxDepth, g.MinSamplesLeaf)
		if err := tree.Fit(ctx, X, residual); err != nil {
			return err
		}
		for i, row := range X {
			pred[i] += g.LearningRate * tree.predictRow(row)
		}
		trees = append(trees, tree)
	}
	g.Trees = trees
	return nil
}

// Predict implements Regressor
func (g *GradientBoosting) Predict(X [][]float64) ([]float64, error) {
	if len(g.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkRows(X, g.Trees[0].Features); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		v := g.Init
		for _, t := range g.Trees {
			v += g.LearningRate * t.predictRow(row)
		}
		out[i] = v
	}
	return out, nil
}

// FeatureImportances sums the squared-error reductions of every round
func (g *GradientBoosting) FeatureImportances() []float64 {
	if len(g.Trees) == 0 {
		return nil
	}
	gains := make([]float64, g.Trees[0].Features)
	for _, t := range g.Trees {
		for j, v := range t.Gains {
			gains[j] += v
		}
	}
	return normalise(gains)
}
