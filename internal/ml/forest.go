package ml

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RandomForest averages bootstrapped regression trees
type RandomForest struct {
	NTrees         int     `json:"n_trees"`
	MaxDepth       int     `json:"max_depth"`
	MinSamplesLeaf int     `json:"min_samples_leaf"`
	Seed           int64   `json:"seed"`
	Trees          []*Tree `json:"trees"`

	workers int
}

// NewRandomForest creates a forest from the tree count, depth and seed in p
func NewRandomForest(p Params) *RandomForest {
	return &RandomForest{
		NTrees:         max(p.Trees, 1),
		MaxDepth:       p.ForestDepth,
		MinSamplesLeaf: p.MinSamplesLeaf,
		Seed:           p.Seed,
		workers:        p.workers(),
	}
}

// Name implements Regressor
func (f *RandomForest) Name() string { return ModelForest }

// Fit trains the trees concurrently. Tree i draws its bootstrap sample from
// its own generator seeded with Seed+i, so results do not depend on scheduling.
func (f *RandomForest) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if _, err := checkTraining(X, y); err != nil {
		return err
	}
	trees := make([]*Tree, f.NTrees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(f.workers, 1))
	for i := range trees {
		g.Go(func() error {
			rng := newRand(f.Seed + int64(i))
			idx := make([]int, len(X))
			for k := range idx {
				idx[k] = rng.IntN(len(X))
			}
			tree := NewTree(f.MaxDepth, f.MinSamplesLeaf)
			if err := tree.fitRows(ctx, X, y, idx); err != nil {
				return err
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	f.Trees = trees
	return nil
}

// Predict averages the tree predictions
func (f *RandomForest) Predict(X [][]float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for _, t := range f.Trees {
		pred, err := t.Predict(X)
		if err != nil {
			return nil, err
		}
		for i, v := range pred {
			out[i] += v
		}
	}
	for i := range out {
		out[i] /= float64(len(f.Trees))
	}
	return out, nil
}

// FeatureImportances averages the normalised importances of the trees
func (f *RandomForest) FeatureImportances() []float64 {
	if len(f.Trees) == 0 {
		return nil
	}
	out := make([]float64, f.Trees[0].Features)
	for _, t := range f.Trees {
		for j, v := range t.FeatureImportances() {
			out[j] += v
		}
	}
	return normalise(out)
}
