package ml

import (
	"context"
	"fmt"
)

// CrossValidate fits a fresh model per fold and scores it on the held-out fold.
// Folds are contiguous and unshuffled.
func CrossValidate(ctx context.Context, name string, p Params, m *Matrix, k int) (CVResult, error) {
	folds, err := KFold(m.Len(), k)
	if err != nil {
		return CVResult{}, err
	}
	scores := make([]Metrics, 0, k)
	for f, test := range folds {
		if err := ctx.Err(); err != nil {
			return CVResult{}, err
		}
		var train []int
		for g, idx := range folds {
			if g != f {
				train = append(train, idx...)
			}
		}
		model, err := New(name, p)
		if err != nil {
			return CVResult{}, err
		}
		trainSet, testSet := m.Subset(train), m.Subset(test)
		if err := model.Fit(ctx, trainSet.X, trainSet.Y); err != nil {
			return CVResult{}, fmt.Errorf("fold %d: %w", f+1, err)
		}
		pred, err := model.Predict(testSet.X)
		if err != nil {
			return CVResult{}, fmt.Errorf("fold %d: %w", f+1, err)
		}
		scores = append(scores, Evaluate(testSet.Y, pred))
	}
	return summarise(scores), nil
}
