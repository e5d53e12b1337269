package ml

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearData(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		x1, x2 := float64(i), float64(i%3)
		X[i] = []float64{x1, x2}
		y[i] = 3 + 2*x1 - x2
	}
	return X, y
}

func stepData(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		X[i] = []float64{float64(i % 4), float64(i)}
		if i < n/2 {
			y[i] = 1
		} else {
			y[i] = 10
		}
	}
	return X, y
}

func testParams() Params {
	return Params{
		Seed:           42,
		Trees:          10,
		ForestDepth:    4,
		BoostRounds:    50,
		BoostDepth:     3,
		LearningRate:   0.1,
		MinSamplesLeaf: 1,
		Workers:        4,
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		yTrue      []float64
		yPred      []float64
		r2, mae, r float64
	}{
		{"perfect", []float64{1, 2, 3}, []float64{1, 2, 3}, 1, 0, 0},
		{"one miss", []float64{1, 2, 3}, []float64{1, 2, 4}, 0.5, 1.0 / 3, math.Sqrt(1.0 / 3)},
		{"constant target", []float64{2, 2}, []float64{1, 3}, 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Evaluate(tt.yTrue, tt.yPred)
			assert.InDelta(t, tt.r2, m.R2, 1e-12)
			assert.InDelta(t, tt.mae, m.MAE, 1e-12)
			assert.InDelta(t, tt.r, m.RMSE, 1e-12)
		})
	}
}

func TestLinearRegression(t *testing.T) {
	X, y := linearData(20)
	m := NewLinearRegression(0)
	require.NoError(t, m.Fit(context.Background(), X, y))

	assert.InDelta(t, 3, m.Intercept, 1e-4)
	assert.InDelta(t, 2, m.Coefficients[0], 1e-4)
	assert.InDelta(t, -1, m.Coefficients[1], 1e-4)

	pred, err := m.Predict([][]float64{{10, 1}})
	require.NoError(t, err)
	assert.InDelta(t, 22, pred[0], 1e-3)
}

func TestLinearRegression_CollinearColumns(t *testing.T) {
	X, y := linearData(20)
	for i := range X {
		X[i] = append(X[i], X[i][0])
	}
	m := NewLinearRegression(0)
	require.NoError(t, m.Fit(context.Background(), X, y))

	pred, err := m.Predict(X)
	require.NoError(t, err)
	assert.InDelta(t, 1, Evaluate(y, pred).R2, 1e-6)
}

func TestLinearRegression_Errors(t *testing.T) {
	m := NewLinearRegression(0)
	_, err := m.Predict([][]float64{{1}})
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.ErrorIs(t, m.Fit(context.Background(), nil, nil), ErrTooFewSamples)
	assert.ErrorIs(t, m.Fit(context.Background(), [][]float64{{1}, {1, 2}}, []float64{1, 2}), ErrDimensionMismatch)

	X, y := linearData(10)
	require.NoError(t, m.Fit(context.Background(), X, y))
	_, err = m.Predict([][]float64{{1, 2, 3}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestTree(t *testing.T) {
	X, y := stepData(20)
	tree := NewTree(1, 1)
	require.NoError(t, tree.Fit(context.Background(), X, y))

	require.Len(t, tree.Nodes, 3)
	assert.Equal(t, 1, tree.Nodes[0].Feature)
	assert.InDelta(t, 9.5, tree.Nodes[0].Threshold, 1e-12)

	pred, err := tree.Predict([][]float64{{0, 3}, {0, 15}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 10}, pred)
	assert.Equal(t, []float64{0, 1}, tree.FeatureImportances())
}

func TestTree_MinSamplesLeaf(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}}
	y := []float64{0, 0, 0, 100}
	tree := NewTree(5, 2)
	require.NoError(t, tree.Fit(context.Background(), X, y))

	pred, err := tree.Predict([][]float64{{3}})
	require.NoError(t, err)
	assert.InDelta(t, 50, pred[0], 1e-12)
}

func TestRandomForest(t *testing.T) {
	X, y := stepData(40)
	ctx := context.Background()

	a := NewRandomForest(testParams())
	require.NoError(t, a.Fit(ctx, X, y))
	b := NewRandomForest(testParams())
	require.NoError(t, b.Fit(ctx, X, y))

	pa, err := a.Predict(X)
	require.NoError(t, err)
	pb, err := b.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
	assert.Greater(t, Evaluate(y, pa).R2, 0.9)

	imp := a.FeatureImportances()
	require.Len(t, imp, 2)
	assert.Greater(t, imp[1], imp[0])
	assert.InDelta(t, 1, imp[0]+imp[1], 1e-9)
}

func TestRandomForest_Cancelled(t *testing.T) {
	X, y := stepData(40)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewRandomForest(testParams()).Fit(ctx, X, y), context.Canceled)
}

func TestGradientBoosting(t *testing.T) {
	X := make([][]float64, 20)
	y := make([]float64, 20)
	for i := range X {
		X[i] = []float64{float64(i)}
		y[i] = float64(i * i)
	}
	g := NewGradientBoosting(testParams())
	require.NoError(t, g.Fit(context.Background(), X, y))
	assert.Len(t, g.Trees, 50)

	pred, err := g.Predict(X)
	require.NoError(t, err)
	assert.Greater(t, Evaluate(y, pred).R2, 0.95)
	assert.Equal(t, []float64{1}, g.FeatureImportances())
}

func TestNew(t *testing.T) {
	for _, name := range ModelNames() {
		m, err := New(name, testParams())
		require.NoError(t, err)
		assert.Equal(t, name, m.Name())
	}
	_, err := New("xgboost", testParams())
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestTopImportances(t *testing.T) {
	X, y := stepData(20)
	tree := NewTree(2, 1)
	require.NoError(t, tree.Fit(context.Background(), X, y))
	forest := &RandomForest{Trees: []*Tree{tree}}

	top := TopImportances(forest, []string{"a", "b"}, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "b", top[0].Feature)
	assert.Equal(t, ModelForest, top[0].Model)

	assert.Nil(t, TopImportances(NewLinearRegression(0), []string{"a", "b"}, 10))
}
