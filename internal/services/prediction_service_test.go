package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salarycli/internal/config"
	"salarycli/internal/ml"
)

// saveLinearModel stores salary = 10 + 2*experience_years + 3*seniority_level_ic
func saveLinearModel(t *testing.T, paths *config.Paths) {
	t.Helper()
	var X [][]float64
	var y []float64
	for i := range 20 {
		exp, level := float64(i%7), float64(i%4)
		X = append(X, []float64{exp, level})
		y = append(y, 10+2*exp+3*level)
	}
	model := ml.NewLinearRegression(0)
	require.NoError(t, model.Fit(context.Background(), X, y))
	require.NoError(t, ml.Save(paths.ModelPath(ml.ModelLinear), model, []string{"experience_years", "seniority_level_ic"}, ml.Metrics{R2: 1}))
}

func TestPredict(t *testing.T) {
	paths := testPaths(t)
	saveLinearModel(t, paths)
	s := NewPredictionService(paths, ml.ModelLinear, quietLogger())

	resp, err := s.Predict(context.Background(), PredictRequest{
		Features: map[string]float64{"experience_years": 1, "seniority_level_ic": 2, "shoe_size": 44},
	})
	require.NoError(t, err)
	assert.Equal(t, ml.ModelLinear, resp.Model)
	assert.InDelta(t, 18, resp.Salary, 1e-6)
	assert.Equal(t, []string{"shoe_size"}, resp.Ignored)
	assert.Equal(t, 2, resp.Features)

	schema, err := s.Schema("")
	require.NoError(t, err)
	assert.Equal(t, []string{"experience_years", "seniority_level_ic"}, schema)
	assert.True(t, s.Available())
}

func TestPredict_Validation(t *testing.T) {
	s := NewPredictionService(testPaths(t), ml.ModelLinear, quietLogger())
	tests := []struct {
		name string
		req  PredictRequest
	}{
		{"no features", PredictRequest{}},
		{"empty features", PredictRequest{Features: map[string]float64{}}},
		{"empty key", PredictRequest{Features: map[string]float64{"": 1}}},
		{"unknown model", PredictRequest{Model: "svm", Features: map[string]float64{"a": 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Predict(context.Background(), tt.req)
			var invalid validator.ValidationErrors
			assert.True(t, errors.As(err, &invalid), "got %v", err)
		})
	}
}

func TestPredictor_Errors(t *testing.T) {
	s := NewPredictionService(testPaths(t), ml.ModelForest, quietLogger())

	_, err := s.Predictor("")
	requireStatus(t, err, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE")
	assert.ErrorIs(t, err, ml.ErrModelNotFound)
	assert.False(t, s.Available())

	_, err = s.Predictor("svm")
	requireStatus(t, err, http.StatusBadRequest, "INVALID_REQUEST")
}
