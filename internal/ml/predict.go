package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Predictor scores single respondents with a stored model
type Predictor struct {
	model    Regressor
	name     string
	features []string
}

// NewPredictor wraps a loaded model
func NewPredictor(saved *SavedModel) (*Predictor, error) {
	model, err := saved.Regressor()
	if err != nil {
		return nil, err
	}
	return &Predictor{model: model, name: saved.Name, features: saved.Features}, nil
}

// LoadPredictor reads a model file and wraps it
func LoadPredictor(path string) (*Predictor, error) {
	saved, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewPredictor(saved)
}

// Name returns the model name
func (p *Predictor) Name() string { return p.name }

// Schema returns the feature names in model order
func (p *Predictor) Schema() []string {
	return append([]string(nil), p.features...)
}

// Predict aligns payload to the schema and returns the predicted salary
func (p *Predictor) Predict(payload map[string]any) (float64, error) {
	pred, err := p.model.Predict([][]float64{AlignFeatures(payload, p.features)})
	if err != nil {
		return 0, err
	}
	return pred[0], nil
}

// PredictJSON decodes a JSON object and predicts from it
func (p *Predictor) PredictJSON(data []byte) (float64, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	return p.Predict(payload)
}

// AlignFeatures orders payload values by features. Missing keys and values
// that are not numeric become 0; unknown keys are ignored.
func AlignFeatures(payload map[string]any, features []string) []float64 {
	row := make([]float64, len(features))
	for j, f := range features {
		row[j] = toFloat(payload[f])
	}
	return row
}

func toFloat(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if x {
			f = 1
		}
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
