package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"
)

// SavedModel is the on-disk form of a fitted model and its feature schema
type SavedModel struct {
	Name      string            `json:"name"`
	Features  []string          `json:"features"`
	TrainedAt time.Time         `json:"trained_at"`
	Test      Metrics           `json:"test_metrics"`
	Linear    *LinearRegression `json:"linear,omitempty"`
	Forest    *RandomForest     `json:"forest,omitempty"`
	Boosting  *GradientBoosting `json:"boosting,omitempty"`
}

// Regressor returns the fitted model held by the envelope
func (s *SavedModel) Regressor() (Regressor, error) {
	switch {
	case s.Linear != nil:
		return s.Linear, nil
	case s.Forest != nil:
		return s.Forest, nil
	case s.Boosting != nil:
		return s.Boosting, nil
	default:
		return nil, fmt.Errorf("%w: %q has no parameters", ErrUnknownModel, s.Name)
	}
}

// Save writes the model as snappy-compressed JSON
func Save(path string, model Regressor, features []string, test Metrics) error {
	saved := SavedModel{
		Name:      model.Name(),
		Features:  features,
		TrainedAt: time.Now().UTC(),
		Test:      test,
	}
	switch m := model.(type) {
	case *LinearRegression:
		saved.Linear = m
	case *RandomForest:
		saved.Forest = m
	case *GradientBoosting:
		saved.Boosting = m
	default:
		return fmt.Errorf("%w: cannot persist %T", ErrUnknownModel, model)
	}

	data, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("encode model %s: %w", saved.Name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	if err := os.WriteFile(path, snappy.Encode(nil, data), 0644); err != nil {
		return fmt.Errorf("write model %s: %w", path, err)
	}
	return nil
}

// Load reads a model written by Save
func Load(path string) (*SavedModel, error) {
	compressed, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress model %s: %w", path, err)
	}
	var saved SavedModel
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if _, err := saved.Regressor(); err != nil {
		return nil, err
	}
	return &saved, nil
}
