package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"

	"salarycli/internal/config"
	"salarycli/internal/ml"
)

// PredictRequest is the body of POST /api/predict. Features are keyed by
// cleaned column name; absent features count as 0.
type PredictRequest struct {
	Model    string             `json:"model,omitempty" validate:"omitempty,oneof=linear_regression random_forest gradient_boosting"`
	Features map[string]float64 `json:"features" validate:"required,min=1,dive,keys,required,endkeys"`
}

// PredictResponse is the predicted monthly net salary in thousand TL
type PredictResponse struct {
	Model    string   `json:"model"`
	Salary   float64  `json:"predicted_salary"`
	Ignored  []string `json:"ignored_features,omitempty"`
	Features int      `json:"schema_size"`
}

// PredictionService scores requests with the stored models, loading each
// model file on first use
type PredictionService struct {
	paths        *config.Paths
	defaultModel string
	validate     *validator.Validate
	logger       *slog.Logger

	mu         sync.Mutex
	predictors map[string]*ml.Predictor
}

// NewPredictionService creates the service; defaultModel answers requests
// that name no model
func NewPredictionService(paths *config.Paths, defaultModel string, logger *slog.Logger) *PredictionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictionService{
		paths:        paths,
		defaultModel: defaultModel,
		validate:     validator.New(),
		logger:       logger.With(slog.String("component", "prediction_service")),
		predictors:   make(map[string]*ml.Predictor),
	}
}

// Predictor returns the loaded model, reading it from disk the first time
func (s *PredictionService) Predictor(name string) (*ml.Predictor, error) {
	if name == "" {
		name = s.defaultModel
	}
	if !slices.Contains(ml.ModelNames(), name) {
		return nil, toAPIError(fmt.Errorf("%w: %s", ml.ErrUnknownModel, name))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.predictors[name]; ok {
		return p, nil
	}
	p, err := ml.LoadPredictor(s.paths.ModelPath(name))
	if err != nil {
		return nil, toAPIError(err)
	}
	s.predictors[name] = p
	s.logger.Info("model loaded",
		slog.String("model", name),
		slog.Int("features", len(p.Schema())))
	return p, nil
}

// Available reports whether the default model can be loaded
func (s *PredictionService) Available() bool {
	_, err := s.Predictor("")
	return err == nil
}

// Schema returns the feature names the model expects
func (s *PredictionService) Schema(model string) ([]string, error) {
	p, err := s.Predictor(model)
	if err != nil {
		return nil, err
	}
	return p.Schema(), nil
}

// Predict validates the request and scores it
func (s *PredictionService) Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, toAPIError(err)
	}
	p, err := s.Predictor(req.Model)
	if err != nil {
		return nil, err
	}

	schema := p.Schema()
	payload := make(map[string]any, len(req.Features))
	var ignored []string
	for k, v := range req.Features {
		payload[k] = v
		if !slices.Contains(schema, k) {
			ignored = append(ignored, k)
		}
	}
	slices.Sort(ignored)

	salary, err := p.Predict(payload)
	if err != nil {
		return nil, toAPIError(err)
	}
	s.logger.DebugContext(ctx, "prediction served",
		slog.String("model", p.Name()),
		slog.Float64("salary", salary),
		slog.Int("ignored", len(ignored)))
	return &PredictResponse{
		Model:    p.Name(),
		Salary:   salary,
		Ignored:  ignored,
		Features: len(schema),
	}, nil
}
