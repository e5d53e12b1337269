package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "salarycli/internal/errors"
	"salarycli/internal/services"
)

const maxPredictBody = 1 << 20

// PredictHandler serves salary predictions
type PredictHandler struct {
	service      PredictionService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPredictHandler creates a new prediction handler
func NewPredictHandler(service PredictionService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PredictHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "predict_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the prediction routes; limit wraps POST only and may be nil
func (h *PredictHandler) Routes(limit func(http.Handler) http.Handler) chi.Router {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/schema", h.GetSchema)
	r.With(limit).Post("/", h.Predict)
	return r
}

// Predict handles POST /api/predict
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req services.PredictRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxPredictBody), &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	resp, err := h.service.Predict(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// SchemaResponse lists the features a model expects
type SchemaResponse struct {
	Model    string   `json:"model,omitempty"`
	Features []string `json:"features"`
}

// GetSchema handles GET /api/predict/schema
func (h *PredictHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	model := r.URL.Query().Get("model")
	features, err := h.service.Schema(model)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, SchemaResponse{Model: model, Features: features})
}
