package ml

import "errors"

var (
	// ErrModelNotFound is returned when a model file does not exist
	ErrModelNotFound = errors.New("model not found")

	// ErrUnknownModel is returned for a model name outside ModelNames
	ErrUnknownModel = errors.New("unknown model")

	// ErrNotFitted is returned when predicting with an untrained model
	ErrNotFitted = errors.New("model is not fitted")

	// ErrDimensionMismatch is returned when rows do not match the feature count
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrTooFewSamples is returned when a split or fold would be empty
	ErrTooFewSamples = errors.New("too few samples")
)
