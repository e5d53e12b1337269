package services

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"salarycli/internal/analysis"
	"salarycli/internal/charts"
	apierrors "salarycli/internal/errors"
	"salarycli/internal/ml"
	"salarycli/internal/stats"
)

// ErrDatasetNotLoaded is returned when the dashboard starts without cleaned data
var ErrDatasetNotLoaded = errors.New("cleaned dataset not loaded")

// toAPIError maps domain failures to the API error the client sees. Errors that
// already carry an HTTP meaning pass through unchanged.
func toAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, analysis.ErrNoRespondents),
		errors.Is(err, stats.ErrInsufficientData),
		errors.Is(err, charts.ErrNoData):
		return apierrors.Wrap(apierrors.ErrInsufficientData, err)
	case errors.Is(err, charts.ErrUnknownChart):
		return apierrors.Wrap(apierrors.NotFoundError("chart"), err)
	case errors.Is(err, ErrDatasetNotLoaded):
		return apierrors.Wrap(apierrors.ErrDataUnavailable, err)
	case errors.Is(err, ml.ErrModelNotFound):
		return apierrors.Wrap(apierrors.ErrModelUnavailable, err)
	case errors.Is(err, ml.ErrDimensionMismatch), errors.Is(err, ml.ErrUnknownModel):
		return apierrors.Wrap(apierrors.InvalidRequestWithError(err), err)
	default:
		return apierrors.Wrap(apierrors.ErrInternalServer, err)
	}
}
