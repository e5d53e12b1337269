package cleaning

import "errors"

var (
	// ErrMissingColumn is returned when a required survey question is absent from the raw file
	ErrMissingColumn = errors.New("required column missing")

	// ErrNoSalaryValues is returned when not a single salary cell can be parsed
	ErrNoSalaryValues = errors.New("no parseable salary values")
)
