package survey

import (
	"errors"
	"strings"
)

var (
	ErrColumnNotFound     = errors.New("column not found")
	ErrDuplicateColumn    = errors.New("duplicate column")
	ErrLengthMismatch     = errors.New("column length mismatch")
	ErrEmptyTable         = errors.New("table has no rows")
	ErrUnsupportedFormat  = errors.New("unsupported input format")
	ErrNonNumericColumn   = errors.New("column is not numeric")
	ErrMaskLengthMismatch = errors.New("mask length does not match dataset")
)

var missingMarkers = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"none": {},
}

// IsMissing reports whether a raw cell counts as a missing value
func IsMissing(v string) bool {
	_, ok := missingMarkers[strings.ToLower(strings.TrimSpace(v))]
	return ok
}
