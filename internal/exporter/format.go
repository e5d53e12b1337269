package exporter

import (
	"fmt"
	"math"
)

// FormatFloat formats a value with the given number of decimals; NaN becomes empty
func FormatFloat(f float64, decimals int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return fmt.Sprintf("%.*f", decimals, f)
}

// FormatInt formats an integer for CSV output
func FormatInt(i int) string {
	return fmt.Sprintf("%d", i)
}

// FormatBool formats a boolean the way the result tables expect
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
