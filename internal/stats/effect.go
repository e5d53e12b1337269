package stats

import "math"

// InterpretCohensD labels the magnitude of a standardised mean difference
func InterpretCohensD(d float64) string {
	switch a := math.Abs(d); {
	case a < 0.2:
		return "Small"
	case a < 0.5:
		return "Medium"
	case a < 0.8:
		return "Large"
	default:
		return "Very Large"
	}
}

// InterpretEtaSquared labels the share of variance explained by a factor
func InterpretEtaSquared(eta float64) string {
	switch {
	case eta < 0.01:
		return "Small"
	case eta < 0.06:
		return "Medium"
	case eta < 0.14:
		return "Large"
	default:
		return "Very Large"
	}
}

// InterpretCorrelation labels the strength of a correlation coefficient
func InterpretCorrelation(r float64) string {
	switch a := math.Abs(r); {
	case a < 0.1:
		return "Very Weak"
	case a < 0.3:
		return "Weak"
	case a < 0.5:
		return "Moderate"
	case a < 0.7:
		return "Strong"
	default:
		return "Very Strong"
	}
}
