package cleaning

import (
	"math"
	"strconv"
	"strings"

	"salarycli/internal/stats"
)

// NormalizeSalary converts a salary answer to thousands of TL.
// "300+" maps to openEnded, "a - b" to its midpoint and a plain number to itself.
// Anything else reports ok=false.
func NormalizeSalary(raw string, openEnded float64) (value float64, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN(), false
	}
	if strings.Contains(s, "300+") || strings.Contains(s, "300 +") {
		return openEnded, true
	}
	if lower, upper, found := strings.Cut(s, " - "); found {
		lo, err1 := parseNumber(lower)
		hi, err2 := parseNumber(upper)
		if err1 != nil || err2 != nil {
			return math.NaN(), false
		}
		return (lo + hi) / 2, true
	}
	v, err := parseNumber(s)
	if err != nil {
		return math.NaN(), false
	}
	return v, true
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

type salaryResult struct {
	values   []float64
	unparsed int
	imputed  int
	median   float64
}

// normalizeSalaries parses every salary cell and fills missing or negative
// values with the median of the valid ones
func normalizeSalaries(cells []string, openEnded float64) (salaryResult, error) {
	res := salaryResult{values: make([]float64, len(cells))}
	valid := make([]float64, 0, len(cells))
	for i, c := range cells {
		v, ok := NormalizeSalary(c, openEnded)
		if !ok {
			res.unparsed++
		}
		res.values[i] = v
		if ok && v >= 0 {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return res, ErrNoSalaryValues
	}

	res.median = stats.Median(valid)
	for i, v := range res.values {
		if math.IsNaN(v) || v < 0 {
			res.values[i] = res.median
			res.imputed++
		}
	}
	return res, nil
}
