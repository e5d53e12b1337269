package cleaning

import (
	"math"

	"salarycli/internal/stats"
)

// Bounds is the closed clipping interval applied to salaries
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// OutlierBounds combines the IQR fence and the |z| <= zMax range of values:
// the tighter lower and the tighter upper bound win, and upper never exceeds cap.
func OutlierBounds(values []float64, iqrMultiplier, zMax, cap float64) Bounds {
	q1 := stats.Quantile(values, 0.25)
	q3 := stats.Quantile(values, 0.75)
	iqr := q3 - q1
	lower := q1 - iqrMultiplier*iqr
	upper := math.Min(q3+iqrMultiplier*iqr, cap)

	zLower, zUpper := stats.Min(values), stats.Max(values)
	if sd := stats.StdDev(values); sd > 0 {
		mean := stats.Mean(values)
		zLower, zUpper = math.Inf(1), math.Inf(-1)
		for _, v := range values {
			if math.Abs((v-mean)/sd) <= zMax {
				zLower = math.Min(zLower, v)
				zUpper = math.Max(zUpper, v)
			}
		}
	}

	return Bounds{
		Lower: math.Max(lower, zLower),
		Upper: math.Min(math.Min(upper, zUpper), cap),
	}
}

// Clip limits values to b in place and returns how many changed
func Clip(values []float64, b Bounds) int {
	n := 0
	for i, v := range values {
		switch {
		case v < b.Lower:
			values[i] = b.Lower
			n++
		case v > b.Upper:
			values[i] = b.Upper
			n++
		}
	}
	return n
}
