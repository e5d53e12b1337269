package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CorrelationResult is a correlation coefficient with its two-sided p-value
type CorrelationResult struct {
	R float64 `json:"r"`
	P float64 `json:"p_value"`
	N int     `json:"n"`
}

// Pearson returns the product-moment correlation of x and y.
// Pairs where either value is NaN are ignored.
func Pearson(x, y []float64) (CorrelationResult, error) {
	if len(x) != len(y) {
		return CorrelationResult{}, fmt.Errorf("length mismatch: %d vs %d", len(x), len(y))
	}
	xs, ys := completePairs(x, y)
	if len(xs) < 3 {
		return CorrelationResult{}, fmt.Errorf("%w: need at least 3 pairs, got %d", ErrInsufficientData, len(xs))
	}
	if Variance(xs) == 0 || Variance(ys) == 0 {
		return CorrelationResult{}, fmt.Errorf("%w: constant input", ErrInsufficientData)
	}
	r := stat.Correlation(xs, ys, nil)
	return CorrelationResult{R: r, P: correlationP(r, len(xs)), N: len(xs)}, nil
}

// Spearman returns the rank correlation of x and y, ties get average ranks
func Spearman(x, y []float64) (CorrelationResult, error) {
	if len(x) != len(y) {
		return CorrelationResult{}, fmt.Errorf("length mismatch: %d vs %d", len(x), len(y))
	}
	xs, ys := completePairs(x, y)
	return Pearson(Ranks(xs), Ranks(ys))
}

func correlationP(r float64, n int) float64 {
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(1, 2*dist.Survival(math.Abs(t)))
}

func completePairs(x, y []float64) ([]float64, []float64) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}
