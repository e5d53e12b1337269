package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// TTestResult is the outcome of a two-sample t-test
type TTestResult struct {
	T  float64 `json:"t_statistic"`
	DF float64 `json:"df"`
	P  float64 `json:"p_value"`
}

// WelchTTest performs a two-sided unequal-variance t-test
func WelchTTest(a, b []float64) (TTestResult, error) {
	if err := requireSamples(2, a, b); err != nil {
		return TTestResult{}, err
	}
	va, vb := Variance(a)/float64(len(a)), Variance(b)/float64(len(b))
	se := math.Sqrt(va + vb)
	if se == 0 {
		return TTestResult{}, fmt.Errorf("%w: both samples have zero variance", ErrInsufficientData)
	}
	t := (Mean(a) - Mean(b)) / se
	df := (va + vb) * (va + vb) / (va*va/float64(len(a)-1) + vb*vb/float64(len(b)-1))
	return TTestResult{T: t, DF: df, P: twoSidedT(t, df)}, nil
}

// StudentTTest performs a two-sided pooled-variance t-test
func StudentTTest(a, b []float64) (TTestResult, error) {
	if err := requireSamples(2, a, b); err != nil {
		return TTestResult{}, err
	}
	na, nb := float64(len(a)), float64(len(b))
	df := na + nb - 2
	pooled := ((na-1)*Variance(a) + (nb-1)*Variance(b)) / df
	se := math.Sqrt(pooled * (1/na + 1/nb))
	if se == 0 {
		return TTestResult{}, fmt.Errorf("%w: both samples have zero variance", ErrInsufficientData)
	}
	t := (Mean(a) - Mean(b)) / se
	return TTestResult{T: t, DF: df, P: twoSidedT(t, df)}, nil
}

// CohensD returns the standardised mean difference of a and b using the
// pooled standard deviation with an n1+n2-2 denominator
func CohensD(a, b []float64) (float64, error) {
	if err := requireSamples(2, a, b); err != nil {
		return 0, err
	}
	na, nb := float64(len(a)), float64(len(b))
	pooled := math.Sqrt(((na-1)*Variance(a) + (nb-1)*Variance(b)) / (na + nb - 2))
	if pooled == 0 {
		return 0, fmt.Errorf("%w: pooled standard deviation is zero", ErrInsufficientData)
	}
	return (Mean(a) - Mean(b)) / pooled, nil
}

// Interval is a closed confidence interval
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// MeanDiffCI returns the normal-approximation interval of mean(a)-mean(b)
func MeanDiffCI(a, b []float64, z float64) (Interval, error) {
	if err := requireSamples(2, a, b); err != nil {
		return Interval{}, err
	}
	diff := Mean(a) - Mean(b)
	se := math.Sqrt(Variance(a)/float64(len(a)) + Variance(b)/float64(len(b)))
	return Interval{Lower: diff - z*se, Upper: diff + z*se}, nil
}

func twoSidedT(t, df float64) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(1, 2*dist.Survival(math.Abs(t)))
}

func requireSamples(min int, samples ...[]float64) error {
	for _, s := range samples {
		if len(s) < min {
			return fmt.Errorf("%w: need at least %d values per group, got %d", ErrInsufficientData, min, len(s))
		}
	}
	return nil
}
