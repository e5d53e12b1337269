package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ANOVAResult is the outcome of a one-way analysis of variance
type ANOVAResult struct {
	F          float64 `json:"f_statistic"`
	DFBetween  int     `json:"df_between"`
	DFWithin   int     `json:"df_within"`
	P          float64 `json:"p_value"`
	EtaSquared float64 `json:"eta_squared"`
}

// OneWayANOVA tests whether the group means are equal.
// Groups with fewer than one value are rejected.
func OneWayANOVA(groups ...[]float64) (ANOVAResult, error) {
	if len(groups) < 2 {
		return ANOVAResult{}, fmt.Errorf("%w: need at least 2 groups, got %d", ErrInsufficientData, len(groups))
	}
	if err := requireSamples(1, groups...); err != nil {
		return ANOVAResult{}, err
	}

	var total, n float64
	for _, g := range groups {
		for _, v := range g {
			total += v
		}
		n += float64(len(g))
	}
	grand := total / n

	var ssb, ssw float64
	for _, g := range groups {
		m := Mean(g)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}

	k := len(groups)
	dfb, dfw := k-1, int(n)-k
	if dfw <= 0 {
		return ANOVAResult{}, fmt.Errorf("%w: no within-group degrees of freedom", ErrInsufficientData)
	}
	if ssw == 0 {
		return ANOVAResult{}, fmt.Errorf("%w: zero within-group variance", ErrInsufficientData)
	}

	f := (ssb / float64(dfb)) / (ssw / float64(dfw))
	dist := distuv.F{D1: float64(dfb), D2: float64(dfw)}
	return ANOVAResult{
		F:          f,
		DFBetween:  dfb,
		DFWithin:   dfw,
		P:          dist.Survival(f),
		EtaSquared: ssb / (ssb + ssw),
	}, nil
}

// PairwiseResult is one post-hoc comparison
type PairwiseResult struct {
	GroupA    string  `json:"group_a"`
	GroupB    string  `json:"group_b"`
	MeanDiff  float64 `json:"mean_diff"`
	T         float64 `json:"t_statistic"`
	P         float64 `json:"p_value"`
	PAdjusted float64 `json:"p_adjusted"`
	Reject    bool    `json:"reject"`
}

// PairwiseWelch runs Welch t-tests between every pair of groups and applies a
// Bonferroni correction. Pairs whose test is undefined are skipped.
func PairwiseWelch(groups [][]float64, labels []string, alpha float64) ([]PairwiseResult, error) {
	if len(groups) != len(labels) {
		return nil, fmt.Errorf("%d groups but %d labels", len(groups), len(labels))
	}
	m := float64(len(groups) * (len(groups) - 1) / 2)

	var out []PairwiseResult
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			res, err := WelchTTest(groups[i], groups[j])
			if err != nil {
				continue
			}
			adj := math.Min(1, res.P*m)
			out = append(out, PairwiseResult{
				GroupA:    labels[i],
				GroupB:    labels[j],
				MeanDiff:  Mean(groups[j]) - Mean(groups[i]),
				T:         res.T,
				P:         res.P,
				PAdjusted: adj,
				Reject:    adj < alpha,
			})
		}
	}
	return out, nil
}
