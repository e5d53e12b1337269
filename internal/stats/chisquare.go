package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquareResult is the outcome of a test of independence
type ChiSquareResult struct {
	Chi2 float64 `json:"chi2"`
	DOF  int     `json:"dof"`
	P    float64 `json:"p_value"`
}

// ChiSquareContingency tests independence of the rows and columns of a
// contingency table. Empty rows and columns are removed first; with one
// degree of freedom the Yates continuity correction is applied.
func ChiSquareContingency(table [][]float64) (ChiSquareResult, error) {
	observed := dropEmpty(table)
	if len(observed) < 2 || len(observed[0]) < 2 {
		return ChiSquareResult{}, fmt.Errorf("%w: contingency table needs at least 2x2 non-empty cells", ErrInsufficientData)
	}

	rows := make([]float64, len(observed))
	cols := make([]float64, len(observed[0]))
	var total float64
	for i, row := range observed {
		for j, v := range row {
			rows[i] += v
			cols[j] += v
			total += v
		}
	}

	dof := (len(rows) - 1) * (len(cols) - 1)
	var chi2 float64
	for i, row := range observed {
		for j, o := range row {
			e := rows[i] * cols[j] / total
			diff := math.Abs(o - e)
			if dof == 1 {
				diff = math.Max(0, diff-0.5)
			}
			chi2 += diff * diff / e
		}
	}

	dist := distuv.ChiSquared{K: float64(dof)}
	return ChiSquareResult{Chi2: chi2, DOF: dof, P: dist.Survival(chi2)}, nil
}

func dropEmpty(table [][]float64) [][]float64 {
	if len(table) == 0 {
		return nil
	}
	width := len(table[0])
	keepCol := make([]bool, width)
	var keptRows [][]float64
	for _, row := range table {
		if len(row) != width {
			return nil
		}
		var sum float64
		for j, v := range row {
			sum += v
			if v != 0 {
				keepCol[j] = true
			}
		}
		if sum > 0 {
			keptRows = append(keptRows, row)
		}
	}

	out := make([][]float64, len(keptRows))
	for i, row := range keptRows {
		for j, v := range row {
			if keepCol[j] {
				out[i] = append(out[i], v)
			}
		}
	}
	return out
}
