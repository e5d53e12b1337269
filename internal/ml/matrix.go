package ml

import (
	"fmt"
	"math"
	"math/rand/v2"

	"salarycli/internal/survey"
)

// Matrix is a feature matrix with its regression target
type Matrix struct {
	Features []string
	X        [][]float64
	Y        []float64
}

// FromDataset uses every numeric column except the salary as a feature.
// Missing feature values become 0; rows without a salary are dropped.
func FromDataset(d *survey.Dataset) (*Matrix, error) {
	if !d.IsNumeric(survey.ColSalary) {
		return nil, fmt.Errorf("%w: %s", survey.ErrColumnNotFound, survey.ColSalary)
	}
	var features []string
	for _, name := range d.NumericColumns() {
		if name != survey.ColSalary {
			features = append(features, name)
		}
	}

	columns := make([][]float64, len(features))
	for j, name := range features {
		columns[j] = d.Float(name)
	}
	salary := d.Float(survey.ColSalary)

	m := &Matrix{Features: features}
	for i := 0; i < d.Len(); i++ {
		if math.IsNaN(salary[i]) {
			continue
		}
		row := make([]float64, len(features))
		for j := range features {
			if v := columns[j][i]; !math.IsNaN(v) {
				row[j] = v
			}
		}
		m.X = append(m.X, row)
		m.Y = append(m.Y, salary[i])
	}
	if len(m.Y) == 0 {
		return nil, ErrTooFewSamples
	}
	return m, nil
}

// Len returns the number of samples
func (m *Matrix) Len() int { return len(m.Y) }

// Subset returns the rows at idx; the rows are shared, not copied
func (m *Matrix) Subset(idx []int) *Matrix {
	out := &Matrix{
		Features: m.Features,
		X:        make([][]float64, len(idx)),
		Y:        make([]float64, len(idx)),
	}
	for k, i := range idx {
		out.X[k] = m.X[i]
		out.Y[k] = m.Y[i]
	}
	return out
}

// Column returns feature j for every row
func (m *Matrix) Column(j int) []float64 {
	out := make([]float64, len(m.X))
	for i, row := range m.X {
		out[i] = row[j]
	}
	return out
}

// TrainTestSplit shuffles the rows with seed and holds out testRatio of them
func TrainTestSplit(m *Matrix, testRatio float64, seed int64) (train, test *Matrix, err error) {
	n := m.Len()
	nTest := int(math.Ceil(float64(n) * testRatio))
	if nTest < 1 || nTest >= n {
		return nil, nil, fmt.Errorf("%w: %d samples with test ratio %.2f", ErrTooFewSamples, n, testRatio)
	}
	idx := newRand(seed).Perm(n)
	return m.Subset(idx[nTest:]), m.Subset(idx[:nTest]), nil
}

// KFold partitions 0..n-1 into k contiguous folds; the first n%k folds get one extra row
func KFold(n, k int) ([][]int, error) {
	if k < 2 || n < k {
		return nil, fmt.Errorf("%w: %d samples for %d folds", ErrTooFewSamples, n, k)
	}
	folds := make([][]int, k)
	start := 0
	for f := range folds {
		size := n / k
		if f < n%k {
			size++
		}
		for i := start; i < start+size; i++ {
			folds[f] = append(folds[f], i)
		}
		start += size
	}
	return folds, nil
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}
