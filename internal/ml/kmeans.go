package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"salarycli/internal/stats"
	"salarycli/internal/survey"
)

const (
	kmeansMaxIter   = 300
	kmeansTolerance = 1e-4
)

// ClusterFeatures are tried in order; absent columns are skipped
var ClusterFeatures = []string{
	survey.ColSalary,
	survey.ColSeniority,
	survey.ColExperience,
	survey.ColReact,
	survey.ColJavaScript,
	survey.ColPython,
	survey.ColTypeScript,
}

// KMeans partitions standardised rows into K clusters, keeping the best of
// Restarts runs by inertia
type KMeans struct {
	K        int
	Restarts int
	Seed     int64

	Centroids [][]float64
	Labels    []int
	Inertia   float64
}

// Fit clusters the rows of X
func (km *KMeans) Fit(ctx context.Context, X [][]float64) error {
	if km.K < 1 || len(X) < km.K {
		return fmt.Errorf("%w: %d rows for %d clusters", ErrTooFewSamples, len(X), km.K)
	}
	rng := newRand(km.Seed)
	best := math.Inf(1)
	for run := 0; run < max(km.Restarts, 1); run++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		centroids, labels, inertia := lloyd(X, seedCentroids(X, km.K, rng))
		if inertia < best {
			best = inertia
			km.Centroids, km.Labels, km.Inertia = centroids, labels, inertia
		}
	}
	return nil
}

// seedCentroids picks initial centres with k-means++
func seedCentroids(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := [][]float64{append([]float64(nil), X[rng.IntN(len(X))]...)}
	dist := make([]float64, len(X))
	for len(centroids) < k {
		var total float64
		for i, row := range X {
			dist[i] = math.Inf(1)
			for _, c := range centroids {
				dist[i] = math.Min(dist[i], sqDist(row, c))
			}
			total += dist[i]
		}
		next := rng.IntN(len(X))
		if total > 0 {
			r := rng.Float64() * total
			for i, d := range dist {
				r -= d
				if r <= 0 {
					next = i
					break
				}
			}
		}
		centroids = append(centroids, append([]float64(nil), X[next]...))
	}
	return centroids
}

func lloyd(X [][]float64, centroids [][]float64) ([][]float64, []int, float64) {
	k, p := len(centroids), len(X[0])
	labels := make([]int, len(X))
	for iter := 0; iter < kmeansMaxIter; iter++ {
		for i, row := range X {
			labels[i] = nearest(row, centroids)
		}
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, p)
		}
		for i, row := range X {
			floats.Add(sums[labels[i]], row)
			counts[labels[i]]++
		}
		var shift float64
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			shift += sqDist(sums[c], centroids[c])
			centroids[c] = sums[c]
		}
		if shift < kmeansTolerance {
			break
		}
	}
	var inertia float64
	for i, row := range X {
		labels[i] = nearest(row, centroids)
		inertia += sqDist(row, centroids[labels[i]])
	}
	return centroids, labels, inertia
}

func nearest(row []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centre := range centroids {
		if d := sqDist(row, centre); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// Standardise returns z-scores per column using the population deviation.
// Constant columns become 0.
func Standardise(X [][]float64) [][]float64 {
	if len(X) == 0 {
		return nil
	}
	p := len(X[0])
	out := make([][]float64, len(X))
	for i := range out {
		out[i] = make([]float64, p)
	}
	col := make([]float64, len(X))
	for j := 0; j < p; j++ {
		for i, row := range X {
			col[i] = row[j]
		}
		mean, variance := stat.PopMeanVariance(col, nil)
		sd := math.Sqrt(variance)
		for i := range X {
			if sd > 0 {
				out[i][j] = (col[i] - mean) / sd
			}
		}
	}
	return out
}

// ClusterSummary describes one developer profile
type ClusterSummary struct {
	Cluster       int     `json:"cluster"`
	Size          int     `json:"size"`
	Percentage    float64 `json:"percentage"`
	AvgSalary     float64 `json:"avg_salary"`
	AvgExperience float64 `json:"avg_experience"`
	ReactUsers    int     `json:"react_users"`
	ReactPct      float64 `json:"react_percentage"`
}

// ClusterResult is the outcome of developer clustering
type ClusterResult struct {
	Features []string         `json:"features"`
	Labels   []int            `json:"labels"`
	Summary  []ClusterSummary `json:"summary"`
	Inertia  float64          `json:"inertia"`
}

// ClusterDevelopers runs k-means on the available profile columns. With fewer
// than three of them it falls back to salary, seniority and experience.
// Missing values take the column median.
func ClusterDevelopers(ctx context.Context, d *survey.Dataset, k, restarts int, seed int64) (*ClusterResult, error) {
	var features []string
	for _, f := range ClusterFeatures {
		if d.IsNumeric(f) {
			features = append(features, f)
		}
	}
	if len(features) < 3 {
		features = ClusterFeatures[:3]
		for _, f := range features {
			if !d.IsNumeric(f) {
				return nil, fmt.Errorf("%w: %s", survey.ErrColumnNotFound, f)
			}
		}
	}

	X := make([][]float64, d.Len())
	for i := range X {
		X[i] = make([]float64, len(features))
	}
	for j, f := range features {
		values := d.Float(f)
		median := 0.0
		if present := d.Values(f, nil); len(present) > 0 {
			median = stats.Median(present)
		}
		for i, v := range values {
			if math.IsNaN(v) {
				v = median
			}
			X[i][j] = v
		}
	}

	km := &KMeans{K: k, Restarts: restarts, Seed: seed}
	if err := km.Fit(ctx, Standardise(X)); err != nil {
		return nil, err
	}

	res := &ClusterResult{Features: features, Labels: km.Labels, Inertia: km.Inertia}
	salary := d.Float(survey.ColSalary)
	experience := d.Float(survey.ColExperience)
	react := d.Float(survey.ColReact)
	for c := 0; c < k; c++ {
		s := ClusterSummary{Cluster: c}
		var salarySum, expSum float64
		var salaryN, expN int
		for i, label := range km.Labels {
			if label != c {
				continue
			}
			s.Size++
			if salary != nil && !math.IsNaN(salary[i]) {
				salarySum += salary[i]
				salaryN++
			}
			if experience != nil && !math.IsNaN(experience[i]) {
				expSum += experience[i]
				expN++
			}
			if react != nil && react[i] == 1 {
				s.ReactUsers++
			}
		}
		if salaryN > 0 {
			s.AvgSalary = salarySum / float64(salaryN)
		}
		if expN > 0 {
			s.AvgExperience = expSum / float64(expN)
		}
		if s.Size > 0 {
			s.Percentage = float64(s.Size) / float64(d.Len()) * 100
			s.ReactPct = float64(s.ReactUsers) / float64(s.Size) * 100
		}
		res.Summary = append(res.Summary, s)
	}
	return res, nil
}
