package ml

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics are the regression scores of one prediction set
type Metrics struct {
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
}

// Evaluate scores predictions against the true values.
// R² is 0 when the targets are constant.
func Evaluate(yTrue, yPred []float64) Metrics {
	if len(yTrue) == 0 {
		return Metrics{}
	}
	mean := stat.Mean(yTrue, nil)
	var ssRes, ssTot, abs float64
	for i, y := range yTrue {
		d := y - yPred[i]
		ssRes += d * d
		abs += math.Abs(d)
		ssTot += (y - mean) * (y - mean)
	}
	n := float64(len(yTrue))
	m := Metrics{MAE: abs / n, RMSE: math.Sqrt(ssRes / n)}
	if ssTot > 0 {
		m.R2 = 1 - ssRes/ssTot
	}
	return m
}

// CVResult summarises k-fold cross-validation scores
type CVResult struct {
	R2Mean   float64   `json:"r2_mean"`
	R2Std    float64   `json:"r2_std"`
	MAEMean  float64   `json:"mae_mean"`
	MAEStd   float64   `json:"mae_std"`
	RMSEMean float64   `json:"rmse_mean"`
	RMSEStd  float64   `json:"rmse_std"`
	R2Scores []float64 `json:"r2_scores"`
}

// summarise uses the population standard deviation of the fold scores
func summarise(folds []Metrics) CVResult {
	r2 := make([]float64, len(folds))
	mae := make([]float64, len(folds))
	rmse := make([]float64, len(folds))
	for i, m := range folds {
		r2[i], mae[i], rmse[i] = m.R2, m.MAE, m.RMSE
	}
	popStd := func(x []float64) float64 {
		_, v := stat.PopMeanVariance(x, nil)
		return math.Sqrt(v)
	}
	return CVResult{
		R2Mean:   stat.Mean(r2, nil),
		R2Std:    popStd(r2),
		MAEMean:  stat.Mean(mae, nil),
		MAEStd:   popStd(mae),
		RMSEMean: stat.Mean(rmse, nil),
		RMSEStd:  popStd(rmse),
		R2Scores: r2,
	}
}
