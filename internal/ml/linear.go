package ml

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// defaultRidge is the relative diagonal load that keeps collinear one-hot
// columns solvable
const defaultRidge = 1e-8

const maxRidgeRetries = 6

// LinearRegression is ordinary least squares on centred features
type LinearRegression struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Ridge        float64   `json:"ridge"`
}

// NewLinearRegression creates a linear model with the given relative ridge term
func NewLinearRegression(ridge float64) *LinearRegression {
	if ridge <= 0 {
		ridge = defaultRidge
	}
	return &LinearRegression{Ridge: ridge}
}

// Name implements Regressor
func (m *LinearRegression) Name() string { return ModelLinear }

// Fit solves (XcᵀXc + λI)β = Xcᵀyc by Cholesky factorisation. λ grows
// until the system is positive definite.
func (m *LinearRegression) Fit(ctx context.Context, X [][]float64, y []float64) error {
	p, err := checkTraining(X, y)
	if err != nil {
		return err
	}
	n := len(X)

	means := make([]float64, p)
	var yMean float64
	for i, row := range X {
		for j, v := range row {
			means[j] += v
		}
		yMean += y[i]
	}
	for j := range means {
		means[j] /= float64(n)
	}
	yMean /= float64(n)

	xc := mat.NewDense(n, p, nil)
	yc := mat.NewVecDense(n, nil)
	for i, row := range X {
		for j, v := range row {
			xc.Set(i, j, v-means[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var gram mat.SymDense
	gram.SymOuterK(1, xc.T())
	var rhs mat.VecDense
	rhs.MulVec(xc.T(), yc)

	var trace float64
	for j := 0; j < p; j++ {
		trace += gram.At(j, j)
	}
	lambda := m.Ridge * (1 + trace/float64(p))

	var beta mat.VecDense
	solved := false
	for attempt := 0; attempt < maxRidgeRetries && !solved; attempt++ {
		a := mat.NewSymDense(p, nil)
		a.CopySym(&gram)
		for j := 0; j < p; j++ {
			a.SetSym(j, j, a.At(j, j)+lambda)
		}
		var chol mat.Cholesky
		if chol.Factorize(a) {
			if err := chol.SolveVecTo(&beta, &rhs); err == nil {
				solved = true
				break
			}
		}
		lambda *= 100
	}
	if !solved {
		return fmt.Errorf("linear regression: normal equations are singular")
	}

	m.Coefficients = make([]float64, p)
	m.Intercept = yMean
	for j := 0; j < p; j++ {
		m.Coefficients[j] = beta.AtVec(j)
		m.Intercept -= m.Coefficients[j] * means[j]
	}
	return nil
}

// Predict implements Regressor
func (m *LinearRegression) Predict(X [][]float64) ([]float64, error) {
	if m.Coefficients == nil {
		return nil, ErrNotFitted
	}
	if err := checkRows(X, len(m.Coefficients)); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		v := m.Intercept
		for j, x := range row {
			v += m.Coefficients[j] * x
		}
		out[i] = v
	}
	return out, nil
}
