package lsm

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	apperrors "amoption/internal/errors"
)

// Fit is the result of a least-squares regression.
type Fit struct {
	Coefficients []float64 // in the caller's (unscaled) basis
	Fitted       []float64 // X * Coefficients
	Rank         int
}

// LeastSquares solves min ||X b - y||_2 through a thin SVD, truncating
// singular values below eps*max(rows, cols) of the largest. Rank-deficient
// and singular designs yield the minimum-norm solution rather than an error.
//
// Columns are equilibrated to unit norm before factorizing, so the minimum
// norm is taken in the scaled basis; the fitted values are the projection of
// y onto the retained column space either way. x is not modified.
func LeastSquares(x *mat.Dense, y []float64) (*Fit, error) {
	m, n := x.Dims()
	if len(y) != m {
		return nil, apperrors.NewValidationError("y", len(y), "length must match design rows")
	}

	scaled := mat.DenseCopyOf(x)
	norms := make([]float64, n)
	col := make([]float64, m)
	for j := 0; j < n; j++ {
		mat.Col(col, j, scaled)
		norms[j] = floats.Norm(col, 2)
		if norms[j] == 0 || math.IsNaN(norms[j]) || math.IsInf(norms[j], 0) {
			norms[j] = 1
		}
	}
	for i := 0; i < m; i++ {
		row := scaled.RawRowView(i)
		for j := range row {
			row[j] /= norms[j]
		}
	}

	fit := &Fit{
		Coefficients: make([]float64, n),
		Fitted:       make([]float64, m),
	}

	var svd mat.SVD
	if ok := svd.Factorize(scaled, mat.SVDThin); !ok {
		return nil, apperrors.NewComputationError("svd", 0, apperrors.ErrNonFinite)
	}
	rcond := eps * float64(max(m, n))
	fit.Rank = svd.Rank(rcond)
	if fit.Rank == 0 {
		return fit, nil
	}

	var coef mat.VecDense
	svd.SolveVecTo(&coef, mat.NewVecDense(m, y), fit.Rank)
	mat.NewVecDense(m, fit.Fitted).MulVec(scaled, &coef)
	for j := 0; j < n; j++ {
		fit.Coefficients[j] = coef.AtVec(j) / norms[j]
	}
	return fit, nil
}

const eps = 0x1p-52
