package lsm

import (
	"fmt"
	"math"
)

// FeatureFunc is one column of the regression design matrix, evaluated on
// (t, x_0..x_t).
type FeatureFunc func(t float64, history []float64) float64

// Laguerre returns the first n Laguerre polynomials L_0..L_{n-1} of the
// last observed price.
func Laguerre(n int) []FeatureFunc {
	fs := make([]FeatureFunc, n)
	for k := range fs {
		k := k
		fs[k] = func(_ float64, x []float64) float64 { return laguerre(k, x[len(x)-1]) }
	}
	return fs
}

// Monomials returns 1, x, ..., x^{n-1} of the last observed price.
func Monomials(n int) []FeatureFunc {
	fs := make([]FeatureFunc, n)
	for k := range fs {
		p := float64(k)
		fs[k] = func(_ float64, x []float64) float64 { return math.Pow(x[len(x)-1], p) }
	}
	return fs
}

// NewBasis builds a named basis of the given size.
func NewBasis(name string, size int) ([]FeatureFunc, error) {
	if size <= 0 {
		return nil, fmt.Errorf("basis size must be positive, got %d", size)
	}
	switch name {
	case "laguerre":
		return Laguerre(size), nil
	case "monomial":
		return Monomials(size), nil
	default:
		return nil, fmt.Errorf("unknown basis %q", name)
	}
}

// laguerre evaluates L_k(x) by the three-term recurrence
// (j+1) L_{j+1} = (2j+1-x) L_j - j L_{j-1}.
func laguerre(k int, x float64) float64 {
	prev, cur := 1.0, 1-x
	if k == 0 {
		return prev
	}
	for j := 1; j < k; j++ {
		fj := float64(j)
		prev, cur = cur, ((2*fj+1-x)*cur-fj*prev)/(fj+1)
	}
	return cur
}
