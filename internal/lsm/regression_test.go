package lsm

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestLeastSquares_ExactFit(t *testing.T) {
	// y = 2 + 3x
	x := mat.NewDense(4, 2, []float64{
		1, 0,
		1, 1,
		1, 2,
		1, 3,
	})
	y := []float64{2, 5, 8, 11}
	fit, err := LeastSquares(x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fit.Rank != 2 {
		t.Errorf("expected rank 2, got %d", fit.Rank)
	}
	if math.Abs(fit.Coefficients[0]-2) > 1e-10 || math.Abs(fit.Coefficients[1]-3) > 1e-10 {
		t.Errorf("expected coefficients [2 3], got %v", fit.Coefficients)
	}
	for i := range y {
		if math.Abs(fit.Fitted[i]-y[i]) > 1e-10 {
			t.Errorf("row %d: expected %v, got %v", i, y[i], fit.Fitted[i])
		}
	}
}

func TestLeastSquares_RankDeficient(t *testing.T) {
	// Second column duplicates the first; the fit is the mean of y.
	x := mat.NewDense(3, 2, []float64{
		1, 1,
		1, 1,
		1, 1,
	})
	y := []float64{1, 2, 6}
	fit, err := LeastSquares(x, y)
	if err != nil {
		t.Fatalf("rank deficiency must not be fatal: %v", err)
	}
	if fit.Rank != 1 {
		t.Errorf("expected rank 1, got %d", fit.Rank)
	}
	for i := range y {
		if math.Abs(fit.Fitted[i]-3) > 1e-10 {
			t.Errorf("row %d: expected 3, got %v", i, fit.Fitted[i])
		}
	}
	// Minimum norm splits the weight evenly.
	if math.Abs(fit.Coefficients[0]-fit.Coefficients[1]) > 1e-10 {
		t.Errorf("expected equal coefficients, got %v", fit.Coefficients)
	}
}

func TestLeastSquares_ZeroDesign(t *testing.T) {
	x := mat.NewDense(3, 2, nil)
	fit, err := LeastSquares(x, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fit.Rank != 0 {
		t.Errorf("expected rank 0, got %d", fit.Rank)
	}
	for i, v := range fit.Fitted {
		if v != 0 {
			t.Errorf("row %d: expected 0, got %v", i, v)
		}
	}
}

func TestLeastSquares_FewerRowsThanColumns(t *testing.T) {
	x := mat.NewDense(1, 3, []float64{1, 80, 6400})
	fit, err := LeastSquares(x, []float64{4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(fit.Fitted[0]-4) > 1e-8 {
		t.Errorf("expected exact interpolation, got %v", fit.Fitted[0])
	}
}

func TestLeastSquares_LengthMismatch(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 1})
	if _, err := LeastSquares(x, []float64{1}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func TestLaguerre(t *testing.T) {
	fs := Laguerre(4)
	x := []float64{80}
	want := []float64{
		1,
		1 - 80,
		(80*80 - 4*80 + 2) / 2.0,
		(-80*80*80 + 9*80*80 - 18*80 + 6) / 6.0,
	}
	for k, f := range fs {
		if got := f(0, x); math.Abs(got-want[k]) > 1e-9*math.Max(1, math.Abs(want[k])) {
			t.Errorf("L_%d(80): expected %v, got %v", k, want[k], got)
		}
	}
}

func TestNewBasis(t *testing.T) {
	fs, err := NewBasis("monomial", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fs[2](0, []float64{1, 2, 3}); got != 9 {
		t.Errorf("expected 9, got %v", got)
	}
	if _, err := NewBasis("hermite", 3); err == nil {
		t.Error("expected error for unknown basis")
	}
	if _, err := NewBasis("laguerre", 0); err == nil {
		t.Error("expected error for empty basis")
	}
}
