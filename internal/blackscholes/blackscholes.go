// Package blackscholes prices European options in closed form. It is the
// reference the Monte Carlo engines are checked against.
package blackscholes

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	apperrors "amoption/internal/errors"
)

// Params are the inputs of the Black-Scholes formula.
type Params struct {
	Spot   float64
	Strike float64
	Expiry float64 // years
	Rate   float64 // continuously compounded
	Sigma  float64
}

func (p Params) validate() error {
	if !(p.Spot > 0) {
		return apperrors.NewValidationError("spot", p.Spot, "must be positive")
	}
	if !(p.Strike > 0) {
		return apperrors.NewValidationError("strike", p.Strike, "must be positive")
	}
	if !(p.Expiry > 0) {
		return apperrors.NewValidationError("expiry", p.Expiry, "must be positive")
	}
	if p.Sigma < 0 || math.IsNaN(p.Sigma) {
		return apperrors.NewValidationError("sigma", p.Sigma, "must be non-negative")
	}
	return nil
}

// Call returns the European call price.
func Call(p Params) (float64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	df := math.Exp(-p.Rate * p.Expiry)
	if p.Sigma == 0 {
		return math.Max(p.Spot-p.Strike*df, 0), nil
	}
	d1, d2 := d(p)
	return p.Spot*normCDF(d1) - p.Strike*df*normCDF(d2), nil
}

// Put returns the European put price.
func Put(p Params) (float64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	df := math.Exp(-p.Rate * p.Expiry)
	if p.Sigma == 0 {
		return math.Max(p.Strike*df-p.Spot, 0), nil
	}
	d1, d2 := d(p)
	return p.Strike*df*normCDF(-d2) - p.Spot*normCDF(-d1), nil
}

func d(p Params) (float64, float64) {
	sqrtT := math.Sqrt(p.Expiry)
	d1 := (math.Log(p.Spot/p.Strike) + (p.Rate+0.5*p.Sigma*p.Sigma)*p.Expiry) / (p.Sigma * sqrtT)
	return d1, d1 - p.Sigma*sqrtT
}

func normCDF(x float64) float64 { return distuv.UnitNormal.CDF(x) }
