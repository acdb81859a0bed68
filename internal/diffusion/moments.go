// Package diffusion simulates the risk-neutral underlying
//
//	dx_t = r_t x_t dt + dispersion(t, x_t) dz_t
//
// where the short rate enters only through its integral ir(t) = ∫_0^t r_u du,
// so the discount factor to time t is exp(-ir(t)).
package diffusion

import (
	"math"

	apperrors "amoption/internal/errors"
)

// RateCurve returns the integrated risk-free rate ir(t).
type RateCurve func(t float64) float64

// Dispersion returns the diffusion coefficient at (t, x_t).
type Dispersion func(t, x float64) float64

// FlatRate is the integrated curve of a constant short rate r.
func FlatRate(r float64) RateCurve {
	return func(t float64) float64 { return r * t }
}

// ProportionalDispersion is sigma * x, i.e. geometric Brownian motion.
func ProportionalDispersion(sigma float64) Dispersion {
	return func(_, x float64) float64 { return sigma * x }
}

// ConstantDispersion ignores time and price.
func ConstantDispersion(s float64) Dispersion {
	return func(_, _ float64) float64 { return s }
}

// Moments returns the mean and variance of x_{t+dt} given x_t = price.
//
// The drift over [t, t+dt] is taken from the rate curve as
// g = exp(ir(t+dt) - ir(t)), and the local log-volatility dispersion/price is
// frozen over the step, giving the lognormal moments
//
//	mean     = price * g
//	variance = mean^2 * (exp(vol^2 dt) - 1)
//
// dt must be positive. The rate curve and dispersion are only evaluated.
func Moments(price, t, dt float64, rate RateCurve, disp Dispersion) (float64, float64, error) {
	growth := exp(rate(t+dt) - rate(t))
	if !finite(growth) {
		return 0, 0, apperrors.NonFinite("rate growth", growth)
	}
	d := disp(t, price)
	if !finite(d) {
		return 0, 0, apperrors.NonFinite("dispersion", d)
	}
	if d < 0 {
		return 0, 0, apperrors.NewValidationError("dispersion", d, "must be non-negative")
	}

	mean := price * growth
	var variance float64
	if price > 0 {
		vol := d / price
		variance = sqr(mean) * math.Expm1(sqr(vol)*dt)
	} else {
		// Off the lognormal support the Euler variance is used.
		variance = sqr(growth*d) * dt
	}
	if !finite(mean) || !finite(variance) {
		return 0, 0, apperrors.NonFinite("moments", mean+variance)
	}
	return mean, variance, nil
}

// helper functions

func sqr(x float64) float64 { return x * x }

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// local function aliases
var exp = math.Exp
var sqrt = math.Sqrt
