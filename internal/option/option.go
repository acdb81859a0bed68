// Package option describes an American-style contract on a diffusing underlying.
package option

import (
	"math"

	"amoption/internal/diffusion"
	apperrors "amoption/internal/errors"
)

// Payoff is the immediate exercise value at time t given the prices
// x_0, ..., x_t observed so far. history is never empty.
type Payoff func(t float64, history []float64) float64

// Contract holds the caller-supplied configuration of one pricing run.
// Its functions must be pure; they may be called any number of times.
type Contract struct {
	Spot       float64
	Payoff     Payoff
	Expiry     float64 // years
	Dispersion diffusion.Dispersion
	Rate       diffusion.RateCurve
}

// Validate rejects a contract before any simulation work is done.
// The dispersion is probed at (0, Spot), so a negative volatility fails
// here rather than mid-simulation.
func (c *Contract) Validate() error {
	if !(c.Spot > 0) || math.IsInf(c.Spot, 0) {
		return apperrors.NewValidationError("spot", c.Spot, "must be positive")
	}
	if !(c.Expiry > 0) || math.IsInf(c.Expiry, 0) {
		return apperrors.NewValidationError("expiry", c.Expiry, "must be positive")
	}
	if c.Payoff == nil {
		return apperrors.NewValidationError("payoff", nil, "is required")
	}
	if c.Rate == nil {
		return apperrors.NewValidationError("rate", nil, "is required")
	}
	if c.Dispersion == nil {
		return apperrors.NewValidationError("dispersion", nil, "is required")
	}
	if d := c.Dispersion(0, c.Spot); d < 0 {
		return apperrors.NewValidationError("dispersion", d, "must be non-negative")
	} else if math.IsNaN(d) || math.IsInf(d, 0) {
		return apperrors.NonFinite("dispersion", d)
	}
	return nil
}

// Intrinsic is the payoff of exercising immediately at time 0.
func (c *Contract) Intrinsic() float64 {
	return c.Payoff(0, []float64{c.Spot})
}

// Discount returns exp(-ir(t)).
func (c *Contract) Discount(t float64) float64 {
	return math.Exp(-c.Rate(t))
}
