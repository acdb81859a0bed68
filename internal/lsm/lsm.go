// Package lsm prices American options with the Longstaff-Schwartz least
// squares Monte Carlo algorithm.
package lsm

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"amoption/internal/diffusion"
	apperrors "amoption/internal/errors"
	"amoption/internal/option"
)

// Pricer runs backward induction over simulated paths.
type Pricer struct {
	Simulator *diffusion.Simulator
	Logger    zerolog.Logger
}

// NewPricer creates a Pricer whose simulator is seeded with seed.
func NewPricer(seed uint64) *Pricer {
	return &Pricer{
		Simulator: diffusion.NewSimulator(seed),
		Logger:    zerolog.Nop(),
	}
}

// Result is the outcome of one LSM run.
type Result struct {
	Price        float64 // max(Intrinsic, Continuation)
	Intrinsic    float64 // payoff(0, [spot])
	Continuation float64 // mean discounted cash flow over paths
	StdErr       float64 // Monte Carlo standard error of Continuation
	Exercises    int     // early exercise decisions taken over all steps
}

// Price returns the LSM estimate of the option value.
func (p *Pricer) Price(c option.Contract, numDt, numPaths int, features []FeatureFunc) (float64, error) {
	res, err := p.Value(c, numDt, numPaths, features)
	if err != nil {
		return 0, err
	}
	return res.Price, nil
}

// Value runs the full algorithm and reports its diagnostics.
func (p *Pricer) Value(c option.Contract, numDt, numPaths int, features []FeatureFunc) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if numDt <= 0 {
		return nil, apperrors.NewValidationError("num_dt", numDt, "must be positive")
	}
	if numPaths <= 0 {
		return nil, apperrors.NewValidationError("num_paths", numPaths, "must be positive")
	}
	if len(features) == 0 {
		return nil, apperrors.NewValidationError("feature_funcs", 0, "at least one feature is required")
	}

	// Simulate the price paths
	paths, err := p.Simulator.Simulate(c.Spot, c.Expiry, numDt, numPaths, c.Rate, c.Dispersion)
	if err != nil {
		return nil, err
	}
	dt := c.Expiry / float64(numDt)

	// Set the terminal cash flows
	cash := make([]float64, numPaths)
	for i := range cash {
		v := c.Payoff(c.Expiry, paths.RawRowView(i))
		if !finite(v) {
			return nil, apperrors.NewComputationError("payoff", numDt, apperrors.NonFinite("payoff", v))
		}
		cash[i] = math.Max(v, 0)
	}

	// Backward induction. Step 0 is settled by the final comparison below.
	ind := &induction{contract: c, paths: paths, features: features, dt: dt, logger: p.Logger}
	res := &Result{}
	for k := numDt - 1; k >= 1; k-- {
		n, err := ind.step(k, cash)
		if err != nil {
			return nil, err
		}
		res.Exercises += n
	}

	// Discount one last time to the initial period
	floats.Scale(c.Discount(dt), cash)

	res.Intrinsic = c.Intrinsic()
	if numPaths > 1 {
		mean, std := stat.MeanStdDev(cash, nil)
		res.Continuation = mean
		res.StdErr = std / math.Sqrt(float64(numPaths))
	} else {
		res.Continuation = cash[0]
	}
	if !finite(res.Continuation) {
		return nil, apperrors.NewComputationError("average", 0, apperrors.NonFinite("continuation", res.Continuation))
	}
	res.Price = math.Max(res.Intrinsic, res.Continuation)

	p.Logger.Info().
		Float64("price", res.Price).
		Float64("intrinsic", res.Intrinsic).
		Float64("continuation", res.Continuation).
		Float64("std_err", res.StdErr).
		Int("exercises", res.Exercises).
		Msg("LSM valuation complete")
	return res, nil
}

// induction carries the read-only inputs of the backward fold.
type induction struct {
	contract option.Contract
	paths    *mat.Dense
	features []FeatureFunc
	dt       float64
	logger   zerolog.Logger
}

// step advances the fold from step k+1 to step k. On entry cash holds the
// realized cash flows valued at t_{k+1}; on return they are valued at t_k.
// Every path is discounted by one step, and only in-the-money paths whose
// payoff beats the regressed continuation value are overwritten. It returns
// the number of exercises.
func (ind *induction) step(k int, cash []float64) (int, error) {
	c := ind.contract
	t := float64(k) * ind.dt

	// Discount the realized future cash flows to t
	floats.Scale(math.Exp(c.Rate(t)-c.Rate(t+ind.dt)), cash)

	// Immediate payoffs on the prefixes x_0..x_k
	var itm []int
	payoff := make([]float64, len(cash))
	for i := range cash {
		v := c.Payoff(t, ind.paths.RawRowView(i)[:k+1])
		if !finite(v) {
			return 0, apperrors.NewComputationError("payoff", k, apperrors.NonFinite("payoff", v))
		}
		payoff[i] = v
		if v > 0 {
			itm = append(itm, i)
		}
	}
	if len(itm) == 0 {
		ind.logger.Debug().Int("step", k).Msg("No paths in the money")
		return 0, nil
	}

	// Regress the discounted cash flows on the basis over the in-the-money paths
	design := mat.NewDense(len(itm), len(ind.features), nil)
	y := make([]float64, len(itm))
	for r, i := range itm {
		prefix := ind.paths.RawRowView(i)[:k+1]
		row := design.RawRowView(r)
		for j, f := range ind.features {
			v := f(t, prefix)
			if !finite(v) {
				return 0, apperrors.NewComputationError("feature", k, apperrors.NonFinite("feature", v))
			}
			row[j] = v
		}
		y[r] = cash[i]
	}
	fit, err := LeastSquares(design, y)
	if err != nil {
		// Without an estimate every path holds.
		ind.logger.Warn().Err(err).Int("step", k).Msg("Regression failed, holding all paths")
		return 0, nil
	}

	// Exercise where the payoff beats the estimated continuation value
	exercised := 0
	for r, i := range itm {
		if payoff[i] > fit.Fitted[r] {
			cash[i] = payoff[i]
			exercised++
		}
	}

	ind.logger.Debug().
		Int("step", k).
		Float64("t", t).
		Int("itm", len(itm)).
		Int("rank", fit.Rank).
		Int("exercised", exercised).
		Msg("Backward induction step")
	return exercised, nil
}

// helper functions

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
