package cli

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"amoption/internal/blackscholes"
	apperrors "amoption/internal/errors"
	"amoption/internal/logging"
	"amoption/internal/lsm"
	"amoption/internal/option"
	"amoption/internal/recorder"
)

// PriceReport is the result of a pricing command.
type PriceReport struct {
	Method       string           `json:"method" yaml:"method"`
	Kind         string           `json:"kind" yaml:"kind"`
	Price        decimal.Decimal  `json:"price" yaml:"price"`
	StdErr       *decimal.Decimal `json:"std_err,omitempty" yaml:"std_err,omitempty"`
	Intrinsic    *decimal.Decimal `json:"intrinsic,omitempty" yaml:"intrinsic,omitempty"`
	Continuation *decimal.Decimal `json:"continuation,omitempty" yaml:"continuation,omitempty"`
	Exercises    *int             `json:"exercises,omitempty" yaml:"exercises,omitempty"`
	European     *decimal.Decimal `json:"european,omitempty" yaml:"european,omitempty"`
	Steps        int              `json:"steps,omitempty" yaml:"steps,omitempty"`
	Paths        int              `json:"paths,omitempty" yaml:"paths,omitempty"`
	Seed         uint64           `json:"seed,omitempty" yaml:"seed,omitempty"`
	Duration     string           `json:"duration" yaml:"duration"`
}

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price the configured contract",
	}
	cmd.AddCommand(newPriceLSMCmd(app))
	cmd.AddCommand(newPriceBSCmd(app))
	return cmd
}

func newPriceLSMCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsm",
		Short: "Price by least squares Monte Carlo",
		Long: `Simulate the configured diffusion and value early exercise by
backward induction, regressing discounted cash flows on the chosen basis.
For plain calls and puts the European Black-Scholes value is shown alongside.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			noBS, _ := cmd.Flags().GetBool("no-bs")
			return app.runLSM(cmd, !noBS)
		},
	}
	cmd.Flags().Bool("no-bs", false, "skip the Black-Scholes comparison")
	return cmd
}

func (app *App) runLSM(cmd *cobra.Command, compare bool) error {
	sim := app.Config.Simulation
	contract, err := app.contract()
	if err != nil {
		return err
	}
	features, err := lsm.NewBasis(sim.Basis, sim.BasisSize)
	if err != nil {
		return err
	}

	logger := logging.WithRun(logging.WithMethod(app.Logger, "lsm"), sim.Seed, sim.NumDt, sim.NumPaths)
	pricer := lsm.NewPricer(sim.Seed)
	pricer.Simulator.Workers = sim.Workers
	pricer.Simulator.Logger = logger
	pricer.Logger = logger

	start := time.Now()
	res, err := pricer.Value(contract, sim.NumDt, sim.NumPaths, features)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logging.LogValuation(logger, "lsm", res.Price, res.StdErr, elapsed)
	app.record(&recorder.Run{
		Method:   "lsm",
		NumDt:    sim.NumDt,
		NumPaths: sim.NumPaths,
		Seed:     sim.Seed,
		Price:    res.Price,
		StdErr:   res.StdErr,
		Duration: elapsed,
	})

	exercises := res.Exercises
	report := PriceReport{
		Method:       "lsm",
		Kind:         app.Config.Contract.Kind,
		Price:        round(res.Price),
		StdErr:       roundPtr(res.StdErr),
		Intrinsic:    roundPtr(res.Intrinsic),
		Continuation: roundPtr(res.Continuation),
		Exercises:    &exercises,
		Steps:        sim.NumDt,
		Paths:        sim.NumPaths,
		Seed:         sim.Seed,
		Duration:     elapsed.Round(time.Millisecond).String(),
	}
	var european float64
	hasEuropean := false
	if compare {
		if v, err := app.europeanPrice(); err == nil {
			european, hasEuropean = v, true
			report.European = roundPtr(v)
		} else if !apperrors.Is(err, apperrors.ErrInvalidArgument) {
			return err
		}
	}

	return NewOutput(cmd).Render(report, func(o *Output) {
		o.Printf("American %s, spot %s strike %s, %g years\n",
			report.Kind, o.Money(contract.Spot), o.Money(app.Config.Contract.Strike), contract.Expiry)
		o.Printf("LSM price:     %s  (std err %.4f)\n", o.Money(res.Price), res.StdErr)
		o.Printf("Intrinsic:     %s\n", o.Money(res.Intrinsic))
		o.Printf("Continuation:  %s\n", o.Money(res.Continuation))
		o.Printf("Exercises:     %d over %d paths x %d steps\n", res.Exercises, sim.NumPaths, sim.NumDt)
		if hasEuropean {
			o.Printf("Black-Scholes: %s  (early exercise premium %s)\n",
				o.Money(european), o.Money(res.Price-european))
		}
		o.Printf("Elapsed:       %s\n", report.Duration)
	})
}

func newPriceBSCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "bs",
		Short: "Price the European counterpart by Black-Scholes",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			price, err := app.europeanPrice()
			if err != nil {
				return err
			}
			elapsed := time.Since(start)
			logging.LogValuation(logging.WithMethod(app.Logger, "bs"), "bs", price, 0, elapsed)
			app.record(&recorder.Run{Method: "bs", Price: price, Duration: elapsed})

			report := PriceReport{
				Method:   "bs",
				Kind:     app.Config.Contract.Kind,
				Price:    round(price),
				Duration: elapsed.String(),
			}
			return NewOutput(cmd).Render(report, func(o *Output) {
				o.Printf("European %s Black-Scholes price: %s\n", report.Kind, o.Money(price))
			})
		},
	}
}

// europeanPrice prices the configured contract as a European option.
// Path dependent payoffs have no closed form.
func (app *App) europeanPrice() (float64, error) {
	c := app.Config.Contract
	p := blackscholes.Params{
		Spot:   c.Spot,
		Strike: c.Strike,
		Expiry: c.Expiry,
		Rate:   c.Rate,
		Sigma:  c.Sigma,
	}
	switch option.Kind(c.Kind) {
	case option.KindCall:
		return blackscholes.Call(p)
	case option.KindPut:
		return blackscholes.Put(p)
	}
	return 0, apperrors.NewValidationError("contract.kind", c.Kind, "no Black-Scholes value for path dependent payoffs")
}
