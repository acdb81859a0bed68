package cli

import (
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"amoption/internal/logging"
	"amoption/internal/mdp"
	"amoption/internal/recorder"
)

// RolloutReport is the result of evaluating an exercise policy.
type RolloutReport struct {
	Kind      string  `json:"kind" yaml:"kind"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Episodes  int     `json:"episodes" yaml:"episodes"`
	Steps     int     `json:"steps" yaml:"steps"`
	Seed      uint64  `json:"seed" yaml:"seed"`
	Value     string  `json:"value" yaml:"value"`
	StdErr    string  `json:"std_err" yaml:"std_err"`
	Duration  string  `json:"duration" yaml:"duration"`
}

func newMDPCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdp",
		Short: "Work with the exercise decision process",
	}
	cmd.AddCommand(newRolloutCmd(app))
	return cmd
}

func newRolloutCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollout",
		Short: "Evaluate a threshold exercise policy by simulation",
		Long: `Run episodes through the decision process, exercising as soon as the
payoff exceeds the threshold. The mean return is the value of that policy,
a lower bound on the American price.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rl := app.Config.RL
			if cmd.Flags().Changed("threshold") {
				rl.ExerciseThreshold, _ = cmd.Flags().GetFloat64("threshold")
			}
			if cmd.Flags().Changed("episodes") {
				rl.Episodes, _ = cmd.Flags().GetInt("episodes")
			}
			return app.runRollout(cmd, rl.ExerciseThreshold, rl.Episodes)
		},
	}
	cmd.Flags().Float64("threshold", 0, "exercise once the payoff exceeds this (overrides rl.exercise_threshold)")
	cmd.Flags().Int("episodes", 0, "number of episodes (overrides rl.episodes)")
	return cmd
}

func (app *App) runRollout(cmd *cobra.Command, threshold float64, episodes int) error {
	sim := app.Config.Simulation
	contract, err := app.contract()
	if err != nil {
		return err
	}
	adapter, err := mdp.NewAdapter(contract, rand.NewSource(sim.Seed))
	if err != nil {
		return err
	}
	problem, err := adapter.Problem(sim.NumDt)
	if err != nil {
		return err
	}

	logger := logging.WithRun(logging.WithMethod(app.Logger, "mdp-rollout"), sim.Seed, sim.NumDt, episodes)
	logger.Debug().Float64("threshold", threshold).Float64("dt", problem.Dt).Msg("Rolling out policy")

	start := time.Now()
	value, stdErr, err := mdp.Evaluate(problem, adapter.ThresholdPolicy(threshold), episodes)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logging.LogValuation(logger, "mdp-rollout", value, stdErr, elapsed)
	app.record(&recorder.Run{
		Method:   "mdp-rollout",
		NumDt:    sim.NumDt,
		NumPaths: episodes,
		Seed:     sim.Seed,
		Price:    value,
		StdErr:   stdErr,
		Duration: elapsed,
	})

	report := RolloutReport{
		Kind:      app.Config.Contract.Kind,
		Threshold: threshold,
		Episodes:  episodes,
		Steps:     sim.NumDt,
		Seed:      sim.Seed,
		Value:     round(value).String(),
		StdErr:    round(stdErr).String(),
		Duration:  elapsed.Round(time.Millisecond).String(),
	}
	return NewOutput(cmd).Render(report, func(o *Output) {
		o.Printf("Threshold policy (payoff > %g) over %d episodes\n", threshold, episodes)
		o.Printf("Policy value:  %s  (std err %.4f)\n", o.Money(value), stdErr)
		o.Printf("Elapsed:       %s\n", report.Duration)
	})
}
