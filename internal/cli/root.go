// Package cli provides the command-line interface for the pricer.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"amoption/internal/config"
	"amoption/internal/logging"
	"amoption/internal/option"
	"amoption/internal/recorder"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies. They are resolved once the
// command line is parsed, since --config decides where they come from.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Recorder recorder.Recorder
}

// NewApp creates an App that logs to the console until configured.
func NewApp() *App {
	return &App{
		Logger:   logging.NewLogger(),
		Recorder: recorder.NewNoopRecorder(),
	}
}

// Close releases the run journal.
func (app *App) Close() error {
	if app.Recorder == nil {
		return nil
	}
	return app.Recorder.Close()
}

// Execute runs the command tree on the process arguments.
func Execute() error {
	app := NewApp()
	defer app.Close()
	return NewRootCmd(app).Execute()
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "amoption",
		Short: "American option pricing by least squares Monte Carlo",
		Long: `amoption prices American options on a single underlying with the
Longstaff-Schwartz least squares Monte Carlo algorithm.

It also exposes the exercise problem as a Markov decision process and
can roll out threshold exercise policies through it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/amoption)")
	rootCmd.PersistentFlags().StringP("output", "o", FormatText, "output format: text, json or yaml")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Uint64("seed", 0, "override simulation.seed")
	rootCmd.PersistentFlags().Int("paths", 0, "override simulation.num_paths")
	rootCmd.PersistentFlags().Int("steps", 0, "override simulation.num_dt")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newMDPCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))

	return rootCmd
}

// setup loads the configuration, applies flag overrides and builds the
// logger and the run journal.
func (app *App) setup(cmd *cobra.Command) error {
	format, _ := cmd.Flags().GetString("output")
	if err := validateFormat(format); err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Simulation.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("paths") {
		cfg.Simulation.NumPaths, _ = flags.GetInt("paths")
	}
	if flags.Changed("steps") {
		cfg.Simulation.NumDt, _ = flags.GetInt("steps")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.Config = cfg

	app.Logger = logging.NewLoggerWithConfig(cfg.Log)
	if debug, _ := flags.GetBool("debug"); debug {
		app.Logger = app.Logger.Level(zerolog.DebugLevel)
	}

	if cfg.Recorder.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Recorder.SQLitePath, app.Logger)
		if err != nil {
			app.Logger.Warn().Err(err).Msg("Failed to open run journal, runs will not be recorded")
		} else {
			app.Recorder.Close()
			app.Recorder = sr
		}
	}
	return nil
}

// record journals a run, logging rather than failing on error.
func (app *App) record(run *recorder.Run) {
	c := app.Config.Contract
	run.Kind = c.Kind
	run.Spot, run.Strike, run.Expiry = c.Spot, c.Strike, c.Expiry
	run.Rate, run.Sigma = c.Rate, c.Sigma
	if err := app.Recorder.RecordRun(run); err != nil {
		app.Logger.Warn().Err(err).Str("method", run.Method).Msg("Failed to record run")
	}
}

func (app *App) contract() (option.Contract, error) {
	return app.Config.Contract.Contract()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := map[string]string{
				"version":    Version,
				"build_date": BuildDate,
			}
			return NewOutput(cmd).Render(v, func(o *Output) {
				o.Printf("amoption %s (built %s)\n", Version, BuildDate)
			})
		},
	}
}
