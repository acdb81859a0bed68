// Package config provides configuration management for the pricer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"amoption/internal/diffusion"
	apperrors "amoption/internal/errors"
	"amoption/internal/logging"
	"amoption/internal/option"
)

// Config holds all application configuration.
type Config struct {
	Contract   ContractConfig    `mapstructure:"contract"`
	Simulation SimulationConfig  `mapstructure:"simulation"`
	RL         RLConfig          `mapstructure:"rl"`
	Log        logging.LogConfig `mapstructure:"log"`
	Recorder   RecorderConfig    `mapstructure:"recorder"`
}

// ContractConfig describes the option under a flat rate and GBM dispersion.
type ContractConfig struct {
	Kind   string  `mapstructure:"kind"` // call, put, asian-call, asian-put
	Spot   float64 `mapstructure:"spot"`
	Strike float64 `mapstructure:"strike"`
	Expiry float64 `mapstructure:"expiry"` // years
	Rate   float64 `mapstructure:"rate"`
	Sigma  float64 `mapstructure:"sigma"`
}

// SimulationConfig holds the LSM grid and regression basis.
type SimulationConfig struct {
	NumDt     int    `mapstructure:"num_dt"`
	NumPaths  int    `mapstructure:"num_paths"`
	Seed      uint64 `mapstructure:"seed"`
	Workers   int    `mapstructure:"workers"` // 0 uses all CPUs
	Basis     string `mapstructure:"basis"`   // laguerre, monomial
	BasisSize int    `mapstructure:"basis_size"`
}

// RLConfig holds the settings of MDP rollouts.
type RLConfig struct {
	Episodes          int     `mapstructure:"episodes"`
	ExerciseThreshold float64 `mapstructure:"exercise_threshold"`
}

// RecorderConfig holds the run journal location. Empty disables it.
type RecorderConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/amoption"
	}
	return filepath.Join(home, ".config", "amoption")
}

// Load reads pricing.yaml from configDir, the working directory or the
// default config directory, applies AMOPTION_* environment overrides and
// validates the result. A missing file is not an error.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("pricing")
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")
	v.AddConfigPath(DefaultConfigDir())

	v.SetEnvPrefix("AMOPTION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrConfigInvalid, err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("contract.kind", string(option.KindCall))
	v.SetDefault("contract.spot", 80.0)
	v.SetDefault("contract.strike", 85.0)
	v.SetDefault("contract.expiry", 3.0)
	v.SetDefault("contract.rate", 0.03)
	v.SetDefault("contract.sigma", 0.25)

	v.SetDefault("simulation.num_dt", 30)
	v.SetDefault("simulation.num_paths", 10000)
	v.SetDefault("simulation.seed", 355)
	v.SetDefault("simulation.workers", 0)
	v.SetDefault("simulation.basis", "laguerre")
	v.SetDefault("simulation.basis_size", 10)

	v.SetDefault("rl.episodes", 10000)
	v.SetDefault("rl.exercise_threshold", 0.0)

	lc := logging.DefaultLogConfig()
	v.SetDefault("log.level", lc.Level)
	v.SetDefault("log.console", lc.Console)
	v.SetDefault("log.file", lc.File)
	v.SetDefault("log.file_path", lc.FilePath)
	v.SetDefault("log.max_size", lc.MaxSize)
	v.SetDefault("log.max_backups", lc.MaxBackups)
	v.SetDefault("log.max_age", lc.MaxAge)

	v.SetDefault("recorder.sqlite_path", "")
}

// Validate checks the configuration before any simulation work.
func (c *Config) Validate() error {
	ct := c.Contract
	if _, err := option.NewPayoff(option.Kind(ct.Kind), ct.Strike); err != nil {
		return apperrors.NewValidationError("contract.kind", ct.Kind, err.Error())
	}
	if ct.Spot <= 0 {
		return apperrors.NewValidationError("contract.spot", ct.Spot, "must be positive")
	}
	if ct.Expiry <= 0 {
		return apperrors.NewValidationError("contract.expiry", ct.Expiry, "must be positive")
	}
	if ct.Sigma < 0 {
		return apperrors.NewValidationError("contract.sigma", ct.Sigma, "must be non-negative")
	}
	s := c.Simulation
	if s.NumDt <= 0 {
		return apperrors.NewValidationError("simulation.num_dt", s.NumDt, "must be positive")
	}
	if s.NumPaths <= 0 {
		return apperrors.NewValidationError("simulation.num_paths", s.NumPaths, "must be positive")
	}
	if s.Workers < 0 {
		return apperrors.NewValidationError("simulation.workers", s.Workers, "must be non-negative")
	}
	if s.Basis != "laguerre" && s.Basis != "monomial" {
		return apperrors.NewValidationError("simulation.basis", s.Basis, "must be laguerre or monomial")
	}
	if s.BasisSize <= 0 {
		return apperrors.NewValidationError("simulation.basis_size", s.BasisSize, "must be positive")
	}
	if c.RL.Episodes <= 0 {
		return apperrors.NewValidationError("rl.episodes", c.RL.Episodes, "must be positive")
	}
	return nil
}

// Contract builds the option contract the configuration describes.
func (c ContractConfig) Contract() (option.Contract, error) {
	payoff, err := option.NewPayoff(option.Kind(c.Kind), c.Strike)
	if err != nil {
		return option.Contract{}, err
	}
	oc := option.Contract{
		Spot:       c.Spot,
		Payoff:     payoff,
		Expiry:     c.Expiry,
		Dispersion: diffusion.ProportionalDispersion(c.Sigma),
		Rate:       diffusion.FlatRate(c.Rate),
	}
	return oc, oc.Validate()
}
