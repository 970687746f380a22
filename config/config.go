package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdrpinto/planinspect/search"
)

// EnvPrefix prefixes environment overrides, e.g. PLANINSPECT_RUN_MAX_STEPS.
const EnvPrefix = "PLANINSPECT"

// Config represents the complete planinspect configuration
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Planner PlannerConfig `mapstructure:"planner"`
	Run     RunConfig     `mapstructure:"run"`
	Serve   ServeConfig   `mapstructure:"serve"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format is "json" or "console"
	Format string `mapstructure:"format"`
}

// PlannerConfig holds planner options used when a scenario leaves them unset
type PlannerConfig struct {
	Workers         int     `mapstructure:"workers"`
	HeuristicWeight float64 `mapstructure:"heuristic_weight"`
	MaxExpansions   int     `mapstructure:"max_expansions"`
}

// RunConfig controls the run command
type RunConfig struct {
	// MaxSteps stops stepping after this many steps (0 = until the plan is found or the search is exhausted)
	MaxSteps int `mapstructure:"max_steps"`
	// PrintEvery prints every n-th state (0 disables per-step printing)
	PrintEvery int `mapstructure:"print_every"`
	// Color is "auto", "always" or "never"
	Color string `mapstructure:"color"`
}

// ServeConfig controls the HTTP stepping server
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Planner: PlannerConfig{
			HeuristicWeight: 1,
		},
		Run: RunConfig{
			MaxSteps:   1000,
			PrintEvery: 1,
			Color:      "auto",
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// SetDefaults registers Default() with v.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)

	v.SetDefault("planner.workers", defaults.Planner.Workers)
	v.SetDefault("planner.heuristic_weight", defaults.Planner.HeuristicWeight)
	v.SetDefault("planner.max_expansions", defaults.Planner.MaxExpansions)

	v.SetDefault("run.max_steps", defaults.Run.MaxSteps)
	v.SetDefault("run.print_every", defaults.Run.PrintEvery)
	v.SetDefault("run.color", defaults.Run.Color)

	v.SetDefault("serve.addr", defaults.Serve.Addr)
}

// New returns a viper instance with defaults and environment overrides.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from path, or from planinspect.yaml in the
// working directory when path is empty and such a file exists.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("planinspect")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge fills the unset fields of options from the planner defaults.
func (c PlannerConfig) Merge(options search.Options) search.Options {
	if options.Workers == 0 {
		options.Workers = c.Workers
	}
	if options.HeuristicWeight == 0 {
		options.HeuristicWeight = c.HeuristicWeight
	}
	if options.MaxExpansions == 0 {
		options.MaxExpansions = c.MaxExpansions
	}
	return options
}
