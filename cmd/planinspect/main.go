package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdrpinto/planinspect/config"
	"github.com/pdrpinto/planinspect/logging"
)

var (
	// Global flags
	configFile string
	verbose    bool

	v      = config.New()
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "planinspect",
	Short: "Step through a path planner's search and inspect every state",
	Long: `planinspect wraps a steppable A* planner and records the search one step
at a time. Each recorded state lists the nodes expanded at that step, the
open frontier, and the plan once it has been found.

Scenarios are YAML files describing waypoints, lanes, starts and a goal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v, configFile)
		if err != nil {
			return err
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./planinspect.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().Int("workers", 0, "planner worker goroutines (0 = one per CPU)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize summaries: auto, always, never")
	_ = v.BindPFlag("planner.workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = v.BindPFlag("run.color", rootCmd.PersistentFlags().Lookup("color"))

	rootCmd.AddCommand(runCmd, serveCmd, validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
