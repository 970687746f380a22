package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "run.print_every")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid log encodings
func ValidLogFormats() []string {
	return []string{"json", "console"}
}

// ValidColorModes returns the list of valid run.color values
func ValidColorModes() []string {
	return []string{"auto", "always", "never"}
}

// Validate checks the configuration and returns ValidationErrors, or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{"logging.level", c.Logging.Level, "must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}
	if !slices.Contains(ValidLogFormats(), c.Logging.Format) {
		errs = append(errs, ValidationError{"logging.format", c.Logging.Format, "must be one of " + strings.Join(ValidLogFormats(), ", ")})
	}
	if c.Planner.Workers < 0 {
		errs = append(errs, ValidationError{"planner.workers", c.Planner.Workers, "must not be negative"})
	}
	if c.Planner.HeuristicWeight < 0 {
		errs = append(errs, ValidationError{"planner.heuristic_weight", c.Planner.HeuristicWeight, "must not be negative"})
	}
	if c.Planner.MaxExpansions < 0 {
		errs = append(errs, ValidationError{"planner.max_expansions", c.Planner.MaxExpansions, "must not be negative"})
	}
	if c.Run.MaxSteps < 0 {
		errs = append(errs, ValidationError{"run.max_steps", c.Run.MaxSteps, "must not be negative"})
	}
	if c.Run.PrintEvery < 0 {
		errs = append(errs, ValidationError{"run.print_every", c.Run.PrintEvery, "must not be negative"})
	}
	if !slices.Contains(ValidColorModes(), c.Run.Color) {
		errs = append(errs, ValidationError{"run.color", c.Run.Color, "must be one of " + strings.Join(ValidColorModes(), ", ")})
	}
	if c.Serve.Addr == "" {
		errs = append(errs, ValidationError{"serve.addr", c.Serve.Addr, "must not be empty"})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
