package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdrpinto/planinspect"
	"github.com/pdrpinto/planinspect/search"
)

// runCmd steps a scenario in the terminal
var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Step a scenario's search and print each state",
	Long: `Begins the search described by the scenario and steps it until the plan
is found, the search stops making progress, or --max-steps is reached.

Example:
  planinspect run warehouse.yaml --print-every 10
  planinspect run warehouse.yaml --max-steps 3 --color never`,
	Args: cobra.ExactArgs(1),
	RunE: runScenario,
}

func init() {
	runCmd.Flags().Int("max-steps", 1000, "stop after this many steps (0 = no limit)")
	runCmd.Flags().Int("print-every", 1, "print every n-th state (0 = only the last)")
	_ = v.BindPFlag("run.max_steps", runCmd.Flags().Lookup("max-steps"))
	_ = v.BindPFlag("run.print_every", runCmd.Flags().Lookup("print-every"))
}

func runScenario(cmd *cobra.Command, args []string) error {
	sess, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer sess.inspector.Close()

	out := cmd.OutOrStdout()
	st := newStyles(cfg.Run.Color, out)
	inspector := sess.inspector
	ctx := cmd.Context()

	fmt.Fprintln(out, st.header.Render("Scenario "+sess.scenario.Name))
	if err := inspector.Begin(ctx, sess.scenario.SearchStarts(), sess.scenario.SearchGoal(), sess.options); err != nil {
		fmt.Fprintln(out, st.failed.Render("Search could not begin: "+err.Error()))
		return err
	}

	printEvery := cfg.Run.PrintEvery
	shouldPrint := func(state *planinspect.PlanningState) bool {
		return printEvery > 0 && state.StepIndex%printEvery == 0
	}
	last := inspector.State()
	if shouldPrint(last) {
		if err := last.Fprint(out); err != nil {
			return err
		}
	}

	maxSteps := cfg.Run.MaxSteps
	for steps := 0; maxSteps == 0 || steps < maxSteps; steps++ {
		if inspector.PlanCompleted() {
			break
		}
		if err := inspector.Step(ctx); err != nil {
			return err
		}
		state := inspector.State()
		if shouldPrint(state) {
			if err := state.Fprint(out); err != nil {
				return err
			}
		}
		if stalled(last, state) {
			logger.Debug("Search stopped making progress", zap.Int("step", state.StepIndex))
			break
		}
		last = state
	}

	final := inspector.State()
	if !shouldPrint(final) {
		if err := final.Fprint(out); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("%d states recorded", inspector.StepNum())
	fmt.Fprintln(out, st.dim.Render(summary))
	if plan := inspector.Plan(); plan != nil {
		fmt.Fprintln(out, st.done.Render("Plan: "+describePlan(sess.scenario, plan)))
		return nil
	}
	fmt.Fprintln(out, st.failed.Render("No plan found"))
	return nil
}

// stalled reports whether a step changed nothing: no new nodes and the same
// frontier as before.
func stalled(previous, current *planinspect.PlanningState) bool {
	if len(current.ExpandedNodes) > 0 || current.Plan != nil {
		return false
	}
	return sameNodes(previous.TerminalNodes, current.TerminalNodes)
}

func sameNodes(a, b []search.Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
