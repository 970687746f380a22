package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdrpinto/planinspect/astar"
	"github.com/pdrpinto/planinspect/scenario"
)

// validateCmd checks a scenario without stepping it
var validateCmd = &cobra.Command{
	Use:   "validate <scenario.yaml>",
	Short: "Check a scenario and whether its goal is reachable",
	Args:  cobra.ExactArgs(1),
	RunE:  validateScenario,
}

func validateScenario(cmd *cobra.Command, args []string) error {
	s, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	graph, err := s.Graph()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	st := newStyles(cfg.Run.Color, out)
	lanes := 0
	for wp := 0; wp < graph.Len(); wp++ {
		lanes += len(graph.Neighbors(wp))
	}
	fmt.Fprintln(out, st.header.Render(fmt.Sprintf("Scenario %s: %d waypoints, %d lanes", s.Name, graph.Len(), lanes)))

	result, err := astar.Search(cmd.Context(), astar.NewPlanner(graph), s.SearchStarts(), s.SearchGoal(), cfg.Planner.Merge(s.SearchOptions()))
	if errors.Is(err, astar.ErrNoPath) {
		fmt.Fprintln(out, st.failed.Render(fmt.Sprintf("Goal %s unreachable after %d expansions", s.Goal.Waypoint, result.ExpandedNodes)))
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, st.done.Render(fmt.Sprintf("Reachable in %d expansions: %s", result.ExpandedNodes, describePlan(s, result.Plan))))
	return nil
}
