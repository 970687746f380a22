package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"go.uber.org/zap"

	"github.com/pdrpinto/planinspect"
	"github.com/pdrpinto/planinspect/astar"
	"github.com/pdrpinto/planinspect/scenario"
	"github.com/pdrpinto/planinspect/search"
)

// session is a loaded scenario with an inspector over its planner.
type session struct {
	scenario  *scenario.Scenario
	inspector *planinspect.Inspector
	options   search.Options
}

func openSession(path string) (*session, error) {
	s, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	graph, err := s.Graph()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	inspector, err := planinspect.New(astar.NewPlanner(graph), planinspect.WithLogger(logger.Named("inspector")))
	if err != nil {
		return nil, err
	}
	options := cfg.Planner.Merge(s.SearchOptions())
	logger.Debug("Scenario loaded",
		zap.String("scenario", s.Name),
		zap.Int("waypoints", graph.Len()),
		zap.Int("starts", len(s.Starts)),
		zap.String("goal", s.Goal.Waypoint),
		zap.String("session", inspector.SessionID()))
	return &session{scenario: s, inspector: inspector, options: options}, nil
}

// styles renders run/validate summaries.
type styles struct {
	header lipgloss.Style
	done   lipgloss.Style
	failed lipgloss.Style
	dim    lipgloss.Style
}

func newStyles(mode string, out io.Writer) styles {
	renderer := lipgloss.NewRenderer(out)
	switch mode {
	case "always":
		renderer.SetColorProfile(termenv.ANSI256)
	case "never":
		renderer.SetColorProfile(termenv.Ascii)
	default:
		if f, ok := out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
			renderer.SetColorProfile(termenv.Ascii)
		}
	}
	return styles{
		header: renderer.NewStyle().Bold(true),
		done:   renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		failed: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		dim:    renderer.NewStyle().Faint(true),
	}
}

// describePlan renders a plan with waypoint names.
func describePlan(s *scenario.Scenario, plan *search.Plan) string {
	route := ""
	for i, wp := range plan.Waypoints {
		if i > 0 {
			route += " -> "
		}
		route += s.WaypointName(wp.Waypoint)
	}
	return fmt.Sprintf("%s (cost %.3f)", route, plan.Cost)
}
