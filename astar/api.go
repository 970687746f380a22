package astar

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/pdrpinto/planinspect/search"
)

// ErrNoPath is returned by Search when the frontier runs out before the goal.
var ErrNoPath = errors.New("no path found")

// Position is a waypoint location in the plane.
type Position struct {
	X, Y float64
}

// Lane is a directed, weighted connection to another waypoint.
type Lane struct {
	To   int
	Cost float64
}

// Graph is a waypoint graph with directed lanes.
// Waypoints are numbered in insertion order starting at 0.
type Graph struct {
	positions []Position
	lanes     [][]Lane
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// AddWaypoint adds a waypoint and returns its index.
func (graph *Graph) AddWaypoint(x, y float64) int {
	graph.positions = append(graph.positions, Position{X: x, Y: y})
	graph.lanes = append(graph.lanes, nil)
	return len(graph.positions) - 1
}

// AddLane connects from to to. A non-positive cost is replaced by the
// straight-line length of the lane.
func (graph *Graph) AddLane(from, to int, cost float64) error {
	if !graph.Has(from) {
		return fmt.Errorf("lane %d->%d: %w %d", from, to, search.ErrUnknownWaypoint, from)
	}
	if !graph.Has(to) {
		return fmt.Errorf("lane %d->%d: %w %d", from, to, search.ErrUnknownWaypoint, to)
	}
	if cost <= 0 {
		cost = graph.Distance(from, to)
	}
	graph.lanes[from] = append(graph.lanes[from], Lane{To: to, Cost: cost})
	return nil
}

// Has reports whether waypoint exists.
func (graph *Graph) Has(waypoint int) bool {
	return waypoint >= 0 && waypoint < len(graph.positions)
}

// Len returns the number of waypoints.
func (graph *Graph) Len() int { return len(graph.positions) }

// Position returns the location of a waypoint.
func (graph *Graph) Position(waypoint int) Position {
	return graph.positions[waypoint]
}

// Neighbors returns the outgoing lanes of a waypoint.
func (graph *Graph) Neighbors(waypoint int) []Lane {
	if !graph.Has(waypoint) {
		return nil
	}
	return graph.lanes[waypoint]
}

// Distance is the Euclidean distance between two waypoints.
func (graph *Graph) Distance(from, to int) float64 {
	a, b := graph.positions[from], graph.positions[to]
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Heuristic returns the estimated cost from waypoint a to waypoint b
type Heuristic func(from int, to int) float64

// Options defines parameters for the planner.
type Options struct {
	NumberOfWorkers int
	Heuristic       Heuristic
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithWorkers specifies how many worker goroutines should expand neighbors.
func WithWorkers(numberOfWorkers int) Option {
	return func(options *Options) { options.NumberOfWorkers = numberOfWorkers }
}

// WithHeuristic replaces the default straight-line heuristic.
func WithHeuristic(heuristic Heuristic) Option {
	return func(options *Options) { options.Heuristic = heuristic }
}

// Planner plans over a fixed graph.
type Planner struct {
	graph   *Graph
	options Options
}

// NewPlanner creates a planner for graph.
func NewPlanner(graph *Graph, options ...Option) *Planner {
	plannerOptions := Options{NumberOfWorkers: runtime.NumCPU()}
	for _, option := range options {
		option(&plannerOptions)
	}
	if plannerOptions.Heuristic == nil && graph != nil {
		plannerOptions.Heuristic = graph.Distance
	}
	return &Planner{graph: graph, options: plannerOptions}
}

// Debug returns a handle that begins steppable searches.
func (planner *Planner) Debug() (search.Debugger, error) {
	if planner == nil || planner.graph == nil {
		return nil, errors.New("planner has no graph")
	}
	return &Debug{planner: planner}, nil
}

// Debug begins paused searches on behalf of a Planner.
type Debug struct {
	planner *Planner
}

// Begin validates the request and returns a Progress positioned before the
// first expansion.
func (debug *Debug) Begin(
	contextObject context.Context,
	starts []search.Start,
	goal search.Goal,
	options search.Options,
) (search.Progress, error) {
	progress, err := newProgress(contextObject, debug.planner, starts, goal, options)
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// Result contains the outcome of a search run to completion
type Result struct {
	Plan          *search.Plan
	ExpandedNodes int
	Found         bool
}

// Search runs a search to completion.
func Search(
	contextObject context.Context,
	planner *Planner,
	starts []search.Start,
	goal search.Goal,
	options search.Options,
) (Result, error) {
	progress, err := newProgress(contextObject, planner, starts, goal, options)
	if err != nil {
		return Result{}, err
	}
	defer progress.Close()

	for !progress.Exhausted() {
		plan, err := progress.Step(contextObject)
		if err != nil {
			return Result{ExpandedNodes: progress.Expansions()}, err
		}
		if plan != nil {
			return Result{Plan: plan, ExpandedNodes: progress.Expansions(), Found: true}, nil
		}
	}
	return Result{ExpandedNodes: progress.Expansions()}, ErrNoPath
}

// heading is the direction of travel from a to b, or fallback when the
// points coincide.
func heading(a, b Position, fallback float64) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	if dx == 0 && dy == 0 {
		return fallback
	}
	return math.Atan2(dy, dx)
}
