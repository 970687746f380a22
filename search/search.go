// Package search defines the contract between a steppable path planner and
// the tools that inspect it.
//
// A Planner hands out a Debugger, a Debugger begins a paused search and
// returns a Progress, and a Progress advances one unit of work per Step.
// Nodes are arena records addressed by NodeID; parent links are IDs into the
// same arena so ancestry can be walked without holding pointers.
package search

import (
	"context"
	"errors"
)

// NodeID addresses a node inside the arena of one Progress.
type NodeID int

// NoNode marks the absence of a parent.
const NoNode NodeID = -1

// NoWaypoint is the waypoint of the synthetic search root.
const NoWaypoint = -1

var (
	ErrNoStarts        = errors.New("no start candidates")
	ErrUnknownWaypoint = errors.New("unknown waypoint")
	ErrInvalidOptions  = errors.New("invalid planner options")
)

// Node is a read-only view of a search node.
type Node struct {
	ID          NodeID
	Waypoint    int
	Orientation float64
	Parent      NodeID
	Cost        float64
	Estimate    float64
}

// HasWaypoint is false only for the synthetic root.
func (n Node) HasWaypoint() bool { return n.Waypoint != NoWaypoint }

// Start is one candidate start configuration.
type Start struct {
	Waypoint    int
	Orientation float64
}

// Goal is the target waypoint, optionally with a required orientation.
type Goal struct {
	Waypoint    int
	Orientation *float64
}

// Options are handed to the planner unchanged.
type Options struct {
	MaxExpansions   int
	HeuristicWeight float64
	Workers         int
}

// PlanWaypoint is one stop along a plan.
type PlanWaypoint struct {
	Waypoint    int
	Orientation float64
}

// Plan is a fully resolved route.
type Plan struct {
	Waypoints []PlanWaypoint
	Cost      float64
	Goal      NodeID
}

// Clone returns a deep copy, or nil for a nil plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := *p
	c.Waypoints = append([]PlanWaypoint(nil), p.Waypoints...)
	return &c
}

// Planner produces debug handles.
type Planner interface {
	Debug() (Debugger, error)
}

// Debugger starts paused searches.
type Debugger interface {
	Begin(ctx context.Context, starts []Start, goal Goal, options Options) (Progress, error)
}

// NodeLookup resolves node IDs of one search. Node must be safe to call
// while the search is stepping; recorded states read ancestors through it.
type NodeLookup interface {
	Node(id NodeID) (Node, bool)
}

// Progress is a paused search that advances one unit of work per Step.
//
// ExpandedNodes and TerminalNodes describe the most recent Step (or Begin).
// Apart from Node, implementations are not safe for concurrent use.
type Progress interface {
	NodeLookup
	Step(ctx context.Context) (*Plan, error)
	ExpandedNodes() []Node
	TerminalNodes() []Node
	Close()
}
