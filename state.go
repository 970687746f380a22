package planinspect

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdrpinto/planinspect/internal"
	"github.com/pdrpinto/planinspect/search"
)

// PlanningState is the search as it stood after one step.
// It is never modified after it has been recorded.
type PlanningState struct {
	StepIndex     int
	Plan          *search.Plan
	ExpandedNodes []search.Node
	TerminalNodes []search.Node

	// nodes resolves ancestors; it belongs to the planner.
	nodes search.NodeLookup
}

func newPlanningState(index int, plan *search.Plan, progress search.Progress) *PlanningState {
	return &PlanningState{
		StepIndex:     index,
		Plan:          plan.Clone(),
		ExpandedNodes: append([]search.Node(nil), progress.ExpandedNodes()...),
		TerminalNodes: append([]search.Node(nil), progress.TerminalNodes()...),
		nodes:         progress,
	}
}

// Ancestry returns the waypoint-bearing chain ending at node, oldest first.
// The walk stops at the first ancestor without a waypoint or that can no
// longer be resolved.
func (state *PlanningState) Ancestry(node search.Node) []search.Node {
	lookup := func(id search.NodeID) (search.Node, bool) {
		if state.nodes == nil {
			return search.Node{}, false
		}
		return state.nodes.Node(id)
	}
	ids := internal.ReconstructPath(
		node.ID,
		func(id search.NodeID) (search.NodeID, bool) {
			if id == node.ID {
				return node.Parent, node.Parent != search.NoNode
			}
			current, ok := lookup(id)
			if !ok || current.Parent == search.NoNode {
				return search.NoNode, false
			}
			return current.Parent, true
		},
		func(id search.NodeID) bool {
			if id == node.ID {
				return node.HasWaypoint()
			}
			ancestor, ok := lookup(id)
			return ok && ancestor.HasWaypoint()
		},
	)
	chain := make([]search.Node, 0, len(ids))
	for _, id := range ids {
		if id == node.ID {
			chain = append(chain, node)
			continue
		}
		ancestor, _ := lookup(id)
		chain = append(chain, ancestor)
	}
	return chain
}

// NodeChain renders the route to node as
// "(begin) -> (waypoint, orientation) -> ... -> (waypoint, orientation)".
func (state *PlanningState) NodeChain(node search.Node) string {
	var sb strings.Builder
	sb.WriteString("(begin)")
	for _, n := range state.Ancestry(node) {
		fmt.Fprintf(&sb, " -> (%d, %f)", n.Waypoint, n.Orientation)
	}
	return sb.String()
}

// Fprint writes the route to every expanded node, followed by a notice when
// this step found the plan.
func (state *PlanningState) Fprint(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "STEP %d:\n", state.StepIndex)
	for _, node := range state.ExpandedNodes {
		fmt.Fprintf(&sb, "    %s\n", state.NodeChain(node))
	}
	sb.WriteString("\n\n")
	if state.Plan != nil {
		sb.WriteString("    PLANNING DONE!\n\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Print writes the state to standard output.
func (state *PlanningState) Print() {
	_ = state.Fprint(os.Stdout)
}

// String returns what Print writes.
func (state *PlanningState) String() string {
	var sb strings.Builder
	_ = state.Fprint(&sb)
	return sb.String()
}
