package astar

import (
	"context"

	"github.com/pdrpinto/planinspect/search"
)

// ExpandTask represents a request from the orchestrator to the workers.
type ExpandTask struct {
	Index         int
	FromNode      search.Node
	FromPosition  Position
	Lane          Lane
	ToPosition    Position
	GoalWaypoint  int
	HeuristicFunc Heuristic
	Weight        float64
}

// RelaxProposal is the worker's suggestion for a new search node
type RelaxProposal struct {
	Index       int
	FromNode    search.NodeID
	ToWaypoint  int
	Orientation float64
	GScore      float64
	FCost       float64
}

// runWorker turns expand tasks into relax proposals until ctx is done.
func runWorker(ctx context.Context, tasks <-chan ExpandTask, proposals chan<- RelaxProposal) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-tasks:
			tentativeG := task.FromNode.Cost + task.Lane.Cost
			h := task.Weight * task.HeuristicFunc(task.Lane.To, task.GoalWaypoint)
			proposal := RelaxProposal{
				Index:       task.Index,
				FromNode:    task.FromNode.ID,
				ToWaypoint:  task.Lane.To,
				Orientation: heading(task.FromPosition, task.ToPosition, task.FromNode.Orientation),
				GScore:      tentativeG,
				FCost:       tentativeG + h,
			}
			select {
			case <-ctx.Done():
				return
			case proposals <- proposal:
			}
		}
	}
}
