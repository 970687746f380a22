package astar

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/pdrpinto/planinspect/internal"
	"github.com/pdrpinto/planinspect/search"
)

// orientationTolerance is how close an arrival heading must be to a goal
// orientation to count as reaching it.
const orientationTolerance = 1e-3

// stateKey identifies a search state for the closed set.
type stateKey struct {
	waypoint    int
	orientation int64
}

func keyOf(node search.Node) stateKey {
	return stateKey{waypoint: node.Waypoint, orientation: int64(math.Round(node.Orientation * 1e6))}
}

// Progress is a paused search that expands one node per Step.
// Nodes live in an append-only arena, so a NodeID stays valid for the
// lifetime of the Progress.
type Progress struct {
	ctx           context.Context
	cancel        context.CancelFunc
	graph         *Graph
	goal          search.Goal
	heuristic     Heuristic
	weight        float64
	maxExpansions int

	// nodesMu guards appends to nodes against Node calls from other
	// goroutines. Step is the only writer.
	nodesMu    sync.RWMutex
	nodes      []search.Node
	openSet    PriorityQueue
	closedSet  map[stateKey]bool
	bestGScore map[stateKey]float64

	expandCh chan ExpandTask
	relaxCh  chan RelaxProposal

	expanded   []search.NodeID
	expansions int
	plan       *search.Plan
	done       bool
}

func newProgress(
	parent context.Context,
	planner *Planner,
	starts []search.Start,
	goal search.Goal,
	options search.Options,
) (*Progress, error) {
	if planner == nil || planner.graph == nil {
		return nil, errors.New("begin: planner has no graph")
	}
	graph := planner.graph

	// --- Validate request ---
	if len(starts) == 0 {
		return nil, fmt.Errorf("begin: %w", search.ErrNoStarts)
	}
	for _, start := range starts {
		if !graph.Has(start.Waypoint) {
			return nil, fmt.Errorf("begin: start: %w %d", search.ErrUnknownWaypoint, start.Waypoint)
		}
	}
	if !graph.Has(goal.Waypoint) {
		return nil, fmt.Errorf("begin: goal: %w %d", search.ErrUnknownWaypoint, goal.Waypoint)
	}
	if options.HeuristicWeight < 0 || options.MaxExpansions < 0 || options.Workers < 0 {
		return nil, fmt.Errorf("begin: %w: %+v", search.ErrInvalidOptions, options)
	}

	weight := options.HeuristicWeight
	if weight == 0 {
		weight = 1
	}
	workers := planner.options.NumberOfWorkers
	if options.Workers > 0 {
		workers = options.Workers
	}
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	progress := &Progress{
		ctx:           ctx,
		cancel:        cancel,
		graph:         graph,
		goal:          goal,
		heuristic:     planner.options.Heuristic,
		weight:        weight,
		maxExpansions: options.MaxExpansions,
		openSet:       make(PriorityQueue, 0),
		closedSet:     make(map[stateKey]bool),
		bestGScore:    make(map[stateKey]float64),
		expandCh:      make(chan ExpandTask),
		relaxCh:       make(chan RelaxProposal),
	}
	heap.Init(&progress.openSet)

	// --- Seed the arena: synthetic root, then one node per start ---
	root := progress.addNode(search.Node{
		Waypoint: search.NoWaypoint,
		Parent:   search.NoNode,
	})
	for _, start := range starts {
		startNode := search.Node{
			Waypoint:    start.Waypoint,
			Orientation: start.Orientation,
			Parent:      root,
			Estimate:    weight * progress.heuristic(start.Waypoint, goal.Waypoint),
		}
		key := keyOf(startNode)
		if g, seen := progress.bestGScore[key]; seen && g <= 0 {
			continue
		}
		progress.bestGScore[key] = 0
		id := progress.addNode(startNode)
		progress.expanded = append(progress.expanded, id)
		heap.Push(&progress.openSet, &PriorityQueueItem{Node: id, GScore: 0, FCost: startNode.Estimate})
	}

	// --- Start worker pool ---
	for i := 0; i < workers; i++ {
		go runWorker(ctx, progress.expandCh, progress.relaxCh)
	}

	return progress, nil
}

func (progress *Progress) addNode(node search.Node) search.NodeID {
	progress.nodesMu.Lock()
	defer progress.nodesMu.Unlock()
	node.ID = search.NodeID(len(progress.nodes))
	progress.nodes = append(progress.nodes, node)
	return node.ID
}

// Close stops the workers
func (progress *Progress) Close() {
	if progress.cancel != nil {
		progress.cancel()
	}
}

// Node returns the arena record for id. It may be called while Step runs.
func (progress *Progress) Node(id search.NodeID) (search.Node, bool) {
	progress.nodesMu.RLock()
	defer progress.nodesMu.RUnlock()
	if id < 0 || int(id) >= len(progress.nodes) {
		return search.Node{}, false
	}
	return progress.nodes[id], true
}

// Expansions is the number of nodes popped and expanded so far.
func (progress *Progress) Expansions() int { return progress.expansions }

// Exhausted reports whether further steps can change anything.
func (progress *Progress) Exhausted() bool { return progress.done || progress.plan != nil }

// ExpandedNodes returns the nodes created by the last Step, or the start
// nodes right after Begin.
func (progress *Progress) ExpandedNodes() []search.Node {
	out := make([]search.Node, 0, len(progress.expanded))
	for _, id := range progress.expanded {
		out = append(out, progress.nodes[id])
	}
	return out
}

// TerminalNodes returns the open frontier in priority order, or only the goal
// node once a plan has been found.
func (progress *Progress) TerminalNodes() []search.Node {
	if progress.plan != nil {
		return []search.Node{progress.nodes[progress.plan.Goal]}
	}
	items := slices.Clone(progress.openSet)
	slices.SortFunc(items, func(a, b *PriorityQueueItem) int {
		switch {
		case a.FCost < b.FCost:
			return -1
		case a.FCost > b.FCost:
			return 1
		}
		return int(a.Node - b.Node)
	})
	out := make([]search.Node, 0, len(items))
	for _, item := range items {
		node := progress.nodes[item.Node]
		key := keyOf(node)
		if progress.closedSet[key] || node.Cost > progress.bestGScore[key] {
			continue
		}
		out = append(out, node)
	}
	return out
}

// Step advances the search by one node expansion and returns the plan once
// the goal has been reached. Steps after that return the same plan.
func (progress *Progress) Step(contextObject context.Context) (*search.Plan, error) {
	progress.expanded = nil
	if progress.plan != nil {
		return progress.plan.Clone(), nil
	}
	if progress.done {
		return nil, nil
	}
	if err := contextObject.Err(); err != nil {
		return nil, err
	}
	if progress.maxExpansions > 0 && progress.expansions >= progress.maxExpansions {
		progress.done = true
		return nil, nil
	}

	// --- Pop the best open state ---
	var current search.Node
	for {
		if progress.openSet.Len() == 0 {
			progress.done = true
			return nil, nil
		}
		item := heap.Pop(&progress.openSet).(*PriorityQueueItem)
		current = progress.nodes[item.Node]
		if !progress.closedSet[keyOf(current)] {
			break
		}
	}
	progress.closedSet[keyOf(current)] = true
	progress.expansions++

	// Goal check
	if progress.reachedGoal(current) {
		progress.plan = progress.buildPlan(current.ID)
		return progress.plan.Clone(), nil
	}

	// --- Send tasks to workers for each lane ---
	lanes := progress.graph.Neighbors(current.Waypoint)
	if len(lanes) == 0 {
		return nil, nil
	}
	fromPosition := progress.graph.Position(current.Waypoint)
	go func() {
		for i, lane := range lanes {
			task := ExpandTask{
				Index:         i,
				FromNode:      current,
				FromPosition:  fromPosition,
				Lane:          lane,
				ToPosition:    progress.graph.Position(lane.To),
				GoalWaypoint:  progress.goal.Waypoint,
				HeuristicFunc: progress.heuristic,
				Weight:        progress.weight,
			}
			select {
			case <-progress.ctx.Done():
				return
			case progress.expandCh <- task:
			}
		}
	}()

	// Collect proposals, then apply them in lane order
	proposals := make([]RelaxProposal, len(lanes))
	for range lanes {
		select {
		case <-progress.ctx.Done():
			progress.done = true
			return nil, progress.ctx.Err()
		case proposal := <-progress.relaxCh:
			proposals[proposal.Index] = proposal
		}
	}
	for _, proposal := range proposals {
		progress.relax(proposal)
	}
	return nil, nil
}

func (progress *Progress) relax(proposal RelaxProposal) {
	child := search.Node{
		Waypoint:    proposal.ToWaypoint,
		Orientation: proposal.Orientation,
		Parent:      proposal.FromNode,
		Cost:        proposal.GScore,
		Estimate:    proposal.FCost - proposal.GScore,
	}
	key := keyOf(child)
	if progress.closedSet[key] {
		return
	}
	if previous, seen := progress.bestGScore[key]; seen && previous <= proposal.GScore {
		return
	}
	progress.bestGScore[key] = proposal.GScore
	id := progress.addNode(child)
	progress.expanded = append(progress.expanded, id)
	heap.Push(&progress.openSet, &PriorityQueueItem{Node: id, GScore: proposal.GScore, FCost: proposal.FCost})
}

func (progress *Progress) reachedGoal(node search.Node) bool {
	if node.Waypoint != progress.goal.Waypoint {
		return false
	}
	if progress.goal.Orientation == nil {
		return true
	}
	return angleDistance(node.Orientation, *progress.goal.Orientation) <= orientationTolerance
}

func (progress *Progress) buildPlan(goal search.NodeID) *search.Plan {
	ids := internal.ReconstructPath(
		goal,
		func(id search.NodeID) (search.NodeID, bool) {
			parent := progress.nodes[id].Parent
			return parent, parent != search.NoNode
		},
		func(id search.NodeID) bool { return progress.nodes[id].HasWaypoint() },
	)
	plan := &search.Plan{
		Waypoints: make([]search.PlanWaypoint, 0, len(ids)),
		Cost:      progress.nodes[goal].Cost,
		Goal:      goal,
	}
	for _, id := range ids {
		node := progress.nodes[id]
		plan.Waypoints = append(plan.Waypoints, search.PlanWaypoint{
			Waypoint:    node.Waypoint,
			Orientation: node.Orientation,
		})
	}
	return plan
}

// angleDistance is the absolute difference between two headings in [0, pi].
func angleDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 2*math.Pi)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}
