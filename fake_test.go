package planinspect

import (
	"context"
	"errors"

	"github.com/pdrpinto/planinspect/search"
)

// scriptedStep is what fakeProgress reports for one call to Step.
type scriptedStep struct {
	plan     *search.Plan
	expanded []search.NodeID
	terminal []search.NodeID
	err      error
}

// fakeProgress replays a fixed script over a fixed node arena.
type fakeProgress struct {
	nodes    []search.Node
	script   []scriptedStep
	current  scriptedStep
	steps    int
	closed   bool
	finished *search.Plan
}

func (progress *fakeProgress) Node(id search.NodeID) (search.Node, bool) {
	if id < 0 || int(id) >= len(progress.nodes) {
		return search.Node{}, false
	}
	return progress.nodes[id], true
}

func (progress *fakeProgress) Step(context.Context) (*search.Plan, error) {
	if progress.finished != nil {
		progress.current = scriptedStep{}
		return progress.finished, nil
	}
	if progress.steps >= len(progress.script) {
		progress.current = scriptedStep{}
		return nil, nil
	}
	next := progress.script[progress.steps]
	progress.steps++
	if next.err != nil {
		return nil, next.err
	}
	progress.current = next
	progress.finished = next.plan
	return next.plan, nil
}

func (progress *fakeProgress) resolve(ids []search.NodeID) []search.Node {
	out := make([]search.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, progress.nodes[id])
	}
	return out
}

func (progress *fakeProgress) ExpandedNodes() []search.Node {
	return progress.resolve(progress.current.expanded)
}

func (progress *fakeProgress) TerminalNodes() []search.Node {
	return progress.resolve(progress.current.terminal)
}

func (progress *fakeProgress) Close() { progress.closed = true }

// fakePlanner hands out one fakeProgress per Begin, built by newProgress.
type fakePlanner struct {
	debugErr    error
	beginErr    error
	newProgress func() *fakeProgress
	begun       []*fakeProgress
}

func (planner *fakePlanner) Debug() (search.Debugger, error) {
	if planner.debugErr != nil {
		return nil, planner.debugErr
	}
	return planner, nil
}

func (planner *fakePlanner) Begin(_ context.Context, starts []search.Start, _ search.Goal, _ search.Options) (search.Progress, error) {
	if planner.beginErr != nil {
		return nil, planner.beginErr
	}
	if len(starts) == 0 {
		return nil, search.ErrNoStarts
	}
	progress := planner.newProgress()
	planner.begun = append(planner.begun, progress)
	return progress, nil
}

var errScripted = errors.New("scripted failure")

// corridor is a synthetic root (0) followed by waypoints 10, 11, 12.
//
//	step 0: start node 1 (wp 10)
//	step 1: expands node 2 (wp 11)
//	step 2: expands node 3 (wp 12) and finds the plan
func corridor() *fakeProgress {
	nodes := []search.Node{
		{ID: 0, Waypoint: search.NoWaypoint, Parent: search.NoNode},
		{ID: 1, Waypoint: 10, Orientation: 0, Parent: 0},
		{ID: 2, Waypoint: 11, Orientation: 1.5, Parent: 1, Cost: 1},
		{ID: 3, Waypoint: 12, Orientation: -0.25, Parent: 2, Cost: 2},
	}
	plan := &search.Plan{
		Waypoints: []search.PlanWaypoint{{Waypoint: 10}, {Waypoint: 11, Orientation: 1.5}, {Waypoint: 12, Orientation: -0.25}},
		Cost:      2,
		Goal:      3,
	}
	return &fakeProgress{
		nodes:   nodes,
		current: scriptedStep{expanded: []search.NodeID{1}, terminal: []search.NodeID{1}},
		script: []scriptedStep{
			{expanded: []search.NodeID{2}, terminal: []search.NodeID{2}},
			{plan: plan, expanded: []search.NodeID{3}, terminal: []search.NodeID{3}},
		},
	}
}
