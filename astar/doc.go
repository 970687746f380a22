// Package astar provides a steppable, concurrent A* planner over a waypoint
// graph.
//
// It exposes two main entry points:
//
//   - Search: run the algorithm to completion and get a Result.
//   - Planner.Debug: begin a Progress and advance it one expansion at a time
//     to drive inspectors, UIs or debugging tools.
//
// Search nodes carry a waypoint, the heading on arrival and a link to their
// parent. A worker pool computes successor costs in parallel while a single
// orchestrator owns the frontier and the node arena.
package astar
