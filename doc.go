// Package planinspect records a planner's search one step at a time.
//
// An Inspector wraps the debug interface of a search.Planner:
//
//   - Begin starts a paused search and records the zeroth PlanningState.
//   - Step advances the search by one unit of work and records the next one.
//   - Plan, StepNum, State and StateAt read the recorded history.
//
// History is append-only and every PlanningState is immutable once recorded,
// so readers may hold on to states while the search keeps moving.
package planinspect
