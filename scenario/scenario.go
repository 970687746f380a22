// Package scenario loads planning problems from YAML.
//
// A scenario names its waypoints and refers to them by name everywhere else:
//
//	name: corridor
//	waypoints:
//	  - {name: dock, x: 0, y: 0}
//	  - {name: bay, x: 4, y: 0}
//	lanes:
//	  - {from: dock, to: bay, bidirectional: true}
//	starts:
//	  - {waypoint: dock, orientation: 0}
//	goal:
//	  waypoint: bay
//	options:
//	  max_expansions: 500
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pdrpinto/planinspect/astar"
	"github.com/pdrpinto/planinspect/search"
)

// Waypoint is a named location.
type Waypoint struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// Lane connects two named waypoints. Cost 0 means straight-line length.
type Lane struct {
	From          string  `yaml:"from"`
	To            string  `yaml:"to"`
	Cost          float64 `yaml:"cost,omitempty"`
	Bidirectional bool    `yaml:"bidirectional,omitempty"`
}

// Start is a named start candidate.
type Start struct {
	Waypoint    string  `yaml:"waypoint"`
	Orientation float64 `yaml:"orientation"`
}

// Goal is the named goal, with an optional orientation in radians.
type Goal struct {
	Waypoint    string   `yaml:"waypoint"`
	Orientation *float64 `yaml:"orientation,omitempty"`
}

// Options mirror search.Options.
type Options struct {
	MaxExpansions   int     `yaml:"max_expansions,omitempty"`
	HeuristicWeight float64 `yaml:"heuristic_weight,omitempty"`
	Workers         int     `yaml:"workers,omitempty"`
}

// Scenario is one planning problem.
type Scenario struct {
	Name      string     `yaml:"name"`
	Waypoints []Waypoint `yaml:"waypoints"`
	Lanes     []Lane     `yaml:"lanes"`
	Starts    []Start    `yaml:"starts"`
	Goal      Goal       `yaml:"goal"`
	Options   Options    `yaml:"options"`

	index map[string]int
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	s, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scenario. Unknown fields are rejected.
func Parse(r io.Reader) (*Scenario, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var s Scenario
	if err := decoder.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty scenario")
		}
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks names and references. Starts and goal are checked so a
// scenario cannot be saved that the planner would reject outright.
func (s *Scenario) Validate() error {
	var errs []error
	s.index = make(map[string]int, len(s.Waypoints))
	if len(s.Waypoints) == 0 {
		errs = append(errs, errors.New("scenario has no waypoints"))
	}
	for i, wp := range s.Waypoints {
		if wp.Name == "" {
			errs = append(errs, fmt.Errorf("waypoint %d has no name", i))
			continue
		}
		if _, dup := s.index[wp.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate waypoint %q", wp.Name))
			continue
		}
		s.index[wp.Name] = i
	}
	for i, lane := range s.Lanes {
		for _, name := range []string{lane.From, lane.To} {
			if _, ok := s.index[name]; !ok {
				errs = append(errs, fmt.Errorf("lane %d: unknown waypoint %q", i, name))
			}
		}
		if lane.Cost < 0 {
			errs = append(errs, fmt.Errorf("lane %d: negative cost %v", i, lane.Cost))
		}
	}
	if len(s.Starts) == 0 {
		errs = append(errs, errors.New("scenario has no starts"))
	}
	for i, start := range s.Starts {
		if _, ok := s.index[start.Waypoint]; !ok {
			errs = append(errs, fmt.Errorf("start %d: unknown waypoint %q", i, start.Waypoint))
		}
	}
	if _, ok := s.index[s.Goal.Waypoint]; !ok {
		errs = append(errs, fmt.Errorf("goal: unknown waypoint %q", s.Goal.Waypoint))
	}
	if s.Options.MaxExpansions < 0 || s.Options.HeuristicWeight < 0 || s.Options.Workers < 0 {
		errs = append(errs, errors.New("options must not be negative"))
	}
	return errors.Join(errs...)
}

// Graph builds the planner graph. Waypoint indices follow file order.
// Validate must have succeeded first.
func (s *Scenario) Graph() (*astar.Graph, error) {
	graph := astar.NewGraph()
	for _, wp := range s.Waypoints {
		graph.AddWaypoint(wp.X, wp.Y)
	}
	for _, lane := range s.Lanes {
		from, to := s.index[lane.From], s.index[lane.To]
		if err := graph.AddLane(from, to, lane.Cost); err != nil {
			return nil, err
		}
		if lane.Bidirectional {
			if err := graph.AddLane(to, from, lane.Cost); err != nil {
				return nil, err
			}
		}
	}
	return graph, nil
}

// SearchStarts resolves the start candidates.
func (s *Scenario) SearchStarts() []search.Start {
	starts := make([]search.Start, 0, len(s.Starts))
	for _, start := range s.Starts {
		starts = append(starts, search.Start{Waypoint: s.index[start.Waypoint], Orientation: start.Orientation})
	}
	return starts
}

// SearchGoal resolves the goal.
func (s *Scenario) SearchGoal() search.Goal {
	goal := search.Goal{Waypoint: s.index[s.Goal.Waypoint]}
	if s.Goal.Orientation != nil {
		orientation := *s.Goal.Orientation
		goal.Orientation = &orientation
	}
	return goal
}

// SearchOptions returns the scenario's planner options.
func (s *Scenario) SearchOptions() search.Options {
	return search.Options{
		MaxExpansions:   s.Options.MaxExpansions,
		HeuristicWeight: s.Options.HeuristicWeight,
		Workers:         s.Options.Workers,
	}
}

// WaypointName returns the name of waypoint index i.
func (s *Scenario) WaypointName(i int) string {
	if i < 0 || i >= len(s.Waypoints) {
		return fmt.Sprintf("#%d", i)
	}
	return s.Waypoints[i].Name
}
