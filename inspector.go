package planinspect

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pdrpinto/planinspect/search"
)

// ErrNoPlanner is returned by New when there is nothing to inspect.
var ErrNoPlanner = errors.New("planinspect: nil planner")

// Options defines how an Inspector reports what it does.
type Options struct {
	Logger         *zap.Logger
	TracerProvider trace.TracerProvider
	SessionID      string
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(options *Options) { options.Logger = logger }
}

// WithTracerProvider sets where Begin and Step spans go. The default is the
// global provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(options *Options) { options.TracerProvider = provider }
}

// WithSessionID names the session in logs and spans. The default is a random UUID.
func WithSessionID(id string) Option {
	return func(options *Options) { options.SessionID = id }
}

// Inspector steps a planner's search and keeps every intermediate state.
//
// Begin, Step and Close must not be called concurrently with each other.
// The read methods may run alongside them.
type Inspector struct {
	debugger search.Debugger
	logger   *zap.Logger
	tracer   trace.Tracer
	session  string

	mu       sync.RWMutex
	progress search.Progress
	states   []*PlanningState
}

// New obtains a debug handle from planner.
func New(planner search.Planner, options ...Option) (*Inspector, error) {
	if planner == nil {
		return nil, ErrNoPlanner
	}
	inspectorOptions := Options{}
	for _, option := range options {
		option(&inspectorOptions)
	}
	if inspectorOptions.Logger == nil {
		inspectorOptions.Logger = zap.NewNop()
	}
	if inspectorOptions.TracerProvider == nil {
		inspectorOptions.TracerProvider = otel.GetTracerProvider()
	}
	if inspectorOptions.SessionID == "" {
		inspectorOptions.SessionID = uuid.NewString()
	}

	debugger, err := planner.Debug()
	if err != nil {
		return nil, fmt.Errorf("planinspect: debug handle: %w", err)
	}
	if debugger == nil {
		return nil, errors.New("planinspect: planner returned no debug handle")
	}

	return &Inspector{
		debugger: debugger,
		logger:   inspectorOptions.Logger.With(zap.String("session", inspectorOptions.SessionID)),
		tracer:   inspectorOptions.TracerProvider.Tracer(instrumentationName),
		session:  inspectorOptions.SessionID,
	}, nil
}

// SessionID returns the name used in logs and spans.
func (inspector *Inspector) SessionID() string { return inspector.session }

// Begin starts a new search and records its zeroth state.
//
// Any previous search is released and its history discarded, whether or not
// the new one starts. On error the inspector has no history and Step is a
// no-op until the next successful Begin.
func (inspector *Inspector) Begin(
	ctx context.Context,
	starts []search.Start,
	goal search.Goal,
	options search.Options,
) error {
	ctx, span := inspector.startSpan(ctx, "Inspector.Begin")
	defer span.End()

	inspector.reset()

	progress, err := inspector.debugger.Begin(ctx, starts, goal, options)
	if err == nil && progress == nil {
		err = errors.New("planner returned no progress")
	}
	if err != nil {
		recordBegin(ctx, false)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		inspector.logger.Warn("Begin failed",
			zap.Int("starts", len(starts)),
			zap.Int("goal", goal.Waypoint),
			zap.Error(err))
		return fmt.Errorf("planinspect: begin: %w", err)
	}

	zeroth := newPlanningState(0, nil, progress)

	inspector.mu.Lock()
	inspector.progress = progress
	inspector.states = []*PlanningState{zeroth}
	inspector.mu.Unlock()

	recordBegin(ctx, true)
	setStepSpanResult(span, zeroth)
	inspector.logger.Debug("Search begun",
		zap.Int("starts", len(starts)),
		zap.Int("goal", goal.Waypoint),
		zap.Int("expanded", len(zeroth.ExpandedNodes)))
	return nil
}

// Step advances the search by one unit of work and records the result.
// It does nothing before a successful Begin. It is not idempotent: every
// call grows the history by one state, even after the plan is found.
func (inspector *Inspector) Step(ctx context.Context) error {
	inspector.mu.RLock()
	progress := inspector.progress
	next := len(inspector.states)
	inspector.mu.RUnlock()
	if progress == nil {
		return nil
	}

	ctx, span := inspector.startSpan(ctx, "Inspector.Step")
	defer span.End()

	plan, err := progress.Step(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		inspector.logger.Warn("Step failed", zap.Int("step", next), zap.Error(err))
		return fmt.Errorf("planinspect: step %d: %w", next, err)
	}

	state := newPlanningState(next, plan, progress)

	inspector.mu.Lock()
	inspector.states = append(inspector.states, state)
	inspector.mu.Unlock()

	recordStep(ctx, plan != nil)
	setStepSpanResult(span, state)
	if plan != nil {
		inspector.logger.Info("Plan found",
			zap.Int("step", next),
			zap.Int("waypoints", len(plan.Waypoints)),
			zap.Float64("cost", plan.Cost))
	} else {
		inspector.logger.Debug("Step recorded",
			zap.Int("step", next),
			zap.Int("expanded", len(state.ExpandedNodes)),
			zap.Int("terminal", len(state.TerminalNodes)))
	}
	return nil
}

// Plan returns the plan of the latest state, or nil.
func (inspector *Inspector) Plan() *search.Plan {
	state := inspector.State()
	if state == nil {
		return nil
	}
	return state.Plan
}

// PlanCompleted reports whether Plan is non-nil.
func (inspector *Inspector) PlanCompleted() bool {
	return inspector.Plan() != nil
}

// StepNum returns how many states are recorded, the zeroth included.
func (inspector *Inspector) StepNum() int {
	inspector.mu.RLock()
	defer inspector.mu.RUnlock()
	return len(inspector.states)
}

// State returns the latest state, or nil before a successful Begin.
func (inspector *Inspector) State() *PlanningState {
	inspector.mu.RLock()
	defer inspector.mu.RUnlock()
	if len(inspector.states) == 0 {
		return nil
	}
	return inspector.states[len(inspector.states)-1]
}

// StateAt returns the state recorded at index, or nil when index is outside
// [0, StepNum()).
func (inspector *Inspector) StateAt(index int) *PlanningState {
	inspector.mu.RLock()
	defer inspector.mu.RUnlock()
	if index < 0 || index >= len(inspector.states) {
		return nil
	}
	return inspector.states[index]
}

// History returns the recorded states in step order.
func (inspector *Inspector) History() []*PlanningState {
	inspector.mu.RLock()
	defer inspector.mu.RUnlock()
	out := make([]*PlanningState, len(inspector.states))
	copy(out, inspector.states)
	return out
}

// Close releases the current search. Recorded states stay readable, but
// ancestors of their nodes may no longer resolve.
func (inspector *Inspector) Close() {
	inspector.mu.Lock()
	progress := inspector.progress
	inspector.progress = nil
	inspector.mu.Unlock()
	if progress != nil {
		progress.Close()
	}
}

func (inspector *Inspector) reset() {
	inspector.mu.Lock()
	progress := inspector.progress
	inspector.progress = nil
	inspector.states = nil
	inspector.mu.Unlock()
	if progress != nil {
		progress.Close()
	}
}
