package planinspect

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdrpinto/planinspect/search"
)

var oneStart = []search.Start{{Waypoint: 10}}

func newCorridorInspector(t *testing.T, options ...Option) (*Inspector, *fakePlanner) {
	t.Helper()
	planner := &fakePlanner{newProgress: corridor}
	inspector, err := New(planner, options...)
	require.NoError(t, err)
	t.Cleanup(inspector.Close)
	return inspector, planner
}

func TestNew(t *testing.T) {
	t.Run("nil planner", func(t *testing.T) {
		inspector, err := New(nil)
		assert.Nil(t, inspector)
		assert.ErrorIs(t, err, ErrNoPlanner)
	})

	t.Run("planner without debug handle", func(t *testing.T) {
		inspector, err := New(&fakePlanner{debugErr: errScripted})
		assert.Nil(t, inspector)
		assert.ErrorIs(t, err, errScripted)
	})

	t.Run("session id", func(t *testing.T) {
		inspector, err := New(&fakePlanner{newProgress: corridor}, WithSessionID("bench-1"))
		require.NoError(t, err)
		assert.Equal(t, "bench-1", inspector.SessionID())

		other, err := New(&fakePlanner{newProgress: corridor})
		require.NoError(t, err)
		assert.NotEmpty(t, other.SessionID())
	})
}

func TestInspector_StepBeforeBegin(t *testing.T) {
	inspector, planner := newCorridorInspector(t)

	require.NoError(t, inspector.Step(context.Background()))
	assert.Equal(t, 0, inspector.StepNum())
	assert.Nil(t, inspector.State())
	assert.Nil(t, inspector.StateAt(0))
	assert.Nil(t, inspector.Plan())
	assert.False(t, inspector.PlanCompleted())
	assert.Empty(t, planner.begun)
}

func TestInspector_Begin(t *testing.T) {
	inspector, _ := newCorridorInspector(t)

	require.NoError(t, inspector.Begin(context.Background(), oneStart, search.Goal{Waypoint: 12}, search.Options{}))
	assert.Equal(t, 1, inspector.StepNum())
	zeroth := inspector.State()
	require.NotNil(t, zeroth)
	assert.Equal(t, 0, zeroth.StepIndex)
	assert.Nil(t, zeroth.Plan)
	require.Len(t, zeroth.ExpandedNodes, 1)
	assert.Equal(t, 10, zeroth.ExpandedNodes[0].Waypoint)
	assert.Len(t, zeroth.TerminalNodes, 1)
	assert.False(t, inspector.PlanCompleted())
}

func TestInspector_BeginFailure(t *testing.T) {
	t.Run("fresh inspector", func(t *testing.T) {
		inspector, _ := newCorridorInspector(t)
		err := inspector.Begin(context.Background(), nil, search.Goal{Waypoint: 12}, search.Options{})
		assert.ErrorIs(t, err, search.ErrNoStarts)
		assert.Equal(t, 0, inspector.StepNum())
		require.NoError(t, inspector.Step(context.Background()))
		assert.Equal(t, 0, inspector.StepNum())
	})

	t.Run("after a successful session", func(t *testing.T) {
		inspector, planner := newCorridorInspector(t)
		require.NoError(t, inspector.Begin(context.Background(), oneStart, search.Goal{Waypoint: 12}, search.Options{}))
		require.NoError(t, inspector.Step(context.Background()))

		planner.beginErr = errScripted
		err := inspector.Begin(context.Background(), oneStart, search.Goal{Waypoint: 12}, search.Options{})
		assert.ErrorIs(t, err, errScripted)
		assert.Equal(t, 0, inspector.StepNum())
		assert.True(t, planner.begun[0].closed, "previous search released")
	})
}

func TestInspector_BeginResets(t *testing.T) {
	inspector, planner := newCorridorInspector(t)
	ctx := context.Background()

	require.NoError(t, inspector.Begin(ctx, oneStart, search.Goal{Waypoint: 12}, search.Options{}))
	require.NoError(t, inspector.Step(ctx))
	require.NoError(t, inspector.Step(ctx))
	require.True(t, inspector.PlanCompleted())
	old := inspector.StateAt(2)

	require.NoError(t, inspector.Begin(ctx, oneStart, search.Goal{Waypoint: 12}, search.Options{}))
	assert.Equal(t, 1, inspector.StepNum())
	assert.False(t, inspector.PlanCompleted())
	require.Len(t, planner.begun, 2)
	assert.True(t, planner.begun[0].closed)
	assert.False(t, planner.begun[1].closed)

	require.NotNil(t, old.Plan, "states handed out earlier are untouched")
	assert.Equal(t, 2, old.StepIndex)
}

func TestInspector_StepHistory(t *testing.T) {
	inspector, _ := newCorridorInspector(t)
	ctx := context.Background()
	require.NoError(t, inspector.Begin(ctx, oneStart, search.Goal{Waypoint: 12}, search.Options{}))

	const steps = 5
	for i := 0; i < steps; i++ {
		require.NoError(t, inspector.Step(ctx))
	}
	assert.Equal(t, steps+1, inspector.StepNum())
	for i, state := range inspector.History() {
		assert.Equal(t, i, state.StepIndex)
		assert.Same(t, state, inspector.StateAt(i))
		assert.Equal(t, state.Plan != nil, i >= 2, "plan present from step 2 on (step %d)", i)
	}
	assert.Same(t, inspector.State(), inspector.StateAt(inspector.StepNum()-1))

	// the engine keeps reporting the same plan, with nothing new expanded
	last := inspector.State()
	assert.Empty(t, last.ExpandedNodes)
	assert.Equal(t, inspector.StateAt(2).Plan, last.Plan)
}

func TestInspector_PlanCompletedMatchesPlan(t *testing.T) {
	inspector, _ := newCorridorInspector(t)
	ctx := context.Background()
	assert.Equal(t, inspector.Plan() != nil, inspector.PlanCompleted())

	require.NoError(t, inspector.Begin(ctx, oneStart, search.Goal{Waypoint: 12}, search.Options{}))
	for i := 0; i < 3; i++ {
		assert.Equal(t, inspector.Plan() != nil, inspector.PlanCompleted(), "after %d steps", i)
		require.NoError(t, inspector.Step(ctx))
	}
	plan := inspector.Plan()
	require.NotNil(t, plan)
	assert.Equal(t, []search.PlanWaypoint{{Waypoint: 10}, {Waypoint: 11, Orientation: 1.5}, {Waypoint: 12, Orientation: -0.25}}, plan.Waypoints)
}

func TestInspector_ReadsArePure(t *testing.T) {
	inspector, _ := newCorridorInspector(t)
	ctx := context.Background()
	require.NoError(t, inspector.Begin(ctx, oneStart, search.Goal{Waypoint: 12}, search.Options{}))
	require.NoError(t, inspector.Step(ctx))

	for i := 0; i < 3; i++ {
		assert.Equal(t, 2, inspector.StepNum())
		assert.Nil(t, inspector.Plan())
		assert.Same(t, inspector.StateAt(1), inspector.StateAt(1))
		assert.Same(t, inspector.State(), inspector.StateAt(1))
	}
}

func TestInspector_StateAtBounds(t *testing.T) {
	inspector, _ := newCorridorInspector(t)
	ctx := context.Background()
	require.NoError(t, inspector.Begin(ctx, oneStart, search.Goal{Waypoint: 12}, search.Options{}))
	require.NoError(t, inspector.Step(ctx))
	require.NoError(t, inspector.Step(ctx))
	require.Equal(t, 3, inspector.StepNum())

	assert.Nil(t, inspector.StateAt(5))
	assert.Nil(t, inspector.StateAt(3), "index equal to the count is out of range")
	assert.Nil(t, inspector.StateAt(-1))
	assert.NotNil(t, inspector.StateAt(2))
}

func TestInspector_StepError(t *testing.T) {
	failing := func() *fakeProgress {
		progress := corridor()
		progress.script = append([]scriptedStep{{err: errScripted}}, progress.script...)
		return progress
	}
	planner := &fakePlanner{newProgress: failing}
	inspector, err := New(planner)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, inspector.Begin(ctx, oneStart, search.Goal{Waypoint: 12}, search.Options{}))

	err = inspector.Step(ctx)
	assert.ErrorIs(t, err, errScripted)
	assert.Equal(t, 1, inspector.StepNum(), "failed step records nothing")

	require.NoError(t, inspector.Step(ctx))
	assert.Equal(t, 2, inspector.StepNum())
	assert.Equal(t, 1, inspector.State().StepIndex)
}

func TestInspector_StatesAreCopies(t *testing.T) {
	inspector, planner := newCorridorInspector(t)
	ctx := context.Background()
	require.NoError(t, inspector.Begin(ctx, oneStart, search.Goal{Waypoint: 12}, search.Options{}))
	require.NoError(t, inspector.Step(ctx))
	require.NoError(t, inspector.Step(ctx))

	progress := planner.begun[0]
	progress.nodes[3].Waypoint = 99
	progress.finished.Waypoints[0].Waypoint = 99

	state := inspector.StateAt(2)
	assert.Equal(t, 12, state.ExpandedNodes[0].Waypoint)
	assert.Equal(t, 10, state.Plan.Waypoints[0].Waypoint)
}

func TestInspector_Close(t *testing.T) {
	inspector, planner := newCorridorInspector(t)
	ctx := context.Background()
	require.NoError(t, inspector.Begin(ctx, oneStart, search.Goal{Waypoint: 12}, search.Options{}))

	inspector.Close()
	assert.True(t, planner.begun[0].closed)
	require.NoError(t, inspector.Step(ctx))
	assert.Equal(t, 1, inspector.StepNum(), "history stays, stepping stops")
}

func TestInspector_ConcurrentReaders(t *testing.T) {
	inspector, _ := newCorridorInspector(t)
	ctx := context.Background()
	require.NoError(t, inspector.Begin(ctx, oneStart, search.Goal{Waypoint: 12}, search.Options{}))

	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if state := inspector.State(); state != nil {
					_ = state.String()
				}
				_ = inspector.PlanCompleted()
			}
		}()
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, inspector.Step(ctx))
	}
	wg.Wait()
	assert.Equal(t, 11, inspector.StepNum())
}

func TestInspector_Telemetry(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	core, logs := observer.New(zapcore.DebugLevel)

	inspector, planner := newCorridorInspector(t,
		WithTracerProvider(provider),
		WithLogger(zap.New(core)),
		WithSessionID("telemetry"))
	ctx := context.Background()
	require.NoError(t, inspector.Begin(ctx, oneStart, search.Goal{Waypoint: 12}, search.Options{}))
	require.NoError(t, inspector.Step(ctx))
	require.NoError(t, inspector.Step(ctx))
	planner.beginErr = errors.New("rejected")
	require.Error(t, inspector.Begin(ctx, oneStart, search.Goal{Waypoint: 12}, search.Options{}))

	spans := recorder.Ended()
	require.Len(t, spans, 4)
	names := make([]string, 0, len(spans))
	for _, span := range spans {
		names = append(names, span.Name())
		assert.Contains(t, span.Attributes(), attribute.String("planinspect.session", "telemetry"))
	}
	assert.Equal(t, []string{"Inspector.Begin", "Inspector.Step", "Inspector.Step", "Inspector.Begin"}, names)
	assert.Contains(t, spans[2].Attributes(), attribute.Bool("planinspect.plan_found", true))
	assert.Contains(t, spans[2].Attributes(), attribute.Int("planinspect.step", 2))

	assert.Equal(t, 1, logs.FilterMessage("Plan found").Len())
	assert.Equal(t, 1, logs.FilterMessage("Begin failed").Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "telemetry", entry.ContextMap()["session"])
	}
}
