package planinspect

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "planinspect"

var meter = otel.Meter(instrumentationName)

var (
	stepsTotal   metric.Int64Counter
	beginsTotal  metric.Int64Counter
	metricsOnce  sync.Once
	metricsError error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error
		stepsTotal, err = meter.Int64Counter(
			"planinspect_steps_total",
			metric.WithDescription("Total number of recorded search steps"),
		)
		if err != nil {
			metricsError = err
			return
		}
		beginsTotal, err = meter.Int64Counter(
			"planinspect_begins_total",
			metric.WithDescription("Total number of search sessions begun"),
		)
		if err != nil {
			metricsError = err
		}
	})
	return metricsError
}

func (inspector *Inspector) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return inspector.tracer.Start(ctx, name,
		trace.WithAttributes(attribute.String("planinspect.session", inspector.session)),
	)
}

// setStepSpanResult sets the result attributes on a begin or step span.
func setStepSpanResult(span trace.Span, state *PlanningState) {
	span.SetAttributes(
		attribute.Int("planinspect.step", state.StepIndex),
		attribute.Int("planinspect.expanded", len(state.ExpandedNodes)),
		attribute.Int("planinspect.terminal", len(state.TerminalNodes)),
		attribute.Bool("planinspect.plan_found", state.Plan != nil),
	)
}

func recordBegin(ctx context.Context, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	beginsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

func recordStep(ctx context.Context, planFound bool) {
	if err := initMetrics(); err != nil {
		return
	}
	stepsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("plan_found", planFound)))
}
