package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "taskmate"

// StartAssignmentSpan starts a span for an auto-assignment run.
func StartAssignmentSpan(ctx context.Context, strategy string, members, limit int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "assignment.run",
		trace.WithAttributes(
			attribute.String("assignment.strategy", strategy),
			attribute.Int("assignment.members", members),
			attribute.Int("assignment.task_limit", limit),
		),
	)
}

// StartDependencySpan starts a span for a dependency graph mutation.
func StartDependencySpan(ctx context.Context, op string, prerequisite, dependent int64) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "dependency."+op,
		trace.WithAttributes(
			attribute.Int64("dependency.prerequisite", prerequisite),
			attribute.Int64("dependency.dependent", dependent),
		),
	)
}

// StartReadModelSpan starts a span for computing a cached read model.
func StartReadModelSpan(ctx context.Context, view string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "readmodel."+view)
}
