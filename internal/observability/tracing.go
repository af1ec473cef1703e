package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/frontedward/dictator"

// Tracer returns the tracer used for build spans.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartBuildSpan creates the root span of one build.
func StartBuildSpan(ctx context.Context, buildID string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "build",
		trace.WithAttributes(attribute.String("build.id", buildID)))
}

// StartStageSpan creates a span for a pipeline stage.
func StartStageSpan(ctx context.Context, stage, buildID string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "stage."+stage,
		trace.WithAttributes(
			attribute.String("build.id", buildID),
			attribute.String("stage.name", stage),
		))
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
