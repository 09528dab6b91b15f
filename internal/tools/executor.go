package tools

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Execute runs the named tool's executor with the given raw JSON input,
// wrapping the dispatch in a client-kind span and a duration/outcome
// counter. Grounded on the teacher's toolregistry executor: one span per
// tool invocation tagged with the tool name, errors recorded on the span
// and reflected in its status.
func Execute(ctx context.Context, reg *Registry, toolCtx *Context, name string, input json.RawMessage) (any, error) {
	_, span := toolCtx.Tracer.Start(ctx, "tool."+name, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("tool.name", name)))
	defer span.End()

	start := time.Now()
	result, err := reg.dispatch(toolCtx, name, input)
	duration := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	toolCtx.Metrics.RecordTimer("tool.execute.duration", duration, "tool", name, "outcome", outcome)
	toolCtx.Metrics.IncCounter("tool.execute.count", 1, "tool", name, "outcome", outcome)

	return result, err
}
