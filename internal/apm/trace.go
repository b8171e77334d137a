// Package apm wraps OpenTelemetry tracing.
package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Tracer interface {
	StartSpanFromContext(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, Span)
}

type openTracer struct {
	tracer trace.Tracer
}

// NewTracer resolves name against the global provider at span start,
// so providers installed after construction still take effect.
func NewTracer(name string) Tracer {
	return &openTracer{otel.Tracer(name)}
}

func (t *openTracer) StartSpanFromContext(
	ctx context.Context, name string, opts ...trace.SpanStartOption,
) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, NewSpan(span)
}

// TraceIDFromContext returns the active trace id, or "" outside a sampled span.
// It matches logger.TraceIDFunc.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
