package apm

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/sothis/internal/apperror"
	"github.com/fd1az/sothis/internal/logger"
)

type Provider string

const (
	ZipkinProvider   Provider = "zipkin"
	ConsoleProvider  Provider = "console"
	OTLPGRPCProvider Provider = "otlp-grpc"
	OTLPHTTPProvider Provider = "otlp-http"
	EmptyProvider    Provider = "none"
)

type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

// Settings configures the exporter.
type Settings struct {
	Provider    Provider
	ServiceName string
	Endpoint    string
	Headers     string // comma separated key=value pairs
}

// ParseHeaders parses "k1=v1,k2=v2" into a map, skipping malformed pairs.
func ParseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		headers[k] = v
	}
	return headers
}

func newExporter(s Settings) (sdktrace.SpanExporter, error) {
	switch s.Provider {
	case ZipkinProvider:
		return zipkin.New(s.Endpoint)
	case ConsoleProvider:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case OTLPGRPCProvider:
		return otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpointURL(s.Endpoint),
			otlptracegrpc.WithHeaders(ParseHeaders(s.Headers)),
		)
	case OTLPHTTPProvider:
		return otlptracehttp.New(
			context.Background(),
			otlptracehttp.WithEndpointURL(s.Endpoint),
			otlptracehttp.WithHeaders(ParseHeaders(s.Headers)),
		)
	}
	return nil, nil
}

// NewTraceProvider installs a global tracer provider for s.Provider.
// Unknown providers fall back to the no-op provider with a warning.
func NewTraceProvider(log logger.LoggerInterface, s Settings) (TraceProvider, error) {
	if s.Provider == EmptyProvider || s.Provider == "" {
		return NewEmptyTraceProvider(), nil
	}

	exp, err := newExporter(s)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeTelemetryInitFailed, string(s.Provider), err)
	}
	if exp == nil {
		log.Warn(context.Background(), "unknown trace provider, tracing disabled", "provider", s.Provider)
		return NewEmptyTraceProvider(), nil
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(s.ServiceName),
			attribute.String("otel.provider", string(s.Provider)),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(context.Background(), "tracing enabled", "provider", s.Provider, "endpoint", s.Endpoint)

	return &traceProvider{tp}, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	return o.tp.Shutdown(ctx)
}
