package apm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type mockLogger struct{ warned int }

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               { m.warned++ }
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders("x-team=abc, api-key=k=v,broken,=nokey")
	assert.Equal(t, map[string]string{"x-team": "abc", "api-key": "k=v"}, got)
}

func TestNewTraceProvider_EmptyAndUnknown(t *testing.T) {
	log := &mockLogger{}

	tp, err := NewTraceProvider(log, Settings{Provider: EmptyProvider})
	require.NoError(t, err)
	assert.NoError(t, tp.Stop())
	assert.Zero(t, log.warned)

	tp, err = NewTraceProvider(log, Settings{Provider: "jaeger"})
	require.NoError(t, err)
	assert.NoError(t, tp.Stop())
	assert.Equal(t, 1, log.warned)
}

func TestSpan_NoticeErrorAndTraceID(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	tracer := &openTracer{provider.Tracer("test")}
	ctx, span := tracer.StartSpanFromContext(context.Background(), "jsonrpc.eth_chainId")

	assert.NotEmpty(t, TraceIDFromContext(ctx))
	span.NoticeError(nil)
	span.NoticeError(errors.New("node down"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "jsonrpc.eth_chainId", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "node down", ended[0].Status().Description)
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	assert.Equal(t, "", TraceIDFromContext(context.Background()))
}
