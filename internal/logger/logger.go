// Package logger provides a context-aware structured logger built on log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Level represents a logging level.
type Level slog.Level

// Supported levels.
const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// ParseLevel converts a config string into a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// TraceIDFunc extracts a trace id from a context.
type TraceIDFunc func(ctx context.Context) string

// LoggerInterface is the logging contract shared by every package.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// Caller variants skip additional stack frames when resolving the source.
	Debugc(ctx context.Context, caller int, msg string, args ...any)
	Infoc(ctx context.Context, caller int, msg string, args ...any)
	Warnc(ctx context.Context, caller int, msg string, args ...any)
	Errorc(ctx context.Context, caller int, msg string, args ...any)
}

// Logger implements LoggerInterface.
type Logger struct {
	handler   slog.Handler
	traceIDFn TraceIDFunc
}

var _ LoggerInterface = (*Logger)(nil)

// New constructs a JSON logger writing to w.
func New(w io.Writer, minLevel Level, serviceName string, traceIDFn TraceIDFunc) *Logger {
	return newLogger(w, minLevel, serviceName, traceIDFn, false)
}

// NewText constructs a human-readable logger writing to w.
func NewText(w io.Writer, minLevel Level, serviceName string, traceIDFn TraceIDFunc) *Logger {
	return newLogger(w, minLevel, serviceName, traceIDFn, true)
}

func newLogger(w io.Writer, minLevel Level, serviceName string, traceIDFn TraceIDFunc, text bool) *Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.Level(minLevel),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					a.Value = slog.StringValue(shortFile(source.File) + ":" + strconv.Itoa(source.Line))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	if serviceName != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", serviceName)})
	}

	return &Logger{
		handler:   handler,
		traceIDFn: traceIDFn,
	}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelDebug, 3, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelInfo, 3, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelWarn, 3, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, LevelError, 3, msg, args...)
}

func (l *Logger) Debugc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelDebug, caller, msg, args...)
}

func (l *Logger) Infoc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelInfo, caller, msg, args...)
}

func (l *Logger) Warnc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelWarn, caller, msg, args...)
}

func (l *Logger) Errorc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, LevelError, caller, msg, args...)
}

func (l *Logger) write(ctx context.Context, level Level, caller int, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}

	slogLevel := slog.Level(level)
	if !l.handler.Enabled(ctx, slogLevel) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(caller, pcs[:])

	r := slog.NewRecord(time.Now(), slogLevel, msg, pcs[0])

	if l.traceIDFn != nil {
		if traceID := l.traceIDFn(ctx); traceID != "" {
			args = append(args, "trace_id", traceID)
		}
	}

	r.Add(args...)

	_ = l.handler.Handle(ctx, r)
}

func shortFile(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx == -1 {
		return path
	}
	prev := strings.LastIndex(path[:idx], "/")
	if prev == -1 {
		return path[idx+1:]
	}
	return path[prev+1:]
}
