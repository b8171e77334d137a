package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// AppError implements the error interface and provides structured error handling
type AppError struct {
	Code      Code             `json:"code"`
	Message   string           `json:"message"`
	Context   string           `json:"context,omitempty"`
	TraceID   string           `json:"traceId,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Node      *NodeErrorDetail `json:"node,omitempty"`
	cause     error
	stack     []uintptr
}

// NodeErrorDetail is the error member of a JSON-RPC response as reported by the node.
type NodeErrorDetail struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (context: %s)", e.Code, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is implements errors.Is interface for error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithTraceID sets the trace ID for distributed tracing
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// ToLog serializes the error for logging with stack trace
func (e *AppError) ToLog() map[string]interface{} {
	log := map[string]interface{}{
		"code":      e.Code,
		"message":   e.Message,
		"timestamp": e.Timestamp.Format(time.RFC3339),
	}

	if e.Context != "" {
		log["context"] = e.Context
	}
	if e.TraceID != "" {
		log["traceId"] = e.TraceID
	}
	if e.Node != nil {
		log["rpcCode"] = e.Node.Code
	}
	if e.cause != nil {
		log["cause"] = e.cause.Error()
	}
	if len(e.stack) > 0 {
		log["stack"] = e.formatStack()
	}

	return log
}

func (e *AppError) formatStack() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			sb.WriteString(fmt.Sprintf("\n\t%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// New creates a new AppError with the given code and options
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:      code,
		Message:   messages[code],
		Timestamp: time.Now(),
		stack:     captureStack(),
	}

	for _, opt := range opts {
		opt(err)
	}

	if err.Message == "" {
		err.Message = string(code)
	}

	return err
}

// Option is a functional option for AppError
type Option func(*AppError)

// WithMessage sets a custom message
func WithMessage(message string) Option {
	return func(e *AppError) {
		e.Message = message
	}
}

// WithContext adds context information
func WithContext(context string) Option {
	return func(e *AppError) {
		e.Context = context
	}
}

// WithCause wraps an underlying error
func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
	}
}

// WithNodeError attaches the node-reported error and surfaces its message verbatim.
func WithNodeError(detail NodeErrorDetail) Option {
	return func(e *AppError) {
		d := detail
		e.Node = &d
		e.Message = detail.Message
	}
}

// Factory methods for the failure taxonomy

// Transport creates a connection/HTTP level failure.
func Transport(context string, cause error) *AppError {
	return New(CodeTransportFailure, WithContext(context), WithCause(cause))
}

// Serialization creates a request encoding failure.
func Serialization(context string, cause error) *AppError {
	return New(CodeSerializationFailure, WithContext(context), WithCause(cause))
}

// Deserialization creates a response decoding failure.
func Deserialization(context string, cause error) *AppError {
	return New(CodeDeserializationFailure, WithContext(context), WithCause(cause))
}

// Node creates an error from a node-reported {"error":...} payload.
func Node(context string, detail NodeErrorDetail) *AppError {
	return New(CodeNodeError, WithContext(context), WithNodeError(detail))
}

// Precondition creates a precondition failure with a custom message.
func Precondition(message string) *AppError {
	return New(CodePreconditionFailure, WithMessage(message))
}

// Validation creates a validation error
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context))
}

// Internal creates an internal error
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause))
}

// Wrap wraps a standard error into AppError
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	return Internal(code, context, err)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode extracts the error code from an error
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// IsNodeError reports whether err carries a node-reported error payload.
func IsNodeError(err error) (*NodeErrorDetail, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Node != nil {
		return appErr.Node, true
	}
	return nil, false
}

// IsDeserialization reports whether err belongs to the deserialization class.
// Node-reported errors are part of that class.
func IsDeserialization(err error) bool {
	switch GetCode(err) {
	case CodeDeserializationFailure, CodeNodeError, CodeInvalidQuantity:
		return true
	}
	return false
}
