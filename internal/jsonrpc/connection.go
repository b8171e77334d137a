// Package jsonrpc is a minimal Ethereum JSON-RPC 2.0 client with the
// sandbox-node administration extensions used for replay and tracking.
package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fd1az/sothis/internal/apm"
	"github.com/fd1az/sothis/internal/apperror"
	"github.com/fd1az/sothis/internal/logger"
	"github.com/fd1az/sothis/internal/metrics"
	"github.com/fd1az/sothis/internal/ratelimit"
)

const (
	heartbeatAfter        = 20 * time.Second
	defaultListenInterval = 500 * time.Millisecond

	HeartbeatMessage = "no new block for 20s, still listening"
)

// Connection is a handle to one node. It is immutable after Dial and cheap to copy.
// Calls on one Connection are expected to be sequential.
type Connection struct {
	url       string
	name      string
	transport Transport
	limiter   *ratelimit.Limiter
	tracer    apm.Tracer
	recorder  *metrics.Recorder
	log       logger.LoggerInterface

	heartbeatAfter time.Duration
}

// Option configures a Connection.
type Option func(*Connection)

// WithName labels spans, metrics and logs, e.g. "source" or "replay".
func WithName(name string) Option {
	return func(c *Connection) { c.name = name }
}

// WithLimiter throttles every request through l.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Connection) { c.limiter = l }
}

func WithLogger(log logger.LoggerInterface) Option {
	return func(c *Connection) { c.log = log }
}

func WithRecorder(r *metrics.Recorder) Option {
	return func(c *Connection) { c.recorder = r }
}

// WithTransport replaces the URL-derived transport.
func WithTransport(t Transport) Option {
	return func(c *Connection) { c.transport = t }
}

// Dial builds a Connection for rawURL. http(s) URLs use pooled HTTP;
// ws(s) URLs open a WebSocket immediately. timeout bounds each HTTP round trip.
func Dial(ctx context.Context, rawURL string, timeout time.Duration, opts ...Option) (Connection, error) {
	c := Connection{
		url:            rawURL,
		name:           "node",
		tracer:         apm.NewTracer("github.com/fd1az/sothis/internal/jsonrpc"),
		log:            logger.New(io.Discard, logger.LevelError, "sothis", nil),
		heartbeatAfter: heartbeatAfter,
	}
	for _, opt := range opts {
		opt(&c)
	}

	if c.transport == nil {
		t, err := newTransport(ctx, rawURL, c.name, timeout)
		if err != nil {
			return Connection{}, err
		}
		c.transport = t
	}
	return c, nil
}

// URL returns the node endpoint.
func (c Connection) URL() string { return c.url }

// Name returns the connection label.
func (c Connection) Name() string { return c.name }

// Close releases the transport.
func (c Connection) Close() error {
	if c.transport == nil {
		return nil
	}
	return c.transport.Close()
}

// Send issues one request and returns the raw result member.
func (c Connection) Send(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	ctx, span := c.tracer.StartSpanFromContext(ctx, "jsonrpc."+method)
	defer span.End()
	span.SetAttributes(
		attribute.String("rpc.method", method),
		attribute.String("rpc.node", c.name),
	)

	start := time.Now()
	result, err := c.send(ctx, method, params)
	c.recorder.RPC(ctx, method, err, time.Since(start))
	if err != nil {
		span.NoticeError(err)
		c.log.Debug(ctx, "rpc failed", "node", c.name, "method", method, "error", err)
		return nil, err
	}
	return result, nil
}

func (c Connection) send(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(newRequest(method, params))
	if err != nil {
		return nil, apperror.Serialization(method, err)
	}

	reply, status, err := c.transport.Call(ctx, body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperror.Transport(method, err)
	}

	var resp Response
	decodeErr := json.Unmarshal(reply, &resp)

	if status >= 400 {
		if decodeErr == nil && resp.Error != nil {
			return nil, apperror.Node(method, *resp.Error)
		}
		return nil, apperror.Transport(method, fmt.Errorf("http status %d", status))
	}
	if decodeErr != nil {
		return nil, apperror.Deserialization(method, decodeErr)
	}
	if resp.Error != nil {
		return nil, apperror.Node(method, *resp.Error)
	}
	if resp.Result == nil {
		return nil, apperror.Deserialization(method, fmt.Errorf("response has neither result nor error"))
	}
	return resp.Result, nil
}

// sendString issues a request whose result is a JSON string and unquotes it.
func (c Connection) sendString(ctx context.Context, method string, params ...any) (string, error) {
	raw, err := c.Send(ctx, method, params...)
	if err != nil {
		return "", err
	}
	return Unquote(raw), nil
}

func (c Connection) sendQuantity(ctx context.Context, method string, params ...any) (uint64, error) {
	s, err := c.sendString(ctx, method, params...)
	if err != nil {
		return 0, err
	}
	return ParseQuantity(s)
}
