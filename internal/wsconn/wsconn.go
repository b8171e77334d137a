// Package wsconn provides a WebSocket client used as a JSON-RPC transport for ws:// node URLs.
package wsconn

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/sothis/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string
	DialTimeout    time.Duration
	PingInterval   time.Duration // 0 disables keepalive pings
	PongTimeout    time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		DialTimeout:    10 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		MaxMessageSize: 32 << 20, // full blocks with transactions can be large
	}
}

// MessageHandler receives messages that are not replies to Call.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler observes state transitions.
type StateHandler func(state State, err error)

// Client is a single-connection WebSocket client. It does not reconnect:
// a dropped connection surfaces as an error on the next Send or Call.
type Client struct {
	config Config

	mu      sync.RWMutex
	conn    *websocket.Conn
	state   State
	cancel  context.CancelFunc
	onMsg   MessageHandler
	onState StateHandler

	writeMu sync.Mutex

	// callMu serializes Call; waiter receives the next inbound frame.
	callMu sync.Mutex
	waiter chan []byte

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a new WebSocket client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, apperror.Validation(apperror.CodeRequiredField, "websocket url is required")
	}
	return &Client{
		config: config,
		state:  StateDisconnected,
	}, nil
}

// OnMessage sets the handler for unsolicited messages.
func (c *Client) OnMessage(h MessageHandler) {
	c.mu.Lock()
	c.onMsg = h
	c.mu.Unlock()
}

// OnStateChange sets the state transition observer.
func (c *Client) OnStateChange(h StateHandler) {
	c.mu.Lock()
	c.onState = h
	c.mu.Unlock()
}

// Connect establishes the WebSocket connection and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	if c.State() == StateClosed {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
	}

	c.setState(StateConnecting, nil)

	dialCtx := ctx
	if c.config.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.config.DialTimeout)
		defer cancel()
	}

	conn, _, err := websocket.Dial(dialCtx, c.config.URL, nil)
	if err != nil {
		appErr := apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithCause(err), apperror.WithContext(c.config.URL))
		c.setState(StateDisconnected, appErr)
		return appErr
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.conn = conn
	c.cancel = cancel
	c.mu.Unlock()

	c.setState(StateConnected, nil)

	c.wg.Add(1)
	go c.readLoop(loopCtx, conn)

	if c.config.PingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop(loopCtx, conn)
	}

	return nil
}

// Send writes a text message.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.mu.RLock()
	conn := c.conn
	state := c.state
	c.mu.RUnlock()

	if conn == nil || state != StateConnected {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError, apperror.WithCause(err), apperror.WithContext(c.config.Name))
	}
	return nil
}

// SendJSON encodes v as JSON and sends it.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.Serialization("websocket payload", err)
	}
	return c.Send(ctx, data)
}

// Call sends msg and waits for the next inbound frame. Calls are serialized,
// so at most one request is in flight.
func (c *Client) Call(ctx context.Context, msg []byte) ([]byte, error) {
	c.callMu.Lock()
	defer c.callMu.Unlock()

	reply := make(chan []byte, 1)
	c.mu.Lock()
	c.waiter = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.waiter = nil
		c.mu.Unlock()
	}()

	if err := c.Send(ctx, msg); err != nil {
		return nil, err
	}

	select {
	case data, ok := <-reply:
		if !ok {
			return nil, apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
		}
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether the connection is usable.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close gracefully closes the connection. It is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		conn := c.conn
		cancel := c.cancel
		c.conn = nil
		c.mu.Unlock()

		if conn != nil {
			// the peer may already be gone; the close handshake result is irrelevant then
			_ = conn.Close(websocket.StatusNormalClosure, "")
		}
		if cancel != nil {
			cancel()
		}
		c.wg.Wait()
		c.setState(StateClosed, nil)
	})
	return nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			c.mu.Lock()
			if c.waiter != nil {
				close(c.waiter)
				c.waiter = nil
			}
			c.mu.Unlock()

			if ctx.Err() == nil && c.State() != StateClosed {
				c.setState(StateDisconnected, err)
			}
			return
		}

		c.mu.RLock()
		waiter := c.waiter
		handler := c.onMsg
		c.mu.RUnlock()

		if waiter != nil {
			c.mu.Lock()
			c.waiter = nil
			c.mu.Unlock()
			waiter <- data
			continue
		}
		if handler != nil {
			handler(ctx, data)
		}
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, c.config.PongTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil && ctx.Err() == nil {
				c.setState(StateDisconnected, err)
				conn.CloseNow()
				return
			}
		}
	}
}

func (c *Client) setState(state State, err error) {
	c.mu.Lock()
	c.state = state
	handler := c.onState
	c.mu.Unlock()

	if handler != nil {
		handler(state, err)
	}
}
