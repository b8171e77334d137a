package jsonrpc

import (
	"context"
	"net/url"
	"time"

	"github.com/fd1az/sothis/internal/apperror"
	"github.com/fd1az/sothis/internal/httpclient"
	"github.com/fd1az/sothis/internal/wsconn"
)

// Transport moves one encoded request to the node and returns the raw reply.
// status is the HTTP status code, or 0 for transports without one.
type Transport interface {
	Call(ctx context.Context, body []byte) (reply []byte, status int, err error)
	Close() error
}

type httpTransport struct {
	client *httpclient.InstrumentedClient
}

func newHTTPTransport(rawURL, name string, timeout time.Duration) (*httpTransport, error) {
	opts := []httpclient.ClientOption{
		httpclient.WithBaseURL(rawURL),
		httpclient.WithProviderName(name),
		httpclient.WithHeaders(map[string]string{"Content-Type": "application/json"}),
	}
	if timeout > 0 {
		opts = append(opts, httpclient.WithRequestTimeout(timeout))
	}

	client, err := httpclient.NewInstrumentedClient(opts...)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeConfigurationError, "http client", err)
	}
	return &httpTransport{client: client}, nil
}

func (t *httpTransport) Call(ctx context.Context, body []byte) ([]byte, int, error) {
	resp, err := t.client.NewRequest().SetBody(body).Post(ctx, "")
	if err != nil {
		return nil, 0, err
	}
	return resp.Body(), resp.StatusCode, nil
}

func (t *httpTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

type wsTransport struct {
	client *wsconn.Client
}

func newWSTransport(ctx context.Context, rawURL, name string) (*wsTransport, error) {
	client, err := wsconn.New(wsconn.DefaultConfig(rawURL, name))
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return &wsTransport{client: client}, nil
}

func (t *wsTransport) Call(ctx context.Context, body []byte) ([]byte, int, error) {
	reply, err := t.client.Call(ctx, body)
	return reply, 0, err
}

func (t *wsTransport) Close() error {
	return t.client.Close()
}

// newTransport picks HTTP or WebSocket from the URL scheme.
func newTransport(ctx context.Context, rawURL, name string, timeout time.Duration) (Transport, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithMessage("invalid node url"), apperror.WithContext(rawURL), apperror.WithCause(err))
	}

	switch u.Scheme {
	case "http", "https":
		return newHTTPTransport(rawURL, name, timeout)
	case "ws", "wss":
		return newWSTransport(ctx, rawURL, name)
	}
	return nil, apperror.New(apperror.CodeConfigurationError,
		apperror.WithMessage("unsupported node url scheme"), apperror.WithContext(u.Scheme))
}
