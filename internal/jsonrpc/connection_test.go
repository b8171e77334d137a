package jsonrpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sothis/internal/apperror"
)

// mockLogger records Info messages.
type mockLogger struct {
	mu    sync.Mutex
	infos []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any) {
	m.mu.Lock()
	m.infos = append(m.infos, msg)
	m.mu.Unlock()
}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

func (m *mockLogger) count(msg string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.infos {
		if s == msg {
			n++
		}
	}
	return n
}

// fakeNode answers JSON-RPC requests through handle and records raw bodies.
type fakeNode struct {
	mu     sync.Mutex
	bodies []string
	handle func(req Request, params []json.RawMessage) string
}

func (f *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	var req struct {
		Request
		Params []json.RawMessage `json:"params"`
	}
	_ = json.Unmarshal(body, &req)
	w.Write([]byte(f.handle(req.Request, req.Params)))
}

func result(v string) string {
	return `{"jsonrpc":"2.0","id":1,"result":` + v + `}`
}

func dialFake(t *testing.T, handle func(req Request, params []json.RawMessage) string, opts ...Option) (Connection, *fakeNode) {
	t.Helper()
	node := &fakeNode{handle: handle}
	server := httptest.NewServer(node)
	t.Cleanup(server.Close)

	conn, err := Dial(context.Background(), server.URL, time.Second, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, node
}

func TestSend_RequestEncoding(t *testing.T) {
	conn, node := dialFake(t, func(req Request, _ []json.RawMessage) string {
		return result(`"0x10"`)
	})

	head, err := conn.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(16), head)

	require.Len(t, node.bodies, 1)
	assert.Equal(t, `{"method":"eth_blockNumber","params":[],"id":1,"jsonrpc":"2.0"}`, node.bodies[0])
}

func TestSend_ParamsEncoding(t *testing.T) {
	conn, node := dialFake(t, func(req Request, _ []json.RawMessage) string {
		return result(`"0x0000000000000000000000000000000000000000000000000000000000000007"`)
	})

	addr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	val, err := conn.GetStorageAt(context.Background(), addr, uint256.NewInt(2), BlockTag(255))
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000007", val)

	assert.Equal(t,
		`{"method":"eth_getStorageAt","params":["0x5FbDB2315678afecb367f032d93F642f64180aa3","0x2","0xff"],"id":1,"jsonrpc":"2.0"}`,
		node.bodies[0])
}

func TestCall_NullFrom(t *testing.T) {
	conn, node := dialFake(t, func(req Request, _ []json.RawMessage) string {
		return result(`"0x01"`)
	})

	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	out, err := conn.Call(context.Background(), CallParams{To: to, Data: "0x06fdde03"}, BlockTagLatest)
	require.NoError(t, err)
	assert.Equal(t, "0x01", out)
	assert.Contains(t, strings.ToLower(node.bodies[0]),
		`[{"from":null,"to":"0x00000000000000000000000000000000000000aa","data":"0x06fdde03"},"latest"]`)
}

func TestSend_AdminParams(t *testing.T) {
	conn, node := dialFake(t, func(req Request, _ []json.RawMessage) string {
		return result(`true`)
	})
	ctx := context.Background()

	require.NoError(t, conn.EvmSetAutomine(ctx, false))
	require.NoError(t, conn.EvmSetIntervalMining(ctx, 4294967295))
	require.NoError(t, conn.EvmSetNextBlockTimestamp(ctx, 1700000000))
	require.NoError(t, conn.EvmMine(ctx))

	require.Len(t, node.bodies, 4)
	assert.Contains(t, node.bodies[0], `"method":"evm_setAutomine","params":[false]`)
	assert.Contains(t, node.bodies[1], `"method":"evm_setIntervalMining","params":[4294967295]`)
	assert.Contains(t, node.bodies[2], `"method":"evm_setNextBlockTimestamp","params":[1700000000]`)
	assert.Contains(t, node.bodies[3], `"method":"evm_mine","params":[]`)
}

func TestSend_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    apperror.Code
		message string
	}{
		{
			name:    "node error without result",
			status:  http.StatusOK,
			body:    `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"nonce too low"}}`,
			code:    apperror.CodeNodeError,
			message: "nonce too low",
		},
		{
			name:    "error wins over result",
			status:  http.StatusOK,
			body:    `{"jsonrpc":"2.0","id":1,"result":"0x1","error":{"code":-32601,"message":"method not found"}}`,
			code:    apperror.CodeNodeError,
			message: "method not found",
		},
		{
			name:    "error payload on http 500",
			status:  http.StatusInternalServerError,
			body:    `{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"internal"}}`,
			code:    apperror.CodeNodeError,
			message: "internal",
		},
		{
			name:   "plain http 502",
			status: http.StatusBadGateway,
			body:   `bad gateway`,
			code:   apperror.CodeTransportFailure,
		},
		{
			name:   "missing result",
			status: http.StatusOK,
			body:   `{"jsonrpc":"2.0","id":1}`,
			code:   apperror.CodeDeserializationFailure,
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"jsonrpc":`,
			code:   apperror.CodeDeserializationFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			conn, err := Dial(context.Background(), server.URL, time.Second)
			require.NoError(t, err)

			_, err = conn.Send(context.Background(), "eth_sendRawTransaction", "0x00")
			require.Error(t, err)
			assert.Equal(t, tt.code, apperror.GetCode(err))

			if tt.message != "" {
				detail, ok := apperror.IsNodeError(err)
				require.True(t, ok)
				assert.Equal(t, tt.message, detail.Message)
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestSend_NullResultIsNotMissing(t *testing.T) {
	conn, _ := dialFake(t, func(req Request, _ []json.RawMessage) string {
		return result(`null`)
	})

	raw, err := conn.GetBlockByNumber(context.Background(), 1_000_000, true)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestSend_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	conn, err := Dial(context.Background(), url, time.Second)
	require.NoError(t, err)

	_, err = conn.ChainID(context.Background())
	assert.Equal(t, apperror.CodeTransportFailure, apperror.GetCode(err))
}

func TestSend_InvalidQuantity(t *testing.T) {
	conn, _ := dialFake(t, func(req Request, _ []json.RawMessage) string {
		return result(`"12"`)
	})

	_, err := conn.ChainID(context.Background())
	assert.Equal(t, apperror.CodeInvalidQuantity, apperror.GetCode(err))
	assert.True(t, apperror.IsDeserialization(err))
}

func TestDial_BadURL(t *testing.T) {
	_, err := Dial(context.Background(), "ftp://node:21", time.Second)
	assert.Equal(t, apperror.CodeConfigurationError, apperror.GetCode(err))

	_, err = Dial(context.Background(), "not a url", time.Second)
	assert.Equal(t, apperror.CodeConfigurationError, apperror.GetCode(err))
}

func TestNodeFlavor(t *testing.T) {
	hardhat, _ := dialFake(t, func(req Request, _ []json.RawMessage) string {
		return result(`true`)
	})
	assert.Equal(t, FlavorHardhat, hardhat.NodeFlavor(context.Background()))

	anvil, _ := dialFake(t, func(req Request, _ []json.RawMessage) string {
		return `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found"}}`
	})
	assert.Equal(t, FlavorOther, anvil.NodeFlavor(context.Background()))
}

func TestListenForBlocks_ReturnsNewHead(t *testing.T) {
	var calls atomic.Int32
	conn, _ := dialFake(t, func(req Request, _ []json.RawMessage) string {
		if calls.Add(1) < 4 {
			return result(`"0x5"`)
		}
		return result(`"0x6"`)
	})

	head, err := conn.ListenForBlocks(context.Background(), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), head)
	assert.Equal(t, int32(4), calls.Load())
}

func TestListenForBlocks_HeartbeatOnce(t *testing.T) {
	log := &mockLogger{}
	var calls atomic.Int32
	conn, _ := dialFake(t, func(req Request, _ []json.RawMessage) string {
		if calls.Add(1) < 30 {
			return result(`"0x5"`)
		}
		return result(`"0x7"`)
	}, WithLogger(log))
	conn.heartbeatAfter = 5 * time.Millisecond

	head, err := conn.ListenForBlocks(context.Background(), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), head)
	assert.Equal(t, 1, log.count(HeartbeatMessage))
}

func TestListenForBlocks_Cancelled(t *testing.T) {
	conn, _ := dialFake(t, func(req Request, _ []json.RawMessage) string {
		return result(`"0x5"`)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := conn.ListenForBlocks(ctx, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDial_WebSocket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")
		for {
			_, data, err := c.Read(r.Context())
			if err != nil {
				return
			}
			if !strings.Contains(string(data), `"eth_chainId"`) {
				return
			}
			c.Write(r.Context(), websocket.MessageText, []byte(result(`"0x539"`)))
		}
	}))
	defer server.Close()

	conn, err := Dial(context.Background(), "ws"+strings.TrimPrefix(server.URL, "http"), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	id, err := conn.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1337), id)
}
