package replay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sothis/internal/apperror"
	"github.com/fd1az/sothis/internal/config"
	"github.com/fd1az/sothis/internal/interrupt"
	"github.com/fd1az/sothis/internal/metrics"
	"github.com/fd1az/sothis/internal/monolith"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

// fakeNode answers the handful of methods a historic session needs before
// it reads any block, and records every method it was asked for.
type fakeNode struct {
	chainID string
	head    string

	mu      sync.Mutex
	methods []string
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.methods = append(n.methods, req.Method)
	n.mu.Unlock()

	res := "null"
	switch {
	case req.Method == "eth_chainId":
		res = `"` + n.chainID + `"`
	case req.Method == "eth_blockNumber":
		res = `"` + n.head + `"`
	case strings.HasPrefix(req.Method, "evm_"):
		res = "true"
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + res + `}`))
}

func (n *fakeNode) seen() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.methods...)
}

func TestRun_HistoricPreconditionsGuardReplayNode(t *testing.T) {
	tests := []struct {
		name          string
		sourceChainID string
		replayChainID string
		replayHead    string
	}{
		{name: "chain id mismatch", sourceChainID: "0x1", replayChainID: "0x2", replayHead: "0x0"},
		{name: "replay head past until", sourceChainID: "0x1", replayChainID: "0x1", replayHead: "0xa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			src := &fakeNode{chainID: tt.sourceChainID, head: "0x64"}
			srcServer := httptest.NewServer(src)
			t.Cleanup(srcServer.Close)

			dst := &fakeNode{chainID: tt.replayChainID, head: tt.replayHead}
			dstServer := httptest.NewServer(dst)
			t.Cleanup(dstServer.Close)

			cfg := &config.Config{
				Source: config.NodeConfig{URL: srcServer.URL},
				Replay: config.NodeConfig{URL: dstServer.URL},
				Session: config.SessionConfig{
					EntropyThreshold: 0.07,
					SubmissionMode:   "raw",
					Until:            "3",
				},
			}

			var recorder *metrics.Recorder
			mono, err := monolith.New(ctx, cfg, config.ModeHistoric, &mockLogger{}, interrupt.New(), recorder)
			require.NoError(t, err)
			t.Cleanup(func() { mono.Close() })

			m := &Module{}
			require.NoError(t, mono.RegisterModules(m))

			err = m.Run(ctx, mono)
			require.Error(t, err)
			assert.Equal(t, apperror.CodePreconditionFailure, apperror.GetCode(err))

			for _, method := range dst.seen() {
				assert.False(t, strings.HasPrefix(method, "evm_"),
					"replay node received %s before the session was accepted", method)
			}
		})
	}
}
