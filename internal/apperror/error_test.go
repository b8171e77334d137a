package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsComparesCodes(t *testing.T) {
	err := Precondition("chain id mismatch")
	wrapped := fmt.Errorf("session: %w", err)

	assert.True(t, errors.Is(wrapped, New(CodePreconditionFailure)))
	assert.False(t, errors.Is(wrapped, New(CodeTransportFailure)))
	assert.Equal(t, CodePreconditionFailure, GetCode(wrapped))
}

func TestNode_SurfacesMessageVerbatim(t *testing.T) {
	err := Node("eth_call", NodeErrorDetail{Code: -32601, Message: "Method not found"})

	detail, ok := IsNodeError(err)
	require.True(t, ok)
	assert.Equal(t, -32601, detail.Code)
	assert.Equal(t, "Method not found", err.Message)
	assert.Contains(t, err.Error(), "Method not found")
	assert.True(t, IsDeserialization(err))
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode Code
		wantNil  bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "plain_error", err: errors.New("boom"), wantCode: CodeInternalError},
		{name: "app_error_kept", err: Transport("dial", errors.New("refused")), wantCode: CodeTransportFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.err, CodeInternalError, "ctx")
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, "ctx", got.Context)
		})
	}
}

func TestTransport_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transport("POST http://localhost:8545", cause)

	assert.ErrorIs(t, err, cause)
	assert.False(t, IsDeserialization(err))
	assert.Equal(t, "connection refused", err.ToLog()["cause"])
}
