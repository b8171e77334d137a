package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	n, err := ParseQuantity("0x1b4")
	require.NoError(t, err)
	assert.Equal(t, uint64(436), n)

	for _, bad := range []string{"", "1b4", "0x", "0xzz"} {
		_, err := ParseQuantity(bad)
		assert.Error(t, err, bad)
	}
}

func TestEncodeQuantity(t *testing.T) {
	assert.Equal(t, "0x0", EncodeQuantity(0))
	assert.Equal(t, "0x3", BlockTag(3))
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "0x8a165b", Unquote(json.RawMessage(`"0x8a165b"`)))
	assert.Equal(t, "true", Unquote(json.RawMessage(`true`)))
}
