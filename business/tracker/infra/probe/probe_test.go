package probe

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sothis/internal/jsonrpc"
)

type fakeConn struct {
	address common.Address
	slot    *uint256.Int
	params  jsonrpc.CallParams
	tag     string
}

func (f *fakeConn) GetStorageAt(ctx context.Context, address common.Address, slot *uint256.Int, blockTag string) (string, error) {
	f.address, f.slot, f.tag = address, slot, blockTag
	return "0x000000000000000000000000000000000000000000000000000000000000002a", nil
}

func (f *fakeConn) Call(ctx context.Context, params jsonrpc.CallParams, blockTag string) (string, error) {
	f.params, f.tag = params, blockTag
	return "0x01", nil
}

var contract = common.HexToAddress("0x6b175474e89094c44da98b954eedeac495271d0f")

func TestStorage_Value(t *testing.T) {
	conn := &fakeConn{}
	slot := uint256.NewInt(3)
	p := NewStorage(conn, contract, slot)
	slot.SetUint64(99)

	v, err := p.Value(context.Background(), "0x10")
	require.NoError(t, err)

	assert.Equal(t, "0x000000000000000000000000000000000000000000000000000000000000002a", v)
	assert.Equal(t, contract, conn.address)
	assert.Equal(t, uint64(3), conn.slot.Uint64())
	assert.Equal(t, "0x10", conn.tag)
	assert.Equal(t, "storage slot", p.Describe())
}

func TestCall_Value(t *testing.T) {
	conn := &fakeConn{}
	p := NewCall(conn, contract, "0x18160ddd")

	v, err := p.Value(context.Background(), jsonrpc.BlockTagLatest)
	require.NoError(t, err)

	assert.Equal(t, "0x01", v)
	assert.Nil(t, conn.params.From)
	assert.Equal(t, contract, conn.params.To)
	assert.Equal(t, "0x18160ddd", conn.params.Data)
	assert.Equal(t, jsonrpc.BlockTagLatest, conn.tag)
	assert.Equal(t, "eth_call", p.Describe())
}
