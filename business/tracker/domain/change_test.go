package domain

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sothis/internal/apperror"
)

var contract = common.HexToAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984")

func TestChangeList_AppendKeepsAdjacentUnique(t *testing.T) {
	l := NewSlotList(contract, uint256.NewInt(8))

	values := []string{"0x01", "0x01", "0x02", "0x02", "0x02", "0x01", "0x03"}
	for i, v := range values {
		_, err := l.Append(StateChange{BlockNumber: hexutil.Uint64(100 + i), Value: v})
		require.NoError(t, err)
	}

	require.Equal(t, 4, l.Len())
	for i := 1; i < l.Len(); i++ {
		assert.NotEqual(t, l.StateChanges[i-1].Value, l.StateChanges[i].Value)
		assert.Greater(t, l.StateChanges[i].BlockNumber, l.StateChanges[i-1].BlockNumber)
	}
	assert.Equal(t, []string{"0x01", "0x02", "0x01", "0x03"},
		[]string{l.StateChanges[0].Value, l.StateChanges[1].Value, l.StateChanges[2].Value, l.StateChanges[3].Value})
}

func TestChangeList_FirstObservationAlwaysRecorded(t *testing.T) {
	l := NewCallList(contract, "0x06fdde03")
	added, err := l.Append(StateChange{BlockNumber: 1, Value: "0x"})
	require.NoError(t, err)
	assert.True(t, added)
}

func TestChangeList_RejectsNonIncreasingBlock(t *testing.T) {
	l := NewCallList(contract, "0x06fdde03")
	_, err := l.Append(StateChange{BlockNumber: 10, Value: "0x01"})
	require.NoError(t, err)

	added, err := l.Append(StateChange{BlockNumber: 10, Value: "0x02"})
	assert.False(t, added)
	assert.Equal(t, apperror.CodeInvalidBlockNumber, apperror.GetCode(err))
	assert.Equal(t, 1, l.Len())
}

func TestChangeList_JSONRoundTrip(t *testing.T) {
	slot, err := uint256.FromHex("0xdeadbeef")
	require.NoError(t, err)
	l := NewSlotList(contract, slot)
	_, _ = l.Append(StateChange{BlockNumber: 0x10, Value: "0x0000000000000000000000000000000000000000000000000000000000000001"})
	_, _ = l.Append(StateChange{BlockNumber: 0x11, Value: "0x0000000000000000000000000000000000000000000000000000000000000002"})

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"storage_slot":"0xdeadbeef"`)
	assert.Contains(t, string(data), `"block_number":"0x10"`)
	assert.NotContains(t, string(data), "calldata")

	var decoded ChangeList
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, l, &decoded)
}

func TestChangeList_EmptyEncodesArray(t *testing.T) {
	data, err := json.Marshal(NewCallList(contract, "0x06fdde03"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state_changes":[]`)
	assert.NotContains(t, string(data), "storage_slot")
}

func TestChangeList_Label(t *testing.T) {
	label, key := NewSlotList(contract, uint256.NewInt(255)).Label()
	assert.Equal(t, "slot", label)
	assert.Equal(t, "255", key)

	label, key = NewCallList(contract, "0x06fdde03").Label()
	assert.Equal(t, "calldata", label)
	assert.Equal(t, "0x06fdde03", key)
}
