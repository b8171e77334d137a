package reporter

import (
	"bytes"
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sothis/business/tracker/domain"
	"github.com/fd1az/sothis/pkg/ui"
)

var contract = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleTo(&buf, "fast-track")
	list := domain.NewSlotList(contract, uint256.NewInt(2))

	require.NoError(t, r.Start(context.Background(), list))
	c := domain.StateChange{BlockNumber: hexutil.Uint64(17), Value: "0x01"}
	_, err := list.Append(c)
	require.NoError(t, err)
	r.Changed(c)
	r.Progress(17, 20)
	r.Done(list, "out/a.json")
	require.NoError(t, r.Stop())

	out := buf.String()
	assert.Contains(t, out, "sothis fast-track started for "+contract.Hex()+" slot 2")
	assert.Contains(t, out, "block #17: 0x01")
	assert.Contains(t, out, "BLOCK")
	assert.Contains(t, out, "Written to:     out/a.json")
	assert.Contains(t, out, "sothis fast-track stopped")
}

func TestTUI_ForwardsMessages(t *testing.T) {
	var sent []any
	r := NewTUI("call-track", "http://source")
	r.send = func(msg any) { sent = append(sent, msg) }
	list := domain.NewCallList(contract, "0x18160ddd")

	require.NoError(t, r.Start(context.Background(), list))
	c := domain.StateChange{BlockNumber: hexutil.Uint64(9), Value: "0x2a"}
	_, _ = list.Append(c)
	r.Changed(c)
	r.Progress(9, 12)
	r.Done(list, "x.json")

	require.Len(t, sent, 5)
	assert.Equal(t, "call-track", sent[0].(ui.SessionMsg).Mode)
	assert.Equal(t, ui.StateChangeMsg{BlockNumber: 9, Value: "0x2a"}, sent[2])
	assert.Equal(t, ui.ProgressMsg{Block: 9, Terminal: 12}, sent[3])
	assert.Equal(t, ui.DoneMsg{Head: 9, Summary: "1 changes written to x.json"}, sent[4])
}
