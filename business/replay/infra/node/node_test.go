package node

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sothis/business/replay/domain"
	"github.com/fd1az/sothis/internal/apperror"
)

const blockJSON = `{
	"number":"0x2",
	"hash":"0x8b2f0b5f3d1e3b7d1c3b4f1e0b7e0d2c1a0f9e8d7c6b5a493827161504030201",
	"timestamp":"0x6553f100",
	"miner":"0x0000000000000000000000000000000000000000",
	"transactions":[
		{
			"hash":"0xabababababababababababababababababababababababababababababababab",
			"type":"0x2",
			"from":"0x0000000000000000000000000000000000000011",
			"to":null,
			"value":"0x0",
			"gas":"0x5208",
			"maxFeePerGas":"0x2",
			"maxPriorityFeePerGas":"0x1",
			"input":"0x6080",
			"nonce":"0x0",
			"chainId":"0x539",
			"accessList":[],
			"v":"0x1","r":"0x1","s":"0x1"
		}
	]
}`

func TestDecodeBlock(t *testing.T) {
	block, err := DecodeBlock(json.RawMessage(blockJSON), 2)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), uint64(block.Number))
	assert.Equal(t, uint64(0x6553f100), uint64(block.Timestamp))
	require.Len(t, block.Transactions, 1)

	tx := block.Transactions[0]
	assert.True(t, tx.IsContractCreation())
	assert.Equal(t, domain.KindFeeMarket, tx.Kind())
	assert.Equal(t, "0x6080", tx.Input)
}

func TestDecodeBlock_Null(t *testing.T) {
	_, err := DecodeBlock(json.RawMessage(`null`), 99)
	assert.Equal(t, apperror.CodeBlockNotFound, apperror.GetCode(err))
}

func TestDecodeBlock_Malformed(t *testing.T) {
	_, err := DecodeBlock(json.RawMessage(`{"number":12}`), 1)
	assert.Equal(t, apperror.CodeDeserializationFailure, apperror.GetCode(err))
}
