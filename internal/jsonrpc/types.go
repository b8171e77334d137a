package jsonrpc

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/sothis/internal/apperror"
)

const (
	Version   = "2.0"
	RequestID = 1

	BlockTagLatest = "latest"
)

// Request is a JSON-RPC 2.0 request. Field order matches the wire order nodes expect.
type Request struct {
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
	JSONRPC string `json:"jsonrpc"`
}

// Response is a JSON-RPC 2.0 response. Result stays nil when the member is absent.
type Response struct {
	JSONRPC string                    `json:"jsonrpc"`
	ID      json.RawMessage           `json:"id,omitempty"`
	Result  json.RawMessage           `json:"result,omitempty"`
	Error   *apperror.NodeErrorDetail `json:"error,omitempty"`
}

// CallParams is the first eth_call parameter. From encodes as null when unset.
type CallParams struct {
	From *common.Address `json:"from"`
	To   common.Address  `json:"to"`
	Data string          `json:"data"`
}

// Flavor identifies the sandbox node implementation.
type Flavor string

const (
	FlavorHardhat Flavor = "hardhat"
	FlavorOther   Flavor = "anvil-or-other"
)

func newRequest(method string, params []any) Request {
	if params == nil {
		params = []any{}
	}
	return Request{
		Method:  method,
		Params:  params,
		ID:      RequestID,
		JSONRPC: Version,
	}
}
