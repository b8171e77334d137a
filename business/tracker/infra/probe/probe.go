// Package probe reads the tracked value from a node at a given block.
package probe

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fd1az/sothis/internal/jsonrpc"
)

// StorageReader is the subset of jsonrpc.Connection used by Storage.
type StorageReader interface {
	GetStorageAt(ctx context.Context, address common.Address, slot *uint256.Int, blockTag string) (string, error)
}

// Caller is the subset of jsonrpc.Connection used by Call.
type Caller interface {
	Call(ctx context.Context, params jsonrpc.CallParams, blockTag string) (string, error)
}

// Storage reads one storage slot of a contract.
type Storage struct {
	conn    StorageReader
	address common.Address
	slot    *uint256.Int
}

func NewStorage(conn StorageReader, address common.Address, slot *uint256.Int) *Storage {
	return &Storage{conn: conn, address: address, slot: new(uint256.Int).Set(slot)}
}

func (s *Storage) Value(ctx context.Context, blockTag string) (string, error) {
	return s.conn.GetStorageAt(ctx, s.address, s.slot, blockTag)
}

func (s *Storage) Describe() string { return "storage slot" }

// Call executes a read-only call with fixed calldata and no sender.
type Call struct {
	conn   Caller
	params jsonrpc.CallParams
}

func NewCall(conn Caller, address common.Address, calldata string) *Call {
	return &Call{conn: conn, params: jsonrpc.CallParams{To: address, Data: calldata}}
}

func (c *Call) Value(ctx context.Context, blockTag string) (string, error) {
	return c.conn.Call(ctx, c.params, blockTag)
}

func (c *Call) Describe() string { return "eth_call" }
