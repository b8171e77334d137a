package jsonrpc

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// BlockNumber returns the current head (eth_blockNumber).
func (c Connection) BlockNumber(ctx context.Context) (uint64, error) {
	return c.sendQuantity(ctx, "eth_blockNumber")
}

// ChainID returns the chain id (eth_chainId).
func (c Connection) ChainID(ctx context.Context) (uint64, error) {
	return c.sendQuantity(ctx, "eth_chainId")
}

// GetBlockByNumber returns the raw block object, or JSON null when the node has no such block.
func (c Connection) GetBlockByNumber(ctx context.Context, number uint64, fullTx bool) (json.RawMessage, error) {
	return c.Send(ctx, "eth_getBlockByNumber", BlockTag(number), fullTx)
}

// GetTransactionByHash returns the raw transaction object.
func (c Connection) GetTransactionByHash(ctx context.Context, hash common.Hash) (json.RawMessage, error) {
	return c.Send(ctx, "eth_getTransactionByHash", hash.Hex())
}

// GetStorageAt reads one storage word at blockTag ("latest" or a hex block number).
func (c Connection) GetStorageAt(ctx context.Context, address common.Address, slot *uint256.Int, blockTag string) (string, error) {
	return c.sendString(ctx, "eth_getStorageAt", address.Hex(), slot.Hex(), blockTag)
}

// Call executes a read-only call at blockTag and returns the hex result.
func (c Connection) Call(ctx context.Context, params CallParams, blockTag string) (string, error) {
	return c.sendString(ctx, "eth_call", params, blockTag)
}

// SendTransaction submits a transaction the node signs itself.
func (c Connection) SendTransaction(ctx context.Context, params any) (string, error) {
	return c.sendString(ctx, "eth_sendTransaction", params)
}

// SendUnsignedTransaction submits a transaction without signature checks.
// Only sandbox nodes implement it.
func (c Connection) SendUnsignedTransaction(ctx context.Context, params any) (string, error) {
	return c.sendString(ctx, "eth_sendUnsignedTransaction", params)
}

// SendRawTransaction submits a 0x-prefixed RLP-encoded signed transaction.
func (c Connection) SendRawTransaction(ctx context.Context, raw string) (string, error) {
	return c.sendString(ctx, "eth_sendRawTransaction", raw)
}

// EvmSetAutomine toggles mining on every transaction.
func (c Connection) EvmSetAutomine(ctx context.Context, enabled bool) error {
	_, err := c.Send(ctx, "evm_setAutomine", enabled)
	return err
}

// EvmSetIntervalMining sets the background mining interval in milliseconds.
func (c Connection) EvmSetIntervalMining(ctx context.Context, intervalMs uint64) error {
	_, err := c.Send(ctx, "evm_setIntervalMining", intervalMs)
	return err
}

// EvmSetNextBlockTimestamp fixes the timestamp of the next mined block.
func (c Connection) EvmSetNextBlockTimestamp(ctx context.Context, unixSeconds uint64) error {
	_, err := c.Send(ctx, "evm_setNextBlockTimestamp", unixSeconds)
	return err
}

// EvmMine mines one block.
func (c Connection) EvmMine(ctx context.Context) error {
	_, err := c.Send(ctx, "evm_mine")
	return err
}

// GetAutomine reports the automine setting (hardhat_getAutomine).
func (c Connection) GetAutomine(ctx context.Context) (bool, error) {
	raw, err := c.Send(ctx, "hardhat_getAutomine")
	if err != nil {
		return false, err
	}
	var enabled bool
	if err := json.Unmarshal(raw, &enabled); err != nil {
		return false, err
	}
	return enabled, nil
}

// NodeFlavor probes hardhat_getAutomine. Any failure means a non-hardhat node.
func (c Connection) NodeFlavor(ctx context.Context) Flavor {
	if _, err := c.GetAutomine(ctx); err != nil {
		return FlavorOther
	}
	return FlavorHardhat
}
