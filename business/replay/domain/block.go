// Package domain contains the core types of the replay context.
package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Block is a source block as fetched with full transactions.
type Block struct {
	Number       hexutil.Uint64 `json:"number"`
	Hash         common.Hash    `json:"hash"`
	Timestamp    hexutil.Uint64 `json:"timestamp"`
	Transactions []Transaction  `json:"transactions"`
}

// Kind is the envelope shape a transaction is re-encoded as.
type Kind int

const (
	KindLegacy Kind = iota
	KindAccessList
	KindFeeMarket
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindLegacy:
		return "legacy"
	case KindAccessList:
		return "access-list"
	case KindFeeMarket:
		return "fee-market"
	}
	return "unsupported"
}

// Transaction is a source transaction record. To is nil for contract creation.
// Input keeps the node's text so it can be normalized before decoding.
type Transaction struct {
	Hash                 common.Hash       `json:"hash"`
	Type                 hexutil.Uint64    `json:"type"`
	From                 common.Address    `json:"from"`
	To                   *common.Address   `json:"to"`
	Value                *hexutil.Big      `json:"value"`
	Gas                  hexutil.Uint64    `json:"gas"`
	GasPrice             *hexutil.Big      `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big      `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big      `json:"maxPriorityFeePerGas,omitempty"`
	Input                string            `json:"input"`
	Nonce                hexutil.Uint64    `json:"nonce"`
	ChainID              *hexutil.Big      `json:"chainId,omitempty"`
	AccessList           *types.AccessList `json:"accessList,omitempty"`
	V                    *hexutil.Big      `json:"v"`
	R                    *hexutil.Big      `json:"r"`
	S                    *hexutil.Big      `json:"s"`
}

// Kind selects the envelope by field presence: fee-market fields win,
// then an explicit type 1, otherwise legacy. Blob and set-code types carry
// sidecar data the record does not include.
func (tx Transaction) Kind() Kind {
	switch {
	case tx.Type > types.DynamicFeeTxType:
		return KindUnsupported
	case tx.MaxFeePerGas != nil:
		return KindFeeMarket
	case tx.Type == types.AccessListTxType:
		return KindAccessList
	}
	return KindLegacy
}

// IsContractCreation reports whether the transaction deploys a contract.
func (tx Transaction) IsContractCreation() bool {
	return tx.To == nil
}
