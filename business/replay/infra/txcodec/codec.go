// Package txcodec turns fetched transactions into payloads the replay node accepts.
package txcodec

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/sothis/business/replay/domain"
	"github.com/fd1az/sothis/internal/apperror"
)

// DecodeInput normalizes input data with or without a 0x prefix.
func DecodeInput(input string) ([]byte, error) {
	b, err := hexutil.Decode("0x" + strings.TrimPrefix(input, "0x"))
	if err != nil {
		return nil, apperror.New(apperror.CodeTransactionEncodingFailure,
			apperror.WithMessage("invalid transaction input"), apperror.WithCause(err))
	}
	return b, nil
}

// EncodeRaw rebuilds the signed envelope of tx for chainID, reattaches the
// original signature and returns the 0x-prefixed binary encoding.
func EncodeRaw(tx domain.Transaction, chainID uint64) (string, error) {
	inner, err := envelope(tx, new(big.Int).SetUint64(chainID))
	if err != nil {
		return "", err
	}

	raw, err := types.NewTx(inner).MarshalBinary()
	if err != nil {
		return "", apperror.New(apperror.CodeTransactionEncodingFailure,
			apperror.WithContext(tx.Hash.Hex()), apperror.WithCause(err))
	}
	return hexutil.Encode(raw), nil
}

func envelope(tx domain.Transaction, chainID *big.Int) (types.TxData, error) {
	data, err := DecodeInput(tx.Input)
	if err != nil {
		return nil, err
	}

	var accessList types.AccessList
	if tx.AccessList != nil {
		accessList = *tx.AccessList
	}

	switch tx.Kind() {
	case domain.KindLegacy:
		return &types.LegacyTx{
			Nonce:    uint64(tx.Nonce),
			GasPrice: bigOrZero(tx.GasPrice),
			Gas:      uint64(tx.Gas),
			To:       copyAddress(tx.To),
			Value:    bigOrZero(tx.Value),
			Data:     data,
			V:        bigOrZero(tx.V),
			R:        bigOrZero(tx.R),
			S:        bigOrZero(tx.S),
		}, nil
	case domain.KindAccessList:
		return &types.AccessListTx{
			ChainID:    chainID,
			Nonce:      uint64(tx.Nonce),
			GasPrice:   bigOrZero(tx.GasPrice),
			Gas:        uint64(tx.Gas),
			To:         copyAddress(tx.To),
			Value:      bigOrZero(tx.Value),
			Data:       data,
			AccessList: accessList,
			V:          bigOrZero(tx.V),
			R:          bigOrZero(tx.R),
			S:          bigOrZero(tx.S),
		}, nil
	case domain.KindFeeMarket:
		return &types.DynamicFeeTx{
			ChainID:    chainID,
			Nonce:      uint64(tx.Nonce),
			GasTipCap:  bigOrZero(tx.MaxPriorityFeePerGas),
			GasFeeCap:  bigOrZero(tx.MaxFeePerGas),
			Gas:        uint64(tx.Gas),
			To:         copyAddress(tx.To),
			Value:      bigOrZero(tx.Value),
			Data:       data,
			AccessList: accessList,
			V:          bigOrZero(tx.V),
			R:          bigOrZero(tx.R),
			S:          bigOrZero(tx.S),
		}, nil
	}

	return nil, apperror.New(apperror.CodeTransactionEncodingFailure,
		apperror.WithMessage("unsupported transaction type "+hexutil.EncodeUint64(uint64(tx.Type))),
		apperror.WithContext(tx.Hash.Hex()))
}

func bigOrZero(v *hexutil.Big) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.ToInt())
}

func copyAddress(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}
