package txcodec

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/fd1az/sothis/business/replay/domain"
)

// UnsignedParams is the eth_sendUnsignedTransaction parameter object.
// It carries no signature.
type UnsignedParams struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to,omitempty"`
	Value    *hexutil.Big    `json:"value"`
	Gas      hexutil.Uint64  `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Data     hexutil.Bytes   `json:"data"`
	Nonce    hexutil.Uint64  `json:"nonce"`
	ChainID  hexutil.Uint64  `json:"chainId"`
}

// EncodeUnsigned copies the submittable fields of tx and sets chainID.
func EncodeUnsigned(tx domain.Transaction, chainID uint64) (UnsignedParams, error) {
	data, err := DecodeInput(tx.Input)
	if err != nil {
		return UnsignedParams{}, err
	}

	return UnsignedParams{
		From:     tx.From,
		To:       copyAddress(tx.To),
		Value:    (*hexutil.Big)(bigOrZero(tx.Value)),
		Gas:      tx.Gas,
		GasPrice: (*hexutil.Big)(bigOrZero(tx.GasPrice)),
		Data:     data,
		Nonce:    tx.Nonce,
		ChainID:  hexutil.Uint64(chainID),
	}, nil
}
