// Package app contains the replay engine and its port definitions.
package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sothis/business/replay/domain"
)

// SourceNode is the read-only node history is taken from.
type SourceNode interface {
	ChainID(ctx context.Context) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number uint64) (*domain.Block, error)
	ListenForBlocks(ctx context.Context, interval time.Duration) (uint64, error)
}

// ReplayNode is the sandbox node blocks are replayed onto.
type ReplayNode interface {
	ChainID(ctx context.Context) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
	SetAutomine(ctx context.Context, enabled bool) error
	SetIntervalMining(ctx context.Context, intervalMs uint64) error
	SetNextBlockTimestamp(ctx context.Context, unixSeconds uint64) error
	Mine(ctx context.Context) error
	// SupportsUnsigned probes whether eth_sendUnsignedTransaction is likely available.
	SupportsUnsigned(ctx context.Context) bool
}

// Submitter sends one transaction to the replay node. It is chosen once per session.
type Submitter interface {
	Submit(ctx context.Context, tx domain.Transaction, chainID uint64) (string, error)
	Mode() domain.SubmissionMode
}

// Reporter receives session progress.
type Reporter interface {
	Start(ctx context.Context) error
	BlockReplayed(number uint64, txs, failed int)
	TxFailed(hash common.Hash, err error)
	HighEntropy(ratio decimal.Decimal)
	Done(head uint64)
	Stop() error
}
