// Package app contains the tracking engine and its port definitions.
package app

import (
	"context"
	"time"

	"github.com/fd1az/sothis/business/tracker/domain"
)

// HeadSource is the node whose history is observed.
type HeadSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	ListenForBlocks(ctx context.Context, interval time.Duration) (uint64, error)
}

// Probe reads the tracked value at a block tag ("latest" or 0x-hex).
type Probe interface {
	Value(ctx context.Context, blockTag string) (string, error)
	// Describe names the probe for logs, e.g. "storage slot" or "eth_call".
	Describe() string
}

// Sink persists a finished ChangeList and returns where it went.
type Sink interface {
	Write(list *domain.ChangeList, target domain.OutputTarget) (string, error)
}

// Reporter receives tracking progress.
type Reporter interface {
	Start(ctx context.Context, list *domain.ChangeList) error
	Changed(change domain.StateChange)
	Progress(block, terminal uint64)
	Done(list *domain.ChangeList, path string)
	Stop() error
}
