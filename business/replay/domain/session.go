package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubmissionMode selects how transactions reach the replay node.
type SubmissionMode string

const (
	// SubmissionRaw re-encodes the signed envelope for eth_sendRawTransaction.
	SubmissionRaw SubmissionMode = "raw"
	// SubmissionUnsignedUnsafe uses eth_sendUnsignedTransaction, which skips
	// signature checks. Trusted sandbox nodes only.
	SubmissionUnsignedUnsafe SubmissionMode = "unsigned-unsafe"
)

// SessionConfig is built once per replay session.
type SessionConfig struct {
	EntropyThreshold    decimal.Decimal
	ExitOnTxFail        bool
	SubmissionMode      SubmissionMode
	ReplayDelay         time.Duration
	BlockListenInterval time.Duration
}

// DefaultEntropyThreshold is the fail ratio above which a warning is raised.
var DefaultEntropyThreshold = decimal.RequireFromString("0.07")
