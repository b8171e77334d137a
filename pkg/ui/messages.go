// Package ui provides the Bubble Tea TUI for sothis sessions.
package ui

import (
	"time"

	"github.com/shopspring/decimal"
)

// Message types for TUI updates

// SessionMsg describes the session once it starts.
type SessionMsg struct {
	Mode   string // "historic", "live", "track", "fast-track", "call-track"
	Source string
	Target string // replay node URL or tracked contract
}

// ConnectionStatusMsg is sent when a node connection changes state.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// BlockReplayedMsg is sent after a block is mined on the replay node.
type BlockReplayedMsg struct {
	Number uint64
	Txs    int
	Failed int
}

// TxFailedMsg is sent for each rejected submission.
type TxFailedMsg struct {
	Hash  string
	Error string
}

// HighEntropyMsg is sent when a block's fail ratio exceeds the threshold.
type HighEntropyMsg struct {
	Ratio decimal.Decimal
}

// StateChangeMsg is sent when a tracked value changes.
type StateChangeMsg struct {
	BlockNumber uint64
	Value       string
}

// ProgressMsg reports the block a scan or watch is at.
type ProgressMsg struct {
	Block    uint64
	Terminal uint64 // 0 when unbounded
}

// DoneMsg is sent when the session loop exits.
type DoneMsg struct {
	Head    uint64
	Summary string
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}
