package reporter

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sothis/pkg/ui"
)

// TUI forwards replay progress to the Bubble Tea program.
type TUI struct {
	mode   string
	source string
	target string
	send   func(msg any)
}

// NewTUI creates a reporter that talks to the running ui.Program.
func NewTUI(mode, source, target string) *TUI {
	return &TUI{
		mode:   mode,
		source: source,
		target: target,
		send:   func(msg any) { ui.Send(msg) },
	}
}

// Start announces the session to the dashboard.
func (r *TUI) Start(ctx context.Context) error {
	r.send(ui.SessionMsg{Mode: r.mode, Source: r.source, Target: r.target})
	r.send(ui.ConnectionStatusMsg{Name: "source", Connected: true})
	r.send(ui.ConnectionStatusMsg{Name: "replay", Connected: true})
	return nil
}

func (r *TUI) BlockReplayed(number uint64, txs, failed int) {
	r.send(ui.BlockReplayedMsg{Number: number, Txs: txs, Failed: failed})
}

func (r *TUI) TxFailed(hash common.Hash, err error) {
	r.send(ui.TxFailedMsg{Hash: hash.Hex(), Error: err.Error()})
}

func (r *TUI) HighEntropy(ratio decimal.Decimal) {
	r.send(ui.HighEntropyMsg{Ratio: ratio})
}

func (r *TUI) Done(head uint64) {
	r.send(ui.DoneMsg{Head: head, Summary: fmt.Sprintf("replay finished at block #%d", head)})
}

// Stop is a no-op; the program is owned by main.
func (r *TUI) Stop() error {
	return nil
}
