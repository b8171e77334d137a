// Package reporter renders replay progress for operators.
package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// HighEntropyLine formats the warning raised when a block's fail ratio is too high.
func HighEntropyLine(ratio decimal.Decimal) string {
	return fmt.Sprintf("High entropy detected! Fail ratio: %s%%. Consider restarting the fork",
		ratio.Mul(hundred).StringFixed(2))
}

// Console writes human-readable progress lines.
type Console struct {
	out   io.Writer
	mode  string
	start time.Time

	blocks int
	txs    int
	failed int
}

// NewConsole creates a console reporter writing to stdout.
func NewConsole(mode string) *Console {
	return NewConsoleTo(os.Stdout, mode)
}

// NewConsoleTo creates a console reporter writing to out.
func NewConsoleTo(out io.Writer, mode string) *Console {
	return &Console{out: out, mode: mode}
}

// Start prints the session banner.
func (r *Console) Start(ctx context.Context) error {
	r.start = time.Now()
	fmt.Fprintf(r.out, "sothis %s replay started\n", r.mode)
	fmt.Fprintln(r.out, "======================================")
	return nil
}

// BlockReplayed prints one line per mined block.
func (r *Console) BlockReplayed(number uint64, txs, failed int) {
	r.blocks++
	r.txs += txs
	r.failed += failed
	fmt.Fprintf(r.out, "[%s] replayed block #%d: %d txs, %d failed\n",
		time.Now().Format("15:04:05"), number, txs, failed)
}

// TxFailed prints the rejected transaction.
func (r *Console) TxFailed(hash common.Hash, err error) {
	fmt.Fprintf(r.out, "  ✗ %s: %v\n", hash.Hex(), err)
}

// HighEntropy prints the entropy warning.
func (r *Console) HighEntropy(ratio decimal.Decimal) {
	fmt.Fprintf(r.out, "  ! %s\n", HighEntropyLine(ratio))
}

// Done prints the session summary.
func (r *Console) Done(head uint64) {
	fmt.Fprintln(r.out, "--------------------------------------")
	fmt.Fprintf(r.out, "Replay head:    #%d\n", head)
	fmt.Fprintf(r.out, "Blocks:         %d\n", r.blocks)
	fmt.Fprintf(r.out, "Transactions:   %d (%d failed)\n", r.txs, r.failed)
	if !r.start.IsZero() {
		fmt.Fprintf(r.out, "Elapsed:        %s\n", time.Since(r.start).Round(time.Millisecond))
	}
}

// Stop prints the closing line.
func (r *Console) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintf(r.out, "sothis %s replay stopped\n", r.mode)
	return nil
}
