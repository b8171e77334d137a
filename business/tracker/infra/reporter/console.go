// Package reporter renders tracking progress for operators.
package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/fd1az/sothis/business/tracker/domain"
)

// Console prints each change as it is found and a table of the history on Done.
type Console struct {
	out   io.Writer
	mode  string
	start time.Time
}

// NewConsole creates a console reporter writing to stdout.
func NewConsole(mode string) *Console {
	return NewConsoleTo(os.Stdout, mode)
}

// NewConsoleTo creates a console reporter writing to out.
func NewConsoleTo(out io.Writer, mode string) *Console {
	return &Console{out: out, mode: mode}
}

func (r *Console) Start(ctx context.Context, list *domain.ChangeList) error {
	r.start = time.Now()
	label, key := list.Label()
	fmt.Fprintf(r.out, "sothis %s started for %s %s %s\n", r.mode, list.Address.Hex(), label, key)
	fmt.Fprintln(r.out, "======================================")
	return nil
}

func (r *Console) Changed(change domain.StateChange) {
	fmt.Fprintf(r.out, "[%s] block #%d: %s\n", time.Now().Format("15:04:05"), uint64(change.BlockNumber), change.Value)
}

// Progress is silent on the console; every change is already printed.
func (r *Console) Progress(block, terminal uint64) {}

// Done renders the recorded history and the output path.
func (r *Console) Done(list *domain.ChangeList, path string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Block", "Value"})
	for i, c := range list.StateChanges {
		t.AppendRow(table.Row{i + 1, strconv.FormatUint(uint64(c.BlockNumber), 10), c.Value})
	}
	t.AppendFooter(table.Row{"", "Changes", list.Len()})
	t.Render()

	fmt.Fprintf(r.out, "Written to:     %s\n", path)
	if !r.start.IsZero() {
		fmt.Fprintf(r.out, "Elapsed:        %s\n", time.Since(r.start).Round(time.Millisecond))
	}
}

func (r *Console) Stop() error {
	fmt.Fprintf(r.out, "sothis %s stopped\n", r.mode)
	return nil
}
