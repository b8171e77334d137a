package reporter

import (
	"context"
	"fmt"

	"github.com/fd1az/sothis/business/tracker/domain"
	"github.com/fd1az/sothis/pkg/ui"
)

// TUI forwards tracking progress to the Bubble Tea program.
type TUI struct {
	mode   string
	source string
	send   func(msg any)
}

func NewTUI(mode, source string) *TUI {
	return &TUI{
		mode:   mode,
		source: source,
		send:   func(msg any) { ui.Send(msg) },
	}
}

func (r *TUI) Start(ctx context.Context, list *domain.ChangeList) error {
	label, key := list.Label()
	r.send(ui.SessionMsg{Mode: r.mode, Source: r.source, Target: fmt.Sprintf("%s %s %s", list.Address.Hex(), label, key)})
	r.send(ui.ConnectionStatusMsg{Name: "source", Connected: true})
	return nil
}

func (r *TUI) Changed(change domain.StateChange) {
	r.send(ui.StateChangeMsg{BlockNumber: uint64(change.BlockNumber), Value: change.Value})
}

func (r *TUI) Progress(block, terminal uint64) {
	r.send(ui.ProgressMsg{Block: block, Terminal: terminal})
}

func (r *TUI) Done(list *domain.ChangeList, path string) {
	var head uint64
	if last, ok := list.Last(); ok {
		head = uint64(last.BlockNumber)
	}
	r.send(ui.DoneMsg{Head: head, Summary: fmt.Sprintf("%d changes written to %s", list.Len(), path)})
}

// Stop is a no-op; the program is owned by main.
func (r *TUI) Stop() error {
	return nil
}
