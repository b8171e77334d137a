// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// BlockRow is one replayed block.
type BlockRow struct {
	Number uint64
	Txs    int
	Failed int
}

// BlocksComponent renders the most recently replayed blocks, newest first.
type BlocksComponent struct {
	rows    []BlockRow
	maxRows int
}

// NewBlocksComponent creates a new blocks component.
func NewBlocksComponent(maxRows int) *BlocksComponent {
	return &BlocksComponent{
		rows:    make([]BlockRow, 0, maxRows),
		maxRows: maxRows,
	}
}

// Add records a replayed block.
func (b *BlocksComponent) Add(row BlockRow) {
	b.rows = append([]BlockRow{row}, b.rows...)
	if len(b.rows) > b.maxRows {
		b.rows = b.rows[:b.maxRows]
	}
}

// Clear drops all rows.
func (b *BlocksComponent) Clear() {
	b.rows = make([]BlockRow, 0, b.maxRows)
}

// Len returns the number of rows held.
func (b *BlocksComponent) Len() int {
	return len(b.rows)
}

// View renders the blocks component.
func (b *BlocksComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	if len(b.rows) == 0 {
		return headerStyle.Render("REPLAYED BLOCKS") + "\n\n  Waiting for the first block..."
	}

	result := headerStyle.Render(fmt.Sprintf("REPLAYED BLOCKS (last %d)", b.maxRows)) + "\n"
	result += "┌────────────┬────────┬────────┬──────────┐\n"
	result += "│   Block    │  Txs   │ Failed │  Ratio   │\n"
	result += "├────────────┼────────┼────────┼──────────┤\n"

	for _, row := range b.rows {
		ratio := 0.0
		if row.Txs > 0 {
			ratio = float64(row.Failed) / float64(row.Txs) * 100
		}
		style := okStyle
		if row.Failed > 0 {
			style = failStyle
		}
		result += fmt.Sprintf("│%11d │%7d │%7d │ %s │\n",
			row.Number,
			row.Txs,
			row.Failed,
			style.Render(fmt.Sprintf("%7.2f%%", ratio)),
		)
	}

	result += "└────────────┴────────┴────────┴──────────┘"
	return result
}
