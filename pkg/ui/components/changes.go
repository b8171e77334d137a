// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ChangeRow is one recorded value change.
type ChangeRow struct {
	BlockNumber uint64
	Value       string
}

// ChangesComponent renders the tracked value history with scrolling.
type ChangesComponent struct {
	rows    []ChangeRow
	visible int
	offset  int
}

// NewChangesComponent creates a component that shows visible rows at a time.
func NewChangesComponent(visible int) *ChangesComponent {
	return &ChangesComponent{visible: visible}
}

// Add appends a change. The view follows the tail unless scrolled.
func (c *ChangesComponent) Add(row ChangeRow) {
	following := c.offset == c.maxOffset()
	c.rows = append(c.rows, row)
	if following {
		c.offset = c.maxOffset()
	}
}

// Clear drops all rows.
func (c *ChangesComponent) Clear() {
	c.rows = nil
	c.offset = 0
}

// ScrollUp moves the window one row towards older changes.
func (c *ChangesComponent) ScrollUp() {
	if c.offset > 0 {
		c.offset--
	}
}

// ScrollDown moves the window one row towards newer changes.
func (c *ChangesComponent) ScrollDown() {
	if c.offset < c.maxOffset() {
		c.offset++
	}
}

// Len returns the number of recorded changes.
func (c *ChangesComponent) Len() int {
	return len(c.rows)
}

func (c *ChangesComponent) maxOffset() int {
	if len(c.rows) <= c.visible {
		return 0
	}
	return len(c.rows) - c.visible
}

// View renders the changes component.
func (c *ChangesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	blockStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("STATE CHANGES (%d)", len(c.rows))))
	sb.WriteString("\n\n")

	if len(c.rows) == 0 {
		sb.WriteString(mutedStyle.Render("  No changes recorded yet..."))
		return sb.String()
	}

	end := c.offset + c.visible
	if end > len(c.rows) {
		end = len(c.rows)
	}
	for _, row := range c.rows[c.offset:end] {
		sb.WriteString("  ")
		sb.WriteString(blockStyle.Render(fmt.Sprintf("#%-10d", row.BlockNumber)))
		sb.WriteString(" ")
		sb.WriteString(row.Value)
		sb.WriteString("\n")
	}
	if c.offset > 0 || end < len(c.rows) {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("  showing %d-%d of %d", c.offset+1, end, len(c.rows))))
	}
	return sb.String()
}
