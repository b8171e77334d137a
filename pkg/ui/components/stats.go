// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds session totals for display.
type Stats struct {
	Blocks       uint64
	Submitted    int64
	Failed       int64
	Changes      int64
	EntropyHits  int64
	LastFailRate float64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update replaces the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	failRate := float64(0)
	if s.stats.Submitted > 0 {
		failRate = float64(s.stats.Failed) / float64(s.stats.Submitted) * 100
	}

	failedDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Failed))
	if s.stats.Failed > 0 {
		failedDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Failed))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Blocks: %s  │  Submitted: %s  │  Failed: %s (%.2f%%)\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Blocks)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Submitted)),
			failedDisplay,
			failRate,
		) +
		fmt.Sprintf("Changes: %s │  High entropy blocks: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Changes)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.EntropyHits)),
		)
}
