// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus is the state of one node connection.
type ConnectionStatus struct {
	Name       string
	Connected  bool
	Latency    time.Duration
	LastUpdate time.Time
}

// StatusComponent renders node connection status in insertion order.
type StatusComponent struct {
	connections []ConnectionStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{
		connections: make([]ConnectionStatus, 0, 2),
	}
}

// Update upserts a connection's status.
func (s *StatusComponent) Update(status ConnectionStatus) {
	for i, conn := range s.connections {
		if conn.Name == status.Name {
			s.connections[i] = status
			return
		}
	}
	s.connections = append(s.connections, status)
}

// View renders the status component.
func (s *StatusComponent) View() string {
	if len(s.connections) == 0 {
		return "No connections"
	}

	var result string
	for i, conn := range s.connections {
		status := "● " + conn.Name
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
		if !conn.Connected {
			status = "○ " + conn.Name + " (disconnected)"
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
		}
		if i > 0 {
			result += "  │  "
		}
		result += style.Render(status)
		if conn.Connected && conn.Latency > 0 {
			result += fmt.Sprintf(" (%dms)", conn.Latency.Milliseconds())
		}
	}
	return result
}
