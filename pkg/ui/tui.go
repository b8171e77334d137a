// Package ui provides the Bubble Tea TUI for sothis sessions.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sothis/pkg/ui/components"
)

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Connecting to nodes
	PhaseDashboard Phase = "dashboard" // Session running or finished
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

const maxErrors = 3

var hundred = decimal.NewFromInt(100)

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	blocks  *components.BlocksComponent
	changes *components.ChangesComponent
	stats   *components.StatsComponent
	status  *components.StatusComponent
	keys    KeyMap
	help    help.Model

	// Phase state
	phase        Phase
	welcomeStart time.Time
	startupTime  time.Time

	// State
	quitting     bool
	width        int
	height       int
	session      *SessionMsg
	currentBlock uint64
	terminal     uint64
	lastUpdate   time.Time
	errors       []ErrorEntry
	activityFeed []string
	done         *DoneMsg
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		blocks:       components.NewBlocksComponent(10),
		changes:      components.NewChangesComponent(12),
		stats:        components.NewStatsComponent(),
		status:       components.NewStatusComponent(),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		startupTime:  now,
		errors:       make([]ErrorEntry, 0, maxErrors),
		activityFeed: make([]string, 0, 8),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m *Model) enterStartup() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// run the callback directly, Send() must not be used from within Update
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			if OnQuit != nil {
				OnQuit()
			}
			return m, tea.Quit
		}
		if m.phase == PhaseWelcome {
			m.enterStartup()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.blocks.Clear()
			m.activityFeed = m.activityFeed[:0]
		case key.Matches(msg, m.keys.Up):
			m.changes.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.changes.ScrollDown()
		case key.Matches(msg, m.keys.Errors):
			m.errors = make([]ErrorEntry, 0, maxErrors)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.enterStartup()
		}
		return m, tickCmd()

	case SessionMsg:
		m.session = &msg
		m.phase = PhaseDashboard
		m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("%s session started", msg.Mode))

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:       msg.Name,
			Connected:  msg.Connected,
			Latency:    msg.Latency,
			LastUpdate: time.Now(),
		})
		m.lastUpdate = time.Now()

	case BlockReplayedMsg:
		m.blocks.Add(components.BlockRow{Number: msg.Number, Txs: msg.Txs, Failed: msg.Failed})
		st := m.stats.Stats()
		st.Blocks++
		st.Submitted += int64(msg.Txs)
		st.Failed += int64(msg.Failed)
		m.stats.Update(st)
		m.currentBlock = msg.Number
		m.lastUpdate = time.Now()
		m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("Block #%d replayed (%d txs, %d failed)", msg.Number, msg.Txs, msg.Failed))

	case TxFailedMsg:
		m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("tx %s failed: %s", shortHash(msg.Hash), msg.Error))

	case HighEntropyMsg:
		st := m.stats.Stats()
		st.EntropyHits++
		st.LastFailRate = msg.Ratio.Mul(hundred).InexactFloat64()
		m.stats.Update(st)
		m = m.withError(fmt.Sprintf("High entropy detected! Fail ratio: %s%%. Consider restarting the fork",
			msg.Ratio.Mul(hundred).StringFixed(2)))

	case StateChangeMsg:
		m.changes.Add(components.ChangeRow{BlockNumber: msg.BlockNumber, Value: msg.Value})
		st := m.stats.Stats()
		st.Changes++
		m.stats.Update(st)
		m.lastUpdate = time.Now()
		m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("Block #%d value changed", msg.BlockNumber))

	case ProgressMsg:
		m.currentBlock = msg.Block
		m.terminal = msg.Terminal
		m.lastUpdate = time.Now()

	case DoneMsg:
		m.done = &msg
		m.activityFeed = addActivity(m.activityFeed, msg.Summary)

	case ErrorMsg:
		if msg.Error != nil {
			m = m.withError(msg.Error.Error())
		}

	case LogMsg:
		m.activityFeed = addActivity(m.activityFeed, msg.Level+": "+msg.Message)
	}

	return m, nil
}

func (m Model) withError(message string) Model {
	m.errors = append(m.errors, ErrorEntry{Message: message, Timestamp: time.Now()})
	if len(m.errors) > maxErrors {
		m.errors = m.errors[len(m.errors)-maxErrors:]
	}
	return m
}

func shortHash(h string) string {
	if len(h) <= 14 {
		return h
	}
	return h[:8] + "…" + h[len(h)-4:]
}

// addActivity adds an activity message and returns the updated slice (keeps last 6).
func addActivity(feed []string, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	line := fmt.Sprintf("[%s] %s", timestamp, message)
	feed = append(feed, line)
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Stopping session...\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	mode := "session"
	if m.session != nil {
		mode = m.session.Mode
	}
	b.WriteString(TitleStyle.Render(" sothis · " + mode + " "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	// Replay sessions show blocks on the left, tracking sessions show changes.
	leftCol := m.blocks.View()
	if m.isTracking() || (m.blocks.Len() == 0 && m.changes.Len() > 0) {
		leftCol = m.changes.View()
	}
	rightCol := m.renderActivityFeed() + "\n\n" + m.stats.View()

	if m.width > 100 {
		left := BoxStyle.Width(m.width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		b.WriteString(BoxStyle.Width(max(m.width-4, 40)).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(max(m.width-4, 40)).Render(rightCol))
	}
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(ColorDanger).Render("WARNINGS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(FailureValue.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.done != nil {
		b.WriteString(WarningValue.Render("■ DONE"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) isTracking() bool {
	if m.session == nil {
		return false
	}
	switch m.session.Mode {
	case "track", "fast-track", "call-track":
		return true
	}
	return false
}

// renderActivityFeed renders the recent activity feed.
func (m Model) renderActivityFeed() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activityFeed) == 0 {
		sb.WriteString(MutedValue.Render("  Waiting for blocks..."))
		return sb.String()
	}
	for _, activity := range m.activityFeed {
		if strings.Contains(activity, "Block #") {
			sb.WriteString(BlockValue.Render("  " + activity))
		} else {
			sb.WriteString(MutedValue.Render("  " + activity))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	logo := `
   ███████╗ ██████╗ ████████╗██╗  ██╗██╗███████╗
   ██╔════╝██╔═══██╗╚══██╔══╝██║  ██║██║██╔════╝
   ███████╗██║   ██║   ██║   ███████║██║███████╗
   ╚════██║██║   ██║   ██║   ██╔══██║██║╚════██║
   ███████║╚██████╔╝   ██║   ██║  ██║██║███████║
   ╚══════╝ ╚═════╝    ╚═╝   ╚═╝  ╚═╝╚═╝╚══════╝
`
	var sb strings.Builder
	sb.WriteString("\n\n\n\n")
	sb.WriteString(HeaderStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("        chain history replay and state tracking"))
	sb.WriteString("\n\n\n")
	sb.WriteString(SuccessValue.Render(fmt.Sprintf("                  Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("            Press any key to skip, or wait..."))
	sb.WriteString("\n")
	return sb.String()
}

// renderStartupScreen renders the connecting screen shown until the session starts.
func (m Model) renderStartupScreen() string {
	spinners := []string{"◐", "◓", "◑", "◒"}
	idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(HeaderStyle.Render("  sothis"))
	sb.WriteString("\n\n")
	sb.WriteString(WarningValue.Render("  " + spinners[idx] + " Connecting to nodes..."))
	sb.WriteString("\n\n  ")
	sb.WriteString(m.status.View())
	sb.WriteString("\n\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n")
	for _, err := range m.errors {
		sb.WriteString(FailureValue.Render("  • " + err.Message))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if time.Since(m.lastUpdate) < 500*time.Millisecond && m.done == nil {
		spinners := []string{"⟳", "◐", "◓", "◑", "◒"}
		idx := int(time.Now().UnixMilli()/100) % len(spinners)
		parts = append(parts, StatusConnected.Render(spinners[idx]+" Working"))
	}

	blockStr := fmt.Sprintf("Block: #%d", m.currentBlock)
	if m.terminal > 0 {
		blockStr += fmt.Sprintf(" / #%d", m.terminal)
	}
	parts = append(parts, blockStr)
	parts = append(parts, m.status.View())

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}
	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and the session should start.
var OnStartModules func()

// OnQuit is called when the operator quits the TUI. main.go wires it to the interrupt token.
var OnQuit func()

// Run starts the Bubble Tea program and blocks until it exits.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
