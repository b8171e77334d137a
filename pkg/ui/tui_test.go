package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func TestModel_ReplayProgress(t *testing.T) {
	m := update(t, New(),
		SessionMsg{Mode: "historic", Source: "http://source", Target: "http://replay"},
		BlockReplayedMsg{Number: 1, Txs: 10, Failed: 1},
		BlockReplayedMsg{Number: 2, Txs: 4, Failed: 0},
		HighEntropyMsg{Ratio: decimal.RequireFromString("0.1")},
	)

	assert.Equal(t, PhaseDashboard, m.phase)
	assert.Equal(t, uint64(2), m.currentBlock)
	assert.Equal(t, 2, m.blocks.Len())

	st := m.stats.Stats()
	assert.Equal(t, uint64(2), st.Blocks)
	assert.Equal(t, int64(14), st.Submitted)
	assert.Equal(t, int64(1), st.Failed)
	assert.Equal(t, int64(1), st.EntropyHits)

	require.Len(t, m.errors, 1)
	assert.Equal(t, "High entropy detected! Fail ratio: 10.00%. Consider restarting the fork", m.errors[0].Message)
	assert.Contains(t, m.View(), "REPLAYED BLOCKS")
}

func TestModel_TrackingShowsChanges(t *testing.T) {
	m := update(t, New(),
		SessionMsg{Mode: "fast-track"},
		StateChangeMsg{BlockNumber: 10, Value: "0x01"},
		StateChangeMsg{BlockNumber: 12, Value: "0x02"},
		ProgressMsg{Block: 12, Terminal: 20},
	)

	assert.Equal(t, 2, m.changes.Len())
	assert.Equal(t, int64(2), m.stats.Stats().Changes)
	view := m.View()
	assert.Contains(t, view, "STATE CHANGES (2)")
	assert.Contains(t, view, "#12 / #20")
}

func TestModel_ErrorsAreCapped(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		m = update(t, m, ErrorMsg{Error: errors.New("boom")})
	}
	assert.Len(t, m.errors, maxErrors)

	m = update(t, m, SessionMsg{Mode: "live"}, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	assert.Empty(t, m.errors)
}

func TestModel_QuitCallsHook(t *testing.T) {
	called := false
	OnQuit = func() { called = true }
	t.Cleanup(func() { OnQuit = nil })

	next, cmd := New().Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, called)
	assert.NotNil(t, cmd)
	assert.True(t, next.(Model).quitting)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0xabcd", shortHash("0xabcd"))
	assert.Equal(t, "0xabcdef…7890", shortHash("0xabcdef0000000000000000001234567890"))
}
