package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/tripwise/assistant-tui/internal/payload"
)

func TestModalHelpShowAndHide(t *testing.T) {
	m := NewModal(DefaultDarkTheme())
	assert.False(t, m.IsVisible())

	m.ShowHelp()
	m.SetSize(100, 40)
	assert.True(t, m.IsVisible())
	assert.Contains(t, m.View(), "Phím tắt")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.IsVisible())
	assert.Empty(t, m.View())
}

func TestModalResultDetail(t *testing.T) {
	m := NewModal(DefaultDarkTheme())
	m.SetSize(100, 40)
	m.ShowResult(payload.Result{
		"title":       "Vé VN123",
		"subtitle":    "HAN → DAD",
		"description": "Khởi hành 06:00",
		"type":        "flight",
		"ids":         map[string]any{"flightId": "VN123-0600"},
	})

	out := m.View()
	assert.Contains(t, out, "Chi tiết kết quả")
	assert.Contains(t, out, "Vé VN123")
	assert.Contains(t, out, "Khởi hành 06:00")
	assert.Contains(t, out, "flight")
	assert.Contains(t, out, "VN123-0600")
}

func TestModalScrollBounds(t *testing.T) {
	m := NewModal(DefaultDarkTheme())
	m.SetSize(80, 24)
	m.ShowHelp()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, m.scroll, "scrolling above the top clamps at zero")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, m.scroll)
}
