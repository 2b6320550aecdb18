package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tripwise/assistant-tui/internal/transport"
)

// Header is the one-line bar above the transcript: connection state,
// conversation id, and message count.
type Header struct {
	width          int
	conversationID string
	connState      transport.State
	messageCount   int
	theme          *Theme
}

// NewHeader creates the header.
func NewHeader(theme *Theme) *Header {
	return &Header{
		width: 80,
		theme: theme,
	}
}

// View renders the header.
func (h Header) View() string {
	headerStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(h.theme.Border).
		Padding(0, 1)

	indicator := "○"
	color := h.theme.Error
	switch h.connState {
	case transport.Connected:
		indicator = "●"
		color = h.theme.Success
	case transport.Connecting, transport.Reconnecting:
		indicator = "◐"
		color = h.theme.VoiceStage
	}
	connStatus := lipgloss.NewStyle().Foreground(color).Render(indicator)

	conv := h.conversationID
	if conv == "" {
		conv = "cuộc trò chuyện mới"
	}

	leftContent := fmt.Sprintf("%s ✈ TripWise | %s", connStatus, conv)
	rightContent := fmt.Sprintf("Tin nhắn: %d", h.messageCount)

	padding := h.width - lipgloss.Width(leftContent) - lipgloss.Width(rightContent) - 4
	if padding < 1 {
		padding = 1
	}
	spacer := lipgloss.NewStyle().Width(padding).Render(" ")

	return headerStyle.Width(h.width).Render(leftContent + spacer + rightContent)
}

// SetSize updates the header width
func (h *Header) SetSize(width int) {
	h.width = width
}

// SetConversationID updates the conversation id
func (h *Header) SetConversationID(id string) {
	h.conversationID = id
}

// SetMessageCount updates the message count
func (h *Header) SetMessageCount(count int) {
	h.messageCount = count
}

// SetConnectionState updates the connection indicator
func (h *Header) SetConnectionState(s transport.State) {
	h.connState = s
}
