package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tripwise/assistant-tui/internal/audio"
	"github.com/tripwise/assistant-tui/internal/chat"
)

// View renders the entire UI
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Đang tải..."
	}

	if m.modal.IsVisible() {
		return m.modal.View()
	}

	header := m.header.View()
	transcript := m.transcript.View()
	voiceLine := m.renderVoiceLine()
	statusBar := m.renderStatusBar()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		transcript,
		voiceLine,
		statusBar,
	)
}

// renderVoiceLine shows recording and voice-turn progress above the status
// bar.
func (m Model) renderVoiceLine() string {
	theme := m.themes.GetTheme()

	switch m.deps.Recorder.State() {
	case audio.Recording:
		return lipgloss.NewStyle().Foreground(theme.Recording).
			Render(fmt.Sprintf(" ● Đang ghi âm %s (Ctrl+R để kết thúc)", fmtDuration(m.recordElapsed)))
	case audio.Paused:
		return lipgloss.NewStyle().Foreground(theme.VoiceStage).
			Render(fmt.Sprintf(" ‖ Tạm dừng %s (Ctrl+P để tiếp tục)", fmtDuration(m.recordElapsed)))
	}

	voice := m.deps.Voice
	stageStyle := lipgloss.NewStyle().Foreground(theme.VoiceStage)
	switch voice.Stage() {
	case chat.StageTranscription:
		text := voice.Transcription()
		if text == "" {
			text = "…"
		}
		return stageStyle.Render(" 🎤 Nghe được: " + text)
	case chat.StageProcessing:
		return stageStyle.Render(" " + m.spinner.View() + " Đang xử lý giọng nói...")
	case chat.StageResponse:
		line := " ✓ " + voice.Response()
		if ms := voice.ProcessingTime(); ms > 0 {
			line += fmt.Sprintf(" (%d ms)", ms)
		}
		return lipgloss.NewStyle().Foreground(theme.Success).Render(line)
	}

	if voice.InFlight() {
		return stageStyle.Render(" " + m.spinner.View() + " Đang chờ phản hồi giọng nói...")
	}
	return ""
}

// renderStatusBar renders the status bar
func (m Model) renderStatusBar() string {
	theme := m.themes.GetTheme()
	style := lipgloss.NewStyle().
		Foreground(theme.StatusBarText).
		Background(theme.StatusBar)

	status := " " + m.statusBar
	if m.deps.Conversation.Busy() {
		status = " " + m.spinner.View() + status
	}

	padding := m.width - lipgloss.Width(status)
	if padding > 0 {
		status += strings.Repeat(" ", padding)
	}

	return style.Render(status)
}
