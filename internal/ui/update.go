package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tripwise/assistant-tui/internal/audio"
	"github.com/tripwise/assistant-tui/internal/chat"
	"github.com/tripwise/assistant-tui/internal/protocol"
	"github.com/tripwise/assistant-tui/internal/transport"
)

// Update handles all state transitions
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateComponentSizes()
		m.refreshTranscript()
		return m, nil

	case InitiateConnectionMsg:
		m.statusBar = "Đang kết nối..."
		return m, m.connectCmd()

	case ConnectedMsg:
		m.statusBar = "Đã kết nối"
		m.errorHandler.Reset()
		m.header.SetConnectionState(m.deps.Manager.State())
		if !m.historyLoaded && m.deps.Config.ConversationID != "" {
			m.historyLoaded = true
			m.deps.Conversation.LoadHistory(m.deps.Config.ConversationID)
		}
		return m, nil

	case ConnectionFailedMsg:
		// No delivery path remains, so any in-flight turn must settle now
		// rather than wait for a frame that will never arrive.
		m.header.SetConnectionState(m.deps.Manager.State())
		m.deps.Conversation.AbandonTurn()
		m.deps.Voice.Reset()
		m.refreshTranscript()
		m.surfaceError(msg.Err, "kết nối")
		return m, nil

	case TextFrameMsg:
		if err := m.deps.Conversation.HandleFrame(msg.Frame); err != nil {
			m.surfaceError(err, "trợ lý")
		}
		m.deps.Voice.SetConversationID(m.deps.Conversation.ConversationID())
		m.refreshTranscript()
		return m, m.spinCmd()

	case VoiceFrameMsg:
		if err := m.deps.Voice.HandleFrame(msg.Frame); err != nil {
			m.surfaceError(err, "giọng nói")
		}
		return m, m.spinCmd()

	case chat.StreamChunk:
		m.deps.Conversation.HandleStreamChunk(msg)
		m.refreshTranscript()
		return m, nil

	case chat.StreamDone:
		if err := m.deps.Conversation.HandleStreamDone(msg); err != nil {
			m.surfaceError(err, "trợ lý")
		}
		m.deps.Voice.SetConversationID(m.deps.Conversation.ConversationID())
		var cmd tea.Cmd
		if id := m.deps.Conversation.UserID(); id != m.deps.Config.UserID {
			// The server assigned an identity; rebind both modalities and
			// resubscribe the channels under the new topics.
			m.deps.Config.UserID = id
			m.deps.Voice.SetUserID(id)
			cmd = m.connectCmd()
		}
		m.refreshTranscript()
		return m, cmd

	case chat.HistoryLoaded:
		if msg.Err != nil {
			m.log.Warn().Err(msg.Err).Msg("history load failed")
			m.statusBar = "Không tải được lịch sử trò chuyện"
			return m, nil
		}
		m.deps.Conversation.ApplyHistory(msg.History)
		m.deps.Voice.SetConversationID(m.deps.Conversation.ConversationID())
		m.refreshTranscript()
		m.statusBar = "Đã tải lịch sử trò chuyện"
		return m, nil

	case chat.VoiceStageReset:
		m.deps.Voice.HandleStageReset(msg)
		return m, nil

	case ClipReadyMsg:
		m.recordElapsed = 0
		if len(msg.Clip.Data) == 0 {
			m.statusBar = "Không thu được âm thanh"
			return m, nil
		}
		if err := m.deps.Voice.SendAudio(msg.Clip); err != nil {
			if errors.Is(err, transport.ErrNotConnected) {
				m.statusBar = "Mất kết nối, Ctrl+R sau khi kết nối lại"
			}
			m.surfaceError(err, "giọng nói")
			return m, nil
		}
		m.statusBar = "Đã gửi ghi âm"
		return m, m.spinCmd()

	case RecordingTickMsg:
		m.recordElapsed = msg.Elapsed
		return m, nil

	case RecordingErrMsg:
		m.recordElapsed = 0
		m.surfaceError(msg.Err, "ghi âm")
		return m, nil

	case spinner.TickMsg:
		if m.deps.Conversation.Busy() || m.deps.Voice.InFlight() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal.IsVisible() {
		var cmd tea.Cmd
		m.modal, cmd = m.modal.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "ctrl+h":
		m.modal.ShowHelp()
		return m, nil

	case "ctrl+t":
		next := "dark"
		if m.themes.GetTheme().Name == "dark" {
			next = "light"
		}
		m.setTheme(next)
		return m, nil

	case "ctrl+l":
		m.deps.Conversation.Clear()
		m.deps.Voice.Reset()
		m.deps.Voice.SetConversationID("")
		m.refreshTranscript()
		m.statusBar = "Đã xóa cuộc trò chuyện"
		return m, nil

	case "ctrl+o":
		if r, ok := m.lastResult(); ok {
			m.modal.ShowResult(r)
		}
		return m, nil

	case "ctrl+r":
		return m.toggleRecording()

	case "ctrl+p":
		switch m.deps.Recorder.State() {
		case audio.Recording:
			m.deps.Recorder.Pause()
			m.statusBar = "Tạm dừng ghi âm"
		case audio.Paused:
			m.deps.Recorder.Resume()
			m.statusBar = "Tiếp tục ghi âm"
		}
		return m, nil

	case "esc":
		if st := m.deps.Recorder.State(); st == audio.Recording || st == audio.Paused {
			m.deps.Recorder.Reset()
			m.recordElapsed = 0
			m.statusBar = "Đã hủy ghi âm"
		}
		return m, nil

	case "tab":
		if sugg := m.currentSuggestions(); len(sugg) > 0 {
			m.transcript.input.SetValue(sugg[m.suggestIdx%len(sugg)])
			m.suggestIdx++
		}
		return m, nil

	case "enter":
		return m.sendInput()

	case "up", "down", "pgup", "pgdown", "home", "end":
		var cmd tea.Cmd
		m.transcript.viewport, cmd = m.transcript.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.transcript.input, cmd = m.transcript.input.Update(msg)
	return m, cmd
}

func (m Model) sendInput() (tea.Model, tea.Cmd) {
	text := m.transcript.Input()
	err := m.deps.Conversation.SendMessage(text)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return m, nil
	case errors.Is(err, chat.ErrTurnPending):
		m.statusBar = "Đang chờ phản hồi, vui lòng đợi"
		return m, nil
	case err != nil:
		m.surfaceError(err, "trợ lý")
		return m, nil
	}

	m.transcript.ClearInput()
	m.refreshTranscript()
	m.statusBar = "Đã gửi"
	return m, m.spinCmd()
}

func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	switch m.deps.Recorder.State() {
	case audio.Recording, audio.Paused:
		if err := m.deps.Recorder.Stop(); err != nil {
			m.surfaceError(err, "ghi âm")
		}
		m.statusBar = "Đang xử lý ghi âm..."
		return m, nil
	default:
		if err := m.deps.Voice.Connect(); err != nil {
			m.surfaceError(err, "giọng nói")
			return m, nil
		}
		if err := m.deps.Recorder.Start(); err != nil {
			m.surfaceError(err, "ghi âm")
			return m, nil
		}
		m.statusBar = "Đang ghi âm, Ctrl+R để kết thúc"
		return m, nil
	}
}

// connectCmd opens the socket session. Handlers re-enter the event loop
// through Emit, keeping all state transitions on this loop.
func (m Model) connectCmd() tea.Cmd {
	mgr := m.deps.Manager
	userID := m.deps.Config.UserID
	return func() tea.Msg {
		err := mgr.Initialize(userID,
			func(f *protocol.Frame) { Emit(TextFrameMsg{Frame: f}) },
			func(f *protocol.Frame) { Emit(VoiceFrameMsg{Frame: f}) },
			func() { Emit(ConnectedMsg{}) },
			func(err error) { Emit(ConnectionFailedMsg{Err: err}) },
		)
		if err != nil {
			return ConnectionFailedMsg{Err: err}
		}
		return nil
	}
}

func (m Model) spinCmd() tea.Cmd {
	if m.deps.Conversation.Busy() || m.deps.Voice.InFlight() {
		return m.spinner.Tick
	}
	return nil
}

func (m *Model) surfaceError(err error, component string) {
	if display, text := m.errorHandler.HandleError(err, component); display {
		m.statusBar = text
	}
	m.log.Warn().Err(err).Str("component", component).Msg("surfaced error")
	m.refreshTranscript()
}

func fmtDuration(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
