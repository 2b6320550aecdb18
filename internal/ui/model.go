package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/tripwise/assistant-tui/internal/audio"
	"github.com/tripwise/assistant-tui/internal/chat"
	"github.com/tripwise/assistant-tui/internal/config"
	"github.com/tripwise/assistant-tui/internal/payload"
	"github.com/tripwise/assistant-tui/internal/transport"
)

// Deps are the constructed components the UI drives. The model owns the
// rendering state; the orchestrators own the conversational state.
type Deps struct {
	Config       *config.Config
	Log          zerolog.Logger
	Manager      *transport.Manager
	Conversation *chat.Conversation
	Voice        *chat.VoiceTurn
	Recorder     *audio.Session
}

// Model represents the application state
type Model struct {
	deps Deps
	log  zerolog.Logger

	// Layout
	width  int
	height int

	// Components
	themes       *ThemeManager
	transcript   *Transcript
	header       *Header
	modal        Modal
	errorHandler *ErrorHandler
	spinner      spinner.Model

	// Status
	statusBar     string
	historyLoaded bool
	recordElapsed time.Duration
	suggestIdx    int
}

// NewModel creates the TUI model with default state.
func NewModel(deps Deps) *Model {
	themes := NewThemeManager()
	theme := themes.GetTheme()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		deps:         deps,
		log:          deps.Log.With().Str("component", "ui").Logger(),
		width:        80,
		height:       24,
		themes:       themes,
		transcript:   NewTranscript(theme),
		header:       NewHeader(theme),
		modal:        NewModal(theme),
		errorHandler: NewErrorHandler(),
		spinner:      sp,
		statusBar:    "Chào mừng đến với TripWise | Ctrl+H để xem trợ giúp",
	}
	m.refreshTranscript()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.WindowSize(),
		func() tea.Msg {
			return InitiateConnectionMsg{} // connect on startup
		},
	)
}

// SetDimensions updates the model dimensions
func (m *Model) SetDimensions(width, height int) {
	m.width = width
	m.height = height
	m.updateComponentSizes()
}

// updateComponentSizes recalculates component sizes based on current layout
func (m *Model) updateComponentSizes() {
	if m.width == 0 || m.height == 0 {
		return
	}

	headerHeight := 2
	statusBarHeight := 1
	voiceLineHeight := 1
	contentHeight := m.height - headerHeight - statusBarHeight - voiceLineHeight

	m.header.SetSize(m.width)
	m.transcript.SetSize(m.width-2, contentHeight)
	m.modal.SetSize(m.width, m.height)
}

// refreshTranscript re-renders the message history and header counters.
func (m *Model) refreshTranscript() {
	msgs := m.deps.Conversation.Messages()
	m.transcript.SetMessages(msgs)
	m.header.SetMessageCount(len(msgs))
	m.header.SetConversationID(m.deps.Conversation.ConversationID())
	m.header.SetConnectionState(m.deps.Manager.State())
}

// lastResult finds the most recent structured result in the transcript, for
// the detail modal.
func (m *Model) lastResult() (payload.Result, bool) {
	msgs := m.deps.Conversation.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if len(msgs[i].Results) > 0 {
			return msgs[i].Results[0], true
		}
	}
	return nil, false
}

// currentSuggestions returns the follow-up suggestions of the most recent
// assistant message that carries any.
func (m *Model) currentSuggestions() []string {
	msgs := m.deps.Conversation.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if len(msgs[i].Suggestions) > 0 {
			return msgs[i].Suggestions
		}
	}
	return nil
}

// setTheme switches themes and rebuilds the themed components.
func (m *Model) setTheme(name string) {
	if !m.themes.SetTheme(name) {
		return
	}
	theme := m.themes.GetTheme()
	m.transcript.theme = theme
	m.header.theme = theme
	m.modal.theme = theme
	m.refreshTranscript()
}
