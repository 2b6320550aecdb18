package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/tripwise/assistant-tui/internal/chat"
	"github.com/tripwise/assistant-tui/internal/payload"
)

// Transcript is the chat transcript component: the scrollable message
// history plus the input box.
type Transcript struct {
	viewport viewport.Model
	input    textarea.Model
	renderer *glamour.TermRenderer
	theme    *Theme
	width    int
	height   int
	focused  bool
}

// NewTranscript creates the transcript component.
func NewTranscript(theme *Theme) *Transcript {
	vp := viewport.New(0, 0)

	ta := textarea.New()
	ta.Placeholder = "Nhập tin nhắn... (Enter để gửi)"
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.Focus()

	// Markdown rendering is best-effort; a nil renderer falls back to raw
	// text.
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)

	return &Transcript{
		viewport: vp,
		input:    ta,
		renderer: renderer,
		theme:    theme,
		width:    80,
		height:   24,
		focused:  true,
	}
}

// SetSize updates the transcript dimensions.
func (t *Transcript) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.viewport.Width = width
	t.viewport.Height = height - 5 // leave room for the input area
	t.input.SetWidth(width)

	if t.renderer != nil {
		wrap := width - 4
		if wrap > 20 {
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(wrap),
			)
			if err == nil {
				t.renderer = r
			}
		}
	}
}

// Focus sets the focus state.
func (t *Transcript) Focus() {
	t.focused = true
	t.input.Focus()
}

// Blur removes focus.
func (t *Transcript) Blur() {
	t.focused = false
	t.input.Blur()
}

// Input returns the current input text.
func (t *Transcript) Input() string { return t.input.Value() }

// ClearInput empties the input box.
func (t *Transcript) ClearInput() { t.input.Reset() }

// SetMessages re-renders the transcript and scrolls to the bottom.
func (t *Transcript) SetMessages(msgs []chat.Message) {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(t.renderMessage(m))
	}
	t.viewport.SetContent(b.String())
	t.viewport.GotoBottom()
}

func (t *Transcript) renderMessage(m chat.Message) string {
	var b strings.Builder

	label := lipgloss.NewStyle().Bold(true)
	switch m.Role {
	case chat.RoleUser:
		b.WriteString(label.Foreground(t.theme.UserLabel).Render("Bạn"))
	default:
		b.WriteString(label.Foreground(t.theme.AssistantLabel).Render("Trợ lý"))
	}
	if !m.Timestamp.IsZero() {
		ts := lipgloss.NewStyle().Foreground(t.theme.Timestamp).
			Render("  " + m.Timestamp.Format("15:04"))
		b.WriteString(ts)
	}
	b.WriteString("\n")

	if m.Pending && m.Content == "" {
		b.WriteString(lipgloss.NewStyle().Foreground(t.theme.PendingText).Render("…"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(t.renderBody(m))
	for _, r := range m.Results {
		b.WriteString(t.renderResultCard(r))
	}
	if len(m.Suggestions) > 0 {
		b.WriteString(t.renderSuggestions(m.Suggestions))
	}
	return b.String()
}

func (t *Transcript) renderBody(m chat.Message) string {
	// User text stays verbatim; assistant text is markdown.
	if m.Role == chat.RoleUser || t.renderer == nil {
		return m.Content + "\n"
	}
	out, err := t.renderer.Render(m.Content)
	if err != nil {
		return m.Content + "\n"
	}
	return strings.TrimRight(out, "\n") + "\n"
}

// renderResultCard draws one structured result as a bordered card.
func (t *Transcript) renderResultCard(r payload.Result) string {
	title := r.Title()
	if title == "" {
		title = "Kết quả"
	}
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(t.theme.CardTitle).Render(title))
	if s := r.Subtitle(); s != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.theme.CardSubtitle).Render(s))
	}
	if d := r.Description(); d != "" {
		lines = append(lines, d)
	}
	if k := r.Kind(); k != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.theme.Timestamp).Render("["+k+"]"))
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.theme.CardBorder).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
	return card + "\n"
}

func (t *Transcript) renderSuggestions(suggestions []string) string {
	style := lipgloss.NewStyle().Foreground(t.theme.Suggestion)
	var b strings.Builder
	b.WriteString(style.Bold(true).Render("Gợi ý:"))
	b.WriteString("\n")
	for i, s := range suggestions {
		b.WriteString(style.Render(fmt.Sprintf("  %d. %s", i+1, s)))
		b.WriteString("\n")
	}
	return b.String()
}

// View renders the transcript plus the input box.
func (t *Transcript) View() string {
	return t.viewport.View() + "\n" + t.input.View()
}
