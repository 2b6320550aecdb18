package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tripwise/assistant-tui/internal/payload"
)

// ModalType represents different types of modals
type ModalType int

const (
	NoModal ModalType = iota
	HelpModal
	ResultModal
)

// Modal is an overlay dialog: the help screen or the detail view of one
// structured result.
type Modal struct {
	modalType ModalType
	title     string
	content   string
	visible   bool
	width     int
	height    int
	scroll    int
	theme     *Theme
}

// NewModal creates a hidden modal.
func NewModal(theme *Theme) Modal {
	return Modal{
		modalType: NoModal,
		theme:     theme,
	}
}

// ShowHelp displays the keyboard shortcut help.
func (m *Modal) ShowHelp() {
	m.modalType = HelpModal
	m.title = "Phím tắt"
	m.content = buildHelpContent()
	m.visible = true
	m.scroll = 0
}

// ShowResult displays the full detail of one structured result.
func (m *Modal) ShowResult(r payload.Result) {
	m.modalType = ResultModal
	m.title = "Chi tiết kết quả"
	m.content = buildResultContent(r, m.theme)
	m.visible = true
	m.scroll = 0
}

// Hide closes the modal.
func (m *Modal) Hide() {
	m.visible = false
	m.modalType = NoModal
}

// IsVisible returns whether the modal is visible
func (m Modal) IsVisible() bool {
	return m.visible
}

// SetSize updates the modal dimensions.
func (m *Modal) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles modal key input.
func (m Modal) Update(msg tea.Msg) (Modal, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "enter", "q":
			m.Hide()
		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		}
	}
	return m, nil
}

// View renders the modal centered on the screen.
func (m Modal) View() string {
	if !m.visible {
		return ""
	}

	boxWidth := m.width - 10
	if boxWidth > 72 {
		boxWidth = 72
	}
	if boxWidth < 20 {
		boxWidth = 20
	}
	boxHeight := m.height - 6
	if boxHeight < 5 {
		boxHeight = 5
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.ModalTitle).
		Render(m.title)

	lines := strings.Split(m.content, "\n")
	if m.scroll > len(lines)-1 {
		m.scroll = len(lines) - 1
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
	visible := lines[m.scroll:]
	if len(visible) > boxHeight-3 {
		visible = visible[:boxHeight-3]
	}

	footer := lipgloss.NewStyle().
		Foreground(m.theme.Timestamp).
		Render("esc để đóng")

	body := title + "\n\n" + strings.Join(visible, "\n") + "\n" + footer
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.ModalBorder).
		Padding(1, 2).
		Width(boxWidth).
		Render(body)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// buildResultContent formats every field of one result, not just the card
// summary.
func buildResultContent(r payload.Result, theme *Theme) string {
	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.CardTitle)
	var b strings.Builder

	write := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(keyStyle.Render(label + ": "))
		b.WriteString(value)
		b.WriteString("\n")
	}
	write("Tiêu đề", r.Title())
	write("Phụ đề", r.Subtitle())
	write("Mô tả", r.Description())
	write("Loại", r.Kind())
	for k, v := range r.IDs() {
		write(k, v)
	}
	if b.Len() == 0 {
		return "(không có dữ liệu)"
	}
	return b.String()
}
