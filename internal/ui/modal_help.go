package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpSection represents a section in the help modal
type HelpSection struct {
	Title     string
	Shortcuts []KeyboardShortcut
}

// KeyboardShortcut represents a keyboard shortcut
type KeyboardShortcut struct {
	Key         string
	Description string
}

// buildHelpContent creates the formatted help content
func buildHelpContent() string {
	sections := []HelpSection{
		{
			Title: "Trò chuyện",
			Shortcuts: []KeyboardShortcut{
				{"Enter", "Gửi tin nhắn"},
				{"Tab", "Chèn gợi ý tiếp theo vào ô nhập"},
				{"Ctrl+L", "Xóa cuộc trò chuyện"},
				{"↑↓ / PgUp PgDn", "Cuộn lịch sử"},
				{"Ctrl+O", "Xem chi tiết kết quả gần nhất"},
			},
		},
		{
			Title: "Ghi âm",
			Shortcuts: []KeyboardShortcut{
				{"Ctrl+R", "Bắt đầu / kết thúc ghi âm"},
				{"Ctrl+P", "Tạm dừng / tiếp tục ghi âm"},
				{"Esc", "Hủy ghi âm"},
			},
		},
		{
			Title: "Chung",
			Shortcuts: []KeyboardShortcut{
				{"Ctrl+H", "Hiện trợ giúp này"},
				{"Ctrl+T", "Đổi giao diện sáng / tối"},
				{"Ctrl+C", "Thoát"},
			},
		},
	}

	var content strings.Builder
	sectionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("212")).
		Bold(true).
		MarginBottom(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("228")).
		Bold(true).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	for i, section := range sections {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(sectionStyle.Render(section.Title))
		content.WriteString("\n")
		for _, shortcut := range section.Shortcuts {
			key := keyStyle.Render(shortcut.Key)
			desc := descStyle.Render(shortcut.Description)
			content.WriteString(fmt.Sprintf("%s %s\n", key, desc))
		}
	}

	return content.String()
}
