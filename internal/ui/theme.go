package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a color scheme for the assistant TUI.
type Theme struct {
	Name        string
	Description string

	// Base colors
	Foreground lipgloss.Color
	Border     lipgloss.Color

	// Header and status bar
	StatusBar     lipgloss.Color
	StatusBarText lipgloss.Color

	// Transcript colors
	UserLabel      lipgloss.Color
	AssistantLabel lipgloss.Color
	PendingText    lipgloss.Color
	Timestamp      lipgloss.Color

	// Result cards
	CardBorder   lipgloss.Color
	CardTitle    lipgloss.Color
	CardSubtitle lipgloss.Color

	// Suggestions
	Suggestion lipgloss.Color

	// Voice and recording
	Recording  lipgloss.Color
	VoiceStage lipgloss.Color

	// Feedback colors
	Error   lipgloss.Color
	Success lipgloss.Color

	// Modal colors
	ModalBorder lipgloss.Color
	ModalTitle  lipgloss.Color
}

// ThemeManager manages available themes and theme switching
type ThemeManager struct {
	themes       map[string]*Theme
	currentTheme string
}

// NewThemeManager creates a new theme manager with default themes
func NewThemeManager() *ThemeManager {
	tm := &ThemeManager{
		themes:       make(map[string]*Theme),
		currentTheme: "dark",
	}

	tm.RegisterTheme(DefaultDarkTheme())
	tm.RegisterTheme(DefaultLightTheme())

	return tm
}

// RegisterTheme adds a new theme to the manager
func (tm *ThemeManager) RegisterTheme(theme *Theme) {
	tm.themes[theme.Name] = theme
}

// SetTheme changes the current theme
func (tm *ThemeManager) SetTheme(name string) bool {
	if _, exists := tm.themes[name]; exists {
		tm.currentTheme = name
		return true
	}
	return false
}

// GetTheme returns the current theme
func (tm *ThemeManager) GetTheme() *Theme {
	if theme, exists := tm.themes[tm.currentTheme]; exists {
		return theme
	}
	return DefaultDarkTheme()
}

// GetThemeNames returns all available theme names
func (tm *ThemeManager) GetThemeNames() []string {
	names := make([]string, 0, len(tm.themes))
	for name := range tm.themes {
		names = append(names, name)
	}
	return names
}

// DefaultDarkTheme returns the default dark theme
func DefaultDarkTheme() *Theme {
	return &Theme{
		Name:        "dark",
		Description: "Default dark theme",

		Foreground: lipgloss.Color("252"),
		Border:     lipgloss.Color("240"),

		StatusBar:     lipgloss.Color("237"),
		StatusBarText: lipgloss.Color("250"),

		UserLabel:      lipgloss.Color("39"),
		AssistantLabel: lipgloss.Color("141"),
		PendingText:    lipgloss.Color("242"),
		Timestamp:      lipgloss.Color("240"),

		CardBorder:   lipgloss.Color("62"),
		CardTitle:    lipgloss.Color("214"),
		CardSubtitle: lipgloss.Color("250"),

		Suggestion: lipgloss.Color("79"),

		Recording:  lipgloss.Color("196"),
		VoiceStage: lipgloss.Color("226"),

		Error:   lipgloss.Color("196"),
		Success: lipgloss.Color("40"),

		ModalBorder: lipgloss.Color("62"),
		ModalTitle:  lipgloss.Color("212"),
	}
}

// DefaultLightTheme returns the default light theme
func DefaultLightTheme() *Theme {
	return &Theme{
		Name:        "light",
		Description: "Default light theme",

		Foreground: lipgloss.Color("235"),
		Border:     lipgloss.Color("250"),

		StatusBar:     lipgloss.Color("253"),
		StatusBarText: lipgloss.Color("238"),

		UserLabel:      lipgloss.Color("27"),
		AssistantLabel: lipgloss.Color("91"),
		PendingText:    lipgloss.Color("246"),
		Timestamp:      lipgloss.Color("248"),

		CardBorder:   lipgloss.Color("104"),
		CardTitle:    lipgloss.Color("130"),
		CardSubtitle: lipgloss.Color("240"),

		Suggestion: lipgloss.Color("29"),

		Recording:  lipgloss.Color("160"),
		VoiceStage: lipgloss.Color("136"),

		Error:   lipgloss.Color("160"),
		Success: lipgloss.Color("28"),

		ModalBorder: lipgloss.Color("104"),
		ModalTitle:  lipgloss.Color("91"),
	}
}
