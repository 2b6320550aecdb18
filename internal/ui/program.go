package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// programRef holds the Bubble Tea program so background goroutines (socket
// callbacks, timers, HTTP streams) can inject messages into the event loop.
var programRef *tea.Program

// SetProgram stores the program reference
func SetProgram(p *tea.Program) {
	programRef = p
}

// Emit forwards a message into the running program. Safe to call from any
// goroutine; a message emitted before the program starts is dropped.
func Emit(msg tea.Msg) {
	if programRef != nil {
		programRef.Send(msg)
	}
}
