package ui

import (
	"time"

	"github.com/tripwise/assistant-tui/internal/audio"
	"github.com/tripwise/assistant-tui/internal/protocol"
)

// Connection messages
type InitiateConnectionMsg struct{}
type ConnectedMsg struct{}
type ConnectionFailedMsg struct{ Err error }

// TextFrameMsg carries one inbound frame from the text channel.
type TextFrameMsg struct{ Frame *protocol.Frame }

// VoiceFrameMsg carries one inbound frame from the voice channel.
type VoiceFrameMsg struct{ Frame *protocol.Frame }

// Recording messages
type ClipReadyMsg struct{ Clip audio.Clip }
type RecordingTickMsg struct{ Elapsed time.Duration }
type RecordingErrMsg struct{ Err error }
