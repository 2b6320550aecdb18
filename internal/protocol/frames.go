// Package protocol defines the wire contract with the assistant backend: the
// inbound frame union shared by the text and voice channels, the outbound
// request shapes, the chunked HTTP streaming fallback, and the conversation
// history endpoints.
package protocol

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/tripwise/assistant-tui/internal/payload"
)

// FrameType tags an inbound frame.
type FrameType string

const (
	// Progress frames; zero or more may precede the terminal frame.
	FrameProcessing    FrameType = "PROCESSING"
	FrameTranscription FrameType = "TRANSCRIPTION"
	// Terminal frames; exactly one ends a turn.
	FrameResponse FrameType = "RESPONSE"
	FrameError    FrameType = "ERROR"
)

// Frame is one inbound message on a per-user channel. It is a tagged union:
// which payload fields are populated depends on Type.
type Frame struct {
	Type           FrameType        `json:"type"`
	ConversationID string           `json:"conversationId,omitempty"`
	UserID         string           `json:"userId,omitempty"`
	Timestamp      string           `json:"timestamp,omitempty"`
	Status         string           `json:"status,omitempty"`

	AIResponse       string           `json:"aiResponse,omitempty"`
	Results          []payload.Result `json:"results,omitempty"`
	Error            string           `json:"error,omitempty"`
	TranscribedText  string           `json:"transcribedText,omitempty"`
	ProcessingTimeMs int64            `json:"processingTimeMs,omitempty"`

	// Both suggestion spellings are accepted for backward compatibility.
	NextRequestSuggestions      []string `json:"nextRequestSuggestions,omitempty"`
	NextRequestSuggestionsSnake []string `json:"next_request_suggestions,omitempty"`
}

// Terminal reports whether this frame ends a turn.
func (f *Frame) Terminal() bool {
	return f.Type == FrameResponse || f.Type == FrameError
}

// Keepalive reports whether the frame is a connection keepalive that carries
// no turn data.
func (f *Frame) Keepalive() bool {
	return f.Status == "keepalive"
}

// Suggestions returns the follow-up suggestions, camelCase spelling first.
func (f *Frame) Suggestions() []string {
	if len(f.NextRequestSuggestions) > 0 {
		return f.NextRequestSuggestions
	}
	return f.NextRequestSuggestionsSnake
}

// DecodeFrame parses one inbound frame.
func DecodeFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := sonic.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if f.Type == "" && !f.Keepalive() {
		return nil, fmt.Errorf("decode frame: missing type")
	}
	return &f, nil
}
