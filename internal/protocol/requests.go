package protocol

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/tripwise/assistant-tui/internal/audio"
)

// Channel events and topic prefixes. Each user has one text and one voice
// channel; the topic is the channel prefix plus the user identity.
const (
	TopicPrefixChat  = "chat:"
	TopicPrefixVoice = "voice:"
	EventSendText    = "chat.send"
	EventSendVoice   = "voice.send"
	EventFrame       = "frame"
)

// Delivery modes for a text turn.
const (
	ModeSync   = "sync"
	ModeStream = "stream"
)

// DefaultMaxVoiceBytes caps the encoded voice message size.
const DefaultMaxVoiceBytes = 10 << 20

// ErrOversizedAudio is returned when an encoded voice message exceeds the
// ceiling; the message is rejected before transmission is attempted.
var ErrOversizedAudio = errors.New("voice message exceeds maximum size")

// TextRequest is the outbound body of one text turn.
type TextRequest struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
	Timestamp      int64  `json:"timestamp"`
	Mode           string `json:"mode"`
}

// NewTextRequest builds a text turn request stamped with the current time.
func NewTextRequest(userID, conversationID, message, mode string) TextRequest {
	return TextRequest{
		UserID:         userID,
		ConversationID: conversationID,
		Message:        message,
		Timestamp:      time.Now().UnixMilli(),
		Mode:           mode,
	}
}

// VoiceRequest is the outbound body of one voice turn. AudioData carries the
// recording in a text-safe encoding.
type VoiceRequest struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId,omitempty"`
	AudioData      string `json:"audioData"`
	AudioFormat    string `json:"audioFormat"`
	Language       string `json:"language"`
	DurationMs     int64  `json:"durationMs"`
}

// NewVoiceRequest encodes clip for transport, enforcing maxBytes on the
// encoded size (DefaultMaxVoiceBytes when maxBytes is zero).
func NewVoiceRequest(userID, conversationID string, clip audio.Clip, language string, maxBytes int) (*VoiceRequest, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxVoiceBytes
	}
	encoded := base64.StdEncoding.EncodeToString(clip.Data)
	if len(encoded) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes encoded, limit %d", ErrOversizedAudio, len(encoded), maxBytes)
	}
	return &VoiceRequest{
		UserID:         userID,
		ConversationID: conversationID,
		AudioData:      encoded,
		AudioFormat:    clip.Encoding,
		Language:       language,
		DurationMs:     clip.Duration.Milliseconds(),
	}, nil
}
