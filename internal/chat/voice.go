package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tripwise/assistant-tui/internal/audio"
	"github.com/tripwise/assistant-tui/internal/payload"
	"github.com/tripwise/assistant-tui/internal/protocol"
	"github.com/tripwise/assistant-tui/internal/transport"
)

// Stage is the coarse phase of an in-flight voice turn, driven purely by
// inbound frame types plus one reset timer.
type Stage int

const (
	StageIdle Stage = iota
	StageTranscription
	StageProcessing
	StageResponse
)

func (s Stage) String() string {
	switch s {
	case StageTranscription:
		return "transcribing"
	case StageProcessing:
		return "processing"
	case StageResponse:
		return "response"
	default:
		return "idle"
	}
}

// DefaultStageResetDelay is how long the RESPONSE stage stays visible before
// the turn returns to idle on its own.
const DefaultStageResetDelay = time.Second

// ErrNoIdentity rejects voice operations before a user identity is resolved.
var ErrNoIdentity = errors.New("user identity is not resolved")

// VoiceTurn drives the voice modality. Voice has no HTTP fallback: it needs
// a connected socket, and a transport failure surfaces as a reconnect
// prompt rather than an alternate path.
type VoiceTurn struct {
	userID   string
	language string
	mgr      Transport
	emit     func(any)
	log      zerolog.Logger

	resetDelay time.Duration
	maxBytes   int

	// OnTranscription, when set, observes transcript text as it arrives.
	OnTranscription func(string)

	stage         Stage
	turnID        string
	convID        string
	transcription string
	response      string
	results       []payload.Result
	suggestions   []string
	processingMs  int64
	lastErr       string
	resetTimer    *time.Timer
}

// NewVoiceTurn creates a voice orchestrator. emit must be safe to call from
// any goroutine.
func NewVoiceTurn(userID, language string, mgr Transport, emit func(any), log zerolog.Logger) *VoiceTurn {
	if language == "" {
		language = DefaultLanguage
	}
	return &VoiceTurn{
		userID:     userID,
		language:   language,
		mgr:        mgr,
		emit:       emit,
		log:        log.With().Str("component", "voice").Logger(),
		resetDelay: DefaultStageResetDelay,
		maxBytes:   protocol.DefaultMaxVoiceBytes,
	}
}

func (v *VoiceTurn) Stage() Stage            { return v.stage }
func (v *VoiceTurn) Transcription() string   { return v.transcription }
func (v *VoiceTurn) Response() string        { return v.response }
func (v *VoiceTurn) Results() []payload.Result { return v.results }
func (v *VoiceTurn) Suggestions() []string   { return v.suggestions }
func (v *VoiceTurn) ProcessingTime() int64   { return v.processingMs }
func (v *VoiceTurn) Err() string             { return v.lastErr }

// InFlight reports whether a voice turn is awaiting its terminal frame.
func (v *VoiceTurn) InFlight() bool { return v.turnID != "" && v.stage != StageResponse }

// SetConversationID aligns the voice turn with the text conversation so
// both modalities continue the same exchange.
func (v *VoiceTurn) SetConversationID(id string) { v.convID = id }

// SetUserID rebinds the turn to a server-assigned identity. An empty id is
// ignored.
func (v *VoiceTurn) SetUserID(id string) {
	if id != "" {
		v.userID = id
	}
}

// Connect verifies the turn can use the transport. Identity and connection
// are checked separately from SendAudio because the two calls may be far
// apart in time.
func (v *VoiceTurn) Connect() error {
	if v.userID == "" {
		return ErrNoIdentity
	}
	if v.mgr.State() != transport.Connected {
		return transport.ErrNotConnected
	}
	return nil
}

// SendAudio transmits one captured clip. All state from the previous turn
// is cleared before sending. Oversized clips are rejected client-side
// before any transmission is attempted.
func (v *VoiceTurn) SendAudio(clip audio.Clip) error {
	if v.userID == "" {
		return ErrNoIdentity
	}
	if v.mgr.State() != transport.Connected {
		return transport.ErrNotConnected
	}

	v.clearTurn()

	req, err := protocol.NewVoiceRequest(v.userID, v.convID, clip, v.language, v.maxBytes)
	if err != nil {
		v.lastErr = err.Error()
		return err
	}
	if err := v.mgr.Send(transport.ChannelVoice, protocol.EventSendVoice, req); err != nil {
		v.lastErr = err.Error()
		return fmt.Errorf("send voice: %w", err)
	}
	v.turnID = uuid.NewString()
	v.log.Debug().Dur("duration", clip.Duration).Str("encoding", clip.Encoding).Msg("voice clip sent")
	return nil
}

// HandleFrame advances the stage machine from one inbound voice frame. An
// ERROR frame resets to idle immediately and is returned for the caller to
// surface.
func (v *VoiceTurn) HandleFrame(f *protocol.Frame) error {
	if f.Keepalive() {
		return nil
	}
	if v.turnID == "" {
		v.log.Debug().Str("type", string(f.Type)).Msg("voice frame with no turn in flight dropped")
		return nil
	}

	switch f.Type {
	case protocol.FrameTranscription:
		v.stage = StageTranscription
		v.transcription = f.TranscribedText
		if v.OnTranscription != nil {
			v.OnTranscription(f.TranscribedText)
		}

	case protocol.FrameProcessing:
		v.stage = StageProcessing

	case protocol.FrameResponse:
		v.stage = StageResponse
		v.response = f.AIResponse
		v.results = f.Results
		v.suggestions = f.Suggestions()
		v.processingMs = f.ProcessingTimeMs
		if p := payload.Decode(f.AIResponse); p != nil {
			v.response = p.Message
			if len(v.results) == 0 {
				v.results = p.Results
			}
			if len(v.suggestions) == 0 {
				v.suggestions = p.Suggestions
			}
		}
		if f.ConversationID != "" {
			v.convID = f.ConversationID
		}
		turnID := v.turnID
		v.resetTimer = time.AfterFunc(v.resetDelay, func() {
			v.emit(VoiceStageReset{TurnID: turnID})
		})

	case protocol.FrameError:
		v.lastErr = f.Error
		v.resetStage()
		return fmt.Errorf("voice turn: %s", f.Error)
	}
	return nil
}

// HandleStageReset returns the stage to idle after the post-response delay.
// The captured response stays readable; only the stage resets. A reset for
// a superseded turn is ignored.
func (v *VoiceTurn) HandleStageReset(ev VoiceStageReset) {
	if ev.TurnID != v.turnID || v.stage != StageResponse {
		return
	}
	v.resetStage()
}

// Reset abandons any in-flight turn and clears all captured state.
func (v *VoiceTurn) Reset() {
	v.clearTurn()
}

func (v *VoiceTurn) resetStage() {
	v.stage = StageIdle
	v.turnID = ""
	if v.resetTimer != nil {
		v.resetTimer.Stop()
		v.resetTimer = nil
	}
}

func (v *VoiceTurn) clearTurn() {
	v.resetStage()
	v.transcription = ""
	v.response = ""
	v.results = nil
	v.suggestions = nil
	v.processingMs = 0
	v.lastErr = ""
}
