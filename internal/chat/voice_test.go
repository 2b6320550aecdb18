package chat

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripwise/assistant-tui/internal/audio"
	"github.com/tripwise/assistant-tui/internal/protocol"
	"github.com/tripwise/assistant-tui/internal/transport"
)

func newTestVoice(tr Transport, sink *eventSink) *VoiceTurn {
	return NewVoiceTurn("u-9", "vi", tr, sink.emit, zerolog.Nop())
}

func testClip() audio.Clip {
	return audio.Clip{Data: []byte("pcm-bytes"), Encoding: "wav", Duration: 1200 * time.Millisecond}
}

func TestVoiceConnectChecksIdentityAndTransport(t *testing.T) {
	sink := newEventSink()
	tr := &fakeTransport{state: transport.Connected}

	anon := NewVoiceTurn("", "vi", tr, sink.emit, zerolog.Nop())
	assert.ErrorIs(t, anon.Connect(), ErrNoIdentity)

	v := newTestVoice(&fakeTransport{state: transport.Disconnected}, sink)
	assert.ErrorIs(t, v.Connect(), transport.ErrNotConnected)

	assert.NoError(t, newTestVoice(tr, sink).Connect())
}

func TestSendAudioBuildsRequest(t *testing.T) {
	tr := &fakeTransport{state: transport.Connected}
	v := newTestVoice(tr, newEventSink())
	v.SetConversationID("conv-1")

	require.NoError(t, v.SendAudio(testClip()))
	require.True(t, v.InFlight())

	sends := tr.sent()
	require.Len(t, sends, 1)
	assert.Equal(t, transport.ChannelVoice, sends[0].kind)
	assert.Equal(t, protocol.EventSendVoice, sends[0].event)
	req, ok := sends[0].body.(*protocol.VoiceRequest)
	require.True(t, ok)
	assert.Equal(t, "u-9", req.UserID)
	assert.Equal(t, "conv-1", req.ConversationID)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("pcm-bytes")), req.AudioData)
	assert.Equal(t, "wav", req.AudioFormat)
	assert.Equal(t, "vi", req.Language)
	assert.Equal(t, int64(1200), req.DurationMs)
}

func TestSetUserIDRebindsIdentity(t *testing.T) {
	tr := &fakeTransport{state: transport.Connected}
	v := newTestVoice(tr, newEventSink())

	v.SetUserID("")
	v.SetUserID("user-server")
	require.NoError(t, v.SendAudio(testClip()))

	req, ok := tr.sent()[0].body.(*protocol.VoiceRequest)
	require.True(t, ok)
	assert.Equal(t, "user-server", req.UserID)
}

func TestSendAudioRejectsWithoutIdentityOrConnection(t *testing.T) {
	sink := newEventSink()

	anon := NewVoiceTurn("", "vi", &fakeTransport{state: transport.Connected}, sink.emit, zerolog.Nop())
	assert.ErrorIs(t, anon.SendAudio(testClip()), ErrNoIdentity)

	v := newTestVoice(&fakeTransport{state: transport.Reconnecting}, sink)
	assert.ErrorIs(t, v.SendAudio(testClip()), transport.ErrNotConnected)
	assert.False(t, v.InFlight())
}

func TestSendAudioRejectsOversizedClip(t *testing.T) {
	tr := &fakeTransport{state: transport.Connected}
	v := newTestVoice(tr, newEventSink())
	v.maxBytes = 8

	err := v.SendAudio(testClip())
	assert.ErrorIs(t, err, protocol.ErrOversizedAudio)
	assert.Empty(t, tr.sent(), "oversized clips never reach the transport")
	assert.NotEmpty(t, v.Err())
}

func TestSendAudioClearsPreviousTurn(t *testing.T) {
	tr := &fakeTransport{state: transport.Connected}
	v := newTestVoice(tr, newEventSink())

	require.NoError(t, v.SendAudio(testClip()))
	require.NoError(t, v.HandleFrame(&protocol.Frame{Type: protocol.FrameTranscription, TranscribedText: "lần trước"}))

	require.NoError(t, v.SendAudio(testClip()))
	assert.Empty(t, v.Transcription())
	assert.Empty(t, v.Response())
	assert.Equal(t, StageIdle, v.Stage())
}

func TestVoiceStageSequence(t *testing.T) {
	tr := &fakeTransport{state: transport.Connected}
	sink := newEventSink()
	v := newTestVoice(tr, sink)
	v.resetDelay = 10 * time.Millisecond

	var heard string
	v.OnTranscription = func(s string) { heard = s }

	require.NoError(t, v.SendAudio(testClip()))

	require.NoError(t, v.HandleFrame(&protocol.Frame{Type: protocol.FrameTranscription, TranscribedText: "tìm khách sạn"}))
	assert.Equal(t, StageTranscription, v.Stage())
	assert.Equal(t, "tìm khách sạn", v.Transcription())
	assert.Equal(t, "tìm khách sạn", heard)

	require.NoError(t, v.HandleFrame(&protocol.Frame{Type: protocol.FrameProcessing}))
	assert.Equal(t, StageProcessing, v.Stage())

	require.NoError(t, v.HandleFrame(&protocol.Frame{
		Type:                        protocol.FrameResponse,
		AIResponse:                  "Đây là vài lựa chọn.",
		NextRequestSuggestionsSnake: []string{"đặt phòng"},
		ProcessingTimeMs:            820,
		ConversationID:              "conv-voice",
	}))
	assert.Equal(t, StageResponse, v.Stage())
	assert.Equal(t, "Đây là vài lựa chọn.", v.Response())
	assert.Equal(t, []string{"đặt phòng"}, v.Suggestions())
	assert.Equal(t, int64(820), v.ProcessingTime())

	// The reset event fires after the display delay and returns the stage to
	// idle while the captured response stays readable.
	select {
	case <-sink.signal:
	case <-time.After(time.Second):
		t.Fatal("stage reset event never fired")
	}
	var reset *VoiceStageReset
	for _, ev := range sink.all() {
		if r, ok := ev.(VoiceStageReset); ok {
			reset = &r
		}
	}
	require.NotNil(t, reset)
	v.HandleStageReset(*reset)
	assert.Equal(t, StageIdle, v.Stage())
	assert.Equal(t, "Đây là vài lựa chọn.", v.Response())
	assert.False(t, v.InFlight())
}

func TestVoiceErrorFrameResetsImmediately(t *testing.T) {
	tr := &fakeTransport{state: transport.Connected}
	v := newTestVoice(tr, newEventSink())
	require.NoError(t, v.SendAudio(testClip()))
	require.NoError(t, v.HandleFrame(&protocol.Frame{Type: protocol.FrameProcessing}))

	err := v.HandleFrame(&protocol.Frame{Type: protocol.FrameError, Error: "no speech detected"})
	require.Error(t, err)
	assert.Equal(t, StageIdle, v.Stage())
	assert.Equal(t, "no speech detected", v.Err())
	assert.False(t, v.InFlight())
}

func TestVoiceStaleResetIgnored(t *testing.T) {
	tr := &fakeTransport{state: transport.Connected}
	v := newTestVoice(tr, newEventSink())
	require.NoError(t, v.SendAudio(testClip()))
	require.NoError(t, v.HandleFrame(&protocol.Frame{Type: protocol.FrameProcessing}))

	v.HandleStageReset(VoiceStageReset{TurnID: "some-old-turn"})
	assert.Equal(t, StageProcessing, v.Stage(), "a reset for another turn must not fire")
}

func TestVoiceFrameWithoutTurnDropped(t *testing.T) {
	tr := &fakeTransport{state: transport.Connected}
	v := newTestVoice(tr, newEventSink())

	require.NoError(t, v.HandleFrame(&protocol.Frame{Type: protocol.FrameResponse, AIResponse: "muộn rồi"}))
	assert.Equal(t, StageIdle, v.Stage())
	assert.Empty(t, v.Response())

	require.NoError(t, v.HandleFrame(&protocol.Frame{Status: "keepalive"}))
}
