// Package audio owns the voice-recording lifecycle: a single capture session
// that buffers device increments, enforces a maximum duration, and emits one
// assembled clip on completion.
package audio

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the recording lifecycle state of a Session.
type State int

const (
	Idle State = iota
	Recording
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Clip is one completed recording. Path points at a temp file holding the
// same bytes so the clip can be replayed locally; it is removed on Reset.
type Clip struct {
	Data     []byte
	Encoding string
	Duration time.Duration
	Path     string
}

// Callbacks are the session's outbound notifications. All fields are
// optional. OnDuration fires on a fixed tick while recording; OnComplete
// fires exactly once per completed recording; OnError fires once per failed
// capture, after the session has already returned to Idle.
type Callbacks struct {
	OnComplete func(Clip)
	OnDuration func(time.Duration)
	OnError    func(error)
}

// Config tunes a capture session.
type Config struct {
	MaxDuration   time.Duration
	TickInterval  time.Duration
	ChunkInterval time.Duration
	MaxBytes      int
	Encodings     []string
}

// DefaultConfig mirrors the capture settings of the web client: 60 s hard
// stop, 100 ms buffering and duration resolution.
func DefaultConfig() Config {
	return Config{
		MaxDuration:   60 * time.Second,
		TickInterval:  100 * time.Millisecond,
		ChunkInterval: 100 * time.Millisecond,
		MaxBytes:      16 << 20,
		Encodings:     []string{"audio/wav", "audio/ogg", "audio/mp4"},
	}
}

// Session drives one recording lifecycle over a Device:
// Idle → Recording → {Paused ⇄ Recording} → Stopped → (Reset) → Idle.
// A failed capture returns to Idle, never Stopped.
type Session struct {
	dev Device
	cfg Config
	cb  Callbacks
	log zerolog.Logger

	mu        sync.Mutex
	state     State
	buf       *Buffer
	encoding  string
	startedAt time.Time
	elapsed   time.Duration
	tickStop  chan struct{}
	maxTimer  *time.Timer
	clip      *Clip
}

// NewSession creates a session over dev. Zero config fields take defaults.
func NewSession(dev Device, cfg Config, cb Callbacks, log zerolog.Logger) *Session {
	def := DefaultConfig()
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = def.MaxDuration
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.ChunkInterval <= 0 {
		cfg.ChunkInterval = def.ChunkInterval
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = def.MaxBytes
	}
	if len(cfg.Encodings) == 0 {
		cfg.Encodings = def.Encodings
	}
	return &Session{
		dev: dev,
		cfg: cfg,
		cb:  cb,
		log: log.With().Str("component", "audio-session").Logger(),
		buf: NewBuffer(cfg.MaxBytes),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Duration returns the elapsed recording time, frozen while paused.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durationLocked()
}

func (s *Session) durationLocked() time.Duration {
	if s.state == Recording {
		return s.elapsed + time.Since(s.startedAt)
	}
	return s.elapsed
}

// Clip returns the last completed recording, or nil.
func (s *Session) Clip() *Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clip
}

// Start acquires the capture device, negotiates an encoding, and begins
// buffering. It fails with ErrUnsupported when the runtime cannot capture
// audio; such failures are not retried automatically.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state == Recording || s.state == Paused {
		s.mu.Unlock()
		return fmt.Errorf("recording already in progress")
	}
	if !s.dev.Supported() {
		s.mu.Unlock()
		return ErrUnsupported
	}

	s.releaseClipLocked()
	s.buf.Clear()

	encoding, err := s.dev.Negotiate(s.cfg.Encodings)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	opts := StreamOptions{
		Encoding:         encoding,
		ChunkInterval:    s.cfg.ChunkInterval,
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	}
	if err := s.dev.Start(opts, s.handleChunk, s.handleCaptureError); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("start capture: %w", err)
	}

	s.encoding = encoding
	s.state = Recording
	s.startedAt = time.Now()
	s.elapsed = 0
	s.tickStop = make(chan struct{})
	go s.tickLoop(s.tickStop)
	// Expiry takes the same path as an explicit Stop.
	s.maxTimer = time.AfterFunc(s.cfg.MaxDuration, func() { _ = s.Stop() })
	s.mu.Unlock()

	s.log.Debug().Str("encoding", encoding).Msg("recording started")
	return nil
}

// Pause suspends capture. No-op unless recording.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Recording {
		return
	}
	if err := s.dev.Pause(); err != nil {
		s.log.Warn().Err(err).Msg("pause failed")
		return
	}
	s.elapsed += time.Since(s.startedAt)
	s.state = Paused
}

// Resume continues a paused recording. The duration baseline is recomputed
// so the displayed duration does not jump. No-op unless paused.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Paused {
		return
	}
	if err := s.dev.Resume(); err != nil {
		s.log.Warn().Err(err).Msg("resume failed")
		return
	}
	s.startedAt = time.Now()
	s.state = Recording
}

// Stop ends the recording, assembles the buffered increments into one clip,
// releases the device, and invokes OnComplete. Calling Stop when nothing is
// recording is a safe no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state != Recording && s.state != Paused {
		s.mu.Unlock()
		return nil
	}
	duration := s.durationLocked()
	encoding := s.encoding
	s.stopTimersLocked()
	s.state = Stopped
	s.mu.Unlock()

	// Flush the final increment before assembly.
	if err := s.dev.Stop(); err != nil {
		s.log.Warn().Err(err).Msg("device stop failed")
	}
	s.dev.Release()

	clip := Clip{
		Data:     s.buf.Assemble(),
		Encoding: encoding,
		Duration: duration,
	}
	if path, err := writeClipFile(clip.Data, encoding); err != nil {
		s.log.Warn().Err(err).Msg("could not persist clip locally")
	} else {
		clip.Path = path
	}

	s.mu.Lock()
	s.clip = &clip
	s.mu.Unlock()

	s.log.Info().
		Str("encoding", encoding).
		Dur("duration", duration).
		Int("bytes", len(clip.Data)).
		Msg("recording complete")

	if s.cb.OnComplete != nil {
		s.cb.OnComplete(clip)
	}
	return nil
}

// Reset forces the session back to Idle from any state, releasing the device
// handle and the previous clip's local file.
func (s *Session) Reset() {
	s.mu.Lock()
	s.stopTimersLocked()
	s.state = Idle
	s.elapsed = 0
	s.releaseClipLocked()
	s.mu.Unlock()

	_ = s.dev.Stop()
	s.dev.Release()
	s.buf.Clear()
}

func (s *Session) handleChunk(chunk []byte) {
	if err := s.buf.Append(chunk); err != nil {
		s.handleCaptureError(err)
	}
}

// handleCaptureError is invoked from the device stream. A failed capture is
// not a valid completed recording, so the session returns to Idle.
func (s *Session) handleCaptureError(err error) {
	s.mu.Lock()
	if s.state != Recording && s.state != Paused {
		s.mu.Unlock()
		return
	}
	s.stopTimersLocked()
	s.state = Idle
	s.elapsed = 0
	s.mu.Unlock()

	s.dev.Release()
	s.buf.Clear()
	s.log.Error().Err(err).Msg("capture failed")
	if s.cb.OnError != nil {
		s.cb.OnError(err)
	}
}

func (s *Session) stopTimersLocked() {
	if s.maxTimer != nil {
		s.maxTimer.Stop()
		s.maxTimer = nil
	}
	if s.tickStop != nil {
		close(s.tickStop)
		s.tickStop = nil
	}
}

func (s *Session) releaseClipLocked() {
	if s.clip != nil && s.clip.Path != "" {
		_ = os.Remove(s.clip.Path)
	}
	s.clip = nil
}

func (s *Session) tickLoop(stop chan struct{}) {
	t := time.NewTicker(s.cfg.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if s.cb.OnDuration != nil {
				s.cb.OnDuration(s.Duration())
			}
		}
	}
}

func writeClipFile(data []byte, encoding string) (string, error) {
	ext := ".bin"
	switch encoding {
	case "audio/wav":
		ext = ".wav"
	case "audio/ogg":
		ext = ".ogg"
	case "audio/mp4":
		ext = ".m4a"
	}
	f, err := os.CreateTemp("", "assistant-clip-*"+ext)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
