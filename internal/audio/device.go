package audio

import (
	"errors"
	"time"
)

// Capture errors.
var (
	// ErrUnsupported means the runtime has no usable audio input.
	ErrUnsupported = errors.New("audio capture is not supported on this system")
	// ErrNoEncoding means the device supports none of the preferred encodings.
	ErrNoEncoding = errors.New("no supported audio encoding")
)

// StreamOptions configures an input stream. The processing flags mirror what
// the capture backend applies to the raw signal; backends that cannot honor
// them capture unprocessed audio.
type StreamOptions struct {
	Encoding         string
	ChunkInterval    time.Duration
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// Device is an audio input source. Exactly one stream may be open at a time;
// Release must return the handle before another Start can acquire it.
type Device interface {
	// Supported reports whether the device can capture at all.
	Supported() bool

	// Negotiate picks the first encoding from prefs the device can produce.
	Negotiate(prefs []string) (string, error)

	// Start opens the input stream and begins delivering data increments to
	// onChunk roughly every opts.ChunkInterval. Capture faults are reported
	// through onErr; after onErr fires the stream is dead.
	Start(opts StreamOptions, onChunk func([]byte), onErr func(error)) error

	// Pause suspends data delivery without closing the stream.
	Pause() error

	// Resume restarts data delivery after Pause.
	Resume() error

	// Stop closes the stream, flushing any pending increment first.
	Stop() error

	// Release frees the device handle. Safe to call in any state.
	Release()
}
