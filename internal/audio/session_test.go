package audio

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice is a scripted capture device for session tests.
type fakeDevice struct {
	mu        sync.Mutex
	supported bool
	encodings []string
	startErr  error

	started  bool
	paused   bool
	released bool
	onChunk  func([]byte)
	onErr    func(error)
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{supported: true, encodings: []string{"audio/wav", "audio/ogg"}}
}

func (d *fakeDevice) Supported() bool { return d.supported }

func (d *fakeDevice) Negotiate(prefs []string) (string, error) {
	for _, p := range prefs {
		for _, e := range d.encodings {
			if p == e {
				return p, nil
			}
		}
	}
	return "", ErrNoEncoding
}

func (d *fakeDevice) Start(opts StreamOptions, onChunk func([]byte), onErr func(error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startErr != nil {
		return d.startErr
	}
	d.started = true
	d.released = false
	d.onChunk = onChunk
	d.onErr = onErr
	return nil
}

func (d *fakeDevice) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused = true
	return nil
}

func (d *fakeDevice) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused = false
	return nil
}

func (d *fakeDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = false
	return nil
}

func (d *fakeDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
}

func (d *fakeDevice) push(data []byte) {
	d.mu.Lock()
	fn := d.onChunk
	d.mu.Unlock()
	fn(data)
}

func (d *fakeDevice) fail(err error) {
	d.mu.Lock()
	fn := d.onErr
	d.mu.Unlock()
	fn(err)
}

func newTestSession(dev Device, cfg Config, cb Callbacks) *Session {
	return NewSession(dev, cfg, cb, zerolog.Nop())
}

func TestStartUnsupportedDevice(t *testing.T) {
	dev := newFakeDevice()
	dev.supported = false
	s := newTestSession(dev, Config{}, Callbacks{})

	err := s.Start()
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, Idle, s.State())
}

func TestRecordAndStopAssemblesClip(t *testing.T) {
	dev := newFakeDevice()
	var (
		mu    sync.Mutex
		clips []Clip
	)
	s := newTestSession(dev, Config{}, Callbacks{
		OnComplete: func(c Clip) {
			mu.Lock()
			clips = append(clips, c)
			mu.Unlock()
		},
	})

	require.NoError(t, s.Start())
	assert.Equal(t, Recording, s.State())

	dev.push([]byte("abc"))
	dev.push([]byte("def"))

	require.NoError(t, s.Stop())
	assert.Equal(t, Stopped, s.State())
	assert.True(t, dev.released)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, clips, 1)
	assert.Equal(t, []byte("abcdef"), clips[0].Data)
	assert.Equal(t, "audio/wav", clips[0].Encoding)

	require.NotEmpty(t, clips[0].Path)
	onDisk, err := os.ReadFile(clips[0].Path)
	require.NoError(t, err)
	assert.Equal(t, clips[0].Data, onDisk)
	t.Cleanup(func() { os.Remove(clips[0].Path) })
}

func TestImmediateStopYieldsEmptyClip(t *testing.T) {
	dev := newFakeDevice()
	done := make(chan Clip, 1)
	s := newTestSession(dev, Config{}, Callbacks{
		OnComplete: func(c Clip) { done <- c },
	})

	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())

	select {
	case c := <-done:
		assert.Empty(t, c.Data)
	case <-time.After(time.Second):
		t.Fatal("completion callback never fired")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	dev := newFakeDevice()
	var completions int
	s := newTestSession(dev, Config{}, Callbacks{
		OnComplete: func(Clip) { completions++ },
	})

	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	assert.Equal(t, 1, completions)
}

func TestMaxDurationExpiryStops(t *testing.T) {
	dev := newFakeDevice()
	done := make(chan Clip, 1)
	cfg := Config{MaxDuration: 80 * time.Millisecond, TickInterval: 10 * time.Millisecond}
	s := newTestSession(dev, cfg, Callbacks{
		OnComplete: func(c Clip) { done <- c },
	})

	require.NoError(t, s.Start())

	select {
	case c := <-done:
		assert.Equal(t, Stopped, s.State())
		// Same terminal path as an explicit stop, duration about MaxDuration.
		assert.InDelta(t, float64(cfg.MaxDuration), float64(c.Duration), float64(50*time.Millisecond))
	case <-time.After(2 * time.Second):
		t.Fatal("max-duration expiry never stopped the recording")
	}
}

func TestPausePreservesDuration(t *testing.T) {
	dev := newFakeDevice()
	s := newTestSession(dev, Config{}, Callbacks{})

	require.NoError(t, s.Start())
	time.Sleep(30 * time.Millisecond)

	s.Pause()
	assert.Equal(t, Paused, s.State())
	assert.True(t, dev.paused)

	frozen := s.Duration()
	assert.Greater(t, frozen, time.Duration(0))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, frozen, s.Duration())

	s.Resume()
	assert.Equal(t, Recording, s.State())
	time.Sleep(30 * time.Millisecond)
	resumed := s.Duration()
	assert.Greater(t, resumed, frozen)
	// The baseline is recomputed on resume, so paused time never counts.
	assert.Less(t, resumed, frozen+60*time.Millisecond)

	require.NoError(t, s.Stop())
}

func TestPauseResumeInvalidStates(t *testing.T) {
	dev := newFakeDevice()
	s := newTestSession(dev, Config{}, Callbacks{})

	// No-ops from Idle.
	s.Pause()
	s.Resume()
	assert.Equal(t, Idle, s.State())

	require.NoError(t, s.Start())
	s.Resume() // not paused, no-op
	assert.Equal(t, Recording, s.State())
	require.NoError(t, s.Stop())
}

func TestCaptureErrorResetsToIdle(t *testing.T) {
	dev := newFakeDevice()
	var (
		mu   sync.Mutex
		errs []error
	)
	s := newTestSession(dev, Config{}, Callbacks{
		OnError: func(err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		},
	})

	require.NoError(t, s.Start())
	dev.fail(errors.New("device unplugged"))

	// A failed capture is not a valid completed recording.
	assert.Equal(t, Idle, s.State())
	assert.Nil(t, s.Clip())
	assert.True(t, dev.released)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, errs, 1)
}

func TestBufferOverflowFailsCapture(t *testing.T) {
	dev := newFakeDevice()
	var got error
	s := newTestSession(dev, Config{MaxBytes: 4}, Callbacks{
		OnError: func(err error) { got = err },
	})

	require.NoError(t, s.Start())
	dev.push([]byte("too many bytes"))

	require.ErrorIs(t, got, ErrBufferFull)
	assert.Equal(t, Idle, s.State())
}

func TestResetReleasesEverything(t *testing.T) {
	dev := newFakeDevice()
	var clip Clip
	s := newTestSession(dev, Config{}, Callbacks{
		OnComplete: func(c Clip) { clip = c },
	})

	require.NoError(t, s.Start())
	dev.push([]byte("abc"))
	require.NoError(t, s.Stop())
	require.NotEmpty(t, clip.Path)

	s.Reset()
	assert.Equal(t, Idle, s.State())
	assert.Nil(t, s.Clip())
	_, err := os.Stat(clip.Path)
	assert.True(t, os.IsNotExist(err))

	// Reset from Idle is safe too.
	s.Reset()
}

func TestDurationTicks(t *testing.T) {
	dev := newFakeDevice()
	var ticks atomicCounter
	s := newTestSession(dev, Config{TickInterval: 10 * time.Millisecond}, Callbacks{
		OnDuration: func(time.Duration) { ticks.inc() },
	})

	require.NoError(t, s.Start())
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, s.Stop())

	assert.GreaterOrEqual(t, ticks.get(), 3)
}

func TestEncodingNegotiationOrder(t *testing.T) {
	dev := newFakeDevice()
	dev.encodings = []string{"audio/ogg"}
	s := newTestSession(dev, Config{}, Callbacks{})

	done := make(chan Clip, 1)
	s.cb.OnComplete = func(c Clip) { done <- c }

	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())

	c := <-done
	assert.Equal(t, "audio/ogg", c.Encoding)
}

func TestNoEncodingInCommon(t *testing.T) {
	dev := newFakeDevice()
	dev.encodings = []string{"audio/flac"}
	s := newTestSession(dev, Config{}, Callbacks{})

	err := s.Start()
	require.ErrorIs(t, err, ErrNoEncoding)
	assert.Equal(t, Idle, s.State())
}

type atomicCounter struct {
	mu sync.Mutex
	n  int
}

func (c *atomicCounter) inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *atomicCounter) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
