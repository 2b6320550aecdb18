//go:build unix

package audio

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// recorder describes one system capture binary and the encodings it can
// stream to stdout.
type recorder struct {
	bin       string
	encodings []string
	args      func(encoding string) []string
}

// Probe order: alsa-utils first, then sox, then ffmpeg.
var recorders = []recorder{
	{
		bin:       "arecord",
		encodings: []string{"audio/wav"},
		args: func(string) []string {
			return []string{"-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "wav", "-"}
		},
	},
	{
		bin:       "rec",
		encodings: []string{"audio/wav", "audio/ogg"},
		args: func(encoding string) []string {
			t := "wav"
			if encoding == "audio/ogg" {
				t = "ogg"
			}
			return []string{"-q", "-c", "1", "-r", "16000", "-t", t, "-"}
		},
	},
	{
		bin:       "ffmpeg",
		encodings: []string{"audio/wav", "audio/ogg"},
		args: func(encoding string) []string {
			f := "wav"
			if encoding == "audio/ogg" {
				f = "ogg"
			}
			return []string{
				"-hide_banner", "-loglevel", "error",
				"-f", "alsa", "-i", "default",
				"-ac", "1", "-ar", "16000",
				"-f", f, "-",
			}
		},
	},
}

// SystemDevice captures audio by streaming the stdout of a system recorder
// process. Pause and resume map to SIGSTOP/SIGCONT on the recorder.
type SystemDevice struct {
	mu       sync.Mutex
	rec      *recorder
	cmd      *exec.Cmd
	stdout   io.ReadCloser
	stopping bool
	done     chan struct{}
}

// NewSystemDevice probes the host for a usable capture binary.
func NewSystemDevice() *SystemDevice {
	d := &SystemDevice{}
	for i := range recorders {
		if _, err := exec.LookPath(recorders[i].bin); err == nil {
			d.rec = &recorders[i]
			break
		}
	}
	return d
}

// Supported reports whether a capture binary was found on the host.
func (d *SystemDevice) Supported() bool {
	return d.rec != nil
}

// Negotiate picks the first preferred encoding the recorder can produce.
func (d *SystemDevice) Negotiate(prefs []string) (string, error) {
	if d.rec == nil {
		return "", ErrUnsupported
	}
	for _, want := range prefs {
		for _, have := range d.rec.encodings {
			if want == have {
				return want, nil
			}
		}
	}
	return "", ErrNoEncoding
}

// Start launches the recorder process and streams stdout increments to
// onChunk until Stop or a capture fault.
func (d *SystemDevice) Start(opts StreamOptions, onChunk func([]byte), onErr func(error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rec == nil {
		return ErrUnsupported
	}
	if d.cmd != nil {
		return fmt.Errorf("capture device already in use")
	}

	cmd := exec.Command(d.rec.bin, d.rec.args(opts.Encoding)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open capture pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", d.rec.bin, err)
	}

	d.cmd = cmd
	d.stdout = stdout
	d.stopping = false
	d.done = make(chan struct{})

	go d.pump(stdout, onChunk, onErr)
	return nil
}

// pump reads stdout in increments sized for roughly 100 ms of 16 kHz mono
// PCM and hands them to onChunk.
func (d *SystemDevice) pump(r io.Reader, onChunk func([]byte), onErr func(error)) {
	defer close(d.done)
	for {
		buf := make([]byte, 3200)
		n, err := r.Read(buf)
		if n > 0 {
			onChunk(buf[:n])
		}
		if err != nil {
			d.mu.Lock()
			stopping := d.stopping
			d.mu.Unlock()
			if err != io.EOF && !stopping {
				onErr(fmt.Errorf("capture stream: %w", err))
			}
			return
		}
	}
}

// Pause suspends the recorder process.
func (d *SystemDevice) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cmd == nil || d.cmd.Process == nil {
		return fmt.Errorf("capture not running")
	}
	return d.cmd.Process.Signal(syscall.SIGSTOP)
}

// Resume continues a paused recorder process.
func (d *SystemDevice) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cmd == nil || d.cmd.Process == nil {
		return fmt.Errorf("capture not running")
	}
	return d.cmd.Process.Signal(syscall.SIGCONT)
}

// Stop terminates the recorder and waits for the last increment to drain.
func (d *SystemDevice) Stop() error {
	d.mu.Lock()
	cmd := d.cmd
	done := d.done
	d.stopping = true
	d.mu.Unlock()

	if cmd == nil {
		return nil
	}
	if cmd.Process != nil {
		// SIGCONT first in case the recorder is paused and cannot see the
		// termination signal.
		_ = cmd.Process.Signal(syscall.SIGCONT)
		_ = cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
	}
	_ = cmd.Wait()

	d.mu.Lock()
	d.cmd = nil
	d.stdout = nil
	d.mu.Unlock()
	return nil
}

// Release frees the device handle, killing any live recorder.
func (d *SystemDevice) Release() {
	_ = d.Stop()
}
