//go:build !unix

package audio

// SystemDevice is a placeholder on platforms without a supported capture
// backend; every session started on it fails with ErrUnsupported.
type SystemDevice struct{}

func NewSystemDevice() *SystemDevice { return &SystemDevice{} }

func (d *SystemDevice) Supported() bool { return false }

func (d *SystemDevice) Negotiate([]string) (string, error) { return "", ErrUnsupported }

func (d *SystemDevice) Start(StreamOptions, func([]byte), func(error)) error {
	return ErrUnsupported
}

func (d *SystemDevice) Pause() error  { return ErrUnsupported }
func (d *SystemDevice) Resume() error { return ErrUnsupported }
func (d *SystemDevice) Stop() error   { return nil }
func (d *SystemDevice) Release()      {}
