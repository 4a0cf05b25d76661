package serial

import (
	"github.com/mattn/go-tty"
)

// Tty is a Stream over a terminal device in raw mode.
type Tty struct {
	*Stream

	device  *tty.TTY
	restore func() error
}

var _ Transport = (*Tty)(nil)

// OpenTty opens a terminal device. An empty path selects the controlling
// terminal.
func OpenTty(path string) (tt *Tty, err error) {
	var device *tty.TTY
	if len(path) == 0 {
		device, err = tty.Open()
	} else {
		device, err = tty.OpenDevice(path)
	}
	if err != nil {
		return
	}

	restore, err := device.Raw()
	if err != nil {
		device.Close()
		return
	}

	tt = &Tty{
		Stream:  NewStream(device.Input(), device.Output()),
		device:  device,
		restore: restore,
	}

	return
}

// Close restores the terminal mode and closes the device.
func (tt *Tty) Close() (err error) {
	tt.Stream.Close()

	err = tt.restore()
	cerr := tt.device.Close()
	if err == nil {
		err = cerr
	}

	return
}
