// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package console

import (
	"context"
	"errors"
	"io"
	"log"
	"runtime"
	"time"

	"github.com/ezrec/moncon/serial"
)

// Bridge adapts debug monitor character calls to a serial transport.
type Bridge struct {
	Verbose   bool             // If set, logs retries and failures.
	Transport serial.Transport // Transport the characters move over.
	Retry     *Retry           // Policy for the bounded calls; nil waits until cancelled.
}

var (
	_ io.ByteReader = (*Bridge)(nil)
	_ io.ByteWriter = (*Bridge)(nil)
	_ io.Reader     = (*Bridge)(nil)
	_ io.Writer     = (*Bridge)(nil)
)

// NewBridge creates a bridge over a transport.
func NewBridge(transport serial.Transport) *Bridge {
	return &Bridge{
		Transport: transport,
	}
}

// GetCharacter spins on the transport until one byte is read, and returns it.
// canBlock is accepted for monitor compatibility and ignored: the call always
// blocks.
func (br *Bridge) GetCharacter(canBlock bool) int {
	var c [1]byte
	for !br.Transport.Read(c[:]) {
		runtime.Gosched()
	}
	return int(c[0])
}

// PutCharacter spins on the transport until c has been written.
func (br *Bridge) PutCharacter(c byte) {
	buf := [1]byte{c}
	for br.Transport.Write(buf[:]) != 1 {
		runtime.Gosched()
	}
}

// errorer is implemented by transports that can report a terminal
// input condition.
type errorer interface {
	Err() error
}

// writeErrorer is implemented by transports that can report an output
// failure.
type writeErrorer interface {
	WriteErr() error
}

// transportErr returns the terminal transport condition for op, if any.
func (br *Bridge) transportErr(op string) error {
	switch op {
	case "read":
		if et, ok := br.Transport.(errorer); ok {
			return et.Err()
		}
	case "write":
		if wt, ok := br.Transport.(writeErrorer); ok {
			return wt.WriteErr()
		}
	}
	return nil
}

// transfer runs one bounded single-byte transfer.
func (br *Bridge) transfer(ctx context.Context, op string, try func() bool) (err error) {
	if br.Transport == nil {
		err = &ErrTransfer{Op: op, Err: ErrNoTransport}
		return
	}

	retry := br.Retry
	if retry == nil {
		retry = &Retry{}
	}

	if retry.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, retry.Timeout)
		defer cancel()
	}

	attempts := 0
	defer func() {
		if err != nil && br.Verbose {
			log.Printf("console: %v", err)
		}
	}()

	for {
		attempts++
		if try() {
			retry.Backoff.Reset()
			return
		}

		if terr := br.transportErr(op); terr != nil {
			err = &ErrTransfer{Op: op, Attempts: attempts, Err: terr}
			return
		}

		if retry.Attempts > 0 && attempts >= retry.Attempts {
			retry.Backoff.Reset()
			err = &ErrTransfer{Op: op, Attempts: attempts, Err: ErrRetryExhausted}
			return
		}

		timer := time.NewTimer(retry.delay())
		select {
		case <-ctx.Done():
			timer.Stop()
			retry.Backoff.Reset()
			cause := ctx.Err()
			if cause == context.DeadlineExceeded {
				cause = ErrTimeout
			}
			err = &ErrTransfer{Op: op, Attempts: attempts, Err: cause}
			return
		case <-timer.C:
		}
	}
}

// ReadByteContext reads one byte under the Retry policy.
func (br *Bridge) ReadByteContext(ctx context.Context) (c byte, err error) {
	var buf [1]byte
	err = br.transfer(ctx, "read", func() bool {
		return br.Transport.Read(buf[:])
	})
	if err != nil {
		return
	}

	c = buf[0]
	return
}

// WriteByteContext writes one byte under the Retry policy.
func (br *Bridge) WriteByteContext(ctx context.Context, c byte) (err error) {
	buf := [1]byte{c}
	err = br.transfer(ctx, "write", func() bool {
		return br.Transport.Write(buf[:]) == 1
	})
	return
}

// ReadByte implements io.ByteReader.
func (br *Bridge) ReadByte() (byte, error) {
	return br.ReadByteContext(context.Background())
}

// WriteByte implements io.ByteWriter.
func (br *Bridge) WriteByte(c byte) error {
	return br.WriteByteContext(context.Background(), c)
}

// Read implements io.Reader. It waits for the first byte, then returns
// whatever else is immediately available. A terminal transport condition
// after at least one byte ends the read early without error.
func (br *Bridge) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return
	}

	p[0], err = br.ReadByte()
	if errors.Is(err, io.EOF) {
		err = io.EOF
	}
	if err != nil {
		return
	}
	n = 1

	var c [1]byte
	for n < len(p) && br.Transport.Read(c[:]) {
		p[n] = c[0]
		n++
	}

	return
}

// Write implements io.Writer, one byte at a time.
func (br *Bridge) Write(p []byte) (n int, err error) {
	for _, c := range p {
		err = br.WriteByte(c)
		if err != nil {
			return
		}
		n++
	}

	return
}
