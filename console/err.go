package console

import (
	"errors"

	"github.com/ezrec/moncon/translate"
)

var f = translate.From

var (
	// Transfer errors
	ErrTimeout        = errors.New(f("timeout"))
	ErrRetryExhausted = errors.New(f("retries exhausted"))
	ErrNoTransport    = errors.New(f("no transport"))
)

// ErrTransfer reports a bounded transfer that gave up.
type ErrTransfer struct {
	Op       string // "read" or "write"
	Attempts int    // Transport calls issued.
	Err      error
}

func (err *ErrTransfer) Error() string {
	return f("console %v after %d attempts: %v", err.Op, err.Attempts, err.Err)
}

func (err *ErrTransfer) Unwrap() error {
	return err.Err
}
