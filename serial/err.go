package serial

import (
	"errors"

	"github.com/ezrec/moncon/translate"
)

var f = translate.From

var (
	// Transport errors
	ErrClosed = errors.New(f("transport closed"))
)
