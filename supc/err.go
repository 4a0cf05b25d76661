package supc

import (
	"errors"

	"github.com/ezrec/moncon/translate"
)

var f = translate.From

var (
	// Controller errors
	ErrNotInitialized = errors.New(f("supply controller not initialized"))
	ErrNotActive      = errors.New(f("device not active"))
	ErrActive         = errors.New(f("device already active"))
	ErrModeInvalid    = errors.New(f("mode invalid"))
	ErrWakeSource     = errors.New(f("wake source invalid"))
	ErrFlashState     = errors.New(f("flash state invalid"))
	ErrCallbackNil    = errors.New(f("callback nil"))
)

// ErrParse reports text that does not name a mode, flash state, or wake source.
type ErrParse string

func (err ErrParse) Error() string {
	return f("'%v' is not recognized", string(err))
}
