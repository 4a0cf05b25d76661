package board

import (
	"errors"

	"github.com/ezrec/moncon/translate"
)

var f = translate.From

var (
	// Script argument errors
	ErrCharacter = errors.New(f("character must be an int 0..255 or a 1 character string"))
	ErrNoAlert   = errors.New(f("transport has no alert channel"))
)

// ErrRuntime indicates the location of a board script error.
type ErrRuntime struct {
	Name   string
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("%v:%d %v", err.Name, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
