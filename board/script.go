package board

import (
	"context"
	"errors"
	"io"
	"strconv"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/moncon/supc"
)

// Run executes a Starlark board script. Every define is predeclared as an
// int, along with the console and supply controller builtins.
func (bd *Board) Run(ctx context.Context, name string, src io.Reader) (err error) {
	text, err := io.ReadAll(src)
	if err != nil {
		return
	}

	var printErr error
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			perr := bd.puts(ctx, msg+"\n")
			if printErr == nil {
				printErr = perr
			}
		},
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	opts := syntax.FileOptions{
		TopLevelControl: true,
		While:           true,
		GlobalReassign:  true,
	}
	_, err = starlark.ExecFileOptions(&opts, thread, name, text, bd.predeclared(ctx))
	if err != nil {
		err = &ErrRuntime{Name: name, LineNo: lineOf(err), Err: err}
		return
	}

	if printErr != nil {
		err = &ErrRuntime{Name: name, Err: printErr}
	}

	return
}

// lineOf finds the innermost script line of an error.
func lineOf(err error) int {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		for n := range len(evalErr.CallStack) {
			frame := evalErr.CallStack.At(n)
			if frame.Pos.Line > 0 {
				return int(frame.Pos.Line)
			}
		}
	}

	var syntaxErr syntax.Error
	if errors.As(err, &syntaxErr) {
		return int(syntaxErr.Pos.Line)
	}

	var resolveErr resolve.ErrorList
	if errors.As(err, &resolveErr) && len(resolveErr) > 0 {
		return int(resolveErr[0].Pos.Line)
	}

	return 0
}

func (bd *Board) predeclared(ctx context.Context) (pred starlark.StringDict) {
	pred = starlark.StringDict{}
	for key, str := range bd.Defines() {
		value, err := strconv.ParseInt(str, 0, 64)
		if err != nil {
			continue
		}
		pred[key] = starlark.MakeInt64(value)
	}

	builtins := map[string]func(context.Context, starlark.Tuple, []starlark.Tuple, string) (starlark.Value, error){
		"getc":   bd.getc,
		"putc":   bd.putc,
		"puts":   bd.putsBuiltin,
		"alert":  bd.alert,
		"sleep":  bd.sleep,
		"wait":   bd.wait,
		"backup": bd.backup,
		"wake":   bd.wake,
		"mode":   bd.mode,
		"resets": bd.resets,
	}
	for name, fn := range builtins {
		pred[name] = starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			return fn(ctx, args, kwargs, b.Name())
		})
	}

	return
}

// getc() reads one console character. Without a retry policy it waits
// forever.
func (bd *Board) getc(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple, name string) (value starlark.Value, err error) {
	err = starlark.UnpackArgs(name, args, kwargs)
	if err != nil {
		return
	}

	if bd.Console.Retry == nil {
		value = starlark.MakeInt(bd.Console.GetCharacter(true))
		return
	}

	c, err := bd.Console.ReadByteContext(ctx)
	if err != nil {
		return
	}

	value = starlark.MakeInt(int(c))
	return
}

func (bd *Board) putByte(ctx context.Context, c byte) (err error) {
	if bd.Console.Retry == nil {
		bd.Console.PutCharacter(c)
		return
	}

	err = bd.Console.WriteByteContext(ctx, c)
	return
}

func (bd *Board) puts(ctx context.Context, text string) (err error) {
	for n := range len(text) {
		err = bd.putByte(ctx, text[n])
		if err != nil {
			return
		}
	}
	return
}

// putc(c) writes one character, given as an int or a 1 character string.
func (bd *Board) putc(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple, name string) (value starlark.Value, err error) {
	var arg starlark.Value
	err = starlark.UnpackArgs(name, args, kwargs, "c", &arg)
	if err != nil {
		return
	}

	var c byte
	switch v := arg.(type) {
	case starlark.Int:
		n, ok := v.Int64()
		if !ok || n < 0 || n > 0xff {
			err = ErrCharacter
			return
		}
		c = byte(n)
	case starlark.String:
		if len(v) != 1 {
			err = ErrCharacter
			return
		}
		c = string(v)[0]
	default:
		err = ErrCharacter
		return
	}

	err = bd.putByte(ctx, c)
	value = starlark.None
	return
}

// puts(s) writes a string.
func (bd *Board) putsBuiltin(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple, name string) (value starlark.Value, err error) {
	var text string
	err = starlark.UnpackArgs(name, args, kwargs, "s", &text)
	if err != nil {
		return
	}

	err = bd.puts(ctx, text)
	value = starlark.None
	return
}

// alert(op) sends a transport control request and returns the response.
func (bd *Board) alert(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple, name string) (value starlark.Value, err error) {
	var op int
	err = starlark.UnpackArgs(name, args, kwargs, "op", &op)
	if err != nil {
		return
	}

	response, err := bd.Alert(uint32(op))
	if err != nil {
		return
	}

	value = starlark.MakeUint64(uint64(response))
	return
}

// wakeSource accepts a wake source as an int mask or a name list.
func wakeSource(v starlark.Value) (ws supc.WakeSource, err error) {
	switch v := v.(type) {
	case starlark.Int:
		n, ok := v.Uint64()
		if !ok || n > 0xffffffff {
			err = supc.ErrWakeSource
			return
		}
		ws = supc.WakeSource(n)
	case starlark.String:
		ws, err = supc.ParseWakeSource(string(v))
	default:
		err = supc.ErrWakeSource
	}
	return
}

// flashState accepts a flash state as an int or a name.
func flashState(v starlark.Value) (fs supc.FlashState, err error) {
	switch v := v.(type) {
	case starlark.Int:
		n, ok := v.Uint64()
		if !ok || n > 0xff {
			err = supc.ErrFlashState
			return
		}
		fs = supc.FlashState(n)
	case starlark.String:
		fs, err = supc.ParseFlashState(string(v))
	default:
		err = supc.ErrFlashState
	}
	return
}

// sleep() enters Sleep mode.
func (bd *Board) sleep(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple, name string) (value starlark.Value, err error) {
	err = starlark.UnpackArgs(name, args, kwargs)
	if err != nil {
		return
	}

	err = bd.Supply.Enter(supc.Sleep{})
	value = starlark.None
	return
}

// wait(flash, source) enters Wait mode.
func (bd *Board) wait(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple, name string) (value starlark.Value, err error) {
	var flashArg, sourceArg starlark.Value
	err = starlark.UnpackArgs(name, args, kwargs, "flash", &flashArg, "source", &sourceArg)
	if err != nil {
		return
	}

	mode := supc.Wait{}
	mode.Flash, err = flashState(flashArg)
	if err != nil {
		return
	}
	mode.Source, err = wakeSource(sourceArg)
	if err != nil {
		return
	}

	err = bd.Supply.Enter(mode)
	value = starlark.None
	return
}

// backup(source=0) enters Backup mode.
func (bd *Board) backup(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple, name string) (value starlark.Value, err error) {
	var sourceArg starlark.Value = starlark.MakeInt(0)
	err = starlark.UnpackArgs(name, args, kwargs, "source?", &sourceArg)
	if err != nil {
		return
	}

	mode := supc.Backup{}
	mode.Source, err = wakeSource(sourceArg)
	if err != nil {
		return
	}

	err = bd.Supply.Enter(mode)
	value = starlark.None
	return
}

// wake(source) delivers a wake-up event. After a Backup wake-up the board
// is reset with WakeReset, as the device would be.
func (bd *Board) wake(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple, name string) (value starlark.Value, err error) {
	var sourceArg starlark.Value
	err = starlark.UnpackArgs(name, args, kwargs, "source", &sourceArg)
	if err != nil {
		return
	}

	source, err := wakeSource(sourceArg)
	if err != nil {
		return
	}

	err = bd.Supply.Wake(source)
	if err != nil {
		return
	}

	if !bd.Supply.Initialized() {
		err = bd.WakeReset()
	}

	value = starlark.None
	return
}

// mode() returns the current mode name, or "active".
func (bd *Board) mode(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple, name string) (value starlark.Value, err error) {
	err = starlark.UnpackArgs(name, args, kwargs)
	if err != nil {
		return
	}

	mode := bd.Supply.Mode()
	if mode == nil {
		value = starlark.String("active")
		return
	}

	value = starlark.String(mode.String())
	return
}

// resets() returns the number of Backup wake-up resets.
func (bd *Board) resets(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple, name string) (value starlark.Value, err error) {
	err = starlark.UnpackArgs(name, args, kwargs)
	if err != nil {
		return
	}

	value = starlark.MakeInt(bd.Supply.Resets())
	return
}
