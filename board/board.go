// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package board wires a serial transport, a debug console bridge, and a
// supply controller into one simulated board, and runs Starlark scripts
// against it.
package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/moncon/console"
	"github.com/ezrec/moncon/internal"
	"github.com/ezrec/moncon/serial"
	"github.com/ezrec/moncon/supc"
)

var _board_defines = map[string]string{
	"RING_DEFAULT_CAPACITY": fmt.Sprintf("%#v", serial.RING_DEFAULT_CAPACITY),
	"CHAR_MAX":              fmt.Sprintf("%#v", 0xff),
}

// alerter is implemented by transports with control operations.
type alerter interface {
	Alert(request uint32, response chan uint32)
}

// definer is implemented by transports that publish constants.
type definer interface {
	Defines() iter.Seq2[string, string]
}

// Board state. Transport + console + supply controller.
type Board struct {
	Verbose   bool             // If set, enables verbose logging.
	Transport serial.Transport // Console transport.
	Console   *console.Bridge  // Debug monitor console.
	Supply    *supc.Simulator  // Supply controller.
}

// NewBoard creates a new board on a transport.
func NewBoard(transport serial.Transport) (bd *Board) {
	bd = &Board{
		Transport: transport,
		Console:   console.NewBridge(transport),
		Supply:    supc.NewSimulator(),
	}

	return
}

// Defines returns an iterator over all of the defines
func (bd *Board) Defines() iter.Seq2[string, string] {
	seqs := []iter.Seq2[string, string]{maps.All(_board_defines)}
	if df, ok := bd.Transport.(definer); ok {
		seqs = append(seqs, df.Defines())
	}
	seqs = append(seqs, supc.Defines())

	return internal.IterSeq2Concat(seqs...)
}

// Reset initializes the supply controller and flushes the transport.
func (bd *Board) Reset() (err error) {
	bd.Console.Verbose = bd.Verbose
	bd.Supply.Verbose = bd.Verbose

	err = bd.Supply.Initialize()
	if err != nil {
		return
	}

	if _, ok := bd.Transport.(alerter); ok {
		for _, op := range []uint32{serial.UART_OP_FLUSH_RX, serial.UART_OP_FLUSH_TX} {
			_, err = bd.Alert(op)
			if err != nil {
				return
			}
		}
	}

	return
}

// WakeReset re-initializes the supply controller after a Backup wake-up.
// Only the receive ring is flushed: bytes the device transmitted before
// the reset stay queued for the host.
func (bd *Board) WakeReset() (err error) {
	err = bd.Supply.Initialize()
	if err != nil {
		return
	}

	if _, ok := bd.Transport.(alerter); ok {
		_, err = bd.Alert(serial.UART_OP_FLUSH_RX)
	}

	return
}

// Alert sends a control request to the transport and awaits the response.
func (bd *Board) Alert(request uint32) (value uint32, err error) {
	al, ok := bd.Transport.(alerter)
	if !ok {
		err = ErrNoAlert
		return
	}

	response := make(chan uint32, 1)
	al.Alert(request, response)
	value = <-response

	if bd.Verbose {
		log.Printf("board: alert %#x -> %#x", request, value)
	}

	return
}

// ECHO_EXIT ends the echo monitor when received.
const ECHO_EXIT = 0x04

// Echo reads console characters and writes each one back, until ECHO_EXIT
// arrives, the transport ends, or ctx is done. A transport that reaches end
// of input is not an error.
func (bd *Board) Echo(ctx context.Context) (err error) {
	for {
		var c byte
		c, err = bd.Console.ReadByteContext(ctx)
		if err != nil {
			break
		}
		if c == ECHO_EXIT {
			return
		}
		err = bd.Console.WriteByteContext(ctx, c)
		if err != nil {
			break
		}
	}

	if errors.Is(err, io.EOF) || errors.Is(err, serial.ErrClosed) {
		err = nil
	}

	return
}
