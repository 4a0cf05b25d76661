// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/ezrec/moncon/board"
	"github.com/ezrec/moncon/console"
	"github.com/ezrec/moncon/serial"
)

func main() {
	var script string
	var device string
	var input string
	var output string
	var timeout time.Duration
	var verbose bool

	flag.StringVar(&script, "s", "", ".star board script to run")
	flag.StringVar(&device, "t", "", "TTY device to use ('-' for the controlling terminal)")
	flag.StringVar(&input, "i", "-", "Console input")
	flag.StringVar(&output, "o", "-", "Console output")
	flag.DurationVar(&timeout, "T", 0, "Console transfer timeout (0 waits forever)")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	err := run(script, device, input, output, timeout, verbose)
	if err != nil {
		log.Fatal(err)
	}
}

// run sets up the transport and board, then runs the script or the echo
// monitor.
func run(script, device, input, output string, timeout time.Duration, verbose bool) (err error) {
	if len(device) == 0 && input == "-" && isatty.IsTerminal(os.Stdin.Fd()) {
		device = "-"
	}

	var transport serial.Transport
	if len(device) != 0 {
		path := device
		if path == "-" {
			path = ""
		}
		tt, terr := serial.OpenTty(path)
		if terr != nil {
			err = fmt.Errorf("%v: %w", device, terr)
			return
		}
		defer tt.Close()
		transport = tt
	} else {
		var inf io.Reader = os.Stdin
		if input != "-" {
			f, ferr := os.Open(input)
			if ferr != nil {
				err = fmt.Errorf("%v: %w", input, ferr)
				return
			}
			defer f.Close()
			inf = f
		}

		var ouf io.Writer = os.Stdout
		if output != "-" {
			f, ferr := os.Create(output)
			if ferr != nil {
				err = fmt.Errorf("%v: %w", output, ferr)
				return
			}
			defer f.Close()
			ouf = f
		}

		st := serial.NewStream(inf, ouf)
		defer st.Close()
		transport = st
	}

	bd := board.NewBoard(transport)
	bd.Verbose = verbose
	if timeout > 0 {
		bd.Console.Retry = console.NewRetry(0, timeout)
	}

	err = bd.Reset()
	if err != nil {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(script) == 0 {
		// The echo monitor needs the bounded path to see end of input.
		if bd.Console.Retry == nil {
			bd.Console.Retry = &console.Retry{}
		}
		err = bd.Echo(ctx)
	} else {
		var inf *os.File
		inf, err = os.Open(script)
		if err != nil {
			return
		}
		defer inf.Close()
		err = bd.Run(ctx, script, inf)
	}

	return
}
