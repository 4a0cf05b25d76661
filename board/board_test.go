package board

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/moncon/console"
	"github.com/ezrec/moncon/serial"
	"github.com/ezrec/moncon/supc"
)

func newUartBoard(t *testing.T) (bd *Board, uart *serial.Uart) {
	uart = &serial.Uart{}
	bd = NewBoard(uart)
	assert.NoError(t, bd.Reset())
	return
}

func doRun(bd *Board, program []string) error {
	return bd.Run(context.Background(), "test.star", strings.NewReader(strings.Join(program, "\n")))
}

func TestBoard(t *testing.T) {
	assert := assert.New(t)

	bd, uart := newUartBoard(t)

	assert.False(bd.Verbose)
	assert.True(bd.Supply.Initialized())
	assert.Same(uart, bd.Console.Transport)
}

func TestBoard_Reset(t *testing.T) {
	assert := assert.New(t)

	bd, uart := newUartBoard(t)
	uart.Feed([]byte("stale"))
	uart.Write([]byte("old"))

	assert.NoError(bd.Reset())
	assert.Equal(0, uart.Rx.Len())
	assert.Equal(0, uart.Tx.Len())
}

func TestBoard_Defines(t *testing.T) {
	assert := assert.New(t)

	bd, _ := newUartBoard(t)

	defines := map[string]string{}
	for key, value := range bd.Defines() {
		defines[key] = value
	}

	assert.Contains(defines, "RING_DEFAULT_CAPACITY")
	assert.Contains(defines, "UART_OP_RX_COUNT")
	assert.Contains(defines, "WAKE_RTC")

	// Stream transports publish no UART constants.
	bd = NewBoard(serial.NewStream(nil, nil))
	defines = map[string]string{}
	for key, value := range bd.Defines() {
		defines[key] = value
	}
	assert.NotContains(defines, "UART_OP_RX_COUNT")
	assert.Contains(defines, "WAKE_RTC")
}

func TestBoard_Console(t *testing.T) {
	assert := assert.New(t)

	bd, uart := newUartBoard(t)
	uart.Feed([]byte("ab"))

	program := []string{
		"c = getc()",
		"putc(c)",
		"putc('!')",
		"putc(getc())",
		"puts('ok')",
		"print('x')",
	}

	err := doRun(bd, program)
	assert.NoError(err)
	assert.Equal([]byte("a!bokx\n"), uart.Drain())
}

func TestBoard_Alert(t *testing.T) {
	assert := assert.New(t)

	bd, uart := newUartBoard(t)
	uart.Feed([]byte("xyz"))

	program := []string{
		"n = alert(UART_OP_RX_COUNT)",
		"alert(UART_OP_FLUSH_RX)",
		"putc(48 + n)",
		"putc(48 + alert(UART_OP_RX_COUNT))",
	}

	err := doRun(bd, program)
	assert.NoError(err)
	assert.Equal([]byte("30"), uart.Drain())

	bd = NewBoard(serial.NewStream(nil, nil))
	err = doRun(bd, []string{"alert(0)"})
	assert.ErrorIs(err, ErrNoAlert)
}

func TestBoard_Supply(t *testing.T) {
	assert := assert.New(t)

	bd, uart := newUartBoard(t)

	program := []string{
		"wait(FLASH_DEEP_POWERDOWN, WAKE_RTC | WAKE_WKUP2)",
		"if mode() != 'wait(deep-powerdown, wkup2|rtc)':",
		"    fail('bad mode ' + mode())",
		"wake(WAKE_WKUP2)",
		"sleep()",
		"wake(WAKE_INTERRUPT)",
		"wait('standby', 'usb')",
		"wake('usb')",
		"backup('supply-monitor')",
		"wake('supply-monitor')",
		"backup()",
		"wake(WAKE_RTT)",
		"putc(48 + resets())",
		"puts(mode())",
	}

	err := doRun(bd, program)
	assert.NoError(err)
	assert.Equal([]byte("2active"), uart.Drain())
	assert.Equal(2, bd.Supply.Resets())
	assert.True(bd.Supply.Initialized())
	assert.Len(bd.Supply.History(), 10)
}

func TestBoard_RuntimeError(t *testing.T) {
	assert := assert.New(t)

	bd, _ := newUartBoard(t)

	program := []string{
		"sleep()",
		"sleep()",
	}

	err := doRun(bd, program)
	assert.ErrorIs(err, supc.ErrNotActive)

	var rt *ErrRuntime
	assert.True(errors.As(err, &rt))
	assert.Equal("test.star", rt.Name)
	assert.Equal(2, rt.LineNo)
}

func TestBoard_ArgumentErrors(t *testing.T) {
	assert := assert.New(t)

	bd, _ := newUartBoard(t)

	err := doRun(bd, []string{"putc(300)"})
	assert.ErrorIs(err, ErrCharacter)

	err = doRun(bd, []string{"putc('ab')"})
	assert.ErrorIs(err, ErrCharacter)

	err = doRun(bd, []string{"wait('warm', 'rtc')"})
	assert.Error(err)

	err = doRun(bd, []string{"wait('standby', 'supply-monitor')"})
	assert.ErrorIs(err, supc.ErrWakeSource)

	err = doRun(bd, []string{"wake('rtc')"})
	assert.ErrorIs(err, supc.ErrActive)
}

func TestBoard_SyntaxError(t *testing.T) {
	assert := assert.New(t)

	bd, _ := newUartBoard(t)

	program := []string{
		"puts('a')",
		"puts('b')",
		"x = = 1",
	}

	err := doRun(bd, program)

	var rt *ErrRuntime
	assert.True(errors.As(err, &rt))
	assert.Equal(3, rt.LineNo)
}

func TestBoard_BoundedGetc(t *testing.T) {
	assert := assert.New(t)

	bd, _ := newUartBoard(t)
	bd.Console.Retry = console.NewRetry(2, 0)

	err := doRun(bd, []string{"getc()"})
	assert.ErrorIs(err, console.ErrRetryExhausted)
}

func TestBoard_Cancel(t *testing.T) {
	assert := assert.New(t)

	bd, _ := newUartBoard(t)
	bd.Console.Retry = &console.Retry{}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(2 * time.Millisecond)
		cancel()
	}()

	err := bd.Run(ctx, "cancel.star", strings.NewReader("getc()"))
	assert.ErrorIs(err, context.Canceled)
}

func TestBoard_Echo(t *testing.T) {
	assert := assert.New(t)

	var out bytes.Buffer
	st := serial.NewStream(strings.NewReader("echo, echo"), &out)
	defer st.Close()

	bd := NewBoard(st)
	bd.Console.Retry = console.NewRetry(0, time.Second)
	assert.NoError(bd.Reset())

	err := bd.Echo(context.Background())
	assert.NoError(err)
	assert.Equal("echo, echo", out.String())
}

func TestBoard_EchoExit(t *testing.T) {
	assert := assert.New(t)

	bd, uart := newUartBoard(t)
	bd.Console.Retry = console.NewRetry(0, time.Second)
	uart.Feed([]byte{'h', 'i', ECHO_EXIT, 'x'})

	err := bd.Echo(context.Background())
	assert.NoError(err)
	assert.Equal([]byte("hi"), uart.Drain())
	assert.Equal(1, uart.Rx.Len())
}

func TestBoard_ControlFlow(t *testing.T) {
	assert := assert.New(t)

	bd, uart := newUartBoard(t)

	program := []string{
		"count = 0",
		"for c in 'abc':",
		"    putc(c)",
		"    count += 1",
		"n = 0",
		"while n < 2:",
		"    putc(48 + n)",
		"    n += 1",
		"if count == 3:",
		"    puts('!')",
	}

	err := doRun(bd, program)
	assert.NoError(err)
	assert.Equal([]byte("abc01!"), uart.Drain())
}

func TestBoard_PrintError(t *testing.T) {
	assert := assert.New(t)

	uart := &serial.Uart{Tx: serial.Ring{Capacity: 1}}
	bd := NewBoard(uart)
	assert.NoError(bd.Reset())
	bd.Console.Retry = console.NewRetry(2, 0)

	err := doRun(bd, []string{"print('hello')"})
	assert.ErrorIs(err, console.ErrRetryExhausted)

	var rt *ErrRuntime
	assert.True(errors.As(err, &rt))
	assert.Equal("test.star", rt.Name)
	assert.Equal([]byte("h"), uart.Drain())
}

func TestBoard_WakeResetKeepsTx(t *testing.T) {
	assert := assert.New(t)

	bd, uart := newUartBoard(t)
	uart.Feed([]byte("zz"))

	program := []string{
		"putc('a')",
		"backup()",
		"wake(WAKE_RTC)",
		"putc('b')",
	}

	err := doRun(bd, program)
	assert.NoError(err)
	assert.Equal(1, bd.Supply.Resets())
	assert.True(bd.Supply.Initialized())
	assert.Equal(0, uart.Rx.Len())
	assert.Equal([]byte("ab"), uart.Drain())
}

// closedWriter fails every write.
type closedWriter struct{}

func (closedWriter) Write(p []byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestBoard_EchoWriteErr(t *testing.T) {
	assert := assert.New(t)

	st := serial.NewStream(strings.NewReader("echo"), closedWriter{})
	defer st.Close()

	bd := NewBoard(st)
	bd.Console.Retry = &console.Retry{}
	assert.NoError(bd.Reset())

	err := bd.Echo(context.Background())
	assert.ErrorIs(err, io.ErrClosedPipe)
}
