package serial

import (
	"fmt"
	"iter"
	"log"
	"maps"
)

const (
	// UART_OP_MASK masks the UART operation type from an alert request.
	UART_OP_MASK = (1 << 7) - 1
	// UART_OP_FLUSH_RX discards the receive ring.
	UART_OP_FLUSH_RX = 0
	// UART_OP_FLUSH_TX discards the transmit ring.
	UART_OP_FLUSH_TX = 1
	// UART_OP_RX_COUNT reports the bytes waiting in the receive ring.
	UART_OP_RX_COUNT = 2
	// UART_OP_TX_FREE reports the free space in the transmit ring.
	UART_OP_TX_FREE = 3
)

// Uart is an in-memory UART peripheral. The device side uses it as a
// Transport; the host side feeds Rx and drains Tx.
type Uart struct {
	Verbose bool

	Rx Ring // Host to device.
	Tx Ring // Device to host.
}

var _ Transport = (*Uart)(nil)

// Defines returns an iter of defines for the UART.
func (uart *Uart) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"UART_OP_FLUSH_RX": fmt.Sprintf("%#v", UART_OP_FLUSH_RX),
		"UART_OP_FLUSH_TX": fmt.Sprintf("%#v", UART_OP_FLUSH_TX),
		"UART_OP_RX_COUNT": fmt.Sprintf("%#v", UART_OP_RX_COUNT),
		"UART_OP_TX_FREE":  fmt.Sprintf("%#v", UART_OP_TX_FREE),
	})
}

// Rewind empties both rings.
func (uart *Uart) Rewind() {
	uart.Rx.Rewind()
	uart.Tx.Rewind()
}

// Read receives exactly len(buf) bytes, or nothing.
func (uart *Uart) Read(buf []byte) bool {
	ok := uart.Rx.PopFull(buf)
	if uart.Verbose && ok {
		log.Printf("uart: rx % x", buf)
	}
	return ok
}

// Write transmits as much of buf as the transmit ring holds.
func (uart *Uart) Write(buf []byte) (n int) {
	n = uart.Tx.Push(buf)
	if uart.Verbose && n > 0 {
		log.Printf("uart: tx % x", buf[:n])
	}
	return
}

// Feed queues host data for the device to read, and returns the count queued.
func (uart *Uart) Feed(p []byte) int {
	return uart.Rx.Push(p)
}

// Drain removes and returns everything the device has transmitted.
func (uart *Uart) Drain() (data []byte) {
	data = make([]byte, uart.Tx.Len())
	n := uart.Tx.Pop(data)
	data = data[:n]
	return
}

// Alert handles UART control operations.
func (uart *Uart) Alert(request uint32, response chan uint32) {
	if uart == nil {
		response <- ^uint32(0)
		return
	}

	switch request & UART_OP_MASK {
	case UART_OP_FLUSH_RX:
		count := uart.Rx.Len()
		uart.Rx.Rewind()
		response <- uint32(count)
	case UART_OP_FLUSH_TX:
		count := uart.Tx.Len()
		uart.Tx.Rewind()
		response <- uint32(count)
	case UART_OP_RX_COUNT:
		response <- uint32(uart.Rx.Len())
	case UART_OP_TX_FREE:
		response <- uint32(uart.Tx.Free())
	default:
		response <- ^uint32(0)
	}
}
