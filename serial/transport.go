// Package serial provides the byte transports a debug console talks through.
// It includes an in-memory UART with separate receive and transmit rings
// (Uart), a transport over an io.Reader and io.Writer pair (Stream), and a
// terminal device transport (Tty).
package serial

// Transport is the non-blocking primitive pair of a UART peripheral library.
type Transport interface {
	// Read fills buf completely and returns true, or reads nothing
	// and returns false.
	Read(buf []byte) bool
	// Write queues as much of buf as fits, and returns the count queued.
	Write(buf []byte) int
}
