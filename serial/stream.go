package serial

import (
	"io"
	"sync"
	"time"
)

// STREAM_FULL_BACKOFF is how long the pump waits for room in a full ring.
const STREAM_FULL_BACKOFF = time.Millisecond

// Stream is a Transport over an io.Reader and io.Writer. A goroutine pumps
// Input into a receive ring so Read never blocks.
type Stream struct {
	Input  io.Reader
	Output io.Writer

	rx      Ring
	once    sync.Once
	done    chan struct{}
	mutex    sync.Mutex
	readErr  error
	writeErr error
}

var _ Transport = (*Stream)(nil)

// NewStream creates a stream transport and starts its input pump.
func NewStream(input io.Reader, output io.Writer) (st *Stream) {
	st = &Stream{
		Input:  input,
		Output: output,
	}

	st.Start()

	return
}

// Start launches the input pump. Calling it more than once has no effect.
func (st *Stream) Start() {
	st.once.Do(func() {
		st.done = make(chan struct{})
		st.rx.Rewind()
		if st.Input == nil {
			st.setErr(io.EOF)
			return
		}
		go st.pump()
	})
}

func (st *Stream) pump() {
	var chunk [64]byte
	for {
		n, err := st.Input.Read(chunk[:])
		for pending := chunk[:n]; len(pending) > 0; {
			pushed := st.rx.Push(pending)
			pending = pending[pushed:]
			if len(pending) == 0 {
				break
			}
			select {
			case <-st.done:
				return
			case <-time.After(STREAM_FULL_BACKOFF):
			}
		}
		if err != nil {
			st.setErr(err)
			return
		}
		select {
		case <-st.done:
			return
		default:
		}
	}
}

func (st *Stream) setErr(err error) {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if st.readErr == nil {
		st.readErr = err
	}
}

// Read receives exactly len(buf) bytes from the pumped input, or nothing.
func (st *Stream) Read(buf []byte) bool {
	return st.rx.PopFull(buf)
}

// Write sends buf to Output, and returns the count written.
func (st *Stream) Write(buf []byte) int {
	if st.Output == nil {
		return 0
	}

	n, err := st.Output.Write(buf)
	if err != nil {
		st.mutex.Lock()
		if st.writeErr == nil {
			st.writeErr = err
		}
		st.mutex.Unlock()
	}

	return n
}

// WriteErr returns the first error Output reported, if any.
func (st *Stream) WriteErr() error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	return st.writeErr
}

// Err returns the terminal input error once all pumped input has been read.
func (st *Stream) Err() error {
	st.mutex.Lock()
	err := st.readErr
	st.mutex.Unlock()

	if err == nil || st.rx.Len() > 0 {
		return nil
	}

	return err
}

// Close stops the input pump. A pump blocked inside Input.Read exits when
// that read returns.
func (st *Stream) Close() (err error) {
	st.Start()

	st.mutex.Lock()
	defer st.mutex.Unlock()

	select {
	case <-st.done:
	default:
		close(st.done)
	}

	if st.readErr == nil {
		st.readErr = ErrClosed
	}

	return
}
