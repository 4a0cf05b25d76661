package serial

import (
	"io"
	"sync"
)

const (
	// RING_DEFAULT_CAPACITY is the default capacity in bytes for a new ring.
	RING_DEFAULT_CAPACITY = 256
)

// Ring is a bounded circular byte FIFO. It is safe for one producer and one
// consumer running on different goroutines.
type Ring struct {
	Capacity int

	mutex sync.Mutex
	data  []byte
	head  int
	count int
}

// Rewind discards all buffered data, and allocates the buffer if needed.
func (ring *Ring) Rewind() {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()

	ring.rewind()
}

func (ring *Ring) rewind() {
	if ring.Capacity <= 0 {
		ring.Capacity = RING_DEFAULT_CAPACITY
	}
	if len(ring.data) != ring.Capacity {
		ring.data = make([]byte, ring.Capacity)
	}

	ring.head = 0
	ring.count = 0
}

// Len returns the number of buffered bytes.
func (ring *Ring) Len() int {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()

	return ring.count
}

// Free returns the number of bytes that can be pushed without overflow.
func (ring *Ring) Free() int {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()

	if ring.data == nil {
		ring.rewind()
	}

	return len(ring.data) - ring.count
}

// Push appends as much of p as fits, and returns the count appended.
func (ring *Ring) Push(p []byte) (n int) {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()

	if ring.data == nil {
		ring.rewind()
	}

	size := len(ring.data)
	for n < len(p) && ring.count < size {
		ring.data[(ring.head+ring.count)%size] = p[n]
		ring.count++
		n++
	}

	return
}

// Pop removes up to len(p) bytes into p, and returns the count removed.
func (ring *Ring) Pop(p []byte) (n int) {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()

	return ring.pop(p)
}

func (ring *Ring) pop(p []byte) (n int) {
	for n < len(p) && ring.count > 0 {
		p[n] = ring.data[ring.head]
		ring.head = (ring.head + 1) % len(ring.data)
		ring.count--
		n++
	}

	return
}

// PopFull removes exactly len(p) bytes into p if that many are buffered.
// Otherwise nothing is removed and false is returned.
func (ring *Ring) PopFull(p []byte) bool {
	ring.mutex.Lock()
	defer ring.mutex.Unlock()

	if ring.count < len(p) {
		return false
	}

	ring.pop(p)

	return true
}

// Unmarshal replaces the ring contents with data from a reader. Data beyond
// the ring capacity is dropped.
func (ring *Ring) Unmarshal(file io.Reader) (err error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return
	}

	ring.Rewind()
	ring.Push(data)

	return
}

// Marshal writes the buffered data to a writer, oldest first, without
// consuming it.
func (ring *Ring) Marshal(file io.Writer) (err error) {
	ring.mutex.Lock()
	data := make([]byte, 0, ring.count)
	for n := range ring.count {
		data = append(data, ring.data[(ring.head+n)%len(ring.data)])
	}
	ring.mutex.Unlock()

	_, err = file.Write(data)

	return
}
