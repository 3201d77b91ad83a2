package delay

import "fmt"

// Line is a circular delay line of fixed length.
//
// Each step is read-then-write: a sample written while WriteIndex is i is
// returned by Tap exactly Len steps later.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line of fixed size.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}
	return &Line{buffer: make([]float64, size)}, nil
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// WriteIndex returns the slot the next Write stores into. It is always in
// [0, Len).
func (d *Line) WriteIndex() int {
	return d.writePos
}

// Write stores one sample and advances the write index modulo Len.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read reads the sample written delay steps ago, for delay in [1, Len].
// Read(Len()) is the oldest sample and equals Tap.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	readPos := (d.writePos - delay + size) % size
	return d.buffer[readPos]
}

// Tap returns the sample delayed by the full line length.
func (d *Line) Tap() float64 {
	return d.buffer[d.writePos]
}

// Reset clears line state.
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = 0
}
