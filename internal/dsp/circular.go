// SPDX-License-Identifier: MIT
package dsp

import "fmt"

// CircularBuffer is a fixed-capacity sample store with a single read/write
// cursor. The cursor is always in [0, Cap()) and wraps to 0 exactly when it
// reaches Cap(). Storage is allocated once and never resized.
type CircularBuffer struct {
	data   []float32
	cursor int
}

// NewCircularBuffer returns a zeroed buffer of the given capacity.
// Panics if capacity is not positive.
func NewCircularBuffer(capacity int) *CircularBuffer {
	if capacity <= 0 {
		panic(fmt.Sprintf("dsp: circular buffer capacity must be positive, got %d", capacity))
	}
	return &CircularBuffer{data: make([]float32, capacity)}
}

// Cap returns the number of samples the buffer holds.
func (b *CircularBuffer) Cap() int { return len(b.data) }

// At returns the sample stored at index.
func (b *CircularBuffer) At(index int) float32 { return b.data[index] }

// Set stores v at index without moving the cursor.
func (b *CircularBuffer) Set(index int, v float32) { b.data[index] = v }

// Cursor returns the current read/write position.
func (b *CircularBuffer) Cursor() int { return b.cursor }

// Rewind moves the cursor back to 0.
func (b *CircularBuffer) Rewind() { b.cursor = 0 }

// Advance moves the cursor one sample forward and reports whether it
// wrapped back to 0.
func (b *CircularBuffer) Advance() (wrapped bool) {
	b.cursor++
	if b.cursor == len(b.data) {
		b.cursor = 0
		return true
	}
	return false
}

// Read returns the sample at the cursor, then advances.
func (b *CircularBuffer) Read() float32 {
	v := b.data[b.cursor]
	b.Advance()
	return v
}

// Write stores v at the cursor, then advances. It reports whether that
// write filled the last slot and wrapped the cursor.
func (b *CircularBuffer) Write(v float32) (wrapped bool) {
	b.data[b.cursor] = v
	return b.Advance()
}
