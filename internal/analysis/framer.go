// SPDX-License-Identifier: MIT
package analysis

import "fmt"

// framer turns an arbitrary stream of input frames into fixed analysis
// windows. Input is decimated by averaging blocks of `downsampling`
// samples, collected into a window of `size` decimated samples, and every
// full window is handed to emit, which is bound once at construction.
// After each window the contents shift left by `hop` samples, so
// hop == size gives back-to-back windows.
//
// Partial decimation blocks and partial windows carry over between calls.
type framer struct {
	size         int
	hop          int
	downsampling int

	window []float32
	fill   int
	emit   func(window []float32)

	acc   float32
	accN  int
	scale float32
}

func newFramer(size, hop, downsampling int, emit func(window []float32)) (*framer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}
	if hop <= 0 || hop > size {
		return nil, fmt.Errorf("hop size must be in [1, %d], got %d", size, hop)
	}
	if downsampling <= 0 {
		return nil, fmt.Errorf("downsampling must be positive, got %d", downsampling)
	}
	return &framer{
		size:         size,
		hop:          hop,
		downsampling: downsampling,
		window:       make([]float32, size),
		emit:         emit,
		scale:        1 / float32(downsampling),
	}, nil
}

// write feeds in through the decimator and calls emit once per full window.
func (f *framer) write(in []float32) {
	for _, x := range in {
		f.acc += x
		f.accN++
		if f.accN < f.downsampling {
			continue
		}
		f.window[f.fill] = f.acc * f.scale
		f.fill++
		f.acc, f.accN = 0, 0

		if f.fill == f.size {
			f.emit(f.window)
			copy(f.window, f.window[f.hop:])
			f.fill = f.size - f.hop
		}
	}
}

func (f *framer) reset() {
	clear(f.window)
	f.fill = 0
	f.acc, f.accN = 0, 0
}
