// Package utils holds signal generators and doubles shared by the tests of
// the analysis, app and host packages.
package utils

import (
	"math"
	"sync"

	"audiodemo/internal/event"
)

// MockTransport implements the transport.Transport interface for testing.
// It records every event it is asked to send.
type MockTransport struct {
	mu     sync.Mutex
	events []event.Event
	closed bool
	Err    error
}

// Send stores ev for later inspection instead of transmitting.
func (m *MockTransport) Send(ev event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, ev)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Events returns a copy of the events sent so far.
func (m *MockTransport) Events() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Closed reports whether Close has been called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ComplexWave returns a 440 Hz fundamental with two harmonics.
func ComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// SineWave returns size samples of a sine at frequency with the given peak
// amplitude.
func SineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * amplitude)
	}
	return buffer
}

// Impulses returns silence with a full-scale click every period samples,
// starting at offset.
func Impulses(size, offset, period int) []float32 {
	buffer := make([]float32, size)
	if period <= 0 {
		return buffer
	}
	for i := offset; i >= 0 && i < size; i += period {
		buffer[i] = 1
	}
	return buffer
}

// Frames splits signal into consecutive frames of frameSize; a short tail
// is dropped.
func Frames(signal []float32, frameSize int) [][]float32 {
	var frames [][]float32
	for start := 0; start+frameSize <= len(signal); start += frameSize {
		frames = append(frames, signal[start:start+frameSize])
	}
	return frames
}

// FindPeakBin returns the index of the largest value in
// magnitudes[startBin:endBin+1], clamped to the slice.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
