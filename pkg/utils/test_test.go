// SPDX-License-Identifier: MIT
package utils

import (
	"errors"
	"math"
	"os"
	"testing"

	"audiodemo/internal/event"
)

const (
	testSize       = 1024
	testSampleRate = 44100
	testFrequency  = 440.0 // A4 note
)

var testMagnitudes []float64

func TestMain(m *testing.M) {
	testMagnitudes = make([]float64, testSize)

	// Creates a "hill" with peak at position testSize/4.
	for i := range testMagnitudes {
		testMagnitudes[i] = math.Exp(-0.01 * math.Pow(float64(i-testSize/4), 2))
	}

	os.Exit(m.Run())
}

func TestMockTransport(t *testing.T) {
	mt := &MockTransport{}
	sent := []event.Event{event.LED0On, event.LED2Off, event.LED3On}
	for _, ev := range sent {
		if err := mt.Send(ev); err != nil {
			t.Fatalf("Send(%v) error = %v", ev, err)
		}
	}

	got := mt.Events()
	if len(got) != len(sent) {
		t.Fatalf("Events() len = %d, want %d", len(got), len(sent))
	}
	for i := range sent {
		if got[i] != sent[i] {
			t.Errorf("Events()[%d] = %v, want %v", i, got[i], sent[i])
		}
	}

	// Returned slice is a copy.
	got[0] = event.None
	if mt.Events()[0] != event.LED0On {
		t.Error("Events() exposed internal storage")
	}

	if mt.Closed() {
		t.Error("Closed() true before Close")
	}
	_ = mt.Close()
	if !mt.Closed() {
		t.Error("Closed() false after Close")
	}
}

func TestMockTransportError(t *testing.T) {
	boom := errors.New("boom")
	mt := &MockTransport{Err: boom}
	if err := mt.Send(event.LED1On); !errors.Is(err, boom) {
		t.Errorf("Send() error = %v, want %v", err, boom)
	}
	if len(mt.Events()) != 0 {
		t.Error("failed send was recorded")
	}
}

func TestSineWave(t *testing.T) {
	wave := SineWave(testSize, testSampleRate, testFrequency, 0.5)
	if len(wave) != testSize {
		t.Fatalf("len = %d, want %d", len(wave), testSize)
	}
	if wave[0] != 0 {
		t.Errorf("wave[0] = %v, want 0", wave[0])
	}

	var peak float32
	for _, s := range wave {
		peak = max(peak, float32(math.Abs(float64(s))))
	}
	if peak > 0.5 || peak < 0.49 {
		t.Errorf("peak amplitude = %v, want ~0.5", peak)
	}

	// Count positive-going zero crossings to check the frequency.
	crossings := 0
	for i := 1; i < len(wave); i++ {
		if wave[i-1] < 0 && wave[i] >= 0 {
			crossings++
		}
	}
	want := int(float64(testSize) * testFrequency / testSampleRate) // 10 full cycles
	if crossings < want-1 || crossings > want+1 {
		t.Errorf("crossings = %d, want ~%d", crossings, want)
	}
}

func TestComplexWaveBounded(t *testing.T) {
	for i, s := range ComplexWave(testSize, testSampleRate) {
		if s > 0.9 || s < -0.9 {
			t.Fatalf("sample %d = %v exceeds 0.9", i, s)
		}
	}
}

func TestImpulses(t *testing.T) {
	got := Impulses(10, 1, 4)
	want := []float32{0, 1, 0, 0, 0, 1, 0, 0, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Impulses[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	for _, s := range Impulses(8, 0, 0) {
		if s != 0 {
			t.Fatal("zero period should produce silence")
		}
	}
}

func TestFrames(t *testing.T) {
	frames := Frames(make([]float32, 10), 4)
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}
	for _, f := range frames {
		if len(f) != 4 {
			t.Errorf("frame len = %d, want 4", len(f))
		}
	}
}

func TestFindPeakBin(t *testing.T) {
	tests := []struct {
		name       string
		magnitudes []float64
		startBin   int
		endBin     int
		expected   int
	}{
		{"Empty", nil, 0, 10, 0},
		{"Hill", testMagnitudes, 0, testSize - 1, testSize / 4},
		{"Clamped Range", testMagnitudes, -5, testSize * 2, testSize / 4},
		{"Sub Range", testMagnitudes, testSize / 2, testSize - 1, testSize / 2},
		{"Single Value", []float64{3}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindPeakBin(tt.magnitudes, tt.startBin, tt.endBin); got != tt.expected {
				t.Errorf("FindPeakBin() = %d, want %d", got, tt.expected)
			}
		})
	}
}
