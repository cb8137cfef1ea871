// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"
)

// With sampleRate 8 and frequency 1 the phase step is exactly 0.25, so every
// value below is exact in float32.
func TestOscillatorKnownSequence(t *testing.T) {
	osc := NewOscillator(8)
	osc.SetFrequency(1)

	want := []float32{
		0, 0.75, 1, 0.75, 0, -0.75, -1, -0.75,
		0, 0.75, 1, 0.75, 0, -0.75, -1, -0.75,
	}
	for i, w := range want {
		if got := osc.NextSample(); got != w {
			t.Fatalf("sample %d = %v, want %v", i, got, w)
		}
	}
}

func TestOscillatorDeterministic(t *testing.T) {
	a := NewOscillator(48000)
	b := NewOscillator(48000)
	a.SetFrequency(440)
	b.SetFrequency(440)

	for i := range 10000 {
		if x, y := a.NextSample(), b.NextSample(); x != y {
			t.Fatalf("sample %d differs: %v != %v", i, x, y)
		}
	}
}

func TestOscillatorResetRestartsSequence(t *testing.T) {
	osc := NewOscillator(44100)
	osc.SetFrequency(330)

	first := make([]float32, 64)
	for i := range first {
		first[i] = osc.NextSample()
	}
	osc.Reset()
	for i := range first {
		if got := osc.NextSample(); got != first[i] {
			t.Fatalf("after Reset sample %d = %v, want %v", i, got, first[i])
		}
	}
}

func TestOscillatorPhaseAndAmplitudeBounds(t *testing.T) {
	osc := NewOscillator(44100)
	osc.SetFrequency(1234.5)

	for i := range 100000 {
		if p := osc.Phase(); p < -1 || p > 1 {
			t.Fatalf("phase %v out of [-1, 1] at sample %d", p, i)
		}
		if s := osc.NextSample(); math.Abs(float64(s)) > 1.0001 {
			t.Fatalf("sample %v out of range at %d", s, i)
		}
	}
}

func TestOscillatorApproximatesSine(t *testing.T) {
	const sampleRate = 48000
	osc := NewOscillator(sampleRate)
	osc.SetFrequency(100)

	// Starting at phase -1 the output tracks -sin(pi*phase).
	phase := -1.0
	for i := range 960 {
		want := -math.Sin(math.Pi * phase)
		got := float64(osc.NextSample())
		if math.Abs(got-want) > 0.07 {
			t.Fatalf("sample %d = %.4f, sine = %.4f", i, got, want)
		}
		phase += 2 * 100.0 / sampleRate
		if phase > 1 {
			phase -= 2
		}
	}
}

func TestOscillatorInitializeResetsFrequency(t *testing.T) {
	osc := NewOscillator(8)
	osc.SetFrequency(1)
	osc.NextSample()
	osc.Initialize(8)

	if osc.Phase() != -1 {
		t.Errorf("Phase() = %v after Initialize, want -1", osc.Phase())
	}
	osc.NextSample()
	if osc.Phase() != -1 {
		t.Errorf("Phase() advanced to %v with zero frequency", osc.Phase())
	}
}

func TestOscillatorHotPath(t *testing.T) {
	osc := NewOscillator(44100)
	allocs := testing.AllocsPerRun(100, func() {
		for range 512 {
			osc.SetFrequency(440)
			_ = osc.NextSample()
		}
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in oscillator hot path, got %.1f", allocs)
	}
}

func BenchmarkOscillator(b *testing.B) {
	osc := NewOscillator(44100)
	osc.SetFrequency(440)
	b.ReportAllocs()

	for b.Loop() {
		_ = osc.NextSample()
	}
}
