// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"audiodemo/pkg/utils"
)

type pitchCollector struct {
	results []PitchResult
}

func (c *pitchCollector) add(r PitchResult) { c.results = append(c.results, r) }

func runPitch(t *testing.T, sampleRate float32, signal []float32) []PitchResult {
	t.Helper()
	d, err := NewMPMDetector(sampleRate, DefaultPitchOptions())
	if err != nil {
		t.Fatal(err)
	}
	var c pitchCollector
	for _, frame := range utils.Frames(signal, 64) {
		d.Process(frame, c.add)
	}
	return c.results
}

func TestMPMDetectsIntegerPeriodTone(t *testing.T) {
	// 440 Hz at 17600 Hz is exactly 20 lags after 2x decimation.
	const sampleRate = 17600
	results := runPitch(t, sampleRate, utils.SineWave(2048, sampleRate, 440, 0.5))

	if len(results) != 8 {
		t.Fatalf("got %d results, want 8 (one per 256 input samples)", len(results))
	}
	for i, r := range results {
		if !r.IsTone() {
			t.Errorf("window %d: not a tone (clarity %.3f)", i, r.Clarity)
		}
		if math.Abs(float64(r.Frequency)-440) > 0.5 {
			t.Errorf("window %d: frequency %.2f, want 440", i, r.Frequency)
		}
	}
}

func TestMPMTracksTargetFrequencies(t *testing.T) {
	const sampleRate = 16000
	for _, freq := range []float64{262, 330, 392, 440} {
		results := runPitch(t, sampleRate, utils.SineWave(4096, sampleRate, freq, 0.8))
		if len(results) == 0 {
			t.Fatalf("%v Hz: no results", freq)
		}
		last := results[len(results)-1]
		if !last.IsTone() {
			t.Errorf("%v Hz: not a tone (clarity %.3f)", freq, last.Clarity)
		}
		if rel := math.Abs(float64(last.Frequency)-freq) / freq; rel > 0.01 {
			t.Errorf("%v Hz: estimated %.2f", freq, last.Frequency)
		}
	}
}

func TestMPMIgnoresHarmonics(t *testing.T) {
	const sampleRate = 17600
	results := runPitch(t, sampleRate, utils.ComplexWave(2048, sampleRate))
	last := results[len(results)-1]
	if !last.IsTone() || math.Abs(float64(last.Frequency)-440) > 1 {
		t.Errorf("complex wave: got %.2f Hz clarity %.3f, want 440 Hz tone", last.Frequency, last.Clarity)
	}
}

func TestMPMSilenceIsNotATone(t *testing.T) {
	results := runPitch(t, 16000, make([]float32, 1024))
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i, r := range results {
		if r.IsTone() || r.Frequency != 0 {
			t.Errorf("window %d: %+v, want empty result", i, r)
		}
	}
}

func TestMPMMinFrequency(t *testing.T) {
	d, err := NewMPMDetector(44100, DefaultPitchOptions())
	if err != nil {
		t.Fatal(err)
	}
	// 64 lags at 22050 Hz cannot resolve the two lowest ukulele strings.
	if got := d.MinFrequency(); got < 330 || got > 360 {
		t.Errorf("MinFrequency() = %.1f, want ~350", got)
	}

	opts := DefaultPitchOptions()
	opts.LagCount = 128
	d, err = NewMPMDetector(44100, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.MinFrequency(); got > 262 {
		t.Errorf("MinFrequency() with 128 lags = %.1f, want < 262", got)
	}
}

func TestNewMPMDetectorValidates(t *testing.T) {
	bad := DefaultPitchOptions()
	bad.LagCount = 200
	if _, err := NewMPMDetector(16000, bad); err == nil {
		t.Error("expected error for lag count beyond window")
	}
	if _, err := NewMPMDetector(0, DefaultPitchOptions()); err == nil {
		t.Error("expected error for zero sample rate")
	}
	bad = DefaultPitchOptions()
	bad.KeyMaxRatio = 0
	if _, err := NewMPMDetector(16000, bad); err == nil {
		t.Error("expected error for zero key maximum ratio")
	}
}

func TestPitchResultIsTone(t *testing.T) {
	tests := []struct {
		r    PitchResult
		want bool
	}{
		{PitchResult{Frequency: 440, Clarity: 0.95}, true},
		{PitchResult{Frequency: 440, Clarity: 0.9}, true},
		{PitchResult{Frequency: 440, Clarity: 0.5}, false},
		{PitchResult{Frequency: 0, Clarity: 1}, false},
	}
	for _, tt := range tests {
		if got := tt.r.IsTone(); got != tt.want {
			t.Errorf("%+v.IsTone() = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestMPMHotPath(t *testing.T) {
	d, err := NewMPMDetector(16000, DefaultPitchOptions())
	if err != nil {
		t.Fatal(err)
	}
	frame := utils.SineWave(512, 16000, 440, 0.5)
	var c PitchResult
	fn := func(r PitchResult) { c = r }

	d.Process(frame, fn)
	allocs := testing.AllocsPerRun(100, func() {
		d.Process(frame, fn)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in pitch detection, got %.1f", allocs)
	}
	_ = c
}

func BenchmarkMPMDetector(b *testing.B) {
	d, _ := NewMPMDetector(44100, DefaultPitchOptions())
	frame := utils.ComplexWave(256, 44100)
	fn := func(PitchResult) {}
	b.ReportAllocs()

	for b.Loop() {
		d.Process(frame, fn)
	}
}
