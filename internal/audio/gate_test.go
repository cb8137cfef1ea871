// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"testing"
)

var (
	quietBuffer = constantBuffer(0.01)
	loudBuffer  = constantBuffer(-0.8)
	testBuffer  = sineBuffer(0.3)
)

func constantBuffer(v float32) []float32 {
	buf := make([]float32, testFrameSize)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

func sineBuffer(amplitude float64) []float32 {
	buf := make([]float32, testFrameSize)
	for i := range buf {
		buf[i] = float32(amplitude * math.Sin(2*math.Pi*float64(i)/64))
	}
	return buf
}

func TestGateEnableHotPath(t *testing.T) {
	engine := &Engine{}

	if engine.GateEnabled() {
		t.Error("Gate should be disabled initially")
	}

	engine.EnableGate()
	if !engine.GateEnabled() {
		t.Error("Gate should be enabled after EnableGate()")
	}

	engine.DisableGate()
	if engine.GateEnabled() {
		t.Error("Gate should be disabled after DisableGate()")
	}

	engine.EnableGate()
	engine.EnableGate() // Multiple calls should be idempotent
	if !engine.GateEnabled() {
		t.Error("Gate should remain enabled after multiple EnableGate()")
	}

	engine.DisableGate()
	engine.DisableGate() // Multiple calls should be idempotent
	if engine.GateEnabled() {
		t.Error("Gate should remain disabled after multiple DisableGate()")
	}
}

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0}, // Below min
		{0.0, 0.0},  // Minimum
		{0.5, 0.5},  // Middle
		{1.0, 1.0},  // Maximum
		{1.5, 1.0},  // Above max
	}

	engine := &Engine{}

	for _, tt := range tests {
		t.Run(formatFloat(tt.input), func(t *testing.T) {
			engine.SetGateThreshold(tt.input)
			got := engine.GetGateThreshold()

			if absFloat(got-tt.expected) > 0.001 {
				t.Errorf("Gate threshold conversion: got %.3f, want %.3f", got, tt.expected)
			}
		})
	}
}

func TestGateThresholdPrecisionHotPath(t *testing.T) {
	engine := &Engine{}

	tests := []struct {
		ratio float64
		desc  string
	}{
		{0.0, "Zero"},
		{0.001, "Default"},
		{0.1, "10%"},
		{0.25, "Quarter"},
		{0.5, "Half"},
		{0.999, "Near max"},
		{1.0, "Unity"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			engine.SetGateThreshold(tt.ratio)
			result := engine.GetGateThreshold()

			// Stored as float32, so only single precision survives.
			if absFloat(result-tt.ratio) > 1e-7 {
				t.Errorf("Threshold conversion error: got %.9f, want %.9f", result, tt.ratio)
			}
			if engine.gateLevel() != float32(tt.ratio) {
				t.Errorf("gateLevel = %v, want %v", engine.gateLevel(), float32(tt.ratio))
			}
		})
	}
}

func TestGateDetectionHotPath(t *testing.T) {
	tests := []struct {
		desc          string
		buffer        []float32
		gateEnabled   bool
		threshold     float64
		shouldTrigger bool
	}{
		{"Gate disabled/Quiet signal", quietBuffer, false, 0.1, true},                // Disabled gate always passes
		{"Gate disabled/Loud signal", loudBuffer, false, 0.1, true},                  // Disabled gate always passes
		{"Gate enabled/Quiet signal/Low threshold", quietBuffer, true, 0.0001, true}, // Very low threshold that quiet signal can pass
		{"Gate enabled/Quiet signal/Mid threshold", quietBuffer, true, 0.1, false},   // Signal below threshold
		{"Gate enabled/Loud signal/Mid threshold", loudBuffer, true, 0.1, true},      // Negative peaks count too
		{"Gate enabled/Loud signal/High threshold", loudBuffer, true, 0.999, false},  // Very high threshold that even loud signal can't pass
		{"Gate enabled/Sine/Below peak", testBuffer, true, 0.29, true},
		{"Gate enabled/Sine/Above peak", testBuffer, true, 0.31, false},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			engine := &Engine{}
			if tt.gateEnabled {
				engine.EnableGate()
			}
			engine.SetGateThreshold(tt.threshold)

			triggered := !engine.GateEnabled() || peakLevel(tt.buffer) >= engine.gateLevel()
			if triggered != tt.shouldTrigger {
				t.Errorf("Gate detection error: got triggered=%v, want %v (peak=%v, threshold=%v)",
					triggered, tt.shouldTrigger, peakLevel(tt.buffer), engine.gateLevel())
			}
		})
	}
}

func TestPeakLevel(t *testing.T) {
	tests := []struct {
		desc  string
		frame []float32
		want  float32
	}{
		{"Empty", nil, 0},
		{"Silence", make([]float32, 8), 0},
		{"Negative zero", []float32{float32(math.Copysign(0, -1))}, 0},
		{"Negative peak", []float32{0.2, -0.7, 0.5}, 0.7},
		{"Full scale", []float32{1, -1}, 1},
		{"Overrange", []float32{-1.5, 0.1}, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := peakLevel(tt.frame); got != tt.want {
				t.Errorf("peakLevel = %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkGateThresholdConversionHotPath(b *testing.B) {
	engine := &Engine{}
	values := []float64{0.0, 0.25, 0.5, 0.75, 1.0}

	for _, v := range values {
		b.Run(formatFloat(v), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				engine.SetGateThreshold(v)
				_ = engine.GetGateThreshold() // Discard result to prevent optimization
			}
		})
	}
}

func BenchmarkGateProcessingHotPath(b *testing.B) {
	benchmarks := []struct {
		name      string
		buffer    []float32
		threshold float64
		enabled   bool
	}{
		{"Gate disabled/Normal", testBuffer, 0.001, false},
		{"Gate enabled/Quiet signal/Low threshold", quietBuffer, 0.001, true},
		{"Gate enabled/Normal signal/Low threshold", testBuffer, 0.001, true},
		{"Gate enabled/Loud signal/High threshold", loudBuffer, 0.9, true},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			engine := &Engine{}
			engine.SetGateThreshold(bm.threshold)
			if bm.enabled {
				engine.EnableGate()
			}

			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				_ = !engine.GateEnabled() || peakLevel(bm.buffer) >= engine.gateLevel()
			}
		})
	}
}
