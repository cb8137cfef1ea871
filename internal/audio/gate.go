// SPDX-License-Identifier: MIT
package audio

import "math"

const signBit = 1 << 31

func (e *Engine) EnableGate() {
	e.gateEnabled.Store(true)
}

func (e *Engine) DisableGate() {
	e.gateEnabled.Store(false)
}

// GateEnabled reports whether input frames are gated.
func (e *Engine) GateEnabled() bool {
	return e.gateEnabled.Load()
}

// SetGateThreshold adjusts the noise gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed
// for signals within full scale.
func (e *Engine) SetGateThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}

	e.gateThreshold.Store(math.Float32bits(float32(threshold)))
}

// GetGateThreshold returns the current noise gate threshold as a float64.
func (e *Engine) GetGateThreshold() float64 {
	return float64(e.gateLevel())
}

func (e *Engine) gateLevel() float32 {
	return math.Float32frombits(e.gateThreshold.Load())
}

// peakLevel returns the largest absolute sample in frame. The absolute
// value clears the sign bit instead of branching.
func peakLevel(frame []float32) float32 {
	var peak float32
	for _, s := range frame {
		amplitude := math.Float32frombits(math.Float32bits(s) &^ signBit)
		peak = max(peak, amplitude)
	}
	return peak
}
