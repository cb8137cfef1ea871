// SPDX-License-Identifier: MIT
/*
Package dsp holds the per-sample building blocks of the demo apps: a cheap
tone oscillator, a fixed-capacity circular sample store, and the adaptive
filter contract together with an NLMS implementation of it.

Everything here is real-time safe once constructed:
- No allocations after New*
- No locks, syscalls or blocking
- float32 throughout, matching the sample format at the native boundary
*/
package dsp

// Oscillator generates a sine-like tone by approximating sin(pi*x) with two
// parabolas over the phase range [-1, 1]:
//
//	4x + 4x^2 on [-1, 0]
//	4x - 4x^2 on [0, 1]
//
// The output is the negated approximation, so the first half cycle after a
// Reset is positive.
type Oscillator struct {
	phase          float32
	dPhase         float32
	sampleInterval float32
}

// NewOscillator returns an oscillator for sampleRate with zero frequency.
func NewOscillator(sampleRate float32) *Oscillator {
	o := &Oscillator{}
	o.Initialize(sampleRate)
	return o
}

// Initialize prepares the oscillator for sampleRate and resets its phase.
// The frequency must be set again afterwards.
func (o *Oscillator) Initialize(sampleRate float32) {
	o.sampleInterval = 1 / sampleRate
	o.dPhase = 0
	o.phase = -1
}

// SetFrequency sets the tone frequency in Hz. It is cheap enough to call
// once per sample for frequency modulation.
func (o *Oscillator) SetFrequency(frequency float32) {
	o.dPhase = 2 * frequency * o.sampleInterval
}

// Reset moves the phase back to the start of a cycle.
func (o *Oscillator) Reset() {
	o.phase = -1
}

// Phase returns the current phase in [-1, 1].
func (o *Oscillator) Phase() float32 {
	return o.phase
}

// NextSample returns the sample at the current phase and advances it.
func (o *Oscillator) NextSample() float32 {
	var a float32 = -1
	if o.phase < 0 {
		a = 1
	}

	value := o.phase + a*o.phase*o.phase

	o.phase += o.dPhase
	if o.phase > 1 {
		o.phase -= 2
	}

	return -4 * value
}
