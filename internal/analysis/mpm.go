// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"audiodemo/internal/fft"
	"audiodemo/pkg/bitint"
)

// PitchOptions configures an MPMDetector. Sizes are in decimated samples.
type PitchOptions struct {
	WindowSize   int
	HopSize      int
	LagCount     int     // Longest lag searched; bounds the lowest detectable pitch.
	Downsampling int     // Input samples averaged into one analysis sample.
	KeyMaxRatio  float32 // A key maximum is picked if it reaches this fraction of the highest one.
}

// DefaultPitchOptions analyses 256 input samples per window at half rate.
func DefaultPitchOptions() PitchOptions {
	return PitchOptions{
		WindowSize:   128,
		HopSize:      128,
		LagCount:     64,
		Downsampling: 2,
		KeyMaxRatio:  0.9,
	}
}

// MPMDetector estimates the fundamental frequency of windows of input using
// the McLeod pitch method: the normalised square difference function (NSDF)
// is computed from an FFT autocorrelation, the first key maximum within
// KeyMaxRatio of the highest is picked, and its position is refined with
// parabolic interpolation.
//
// All buffers are allocated by NewMPMDetector. Process does not allocate
// provided the callback it is given does not.
type MPMDetector struct {
	rate float32 // sample rate after decimation
	opts PitchOptions

	framer *framer
	fft    *fft.Processor
	acf    []float64
	nsdf   []float64
	keys   []int

	fn   PitchFunc
	last PitchResult
}

// NewMPMDetector creates a detector for input at sampleRate.
func NewMPMDetector(sampleRate float32, opts PitchOptions) (*MPMDetector, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if opts.LagCount < 3 || opts.LagCount > opts.WindowSize {
		return nil, fmt.Errorf("lag count must be in [3, %d], got %d", opts.WindowSize, opts.LagCount)
	}
	if opts.KeyMaxRatio <= 0 || opts.KeyMaxRatio > 1 {
		return nil, fmt.Errorf("key maximum ratio must be in (0, 1], got %f", opts.KeyMaxRatio)
	}

	d := &MPMDetector{
		opts: opts,
		acf:  make([]float64, opts.LagCount),
		nsdf: make([]float64, opts.LagCount),
		keys: make([]int, 0, opts.LagCount),
	}

	var err error
	if d.framer, err = newFramer(opts.WindowSize, opts.HopSize, opts.Downsampling, d.analyse); err != nil {
		return nil, fmt.Errorf("failed to create pitch framer: %w", err)
	}
	d.rate = sampleRate / float32(opts.Downsampling)

	// Linear autocorrelation up to LagCount needs WindowSize+LagCount-1 points.
	size := bitint.NextPowerOfTwo(opts.WindowSize + opts.LagCount - 1)
	if d.fft, err = fft.NewProcessor(size, nil); err != nil {
		return nil, fmt.Errorf("failed to create pitch fft: %w", err)
	}
	return d, nil
}

// Process feeds in to the detector and calls fn once for every completed
// analysis window.
func (d *MPMDetector) Process(in []float32, fn PitchFunc) {
	d.fn = fn
	d.framer.write(in)
	d.fn = nil
}

// Last returns the result of the most recent analysis window.
func (d *MPMDetector) Last() PitchResult { return d.last }

// MinFrequency is the lowest pitch the configured lag count can resolve.
func (d *MPMDetector) MinFrequency() float32 {
	return d.rate / float32(d.opts.LagCount-1)
}

// Reset discards buffered input.
func (d *MPMDetector) Reset() {
	d.framer.reset()
	d.last = PitchResult{}
}

func (d *MPMDetector) analyse(window []float32) {
	d.last = d.detect(window)
	if d.fn != nil {
		d.fn(d.last)
	}
}

func (d *MPMDetector) detect(window []float32) PitchResult {
	d.fft.Autocorrelate(window, d.acf)
	d.computeNSDF(window)

	// Key maxima: the highest point of each positive lobe after the first
	// positive-going zero crossing.
	d.keys = d.keys[:0]
	inLobe := false
	peak := 0
	for tau := 1; tau < len(d.nsdf); tau++ {
		prev, cur := d.nsdf[tau-1], d.nsdf[tau]
		switch {
		case prev <= 0 && cur > 0:
			inLobe, peak = true, tau
		case inLobe && cur <= 0:
			d.keys = append(d.keys, peak)
			inLobe = false
		case inLobe && cur > d.nsdf[peak]:
			peak = tau
		}
	}
	if inLobe && peak < len(d.nsdf)-1 {
		d.keys = append(d.keys, peak)
	}
	if len(d.keys) == 0 {
		return PitchResult{}
	}

	highest := 0.0
	for _, k := range d.keys {
		highest = max(highest, d.nsdf[k])
	}
	threshold := float64(d.opts.KeyMaxRatio) * highest
	chosen := d.keys[0]
	for _, k := range d.keys {
		if d.nsdf[k] >= threshold {
			chosen = k
			break
		}
	}

	lag, clarity := d.interpolate(chosen)
	if lag <= 0 {
		return PitchResult{}
	}
	return PitchResult{
		Frequency: d.rate / float32(lag),
		Clarity:   float32(min(max(clarity, 0), 1)),
	}
}

// computeNSDF fills nsdf[tau] = 2 r(tau) / m(tau) where m is the running sum
// of squares of both overlapping segments.
func (d *MPMDetector) computeNSDF(window []float32) {
	n := len(window)
	m := 2 * d.acf[0]
	for tau := range d.nsdf {
		if tau > 0 {
			a, b := float64(window[tau-1]), float64(window[n-tau])
			m -= a*a + b*b
		}
		if m > 1e-12 {
			d.nsdf[tau] = 2 * d.acf[tau] / m
		} else {
			d.nsdf[tau] = 0
		}
	}
}

// interpolate fits a parabola through the key maximum and its neighbours.
func (d *MPMDetector) interpolate(i int) (lag, value float64) {
	if i <= 0 || i >= len(d.nsdf)-1 {
		return float64(i), d.nsdf[i]
	}
	a, b, c := d.nsdf[i-1], d.nsdf[i], d.nsdf[i+1]
	den := a - 2*b + c
	if den == 0 {
		return float64(i), b
	}
	delta := 0.5 * (a - c) / den
	return float64(i) + delta, b - 0.25*(a-c)*delta
}
