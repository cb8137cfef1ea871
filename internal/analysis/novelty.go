// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"audiodemo/internal/fft"
	"audiodemo/pkg/bitint"
)

// Compression maps a normalised spectral magnitude before flux is taken.
type Compression interface {
	Compress(x float64) float64
}

// HardKneeCompression passes magnitudes up to Threshold unchanged and
// scales the excess above it by Ratio.
type HardKneeCompression struct {
	Threshold float64
	Ratio     float64
}

// Compress implements Compression.
func (c HardKneeCompression) Compress(x float64) float64 {
	if x <= c.Threshold {
		return x
	}
	return c.Threshold + (x-c.Threshold)*c.Ratio
}

// NoveltyOptions configures a SpectralFluxDetector. Sizes are in decimated
// samples.
type NoveltyOptions struct {
	WindowSize   int
	HopSize      int
	Downsampling int
	Window       WindowFunc
	Compression  Compression
}

// DefaultNoveltyOptions analyses 256 input samples per window at a quarter
// of the input rate with a Hann window and a hard knee at 0.05.
func DefaultNoveltyOptions() NoveltyOptions {
	return NoveltyOptions{
		WindowSize:   64,
		HopSize:      64,
		Downsampling: 4,
		Window:       Hann,
		Compression:  HardKneeCompression{Threshold: 0.05, Ratio: 0.9},
	}
}

// SpectralFluxDetector scores how much the magnitude spectrum grew between
// consecutive windows. Each magnitude is normalised by the window size and
// compressed; the novelty is the mean positive difference per bin.
// Decreasing energy scores zero, so only onsets register.
type SpectralFluxDetector struct {
	opts   NoveltyOptions
	framer *framer
	fft    *fft.Processor
	prev   []float64
	norm   float64

	fn   NoveltyFunc
	last NoveltyResult
}

// NewSpectralFluxDetector creates a detector. A nil Compression means none.
func NewSpectralFluxDetector(opts NoveltyOptions) (*SpectralFluxDetector, error) {
	if opts.Compression == nil {
		opts.Compression = HardKneeCompression{Threshold: 1, Ratio: 1}
	}
	d := &SpectralFluxDetector{opts: opts}

	var err error
	if d.framer, err = newFramer(opts.WindowSize, opts.HopSize, opts.Downsampling, d.analyse); err != nil {
		return nil, fmt.Errorf("failed to create novelty framer: %w", err)
	}
	size := bitint.NextPowerOfTwo(opts.WindowSize)
	if d.fft, err = fft.NewProcessor(size, windowCoefficients(opts.WindowSize, opts.Window)); err != nil {
		return nil, fmt.Errorf("failed to create novelty fft: %w", err)
	}
	d.prev = make([]float64, d.fft.Bins())
	d.norm = 1 / float64(opts.WindowSize)
	return d, nil
}

// Process feeds in to the detector and calls fn once for every completed
// analysis window.
func (d *SpectralFluxDetector) Process(in []float32, fn NoveltyFunc) {
	d.fn = fn
	d.framer.write(in)
	d.fn = nil
}

// Last returns the result of the most recent analysis window.
func (d *SpectralFluxDetector) Last() NoveltyResult { return d.last }

// Reset discards buffered input and the previous spectrum.
func (d *SpectralFluxDetector) Reset() {
	d.framer.reset()
	clear(d.prev)
	d.last = NoveltyResult{}
}

func (d *SpectralFluxDetector) analyse(window []float32) {
	mags := d.fft.Magnitudes(window)

	var flux float64
	for i, m := range mags {
		c := d.opts.Compression.Compress(m * d.norm)
		if diff := c - d.prev[i]; diff > 0 {
			flux += diff
		}
		d.prev[i] = c
	}

	d.last = NoveltyResult{Value: float32(flux / float64(len(mags)))}
	if d.fn != nil {
		d.fn(d.last)
	}
}
