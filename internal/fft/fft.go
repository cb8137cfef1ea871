// SPDX-License-Identifier: MIT
package fft

import (
	"audiodemo/pkg/bitint"
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Workspace holds pre-allocated buffers for FFT calculations.
type Workspace struct {
	input     []float64    // ...for real input samples (windowed, zero padded)
	fftOutput []complex128 // ...for FFT complex output
	magnitude []float64    // ...for magnitude output
	sequence  []float64    // ...for inverse transform output
	window    []float64    // ...for window coefficients, nil means rectangular
}

// Processor is a real-input FFT of fixed size with all buffers allocated up
// front, so Magnitudes and Autocorrelate are allocation free.
type Processor struct {
	size      int
	workspace Workspace
	fftObj    *fourier.FFT
}

// NewProcessor creates a processor of the given power-of-two size. window,
// if non-nil, must have length <= size and is applied to the input samples
// before the transform of Magnitudes.
func NewProcessor(size int, window []float64) (*Processor, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", size)
	}
	if len(window) > size {
		return nil, fmt.Errorf("window length %d exceeds fft size %d", len(window), size)
	}

	outputSize := size/2 + 1

	return &Processor{
		size:   size,
		fftObj: fourier.NewFFT(size),
		workspace: Workspace{
			input:     make([]float64, size),
			fftOutput: make([]complex128, outputSize),
			magnitude: make([]float64, outputSize),
			sequence:  make([]float64, size),
			window:    window,
		},
	}, nil
}

// Size returns the transform length.
func (p *Processor) Size() int { return p.size }

// Bins returns the number of magnitude bins, size/2 + 1.
func (p *Processor) Bins() int { return len(p.workspace.magnitude) }

// load copies in into the input buffer, applying the window when asked and
// zero padding to the transform size.
func (p *Processor) load(in []float32, windowed bool) {
	n := min(len(in), p.size)
	for i := range n {
		v := float64(in[i])
		if windowed && p.workspace.window != nil {
			if i < len(p.workspace.window) {
				v *= p.workspace.window[i]
			} else {
				v = 0
			}
		}
		p.workspace.input[i] = v
	}
	clear(p.workspace.input[n:])
}

// Magnitudes windows in, transforms it and returns the magnitude spectrum.
// The returned slice is owned by the processor and overwritten by the next
// call.
func (p *Processor) Magnitudes(in []float32) []float64 {
	p.load(in, true)
	p.fftObj.Coefficients(p.workspace.fftOutput, p.workspace.input)
	for i, c := range p.workspace.fftOutput {
		p.workspace.magnitude[i] = cmplx.Abs(c)
	}
	return p.workspace.magnitude
}

// Autocorrelate writes the linear (non-circular) autocorrelation of in into
// dst for lags 0..len(dst)-1. The window is not applied. The transform size
// must be at least len(in)+len(dst)-1 to avoid wrap-around; shorter sizes
// fold the tail back in.
func (p *Processor) Autocorrelate(in []float32, dst []float64) {
	p.load(in, false)
	p.fftObj.Coefficients(p.workspace.fftOutput, p.workspace.input)
	for i, c := range p.workspace.fftOutput {
		re, im := real(c), imag(c)
		p.workspace.fftOutput[i] = complex(re*re+im*im, 0)
	}
	p.fftObj.Sequence(p.workspace.sequence, p.workspace.fftOutput)

	// Sequence is unnormalized.
	scale := 1 / float64(p.size)
	n := min(len(dst), p.size)
	for i := range n {
		dst[i] = p.workspace.sequence[i] * scale
	}
}

// BinFrequency returns the centre frequency in Hz of bin i for sampleRate.
func (p *Processor) BinFrequency(i int, sampleRate float64) float64 {
	if i < 0 || i >= len(p.workspace.fftOutput) {
		return 0
	}
	return p.fftObj.Freq(i) * sampleRate
}
