// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Default NLMS parameters used by the looper's feedback canceller.
const (
	DefaultNLMSOrder   = 10
	DefaultNLMSStep    = 0.1
	DefaultNLMSEpsilon = 0.0001
)

// NLMS is a normalized least-mean-squares adaptive filter. It models the
// path from the reference signal (what was played) to the input (what was
// captured) with an FIR filter and returns the input minus that estimate.
//
// Output for each sample:
//
//	y = w . x
//	e = input - y
//	w += mu * e * x / (eps + x . x)
type NLMS struct {
	weights []float64
	history []float64 // reference samples, newest first
	step    float64
	epsilon float64
}

var _ AdaptiveFilter = (*NLMS)(nil)

// NewNLMS returns a filter with order taps, step size mu and regularization
// epsilon. Panics if order is not positive.
func NewNLMS(order int, mu, epsilon float64) *NLMS {
	if order <= 0 {
		panic(fmt.Sprintf("dsp: NLMS order must be positive, got %d", order))
	}
	return &NLMS{
		weights: make([]float64, order),
		history: make([]float64, order),
		step:    mu,
		epsilon: epsilon,
	}
}

// Update implements AdaptiveFilter.
func (f *NLMS) Update(reference, input float32) float32 {
	copy(f.history[1:], f.history[:len(f.history)-1])
	f.history[0] = float64(reference)

	estimate := floats.Dot(f.weights, f.history)
	residual := float64(input) - estimate

	power := floats.Dot(f.history, f.history)
	floats.AddScaled(f.weights, f.step*residual/(f.epsilon+power), f.history)

	return float32(residual)
}

// Reset clears the weights and the reference history.
func (f *NLMS) Reset() {
	clear(f.weights)
	clear(f.history)
}

// Order returns the number of filter taps.
func (f *NLMS) Order() int { return len(f.weights) }
