// SPDX-License-Identifier: MIT
package analysis

// PitchResult is the outcome of one pitch analysis window.
type PitchResult struct {
	Frequency float32 // Estimated fundamental in Hz, 0 when no pitch was found.
	Clarity   float32 // Normalised peak height in [0, 1]; 1 is a perfectly periodic window.
}

// ToneClarityThreshold is the clarity at or above which a window counts as
// a tone.
const ToneClarityThreshold = 0.9

// IsTone reports whether the window held a clear periodic tone.
func (r PitchResult) IsTone() bool {
	return r.Frequency > 0 && r.Clarity >= ToneClarityThreshold
}

// NoveltyResult is the outcome of one novelty analysis window.
type NoveltyResult struct {
	Value float32
}

// Novelty returns the spectral flux novelty score of the window.
func (r NoveltyResult) Novelty() float32 { return r.Value }

// PitchFunc receives one result per analysed window. It runs on the caller
// of Process and must not retain the detector.
type PitchFunc func(PitchResult)

// NoveltyFunc receives one result per analysed window.
type NoveltyFunc func(NoveltyResult)
