// SPDX-License-Identifier: MIT
package app

import (
	"fmt"

	"audiodemo/internal/analysis"
	"audiodemo/internal/event"
)

// DefaultNoveltyThreshold is the score above which a window is an onset.
const DefaultNoveltyThreshold = 0.005

// NoveltyOptions configures a NoveltyTrigger. Zero values take the
// defaults.
type NoveltyOptions struct {
	// Detector replaces the built-in spectral flux detector.
	Detector NoveltyDetector
	// Analysis configures the built-in detector.
	Analysis  analysis.NoveltyOptions
	Threshold float32
	QueueSize int
}

// NoveltyTrigger toggles LED 0 each time the novelty score rises above the
// threshold. The score has to fall back to or below the threshold before
// the next onset can toggle again. The audio output is left untouched.
type NoveltyTrigger struct {
	detector  NoveltyDetector
	onResult  analysis.NoveltyFunc
	threshold float32
	armed     bool
	led       bool
	outbox    *event.Queue
}

var _ App = (*NoveltyTrigger)(nil)

// NewNoveltyTrigger creates an armed trigger with LED 0 off. sampleRate is
// accepted for symmetry with the other variants; the detector works in
// samples.
func NewNoveltyTrigger(_ float32, opts NoveltyOptions) (*NoveltyTrigger, error) {
	if opts.Threshold < 0 {
		return nil, fmt.Errorf("novelty threshold must not be negative, got %f", opts.Threshold)
	}
	n := &NoveltyTrigger{
		detector:  opts.Detector,
		threshold: opts.Threshold,
		armed:     true,
	}
	if n.threshold == 0 {
		n.threshold = DefaultNoveltyThreshold
	}
	queueSize := opts.QueueSize
	if queueSize == 0 {
		queueSize = DefaultQueueSize
	}
	n.outbox = event.NewQueue(queueSize)

	if n.detector == nil {
		analysisOpts := opts.Analysis
		if analysisOpts.WindowSize == 0 {
			analysisOpts = analysis.DefaultNoveltyOptions()
		}
		d, err := analysis.NewSpectralFluxDetector(analysisOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to create novelty detector: %w", err)
		}
		n.detector = d
	}
	n.onResult = n.handleResult
	return n, nil
}

// Process implements App.
func (n *NoveltyTrigger) Process(in, _ []float32) {
	n.detector.Process(in, n.onResult)
}

// HandleEvent implements App. The trigger has no controls.
func (n *NoveltyTrigger) HandleEvent(event.Event) {}

// NextOutgoingEvent implements App.
func (n *NoveltyTrigger) NextOutgoingEvent() (event.Event, bool) {
	return n.outbox.Pop()
}

// LED reports the current state of LED 0.
func (n *NoveltyTrigger) LED() bool { return n.led }

// Armed reports whether the next onset will toggle the LED.
func (n *NoveltyTrigger) Armed() bool { return n.armed }

func (n *NoveltyTrigger) handleResult(r analysis.NoveltyResult) {
	if r.Novelty() <= n.threshold {
		n.armed = true
		return
	}
	if n.armed {
		n.led = !n.led
		n.outbox.Push(event.LED(0, n.led))
		n.armed = false
	}
}
