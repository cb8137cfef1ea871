// SPDX-License-Identifier: MIT
package app

import (
	"fmt"

	"audiodemo/internal/analysis"
	"audiodemo/internal/event"
)

// DefaultTargets are the open strings of a ukulele, A4 E4 C4 G4, in LED
// order.
var DefaultTargets = [event.NumLEDs]float32{440, 330, 262, 392}

const (
	// DefaultPitchTolerance is the largest error in Hz, exclusive, at which
	// a detected pitch matches a target.
	DefaultPitchTolerance = 1.0
	// DefaultPitchQueueSize is the outgoing event capacity of the tracker.
	DefaultPitchQueueSize = 32
)

// PitchOptions configures a PitchTracker. Zero values take the defaults.
type PitchOptions struct {
	// Detector replaces the built-in MPM detector.
	Detector PitchDetector
	// Analysis configures the built-in detector.
	Analysis analysis.PitchOptions
	// Targets are matched to LEDs 0..len-1; at most event.NumLEDs.
	Targets   []float32
	Tolerance float32
	QueueSize int
}

// PitchTracker lights LED i while target frequency i is sounding. The
// audio output is left untouched.
type PitchTracker struct {
	detector  PitchDetector
	onResult  analysis.PitchFunc
	targets   [event.NumLEDs]float32
	nTargets  int
	tolerance float32
	sounding  [event.NumLEDs]bool
	outbox    *event.Queue
}

var _ App = (*PitchTracker)(nil)

// NewPitchTracker creates a tracker for input at sampleRate.
func NewPitchTracker(sampleRate float32, opts PitchOptions) (*PitchTracker, error) {
	if len(opts.Targets) > event.NumLEDs {
		return nil, fmt.Errorf("at most %d pitch targets, got %d", event.NumLEDs, len(opts.Targets))
	}
	if opts.Tolerance < 0 {
		return nil, fmt.Errorf("pitch tolerance must not be negative, got %f", opts.Tolerance)
	}

	t := &PitchTracker{
		detector:  opts.Detector,
		tolerance: opts.Tolerance,
	}
	if len(opts.Targets) == 0 {
		t.nTargets = copy(t.targets[:], DefaultTargets[:])
	} else {
		t.nTargets = copy(t.targets[:], opts.Targets)
	}
	if t.tolerance == 0 {
		t.tolerance = DefaultPitchTolerance
	}
	queueSize := opts.QueueSize
	if queueSize == 0 {
		queueSize = DefaultPitchQueueSize
	}
	t.outbox = event.NewQueue(queueSize)

	if t.detector == nil {
		analysisOpts := opts.Analysis
		if analysisOpts == (analysis.PitchOptions{}) {
			analysisOpts = analysis.DefaultPitchOptions()
		}
		d, err := analysis.NewMPMDetector(sampleRate, analysisOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to create pitch detector: %w", err)
		}
		t.detector = d
	}
	t.onResult = t.handleResult
	return t, nil
}

// Process implements App.
func (t *PitchTracker) Process(in, _ []float32) {
	t.detector.Process(in, t.onResult)
}

// HandleEvent implements App. The tracker has no controls.
func (t *PitchTracker) HandleEvent(event.Event) {}

// NextOutgoingEvent implements App.
func (t *PitchTracker) NextOutgoingEvent() (event.Event, bool) {
	return t.outbox.Pop()
}

// Sounding reports whether target i is currently detected.
func (t *PitchTracker) Sounding(i int) bool { return t.sounding[i] }

// Targets returns the configured target frequencies.
func (t *PitchTracker) Targets() []float32 { return t.targets[:t.nTargets] }

func (t *PitchTracker) handleResult(r analysis.PitchResult) {
	tone := r.IsTone()
	for i := range t.nTargets {
		diff := r.Frequency - t.targets[i]
		if diff < 0 {
			diff = -diff
		}
		detected := tone && diff < t.tolerance
		if detected != t.sounding[i] {
			t.sounding[i] = detected
			t.outbox.Push(event.LED(i, detected))
		}
	}
}
