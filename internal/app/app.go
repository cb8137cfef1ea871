// SPDX-License-Identifier: MIT
/*
Package app holds the demo applications that sit between an audio callback
and a panel of four buttons and four LEDs.

Every variant implements App. The host, or the native boundary, drives a
variant with one Process call per audio frame and forwards button events
through HandleEvent. LED events produced by either call are drained with
NextOutgoingEvent until it reports false. None of the methods synchronise;
the caller must never run them concurrently.

Variants:

	Looper          record/playback loop with a modulated test tone
	PitchTracker    lights LED i while target pitch i is sounding
	NoveltyTrigger  toggles LED 0 on each detected onset

Exactly one variant is compiled into the native library (see Selected); the
host picks one at run time through Demo.
*/
package app

import (
	"fmt"
	"strings"

	"audiodemo/internal/analysis"
	"audiodemo/internal/event"
)

// App is the contract shared by all demo variants.
type App interface {
	// Process consumes one input frame and adds its contribution into out.
	// It must not allocate and must return within one audio period.
	Process(in, out []float32)
	// HandleEvent applies one incoming event. Codes a variant does not use
	// are ignored.
	HandleEvent(ev event.Event)
	// NextOutgoingEvent pops the next pending LED event.
	NextOutgoingEvent() (event.Event, bool)
}

// PitchDetector is the pitch analysis a PitchTracker delegates to. fn is
// called once per completed analysis window, synchronously.
type PitchDetector interface {
	Process(in []float32, fn analysis.PitchFunc)
}

// NoveltyDetector is the onset analysis a NoveltyTrigger delegates to.
type NoveltyDetector interface {
	Process(in []float32, fn analysis.NoveltyFunc)
}

var (
	_ PitchDetector   = (*analysis.MPMDetector)(nil)
	_ NoveltyDetector = (*analysis.SpectralFluxDetector)(nil)
)

// Variant identifies one of the demo applications.
type Variant uint8

const (
	VariantLooper Variant = iota
	VariantPitch
	VariantNovelty
)

// Variants lists every variant in display order.
var Variants = []Variant{VariantLooper, VariantPitch, VariantNovelty}

func (v Variant) String() string {
	switch v {
	case VariantLooper:
		return "looper"
	case VariantPitch:
		return "pitch"
	case VariantNovelty:
		return "novelty"
	default:
		return fmt.Sprintf("variant(%d)", uint8(v))
	}
}

// ParseVariant converts a name (case-insensitive) to a Variant.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "looper", "nlms":
		return VariantLooper, nil
	case "pitch", "mpm":
		return VariantPitch, nil
	case "novelty", "sfnov":
		return VariantNovelty, nil
	default:
		return VariantLooper, fmt.Errorf("unknown variant %q (want looper, pitch or novelty)", name)
	}
}

// Options configures each variant. Zero values select the defaults.
type Options struct {
	Looper  LooperOptions
	Pitch   PitchOptions
	Novelty NoveltyOptions
}

// Demo is a tagged variant holding exactly one live App. Each method
// switches on the tag rather than going through an interface, so the host
// and the native library dispatch the same way.
type Demo struct {
	kind    Variant
	looper  *Looper
	pitch   *PitchTracker
	novelty *NoveltyTrigger
}

var _ App = (*Demo)(nil)

// NewDemo constructs the variant kind for sampleRate.
func NewDemo(kind Variant, sampleRate float32, opts Options) (*Demo, error) {
	d := &Demo{kind: kind}
	var err error
	switch kind {
	case VariantLooper:
		d.looper = NewLooper(sampleRate, opts.Looper)
	case VariantPitch:
		d.pitch, err = NewPitchTracker(sampleRate, opts.Pitch)
	case VariantNovelty:
		d.novelty, err = NewNoveltyTrigger(sampleRate, opts.Novelty)
	default:
		return nil, fmt.Errorf("unknown variant %d", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s demo: %w", kind, err)
	}
	return d, nil
}

// Variant reports which application is live.
func (d *Demo) Variant() Variant { return d.kind }

// Looper returns the looper, or nil for other variants.
func (d *Demo) Looper() *Looper { return d.looper }

// Process implements App.
func (d *Demo) Process(in, out []float32) {
	switch d.kind {
	case VariantLooper:
		d.looper.Process(in, out)
	case VariantPitch:
		d.pitch.Process(in, out)
	case VariantNovelty:
		d.novelty.Process(in, out)
	}
}

// HandleEvent implements App.
func (d *Demo) HandleEvent(ev event.Event) {
	switch d.kind {
	case VariantLooper:
		d.looper.HandleEvent(ev)
	case VariantPitch:
		d.pitch.HandleEvent(ev)
	case VariantNovelty:
		d.novelty.HandleEvent(ev)
	}
}

// NextOutgoingEvent implements App.
func (d *Demo) NextOutgoingEvent() (event.Event, bool) {
	switch d.kind {
	case VariantLooper:
		return d.looper.NextOutgoingEvent()
	case VariantPitch:
		return d.pitch.NextOutgoingEvent()
	case VariantNovelty:
		return d.novelty.NextOutgoingEvent()
	}
	return event.None, false
}

// Dropped returns how many outgoing events were lost to a full queue.
func (d *Demo) Dropped() uint64 {
	switch d.kind {
	case VariantLooper:
		return d.looper.outbox.Dropped()
	case VariantPitch:
		return d.pitch.outbox.Dropped()
	case VariantNovelty:
		return d.novelty.outbox.Dropped()
	}
	return 0
}
