// SPDX-License-Identifier: MIT
package app

import (
	"fmt"

	"audiodemo/internal/dsp"
	"audiodemo/internal/event"
)

const (
	// RecordBufferSize is the default loop length in samples.
	RecordBufferSize = 4000
	// MaxFrameSize is the longest frame Process accepts.
	MaxFrameSize = 512
	// DefaultQueueSize is the default outgoing event capacity of the looper
	// and the novelty trigger.
	DefaultQueueSize = 16
	// DefaultToneFrequency is the carrier of the test tone in Hz.
	DefaultToneFrequency = 440

	lfoFrequency    = 1   // Hz
	modulationDepth = 0.1 // fraction of the carrier frequency
	toneGain        = 0.1
)

// Buttons and LEDs of the looper.
const (
	ButtonTone     = 0
	ButtonFilter   = 1
	ButtonRecord   = 2
	ButtonPlayback = 3
)

// RecordingState is the looper's transport state.
type RecordingState uint8

const (
	Idle RecordingState = iota
	Recording
	Playing
)

func (s RecordingState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// LooperOptions configures a Looper. Zero fields take the defaults above;
// a nil Filter selects NLMS with the dsp defaults.
type LooperOptions struct {
	RecordBufferSize int
	MaxFrameSize     int
	QueueSize        int
	ToneFrequency    float32
	Filter           dsp.AdaptiveFilter
}

func (o LooperOptions) withDefaults() LooperOptions {
	if o.RecordBufferSize == 0 {
		o.RecordBufferSize = RecordBufferSize
	}
	if o.MaxFrameSize == 0 {
		o.MaxFrameSize = MaxFrameSize
	}
	if o.QueueSize == 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.ToneFrequency == 0 {
		o.ToneFrequency = DefaultToneFrequency
	}
	if o.Filter == nil {
		o.Filter = dsp.NewNLMS(dsp.DefaultNLMSOrder, dsp.DefaultNLMSStep, dsp.DefaultNLMSEpsilon)
	}
	return o
}

// Looper records a fixed-length loop from the input and plays it back,
// optionally with an LFO-modulated test tone mixed on top.
//
//	Button 0  toggle the test tone           (LED 0)
//	Button 1  toggle adaptive filtering      (LED 1)
//	Button 2  start/stop recording           (LED 2)
//	Button 3  start/stop playback            (LED 3)
//
// While filtering is on, each recorded sample is the adaptive filter's
// residual of the input against the previous frame's output at the same
// position, which removes the speaker feedback a recording would otherwise
// pick up. Recording stops by itself when the loop buffer is full.
type Looper struct {
	state        RecordingState
	toneEnabled  bool
	filterActive bool

	tone     *dsp.Oscillator
	lfo      *dsp.Oscillator
	baseFreq float32

	buffer  *dsp.CircularBuffer
	filter  *dsp.FilterAdapter
	prevOut []float32

	outbox *event.Queue
}

var _ App = (*Looper)(nil)

// NewLooper creates an idle looper for sampleRate.
func NewLooper(sampleRate float32, opts LooperOptions) *Looper {
	opts = opts.withDefaults()
	l := &Looper{
		tone:     dsp.NewOscillator(sampleRate),
		lfo:      dsp.NewOscillator(sampleRate),
		baseFreq: opts.ToneFrequency,
		buffer:   dsp.NewCircularBuffer(opts.RecordBufferSize),
		filter:   dsp.NewFilterAdapter(opts.Filter),
		prevOut:  make([]float32, opts.MaxFrameSize),
		outbox:   event.NewQueue(opts.QueueSize),
	}
	l.lfo.SetFrequency(lfoFrequency)
	return l
}

// HandleEvent implements App. Only button-down events have an effect.
func (l *Looper) HandleEvent(ev event.Event) {
	switch ev {
	case event.Button0Down:
		l.toneEnabled = !l.toneEnabled
		if l.toneEnabled {
			l.tone.Reset()
			l.lfo.Reset()
		}
		l.outbox.Push(event.LED(ButtonTone, l.toneEnabled))

	case event.Button1Down:
		l.filterActive = !l.filterActive
		l.outbox.Push(event.LED(ButtonFilter, l.filterActive))

	case event.Button2Down:
		if l.state == Recording {
			l.state = Idle
			l.outbox.Push(event.LEDOff(ButtonRecord))
			return
		}
		// Entered from Idle or Playing. The playback LED is left as is.
		l.state = Recording
		l.buffer.Rewind()
		l.filter.Reset()
		l.outbox.Push(event.LEDOn(ButtonRecord))

	case event.Button3Down:
		switch l.state {
		case Idle:
			l.state = Playing
			l.buffer.Rewind()
			l.outbox.Push(event.LEDOn(ButtonPlayback))
		case Playing:
			l.state = Idle
			l.outbox.Push(event.LEDOff(ButtonPlayback))
		}
	}
}

// Process implements App. Frames longer than the configured maximum are a
// caller bug and panic.
func (l *Looper) Process(in, out []float32) {
	if len(in) > len(l.prevOut) || len(out) > len(l.prevOut) {
		panic(fmt.Sprintf("app: frame of %d/%d samples exceeds maximum %d", len(in), len(out), len(l.prevOut)))
	}

	if l.toneEnabled {
		for i := range out {
			mod := l.lfo.NextSample()
			l.tone.SetFrequency(l.baseFreq * (1 + mod*modulationDepth))
			out[i] += toneGain * l.tone.NextSample()
		}
	}

	switch l.state {
	case Playing:
		for i := range out {
			out[i] += l.buffer.Read()
		}
	case Recording:
		for i, x := range in {
			if l.filterActive {
				x = l.filter.Update(l.prevOut[i], x)
			}
			if l.buffer.Write(x) {
				l.state = Idle
				l.outbox.Push(event.LEDOff(ButtonRecord))
				break
			}
		}
	}

	n := copy(l.prevOut, out)
	clear(l.prevOut[n:])
}

// NextOutgoingEvent implements App.
func (l *Looper) NextOutgoingEvent() (event.Event, bool) {
	return l.outbox.Pop()
}

// State returns the transport state.
func (l *Looper) State() RecordingState { return l.state }

// ToneEnabled reports whether the test tone is mixed into the output.
func (l *Looper) ToneEnabled() bool { return l.toneEnabled }

// FilterActive reports whether recordings are adaptively filtered.
func (l *Looper) FilterActive() bool { return l.filterActive }

// Cursor returns the loop position in samples.
func (l *Looper) Cursor() int { return l.buffer.Cursor() }

// LoopLength returns the loop buffer capacity in samples.
func (l *Looper) LoopLength() int { return l.buffer.Cap() }

// Sample returns recorded sample i.
func (l *Looper) Sample(i int) float32 { return l.buffer.At(i) }
