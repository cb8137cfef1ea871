// SPDX-License-Identifier: MIT
package transport

import (
	"sync/atomic"

	"audiodemo/internal/event"
)

// Transport delivers LED events to one output surface.
// Implementations should be thread-safe.
type Transport interface {
	Send(ev event.Event) error
	Close() error
}

// Controls accepts button events from a control surface. The audio engine's
// control queue implements it; surfaces never call the app directly.
type Controls interface {
	Send(ev event.Event) error
}

// LEDState mirrors the four LEDs from the LED events seen so far. It is
// safe for concurrent use.
type LEDState struct {
	mask atomic.Uint32
}

// Apply updates the mirror from an LED event and reports whether the state
// changed. Other events are ignored.
func (s *LEDState) Apply(ev event.Event) bool {
	i := ev.LEDIndex()
	if i < 0 {
		return false
	}
	bit := uint32(1) << i
	for {
		old := s.mask.Load()
		next := old &^ bit
		if ev.LEDIsOn() {
			next |= bit
		}
		if next == old {
			return false
		}
		if s.mask.CompareAndSwap(old, next) {
			return true
		}
	}
}

// On reports whether LED i is lit.
func (s *LEDState) On(i int) bool {
	return s.mask.Load()&(1<<i) != 0
}

// Mask returns the LEDs as a bitmask, LED 0 in bit 0.
func (s *LEDState) Mask() uint8 {
	return uint8(s.mask.Load())
}

// Snapshot returns one LED event per LED describing the current state.
func (s *LEDState) Snapshot() [event.NumLEDs]event.Event {
	var out [event.NumLEDs]event.Event
	mask := s.mask.Load()
	for i := range out {
		out[i] = event.LED(i, mask&(1<<i) != 0)
	}
	return out
}
