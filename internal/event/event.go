// SPDX-License-Identifier: MIT
/*
Package event defines the single-byte event codes exchanged between the host
and a demo app, and the bounded outbox the app uses to publish them.

Codes match the firmware's C header:

	0      None (outgoing only, "no event")
	1..4   Button0Down .. Button3Down
	5..8   Button0Up   .. Button3Up
	9..12  LED0On      .. LED3On
	13..16 LED0Off     .. LED3Off

Button codes only ever travel into the app, LED codes only ever travel out.
*/
package event

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Event is a single-byte event code.
type Event uint8

// NumButtons and NumLEDs are the number of logical buttons and LEDs.
const (
	NumButtons = 4
	NumLEDs    = 4
)

const (
	None Event = iota

	Button0Down
	Button1Down
	Button2Down
	Button3Down

	Button0Up
	Button1Up
	Button2Up
	Button3Up

	LED0On
	LED1On
	LED2On
	LED3On

	LED0Off
	LED1Off
	LED2Off
	LED3Off

	maxEvent = LED3Off
)

// ErrUnknownEvent is returned by Parse for names that map to no event.
var ErrUnknownEvent = errors.New("unknown event")

// ButtonDown returns the button-down code for button i. Panics if i is out of range.
func ButtonDown(i int) Event {
	checkIndex(i, NumButtons)
	return Button0Down + Event(i)
}

// ButtonUp returns the button-up code for button i. Panics if i is out of range.
func ButtonUp(i int) Event {
	checkIndex(i, NumButtons)
	return Button0Up + Event(i)
}

// LEDOn returns the LED-on code for LED i. Panics if i is out of range.
func LEDOn(i int) Event {
	checkIndex(i, NumLEDs)
	return LED0On + Event(i)
}

// LEDOff returns the LED-off code for LED i. Panics if i is out of range.
func LEDOff(i int) Event {
	checkIndex(i, NumLEDs)
	return LED0Off + Event(i)
}

// LED returns LEDOn(i) or LEDOff(i) depending on on.
func LED(i int, on bool) Event {
	if on {
		return LEDOn(i)
	}
	return LEDOff(i)
}

func checkIndex(i, n int) {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("event: index %d out of range [0, %d)", i, n))
	}
}

// Valid reports whether e is a defined code other than None.
func (e Event) Valid() bool {
	return e >= Button0Down && e <= maxEvent
}

func (e Event) IsButtonDown() bool { return e >= Button0Down && e <= Button3Down }
func (e Event) IsButtonUp() bool   { return e >= Button0Up && e <= Button3Up }
func (e Event) IsButton() bool     { return e.IsButtonDown() || e.IsButtonUp() }
func (e Event) IsLED() bool        { return e >= LED0On && e <= LED3Off }

// Button returns the button index of a button code, or -1.
func (e Event) Button() int {
	switch {
	case e.IsButtonDown():
		return int(e - Button0Down)
	case e.IsButtonUp():
		return int(e - Button0Up)
	}
	return -1
}

// LEDIndex returns the LED index of an LED code, or -1.
func (e Event) LEDIndex() int {
	switch {
	case e >= LED0On && e <= LED3On:
		return int(e - LED0On)
	case e >= LED0Off && e <= LED3Off:
		return int(e - LED0Off)
	}
	return -1
}

// LEDIsOn reports whether e is one of the LED-on codes.
func (e Event) LEDIsOn() bool {
	return e >= LED0On && e <= LED3On
}

// String returns the snake_case name used in scripts and on the wire,
// e.g. "button2_down" or "led0_off".
func (e Event) String() string {
	switch {
	case e == None:
		return "none"
	case e.IsButtonDown():
		return "button" + strconv.Itoa(e.Button()) + "_down"
	case e.IsButtonUp():
		return "button" + strconv.Itoa(e.Button()) + "_up"
	case e.LEDIsOn():
		return "led" + strconv.Itoa(e.LEDIndex()) + "_on"
	case e.IsLED():
		return "led" + strconv.Itoa(e.LEDIndex()) + "_off"
	default:
		return "event(" + strconv.Itoa(int(e)) + ")"
	}
}

// Parse converts a name produced by String (case-insensitive) or a decimal
// code back into an Event.
func Parse(name string) (Event, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		e := Event(n)
		if e != None && !e.Valid() {
			return None, fmt.Errorf("%w: code %d", ErrUnknownEvent, n)
		}
		return e, nil
	}
	if s == "none" {
		return None, nil
	}
	for e := Button0Down; e <= maxEvent; e++ {
		if e.String() == s {
			return e, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}
