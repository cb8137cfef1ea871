// SPDX-License-Identifier: MIT

// Package midi maps a MIDI pad controller onto the demo's buttons and LEDs.
// Four consecutive notes starting at a base note act as buttons 0-3: note
// on presses, note off releases. LED events are echoed back on the same
// notes so pads with lights follow the app's LEDs.
package midi

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"audiodemo/internal/event"
	applog "audiodemo/internal/log"
	"audiodemo/internal/transport"
)

// ledVelocity is the note-on velocity used for a lit LED; most pad
// controllers map it to full brightness.
const ledVelocity = 127

// Options select the ports and note mapping.
type Options struct {
	InPort   string // substring of the input port name; empty picks the first port
	OutPort  string // substring of the output port name; empty disables LEDs
	BaseNote uint8
	Channel  uint8
}

// Controller implements transport.Transport for LED output and feeds note
// messages into a transport.Controls.
type Controller struct {
	controls transport.Controls
	base     uint8
	channel  uint8
	log      *applog.Logger

	mu     sync.Mutex
	send   func(gomidi.Message) error
	stop   func()
	closed bool
}

// New creates a controller around an already opened send function. send
// may be nil when there is no output port.
func New(controls transport.Controls, opts Options, send func(gomidi.Message) error) *Controller {
	return &Controller{
		controls: controls,
		base:     opts.BaseNote,
		channel:  opts.Channel,
		log:      applog.With("midi"),
		send:     send,
	}
}

// Open finds the configured ports by name and starts listening. A MIDI
// driver must have been registered by the caller.
func Open(controls transport.Controls, opts Options) (*Controller, error) {
	if int(opts.BaseNote)+event.NumButtons > 128 {
		return nil, fmt.Errorf("base note %d leaves no room for %d buttons", opts.BaseNote, event.NumButtons)
	}

	var send func(gomidi.Message) error
	if opts.OutPort != "" {
		out, err := findOutPort(opts.OutPort)
		if err != nil {
			return nil, err
		}
		if send, err = gomidi.SendTo(out); err != nil {
			return nil, fmt.Errorf("failed to open MIDI output %s: %w", out, err)
		}
	}

	in, err := findInPort(opts.InPort)
	if err != nil {
		return nil, err
	}
	c := New(controls, opts, send)
	stop, err := gomidi.ListenTo(in, c.handleMessage, gomidi.HandleError(func(err error) {
		c.log.Warnf("Listener error on %s: %v", in, err)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on MIDI input %s: %w", in, err)
	}
	c.stop = stop
	c.log.Infof("Listening on %s, notes %d-%d", in, opts.BaseNote, int(opts.BaseNote)+event.NumButtons-1)
	return c, nil
}

func findInPort(name string) (drivers.In, error) {
	for _, port := range gomidi.GetInPorts() {
		if containsIgnoreCase(port.String(), name) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("MIDI input %q not found", name)
}

func findOutPort(name string) (drivers.Out, error) {
	for _, port := range gomidi.GetOutPorts() {
		if containsIgnoreCase(port.String(), name) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("MIDI output %q not found", name)
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// ListPorts writes the available MIDI ports to w.
func ListPorts(w io.Writer) {
	fmt.Fprintf(w, "\nMIDI Inputs\n\n")
	for i, port := range gomidi.GetInPorts() {
		fmt.Fprintf(w, "[%d] %s\n", i, port)
	}
	fmt.Fprintf(w, "\nMIDI Outputs\n\n")
	for i, port := range gomidi.GetOutPorts() {
		fmt.Fprintf(w, "[%d] %s\n", i, port)
	}
}

// handleMessage turns a note on the button range into a button event.
func (c *Controller) handleMessage(msg gomidi.Message, timestampms int32) {
	var ch, key, vel uint8
	var ev event.Event
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		button, ok := c.button(key)
		if !ok {
			return
		}
		ev = event.ButtonDown(button)
	case msg.GetNoteEnd(&ch, &key):
		button, ok := c.button(key)
		if !ok {
			return
		}
		ev = event.ButtonUp(button)
	default:
		return
	}

	if err := c.controls.Send(ev); err != nil {
		c.log.Warnf("Dropped %s: %v", ev, err)
		return
	}
	c.log.Debugf("%s from note %d (ch %d, t %dms)", ev, key, ch, timestampms)
}

func (c *Controller) button(key uint8) (int, bool) {
	i := int(key) - int(c.base)
	return i, i >= 0 && i < event.NumButtons
}

// Send lights or clears the pad for an LED event. Other events are ignored.
func (c *Controller) Send(ev event.Event) error {
	if !ev.IsLED() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.send == nil {
		return nil
	}
	return c.sendLED(ev.LEDIndex(), ev.LEDIsOn())
}

func (c *Controller) sendLED(led int, on bool) error {
	key := c.base + uint8(led)
	msg := gomidi.NoteOff(c.channel, key)
	if on {
		msg = gomidi.NoteOn(c.channel, key, ledVelocity)
	}
	if err := c.send(msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg, err)
	}
	return nil
}

// Close stops listening and turns every pad off.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	var errs []error
	if c.send != nil {
		for led := range event.NumLEDs {
			if err := c.sendLED(led, false); err != nil {
				errs = append(errs, err)
			}
		}
		c.send = nil
	}
	return errors.Join(errs...)
}

var _ transport.Transport = (*Controller)(nil)
