// SPDX-License-Identifier: MIT
package midi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"audiodemo/internal/event"
)

type recordingControls struct {
	events []event.Event
	err    error
}

func (r *recordingControls) Send(ev event.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

type recordingOut struct {
	messages []gomidi.Message
	err      error
}

func (r *recordingOut) send(msg gomidi.Message) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func TestNotesBecomeButtonEvents(t *testing.T) {
	controls := &recordingControls{}
	c := New(controls, Options{BaseNote: 60}, nil)

	c.handleMessage(gomidi.NoteOn(0, 60, 100), 0)
	c.handleMessage(gomidi.NoteOff(0, 60), 5)
	c.handleMessage(gomidi.NoteOn(3, 63, 1), 10) // any channel
	c.handleMessage(gomidi.NoteOn(0, 62, 0), 15) // velocity 0 is a release

	assert.Equal(t, []event.Event{
		event.Button0Down, event.Button0Up, event.Button3Down, event.Button2Up,
	}, controls.events)
}

func TestIgnoredMessages(t *testing.T) {
	controls := &recordingControls{}
	c := New(controls, Options{BaseNote: 60}, nil)

	c.handleMessage(gomidi.NoteOn(0, 59, 100), 0)
	c.handleMessage(gomidi.NoteOn(0, 64, 100), 0)
	c.handleMessage(gomidi.ControlChange(0, 7, 100), 0)
	c.handleMessage(gomidi.ProgramChange(0, 1), 0)

	assert.Empty(t, controls.events)
}

func TestFullControlQueueIsNotFatal(t *testing.T) {
	controls := &recordingControls{err: errors.New("control queue full")}
	c := New(controls, Options{BaseNote: 36}, nil)
	assert.NotPanics(t, func() { c.handleMessage(gomidi.NoteOn(0, 36, 100), 0) })
}

func TestLEDEventsBecomeNotes(t *testing.T) {
	out := &recordingOut{}
	c := New(&recordingControls{}, Options{BaseNote: 60, Channel: 2}, out.send)

	require.NoError(t, c.Send(event.LED1On))
	require.NoError(t, c.Send(event.LED1Off))
	require.NoError(t, c.Send(event.Button0Down)) // not an LED

	assert.Equal(t, []gomidi.Message{
		gomidi.NoteOn(2, 61, ledVelocity),
		gomidi.NoteOff(2, 61),
	}, out.messages)
}

func TestSendError(t *testing.T) {
	out := &recordingOut{err: errors.New("port gone")}
	c := New(&recordingControls{}, Options{BaseNote: 60}, out.send)
	assert.ErrorContains(t, c.Send(event.LED0On), "port gone")
}

func TestCloseClearsPads(t *testing.T) {
	out := &recordingOut{}
	c := New(&recordingControls{}, Options{BaseNote: 48}, out.send)

	require.NoError(t, c.Close())
	require.Len(t, out.messages, event.NumLEDs)
	for i, msg := range out.messages {
		var ch, key uint8
		require.True(t, msg.GetNoteEnd(&ch, &key))
		assert.Equal(t, uint8(48+i), key)
	}

	// Closed controllers stay silent.
	require.NoError(t, c.Close())
	require.NoError(t, c.Send(event.LED0On))
	assert.Len(t, out.messages, event.NumLEDs)
}

func TestSendWithoutOutput(t *testing.T) {
	c := New(&recordingControls{}, Options{}, nil)
	assert.NoError(t, c.Send(event.LED3On))
	assert.NoError(t, c.Close())
}

func TestOpenValidation(t *testing.T) {
	_, err := Open(&recordingControls{}, Options{InPort: "pads", BaseNote: 126})
	assert.ErrorContains(t, err, "base note")
}

func TestContainsIgnoreCase(t *testing.T) {
	assert.True(t, containsIgnoreCase("Launchpad X LPX MIDI", "launchpad"))
	assert.False(t, containsIgnoreCase("IAC Bus 1", "launchpad"))
}
