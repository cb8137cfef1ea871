// SPDX-License-Identifier: MIT
package audio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiodemo/internal/event"
)

func drained(c *Controls) []event.Event {
	var got []event.Event
	c.drain(func(ev event.Event) { got = append(got, ev) })
	return got
}

func TestControlsSendAndDrain(t *testing.T) {
	c := NewControls(8)
	require.NoError(t, c.Send(event.Button1Down))
	require.NoError(t, c.Send(event.Button1Up))
	require.NoError(t, c.Send(event.Button3Down))
	assert.Equal(t, 3, c.Len())

	assert.Equal(t, []event.Event{event.Button1Down, event.Button1Up, event.Button3Down}, drained(c))
	assert.Zero(t, c.Len())
	assert.Empty(t, drained(c))
}

func TestControlsRejectsNonButtons(t *testing.T) {
	c := NewControls(8)
	for _, ev := range []event.Event{event.None, event.LED0On, event.LED3Off, 99} {
		assert.Error(t, c.Send(ev), "event %d", ev)
	}
	assert.Zero(t, c.Len())
}

func TestControlsFull(t *testing.T) {
	c := NewControls(2)
	dropped := 0
	c.dropped = func() { dropped++ }

	require.NoError(t, c.Send(event.Button0Down))
	require.NoError(t, c.Send(event.Button0Up))
	assert.ErrorIs(t, c.Send(event.Button1Down), ErrControlQueueFull)
	assert.ErrorIs(t, c.Press(2), ErrControlQueueFull)
	assert.Equal(t, 2, dropped)

	assert.Equal(t, []event.Event{event.Button0Down, event.Button0Up}, drained(c))
}

func TestControlsPress(t *testing.T) {
	c := NewControls(3)
	require.NoError(t, c.Press(3))
	assert.Equal(t, []event.Event{event.Button3Down, event.Button3Up}, drained(c))

	assert.Error(t, c.Press(-1))
	assert.Error(t, c.Press(event.NumButtons))

	// One slot left after a pair: the second press must not be split.
	require.NoError(t, c.Send(event.Button0Down))
	require.NoError(t, c.Send(event.Button0Up))
	assert.ErrorIs(t, c.Press(1), ErrControlQueueFull)
	assert.Equal(t, 2, c.Len())
}

func TestControlsConcurrentPressesStayPaired(t *testing.T) {
	c := NewControls(1024)
	var wg sync.WaitGroup
	for button := range event.NumButtons {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				_ = c.Press(button)
			}
		}()
	}
	wg.Wait()

	got := drained(c)
	require.Len(t, got, 2*50*event.NumButtons)
	for i := 0; i < len(got); i += 2 {
		require.Equal(t, got[i].Button(), got[i+1].Button(), "pair at %d", i)
		require.True(t, got[i].IsButtonDown())
	}
}
