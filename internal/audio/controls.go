// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/smallnest/ringbuffer"

	"audiodemo/internal/event"
)

// ErrControlQueueFull is returned when a button event cannot be queued
// because the audio callback has not drained the queue.
var ErrControlQueueFull = errors.New("control queue full")

// Controls carries button events from control surfaces (terminal, WebSocket,
// MIDI) to the audio callback, one byte per event. Any goroutine may Send;
// only the audio callback drains.
type Controls struct {
	rb      *ringbuffer.RingBuffer
	mu      sync.Mutex // serialises producers
	dropped func()
}

// NewControls creates a queue holding up to size pending events.
func NewControls(size int) *Controls {
	return &Controls{rb: ringbuffer.New(size)}
}

// Send queues a button event. Other events are rejected.
func (c *Controls) Send(ev event.Event) error {
	if !ev.IsButton() {
		return fmt.Errorf("%s is not a button event", ev)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.rb.WriteByte(byte(ev)); err != nil {
		if c.dropped != nil {
			c.dropped()
		}
		if errors.Is(err, ringbuffer.ErrIsFull) {
			return ErrControlQueueFull
		}
		return fmt.Errorf("failed to queue %s: %w", ev, err)
	}
	return nil
}

// Press queues ButtonNDown followed by ButtonNUp, the way a physical
// button reports a short press. Both events are queued or neither is.
func (c *Controls) Press(button int) error {
	if button < 0 || button >= event.NumButtons {
		return fmt.Errorf("button %d out of range [0, %d)", button, event.NumButtons)
	}
	pair := [2]byte{byte(event.ButtonDown(button)), byte(event.ButtonUp(button))}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rb.Free() < len(pair) {
		if c.dropped != nil {
			c.dropped()
		}
		return ErrControlQueueFull
	}
	if _, err := c.rb.Write(pair[:]); err != nil {
		if errors.Is(err, ringbuffer.ErrIsFull) {
			return ErrControlQueueFull
		}
		return fmt.Errorf("failed to queue button %d: %w", button, err)
	}
	return nil
}

// Len returns the number of pending events.
func (c *Controls) Len() int {
	return c.rb.Length()
}

// drain hands every pending event to fn in arrival order.
func (c *Controls) drain(fn func(event.Event)) {
	for {
		b, err := c.rb.ReadByte()
		if err != nil {
			return
		}
		fn(event.Event(b))
	}
}
