// SPDX-License-Identifier: MIT
package transport

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"audiodemo/internal/event"
	applog "audiodemo/internal/log"
)

func TestLEDStateApply(t *testing.T) {
	var s LEDState

	assert.True(t, s.Apply(event.LED2On))
	assert.False(t, s.Apply(event.LED2On), "repeated event does not change state")
	assert.True(t, s.On(2))
	assert.Equal(t, uint8(0b0100), s.Mask())

	assert.True(t, s.Apply(event.LED0On))
	assert.Equal(t, uint8(0b0101), s.Mask())

	assert.True(t, s.Apply(event.LED2Off))
	assert.False(t, s.On(2))
	assert.Equal(t, uint8(0b0001), s.Mask())

	assert.False(t, s.Apply(event.Button0Down), "button events are ignored")
	assert.False(t, s.Apply(event.None))
}

func TestLEDStateSnapshot(t *testing.T) {
	var s LEDState
	s.Apply(event.LED1On)
	s.Apply(event.LED3On)

	assert.Equal(t,
		[event.NumLEDs]event.Event{event.LED0Off, event.LED1On, event.LED2Off, event.LED3On},
		s.Snapshot())
}

func TestLEDStateConcurrentApply(t *testing.T) {
	var s LEDState
	var wg sync.WaitGroup
	for i := range event.NumLEDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				s.Apply(event.LEDOn(i))
				s.Apply(event.LEDOff(i))
			}
			s.Apply(event.LEDOn(i))
		}()
	}
	wg.Wait()
	assert.Equal(t, uint8(0b1111), s.Mask())
}

func TestLoggingTransport(t *testing.T) {
	var buf strings.Builder
	applog.SetOutput(&buf)
	t.Cleanup(func() { applog.SetOutput(os.Stderr) })

	lt := NewLoggingTransport()
	assert.NoError(t, lt.Send(event.LED3On))
	assert.NoError(t, lt.Close())
	assert.Contains(t, buf.String(), "led: led3_on")
}
