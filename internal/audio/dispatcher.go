// SPDX-License-Identifier: MIT
package audio

import (
	"sync"
	"time"

	"github.com/smallnest/ringbuffer"

	"audiodemo/internal/event"
	applog "audiodemo/internal/log"
	"audiodemo/internal/metrics"
	"audiodemo/internal/transport"
)

// DefaultDispatchInterval is how often the dispatcher polls for LED events.
const DefaultDispatchInterval = 5 * time.Millisecond

type sink struct {
	name string
	t    transport.Transport
}

// Dispatcher moves LED events from the audio callback to the registered
// sinks. The callback writes event bytes into a ring buffer without
// blocking; a dispatcher goroutine polls it on a ticker, updates the LED
// mirror and fans each event out in arrival order.
//
// The app pops its outgoing queue newest first, so events raised within
// one frame reach the sinks in reverse order of emission.
type Dispatcher struct {
	rb       *ringbuffer.RingBuffer
	leds     *transport.LEDState
	metrics  *metrics.Metrics
	interval time.Duration
	log      *applog.Logger

	sinks []sink
	buf   []byte

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewDispatcher creates a dispatcher buffering up to size events. m may
// be nil.
func NewDispatcher(size int, leds *transport.LEDState, m *metrics.Metrics) *Dispatcher {
	if leds == nil {
		leds = &transport.LEDState{}
	}
	return &Dispatcher{
		rb:       ringbuffer.New(size),
		leds:     leds,
		metrics:  m,
		interval: DefaultDispatchInterval,
		log:      applog.With("dispatcher"),
		buf:      make([]byte, size),
	}
}

// AddSink registers a sink. Sinks must be added before Start.
func (d *Dispatcher) AddSink(name string, t transport.Transport) {
	d.sinks = append(d.sinks, sink{name: name, t: t})
}

// LEDs returns the LED mirror the dispatcher maintains.
func (d *Dispatcher) LEDs() *transport.LEDState {
	return d.leds
}

// push is called from the audio callback. It never blocks; it reports
// false when the buffer is full and the event is lost.
func (d *Dispatcher) push(ev event.Event) bool {
	return d.rb.WriteByte(byte(ev)) == nil
}

// Start launches the dispatch goroutine. Calling Start on a running
// dispatcher is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	if d.ticker != nil {
		d.mu.Unlock()
		return
	}
	d.ticker = time.NewTicker(d.interval)
	d.doneChan = make(chan struct{})
	d.stopOnce = sync.Once{}
	ticker := d.ticker
	doneChan := d.doneChan
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ticker.C:
				d.dispatch()
			case <-doneChan:
				// Deliver whatever the last frames produced.
				d.dispatch()
				return
			}
		}
	}()
}

// Stop ends the dispatch goroutine after a final flush and closes every
// sink. It is safe to call Stop more than once.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if d.ticker == nil {
		d.mu.Unlock()
		return nil
	}
	d.stopOnce.Do(func() {
		close(d.doneChan)
		d.ticker.Stop()
		d.ticker = nil
	})
	d.mu.Unlock()
	d.wg.Wait()

	var firstErr error
	for _, s := range d.sinks {
		if err := s.t.Close(); err != nil {
			d.log.Warnf("Closing sink %s: %v", s.name, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// dispatch drains the ring buffer once.
func (d *Dispatcher) dispatch() {
	for {
		n, err := d.rb.Read(d.buf)
		if n == 0 || err != nil {
			return
		}
		for _, b := range d.buf[:n] {
			d.deliver(event.Event(b))
		}
	}
}

func (d *Dispatcher) deliver(ev event.Event) {
	if d.leds.Apply(ev) && d.metrics != nil {
		d.metrics.SetLED(ev.LEDIndex(), ev.LEDIsOn())
	}
	for _, s := range d.sinks {
		if err := s.t.Send(ev); err != nil {
			d.log.Warnf("Sink %s failed to send %s: %v", s.name, ev, err)
			if d.metrics != nil {
				d.metrics.SinkError(s.name)
			}
		}
	}
}
