// SPDX-License-Identifier: MIT
// Package metrics exposes the live host's counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"audiodemo/internal/event"
)

// Metrics holds the host's collectors. Methods called from the audio
// callback (ObserveFrame, ObserveEvent and the drop counters) only touch
// pre-resolved children and do not allocate.
type Metrics struct {
	registry *prometheus.Registry

	framesTotal     prometheus.Counter
	processDuration prometheus.Histogram
	gateClosed      prometheus.Counter
	controlsDropped prometheus.Counter
	ledsDropped     prometheus.Counter
	eventsTotal     *prometheus.CounterVec
	ledState        *prometheus.GaugeVec
	sinkErrors      *prometheus.CounterVec
	wsClients       prometheus.Gauge

	// Children of eventsTotal and ledState indexed by event code / LED.
	events [event.LED3Off + 1]prometheus.Counter
	leds   [event.NumLEDs]prometheus.Gauge
}

// New creates the collectors and registers them with registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.framesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audiodemo_frames_processed_total",
		Help: "Frames passed to the demo app",
	})
	m.processDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "audiodemo_process_duration_seconds",
		Help:    "Time spent in one audio callback",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 12), // 10us to ~20ms
	})
	m.gateClosed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audiodemo_gate_closed_frames_total",
		Help: "Input frames silenced by the noise gate",
	})
	m.controlsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audiodemo_controls_dropped_total",
		Help: "Button events rejected because the control queue was full",
	})
	m.ledsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "audiodemo_leds_dropped_total",
		Help: "LED events lost between the audio callback and the dispatcher",
	})
	m.eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiodemo_events_total",
			Help: "Events exchanged with the demo app",
		},
		[]string{"event"},
	)
	m.ledState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "audiodemo_led_on",
			Help: "Current LED state (1 = on)",
		},
		[]string{"led"},
	)
	m.sinkErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiodemo_sink_errors_total",
			Help: "Failed LED event deliveries per sink",
		},
		[]string{"sink"},
	)
	m.wsClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "audiodemo_websocket_clients",
		Help: "Connected WebSocket control clients",
	})

	for code := event.Button0Down; code <= event.LED3Off; code++ {
		m.events[code] = m.eventsTotal.WithLabelValues(code.String())
	}
	for i := range m.leds {
		m.leds[i] = m.ledState.WithLabelValues(strconv.Itoa(i))
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.framesTotal.Describe(ch)
	m.processDuration.Describe(ch)
	m.gateClosed.Describe(ch)
	m.controlsDropped.Describe(ch)
	m.ledsDropped.Describe(ch)
	m.eventsTotal.Describe(ch)
	m.ledState.Describe(ch)
	m.sinkErrors.Describe(ch)
	m.wsClients.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.framesTotal.Collect(ch)
	m.processDuration.Collect(ch)
	m.gateClosed.Collect(ch)
	m.controlsDropped.Collect(ch)
	m.ledsDropped.Collect(ch)
	m.eventsTotal.Collect(ch)
	m.ledState.Collect(ch)
	m.sinkErrors.Collect(ch)
	m.wsClients.Collect(ch)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// ObserveFrame records one processed frame and the time it took.
func (m *Metrics) ObserveFrame(d time.Duration) {
	m.framesTotal.Inc()
	m.processDuration.Observe(d.Seconds())
}

// ObserveEvent counts a button event delivered to the app or an LED event
// taken from it. Unknown codes are ignored.
func (m *Metrics) ObserveEvent(ev event.Event) {
	if ev.Valid() {
		m.events[ev].Inc()
	}
}

// GateClosed counts an input frame silenced by the gate.
func (m *Metrics) GateClosed() { m.gateClosed.Inc() }

// ControlDropped counts a rejected button event.
func (m *Metrics) ControlDropped() { m.controlsDropped.Inc() }

// LEDDropped counts a lost LED event.
func (m *Metrics) LEDDropped() { m.ledsDropped.Inc() }

// SetLED mirrors LED i.
func (m *Metrics) SetLED(i int, on bool) {
	if i < 0 || i >= len(m.leds) {
		return
	}
	v := 0.0
	if on {
		v = 1
	}
	m.leds[i].Set(v)
}

// SinkError counts a failed delivery to the named sink.
func (m *Metrics) SinkError(sink string) {
	m.sinkErrors.WithLabelValues(sink).Inc()
}

// ClientConnected and ClientDisconnected track WebSocket clients.
func (m *Metrics) ClientConnected()    { m.wsClients.Inc() }
func (m *Metrics) ClientDisconnected() { m.wsClients.Dec() }
