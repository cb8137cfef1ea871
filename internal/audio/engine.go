// SPDX-License-Identifier: MIT
/*
Package audio hosts a demo app on a live PortAudio duplex stream:
- Channel 0 of the input is handed to the app, its mono output is copied
  to every output channel
- Button events from control surfaces arrive through a lock-free byte queue
  drained at the top of each callback
- LED events leave through a second queue to a dispatcher goroutine
- Optional noise gate on the input and WAV capture of the output

Thread Safety:
- The app is only ever touched from the audio callback
- Uses atomic operations for gate and recording state
- Pre-allocates buffers to avoid GC in hot path
- Locks OS thread during audio processing
*/
package audio

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"audiodemo/internal/app"
	"audiodemo/internal/config"
	"audiodemo/internal/event"
	applog "audiodemo/internal/log"
	"audiodemo/internal/metrics"
	"audiodemo/internal/transport"
)

// ledQueueSize bounds LED events waiting for the dispatcher.
const ledQueueSize = 256

type Engine struct {
	// Core configuration and state.
	config  *config.Config
	log     *applog.Logger
	app     *app.Demo
	metrics *metrics.Metrics

	// Event plumbing between control surfaces, the callback and the sinks.
	controls    *Controls
	dispatcher  *Dispatcher
	handleEvent func(event.Event) // bound once, avoids a closure per callback

	// Audio device handling.
	inputDevice   *portaudio.DeviceInfo
	outputDevice  *portaudio.DeviceInfo
	inputLatency  time.Duration
	outputLatency time.Duration
	stream        *portaudio.Stream

	inChannels  int
	outChannels int
	monitor     bool

	// Pre-allocated per-callback buffers.
	mono []float32 // Channel 0 of the input
	out  []float32 // Mono output of the app

	// Noise gate for signal conditioning.
	gateEnabled   atomic.Bool
	gateThreshold atomic.Uint32 // float32 bits, peak level in [0, 1]

	// Recording state and buffers.
	isRecording atomic.Bool
	recMu       sync.Mutex // Held by Start/StopRecording; the callback only tries it
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
	sampleScale float64
}

// NewEngine prepares an engine for demo. No device is opened until
// StartStream. m may be nil.
func NewEngine(cfg *config.Config, demo *app.Demo, m *metrics.Metrics) (*Engine, error) {
	if demo == nil {
		return nil, fmt.Errorf("engine requires a demo app")
	}
	frames := cfg.Audio.FramesPerBuffer
	if frames <= 0 || frames > app.MaxFrameSize {
		return nil, fmt.Errorf("frames per buffer %d outside [1, %d]", frames, app.MaxFrameSize)
	}

	engine := &Engine{
		config:      cfg,
		log:         applog.With("engine"),
		app:         demo,
		metrics:     m,
		controls:    NewControls(cfg.Control.QueueSize),
		inChannels:  max(cfg.Audio.InputChannels, 1),
		outChannels: max(cfg.Audio.OutputChannels, 1),
		monitor:     cfg.Audio.Monitor,
		mono:        make([]float32, frames),
		out:         make([]float32, frames),
	}
	engine.dispatcher = NewDispatcher(ledQueueSize, &transport.LEDState{}, m)
	engine.handleEvent = engine.deliverControl
	if m != nil {
		engine.controls.dropped = m.ControlDropped
	}

	engine.SetGateThreshold(cfg.Gate.Threshold)
	if cfg.Gate.Enabled {
		engine.EnableGate()
	}
	return engine, nil
}

// Controls returns the queue control surfaces write button events to.
func (e *Engine) Controls() *Controls { return e.controls }

// Dispatcher returns the LED dispatcher; register sinks before Start.
func (e *Engine) Dispatcher() *Dispatcher { return e.dispatcher }

// LEDs returns the LED mirror maintained by the dispatcher.
func (e *Engine) LEDs() *transport.LEDState { return e.dispatcher.LEDs() }

// Variant reports which demo app the engine runs.
func (e *Engine) Variant() app.Variant { return e.app.Variant() }

// Start launches the dispatcher and opens the audio stream.
func (e *Engine) Start() error {
	e.dispatcher.Start()
	if err := e.StartStream(); err != nil {
		e.dispatcher.Stop()
		return err
	}
	return nil
}

// StartStream resolves the configured devices and starts a duplex stream.
func (e *Engine) StartStream() error {
	var err error
	if e.inputDevice, err = InputDevice(e.config.Audio.InputDevice); err != nil {
		return fmt.Errorf("input device: %w", err)
	}
	if e.outputDevice, err = OutputDevice(e.config.Audio.OutputDevice); err != nil {
		return fmt.Errorf("output device: %w", err)
	}

	if e.config.Audio.LowLatency {
		e.inputLatency = e.inputDevice.DefaultLowInputLatency
		e.outputLatency = e.outputDevice.DefaultLowOutputLatency
	} else {
		e.inputLatency = e.inputDevice.DefaultHighInputLatency
		e.outputLatency = e.outputDevice.DefaultHighOutputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.inChannels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: e.outChannels,
			Device:   e.outputDevice,
			Latency:  e.outputLatency,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processStream)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	e.stream = stream

	if err := e.stream.Start(); err != nil {
		e.stream.Close()
		e.stream = nil
		return fmt.Errorf("failed to start stream: %w", err)
	}

	e.log.Infof("Running %s on %q -> %q (%.0f Hz, %d frames, in %s / out %s)",
		e.app.Variant(), e.inputDevice.Name, e.outputDevice.Name,
		e.config.Audio.SampleRate, e.config.Audio.FramesPerBuffer,
		e.inputLatency, e.outputLatency)
	return nil
}

func (e *Engine) StopStream() error {
	if e.stream != nil {
		if err := e.stream.Stop(); err != nil {
			return err
		}

		if err := e.stream.Close(); err != nil {
			return err
		}

		e.stream = nil
	}

	return nil
}

// Close stops the stream, finishes any recording and flushes the
// dispatcher, closing its sinks.
func (e *Engine) Close() error {
	if err := e.StopStream(); err != nil {
		return err
	}

	if err := e.StopRecording(); err != nil {
		return err
	}

	return e.dispatcher.Stop()
}

// processStream is the PortAudio callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
func (e *Engine) processStream(in, out []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	start := time.Now()
	e.processFrame(in, out)
	if e.metrics != nil {
		e.metrics.ObserveFrame(time.Since(start))
	}
}

// processFrame runs one interleaved callback buffer through the app:
// deinterleave, gate, deliver pending buttons, process, collect LEDs,
// duplicate to all output channels, capture.
func (e *Engine) processFrame(in, out []float32) {
	n := min(len(in)/e.inChannels, len(out)/e.outChannels, len(e.mono))
	mono := e.mono[:n]
	for i := range mono {
		mono[i] = in[i*e.inChannels]
	}

	if e.gateEnabled.Load() && peakLevel(mono) < e.gateLevel() {
		clear(mono)
		if e.metrics != nil {
			e.metrics.GateClosed()
		}
	}

	e.controls.drain(e.handleEvent)

	frame := e.out[:n]
	if e.monitor {
		copy(frame, mono)
	} else {
		clear(frame)
	}
	e.app.Process(mono, frame)

	for {
		ev, ok := e.app.NextOutgoingEvent()
		if !ok {
			break
		}
		if e.metrics != nil {
			e.metrics.ObserveEvent(ev)
		}
		if !e.dispatcher.push(ev) && e.metrics != nil {
			e.metrics.LEDDropped()
		}
	}

	for i, v := range frame {
		for c := range e.outChannels {
			out[i*e.outChannels+c] = v
		}
	}
	clear(out[n*e.outChannels:])

	e.writeRecording(frame)
}

// deliverControl hands one queued button event to the app.
func (e *Engine) deliverControl(ev event.Event) {
	if e.metrics != nil {
		e.metrics.ObserveEvent(ev)
	}
	e.app.HandleEvent(ev)
}
