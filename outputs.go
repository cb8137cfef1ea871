// SPDX-License-Identifier: MIT
package main

import (
	"time"

	"audiodemo/internal/app"
	"audiodemo/internal/audio"
	"audiodemo/internal/config"
	applog "audiodemo/internal/log"
	"audiodemo/internal/metrics"
	"audiodemo/internal/midi"
	"audiodemo/internal/transport"
	"audiodemo/internal/transport/udp"
	"audiodemo/internal/tui"
)

// outputs holds what startOutputs opened outside the dispatcher. Sinks
// registered with the dispatcher are closed when the engine closes.
type outputs struct {
	panel *tui.Panel
	stops []func()
}

// Close stops the UDP publisher and its sender, newest first.
func (o *outputs) Close() {
	for i := len(o.stops) - 1; i >= 0; i-- {
		o.stops[i]()
	}
	o.stops = nil
}

// startOutputs opens the LED outputs and button sources the configuration
// asks for. The fallible network setup runs before any sink is attached,
// and everything already opened is released when a later step fails.
func startOutputs(cfg *config.Config, variant app.Variant, engine *audio.Engine, m *metrics.Metrics) (*outputs, error) {
	o := &outputs{}
	dispatcher := engine.Dispatcher()

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return nil, err
		}
		o.stops = append(o.stops, func() { sender.Close() })
		publisher, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender, engine.LEDs(), uint8(variant))
		if err != nil {
			o.Close()
			return nil, err
		}
		publisher.Start()
		o.stops = append(o.stops, func() { publisher.Stop() })
	}

	var ws *transport.WebSocketTransport
	if cfg.Transport.WSEnabled || cfg.Metrics.Enabled {
		wsOpts := transport.WebSocketOptions{
			Address: cfg.Transport.WSAddress,
			LEDs:    engine.LEDs(),
		}
		if cfg.Transport.WSEnabled {
			wsOpts.Controls = engine.Controls()
		}
		if cfg.Metrics.Enabled {
			wsOpts.Metrics = m
			wsOpts.MetricsPath = cfg.Metrics.Path
		}
		ws = transport.NewWebSocketTransport(wsOpts)
		if err := ws.Start(); err != nil {
			o.Close()
			return nil, err
		}
	}

	// Nothing below can fail, so sinks are attached from here on.
	if cfg.Transport.LogEvents {
		dispatcher.AddSink("log", transport.NewLoggingTransport())
	}
	if ws != nil {
		dispatcher.AddSink("websocket", ws)
	}

	if cfg.Control.MIDIEnabled {
		ctrl, err := midi.Open(engine.Controls(), midi.Options{
			InPort:   cfg.Control.MIDIIn,
			OutPort:  cfg.Control.MIDIOut,
			BaseNote: uint8(cfg.Control.MIDIBaseNote),
		})
		if err != nil {
			applog.Warnf("MIDI control disabled: %v", err)
		} else {
			dispatcher.AddSink("midi", ctrl)
		}
	}

	if cfg.Control.TUI {
		o.panel = tui.NewPanel(tui.Options{
			Title:    variant.String(),
			Labels:   cfg.LEDLabels(),
			Controls: engine.Controls(),
			LEDs:     engine.LEDs(),
			Recorder: engine,
			NextPath: func() string {
				return audio.RecordingPath(cfg.Recording.OutputDir, time.Now())
			},
		})
		dispatcher.AddSink("tui", o.panel)
	}

	return o, nil
}

// undetectableTargets returns the pitch targets below the lowest frequency
// the detector's lag range can resolve, and that floor. Their LEDs never
// light.
func undetectableTargets(sampleRate float64, opts app.PitchOptions) ([]float32, float64) {
	a := opts.Analysis
	floor := sampleRate / float64(max(a.Downsampling, 1)) / float64(max(a.LagCount, 1))
	var low []float32
	for _, f := range opts.Targets {
		if float64(f) < floor {
			low = append(low, f)
		}
	}
	return low, floor
}
