// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"audiodemo/cmd"
	"audiodemo/internal/app"
	"audiodemo/internal/audio"
	"audiodemo/internal/config"
	applog "audiodemo/internal/log"
	"audiodemo/internal/metrics"
	"audiodemo/internal/midi"
	"audiodemo/internal/render"
	"audiodemo/pkg/build"
)

// main is the entry point for the demo host.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments and load the configuration
//   - Execute one-off commands (device listing, offline render)
//
// 2. Concurrent Phase (Hot Path):
//   - Build the demo app and the audio engine
//   - Attach LED sinks and button sources
//   - Start the duplex stream and the optional recording
//   - Run the control panel or wait for a signal
//
// 3. Shutdown Phase (Cold Path):
//   - Stop the stream and finish the recording
//   - Flush pending LED events and close every sink
//   - Release PortAudio and the MIDI driver
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Initialize build information including version, commit hash, and build time
	if err := build.Initialize(); err != nil {
		applog.Fatal(err)
	}

	// Limit OS threads: the PortAudio callback runs on its own native
	// thread, the rest of the host shares two.
	runtime.GOMAXPROCS(2)

	inv, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		applog.Fatal(err)
	}
	if inv.Command == "" {
		return
	}
	applog.SetLevel(inv.Config.Level())

	// Offline rendering needs neither PortAudio nor MIDI
	if inv.Command == cmd.CommandRender {
		if err := renderFile(inv.Config, inv.Render); err != nil {
			applog.Fatal(err)
		}
		return
	}

	// Initialize PortAudio subsystem
	if err := audio.Initialize(); err != nil {
		applog.Fatal(err)
	}
	defer audio.Terminate()
	defer gomidi.CloseDriver()

	if inv.Command == cmd.CommandList {
		if err := audio.ListDevices(os.Stdout); err != nil {
			applog.Fatal(err)
		}
		midi.ListPorts(os.Stdout)
		return
	}

	if err := run(inv); err != nil {
		applog.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(inv *cmd.Invocation) error {
	cfg := inv.Config

	variant, opts, err := cfg.AppOptions()
	if err != nil {
		return err
	}
	demo, err := app.NewDemo(variant, float32(cfg.Audio.SampleRate), opts)
	if err != nil {
		return err
	}
	if variant == app.VariantPitch {
		low, floor := undetectableTargets(cfg.Audio.SampleRate, opts.Pitch)
		for _, f := range low {
			applog.Warnf("Pitch target %.0f Hz is below the %.0f Hz detection floor; raise pitch.lag_count", f, floor)
		}
	}

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}

	engine, err := audio.NewEngine(cfg, demo, m)
	if err != nil {
		return err
	}

	// The panel owns the terminal, so log lines go to a file while it runs
	if cfg.Control.TUI {
		logPath := filepath.Join(os.TempDir(), build.GetBuildFlags().Name+".log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		applog.SetOutput(f)
		defer applog.SetOutput(os.Stderr)
	}

	// LED sinks, button sources and status publishers
	outs, err := startOutputs(cfg, variant, engine, m)
	if err != nil {
		return err
	}
	defer outs.Close()
	panel := outs.panel

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// CRITICAL: Start of real-time audio processing
	// Once the stream starts PortAudio calls the callback for every
	// buffer, marking the start of the hot path
	if err := engine.Start(); err != nil {
		// Start stops the dispatcher on failure, which closes the sinks.
		return err
	}

	// Start recording if enabled in configuration
	if inv.RecordFile != "" {
		if err := engine.StartRecording(inv.RecordFile); err != nil {
			engine.Close()
			return err
		}
	}

	if panel != nil {
		go func() {
			<-ctx.Done()
			panel.Close()
		}()
		if err := panel.Run(); err != nil {
			applog.Errorf("Control panel: %v", err)
		}
	} else {
		fmt.Printf("Running the %s demo. Press Ctrl+C to stop, '%s --help' for usage information.\n",
			variant, build.GetBuildFlags().Name)
		<-ctx.Done()
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	wasRecording := engine.IsRecording()

	// Clean up audio engine resources
	if err := engine.Close(); err != nil {
		return fmt.Errorf("error closing audio engine: %w", err)
	}
	if wasRecording && inv.RecordFile != "" {
		fmt.Printf("\nRecording saved to: %s\n", inv.RecordFile)
	}
	return nil
}

// renderFile runs the configured demo over an audio file and writes the
// output next to it.
func renderFile(cfg *config.Config, args cmd.RenderArgs) error {
	clip, err := render.Decode(args.Input)
	if err != nil {
		return err
	}

	variant, opts, err := cfg.AppOptions()
	if err != nil {
		return err
	}
	demo, err := app.NewDemo(variant, float32(clip.SampleRate), opts)
	if err != nil {
		return err
	}

	var script render.Script
	if args.Script != "" {
		if script, err = render.LoadScript(args.Script); err != nil {
			return err
		}
	}

	frameSize := cfg.Audio.FramesPerBuffer
	tailSamples := int(args.Tail.Seconds() * float64(clip.SampleRate))
	result, err := render.Render(demo, clip.Samples, render.Options{
		FrameSize:  frameSize,
		TailFrames: (tailSamples + frameSize - 1) / frameSize,
		Script:     script,
	})
	if err != nil {
		return err
	}

	if err := render.WriteWAV(args.Output, result.Output, clip.SampleRate, cfg.Recording.BitDepth); err != nil {
		return err
	}
	applog.Infof("Rendered %s (%d frames, %d LED events) to %s",
		args.Input, result.Frames, len(result.LEDs), args.Output)

	if args.EventLog == "" {
		return nil
	}
	f, err := os.Create(args.EventLog)
	if err != nil {
		return fmt.Errorf("failed to create event log: %w", err)
	}
	if err := render.WriteCues(f, result.LEDs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
