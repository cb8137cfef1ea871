// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"audiodemo/internal/audio"
	"audiodemo/internal/config"
	"audiodemo/pkg/build"
)

// Commands ParseArgs can select. An empty command means cobra already
// handled the invocation (help or version) and there is nothing to run.
const (
	CommandRun    = "run"
	CommandList   = "list"
	CommandRender = "render"
)

// Invocation is the parsed command line: which command to run and the
// configuration it runs with.
type Invocation struct {
	Command string
	Config  *config.Config

	// RecordFile is the capture path when recording is enabled at startup.
	RecordFile string

	Render RenderArgs
}

// RenderArgs are the arguments of the render command.
type RenderArgs struct {
	Input    string
	Output   string
	Script   string
	EventLog string
	Tail     time.Duration
}

// flagValues receives flag values before they are applied on top of the
// loaded configuration. Only flags the user set override the file.
type flagValues struct {
	configPath      string
	device          int
	inputDevice     int
	outputDevice    int
	inputChannels   int
	outputChannels  int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool
	monitor         bool
	variant         string
	gate            float64
	record          bool
	output          string
	verbose         bool
	noTUI           bool
	midiIn          string
	midiOut         string
	ws              string
	udp             string
	metrics         bool
}

// ParseArgs parses args (without the program name) and loads the
// configuration the selected command runs with.
func ParseArgs(args []string) (*Invocation, error) {
	buildInfo := build.GetBuildFlags()
	inv := &Invocation{}
	var f flagValues

	prepare := func(command string) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(f.configPath)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd.Flags(), &f, cfg); err != nil {
				return err
			}
			inv.Command = command
			inv.Config = cfg
			if cfg.Recording.Enabled {
				inv.RecordFile = f.output
				if inv.RecordFile == "" {
					inv.RecordFile = recordingFile(cfg)
				}
			}
			return nil
		}
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: prepare(CommandRun),
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Run command, the same as the root command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the selected demo on a live audio stream",
		Args:  cobra.NoArgs,
		RunE:  prepare(CommandRun),
	}
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices and MIDI ports",
		Args:  cobra.NoArgs,
		RunE:  prepare(CommandList),
	}
	rootCmd.AddCommand(listCmd)

	// Render command
	renderCmd := &cobra.Command{
		Use:   "render INPUT",
		Short: "Run the selected demo over an audio file (wav, mp3, ogg)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := prepare(CommandRender)(cmd, args); err != nil {
				return err
			}
			inv.RecordFile = ""
			inv.Render.Input = args[0]
			inv.Render.Output = f.output
			if inv.Render.Output == "" {
				inv.Render.Output = renderFile(args[0], inv.Config.Variant)
			}
			if inv.Render.Tail < 0 {
				return fmt.Errorf("--tail must not be negative")
			}
			return nil
		},
	}
	renderCmd.Flags().StringVar(&inv.Render.Script, "script", "",
		"YAML event script with button events per frame")
	renderCmd.Flags().StringVar(&inv.Render.EventLog, "events", "",
		"Write the LED events raised by the demo to this YAML file")
	renderCmd.Flags().DurationVar(&inv.Render.Tail, "tail", 0,
		"Silence appended after the input, e.g. 2s to hear a loop play out")
	rootCmd.AddCommand(renderCmd)

	flags := rootCmd.PersistentFlags()

	// Configuration file
	flags.StringVarP(&f.configPath, "config", "f", "",
		"Path to a YAML configuration file (default: ./config.yaml when present)")

	// Audio Device Configuration
	flags.IntVarP(&f.device, "device", "d", config.DefaultDeviceID,
		"Device ID for both input and output. Use 'list' command to see available devices.")
	flags.IntVar(&f.inputDevice, "input-device", config.DefaultDeviceID,
		"Input device ID, overrides --device")
	flags.IntVar(&f.outputDevice, "output-device", config.DefaultDeviceID,
		"Output device ID, overrides --device")
	flags.IntVarP(&f.inputChannels, "channels", "c", config.DefaultChannels,
		"Number of input channels to open; the demo hears channel 0")
	flags.IntVar(&f.outputChannels, "output-channels", 2,
		"Number of output channels; the demo output is copied to each")
	flags.Float64VarP(&f.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	flags.IntVarP(&f.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	flags.BoolVarP(&f.lowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")
	flags.BoolVar(&f.monitor, "monitor", false,
		"Pass the input through to the output underneath the demo")

	// Demo Configuration
	flags.StringVarP(&f.variant, "variant", "m", config.DefaultVariant,
		"Demo to run: looper, pitch or novelty")
	flags.Float64Var(&f.gate, "gate", 0,
		"Enable the input noise gate at this peak level (0.0-1.0)")

	// Recording Configuration
	flags.BoolVarP(&f.record, "record", "r", false,
		"Record the demo output to a WAV file")
	flags.StringVarP(&f.output, "output", "o", "",
		"Output file name. Default is <output_dir>/recording-YYYYMMDD-HHMMSS.wav")

	// Control surfaces and transports
	flags.BoolVar(&f.noTUI, "no-tui", false,
		"Disable the terminal control panel")
	flags.StringVar(&f.midiIn, "midi-in", "",
		"MIDI input port (name substring) whose notes press buttons")
	flags.StringVar(&f.midiOut, "midi-out", "",
		"MIDI output port (name substring) that mirrors the LEDs")
	flags.StringVar(&f.ws, "ws", "",
		"Serve the WebSocket control surface on this address")
	flags.StringVar(&f.udp, "udp", "",
		"Publish LED status packets to this UDP address")
	flags.BoolVar(&f.metrics, "metrics", false,
		"Expose Prometheus metrics on the control server")

	// Debug Configuration
	flags.BoolVarP(&f.verbose, "verbose", "v", false,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return inv, nil
}

// applyFlags copies every flag the user set onto cfg and validates the
// result.
func applyFlags(fs *pflag.FlagSet, f *flagValues, cfg *config.Config) error {
	set := fs.Changed

	if set("device") {
		cfg.Audio.InputDevice = f.device
		cfg.Audio.OutputDevice = f.device
	}
	if set("input-device") {
		cfg.Audio.InputDevice = f.inputDevice
	}
	if set("output-device") {
		cfg.Audio.OutputDevice = f.outputDevice
	}
	if set("channels") {
		cfg.Audio.InputChannels = f.inputChannels
	}
	if set("output-channels") {
		cfg.Audio.OutputChannels = f.outputChannels
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = f.sampleRate
	}
	if set("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = f.framesPerBuffer
	}
	if set("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if set("monitor") {
		cfg.Audio.Monitor = f.monitor
	}
	if set("variant") {
		cfg.Variant = strings.ToLower(f.variant)
	}
	if set("gate") {
		cfg.Gate.Enabled = f.gate > 0
		cfg.Gate.Threshold = f.gate
	}
	if set("record") {
		cfg.Recording.Enabled = f.record
	}
	if set("no-tui") {
		cfg.Control.TUI = !f.noTUI
	}
	if set("midi-in") {
		cfg.Control.MIDIEnabled = true
		cfg.Control.MIDIIn = f.midiIn
	}
	if set("midi-out") {
		cfg.Control.MIDIEnabled = true
		cfg.Control.MIDIOut = f.midiOut
	}
	if set("ws") {
		cfg.Transport.WSEnabled = f.ws != ""
		if f.ws != "" {
			cfg.Transport.WSAddress = f.ws
		}
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = f.udp != ""
		if f.udp != "" {
			cfg.Transport.UDPTargetAddress = f.udp
		}
	}
	if set("metrics") {
		cfg.Metrics.Enabled = f.metrics
	}
	if set("verbose") {
		cfg.Debug = f.verbose
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func recordingFile(cfg *config.Config) string {
	return audio.RecordingPath(cfg.Recording.OutputDir, time.Now())
}

// renderFile names the render output after its input, next to it.
func renderFile(input, variant string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "-" + variant + ".wav"
}
