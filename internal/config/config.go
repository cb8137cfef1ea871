package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the demo host.
const (
	// Audio defaults
	DefaultDeviceID        = MinDeviceID // System default device
	DefaultSampleRate      = 48000
	DefaultFramesPerBuffer = 256 // Half the app's maximum frame
	DefaultChannels        = 1
	DefaultVariant         = "looper"
	DefaultLogLevel        = "info"

	// Control and transport defaults
	DefaultControlQueueSize = 64
	DefaultMIDIBaseNote     = 60 // C4 presses button 0
	DefaultWSAddress        = "127.0.0.1:8080"
	DefaultUDPTarget        = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 100 * time.Millisecond
	DefaultMetricsPath      = "/metrics"

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MaxChannels   = 32
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug mode (forces debug logging).
	LogLevel  string          `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").
	Variant   string          `yaml:"variant"`   // Demo to run: "looper", "pitch" or "novelty".
	Audio     AudioConfig     `yaml:"audio"`     // Audio device settings.
	Looper    LooperConfig    `yaml:"looper"`    // Looper variant settings.
	Pitch     PitchConfig     `yaml:"pitch"`     // Pitch tracker variant settings.
	Novelty   NoveltyConfig   `yaml:"novelty"`   // Novelty trigger variant settings.
	Gate      GateConfig      `yaml:"gate"`      // Input noise gate.
	Recording RecordingConfig `yaml:"recording"` // WAV capture of the output.
	Control   ControlConfig   `yaml:"control"`   // Button inputs (TUI, MIDI).
	Transport TransportConfig `yaml:"transport"` // LED outputs (WebSocket, UDP, log).
	Metrics   MetricsConfig   `yaml:"metrics"`   // Prometheus exposition.
}

// AudioConfig holds settings related to audio input/output.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for audio input (-1 for default).
	OutputDevice    int     `yaml:"output_device"`     // PortAudio device index for audio output (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz (e.g., 44100, 48000).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per callback, at most the app's maximum frame size.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio device.
	InputChannels   int     `yaml:"input_channels"`    // Channels captured; only channel 0 reaches the app.
	OutputChannels  int     `yaml:"output_channels"`   // Channels played; the mono output is copied to each.
	Monitor         bool    `yaml:"monitor"`           // Pass the input through to the output under the app's contribution.
}

// LooperConfig holds the looper variant settings.
type LooperConfig struct {
	RecordBufferSize int     `yaml:"record_buffer_size"` // Loop length in samples.
	ToneFrequency    float64 `yaml:"tone_frequency"`     // Test tone carrier in Hz.
	QueueSize        int     `yaml:"queue_size"`         // Outgoing LED event capacity.
	FilterOrder      int     `yaml:"filter_order"`       // NLMS taps.
	FilterStep       float64 `yaml:"filter_step"`        // NLMS step size (mu).
	FilterEpsilon    float64 `yaml:"filter_epsilon"`     // NLMS regularisation.
}

// PitchConfig holds the pitch tracker variant settings.
type PitchConfig struct {
	Targets   []float64 `yaml:"targets"`   // Up to four frequencies in Hz, one per LED.
	Tolerance  float64   `yaml:"tolerance"`   // Match tolerance in Hz.
	WindowSize int       `yaml:"window_size"` // Analysis window in decimated samples.
	LagCount   int       `yaml:"lag_count"`   // Longest lag searched; raise it for low targets at high sample rates.
}

// NoveltyConfig holds the novelty trigger variant settings.
type NoveltyConfig struct {
	Threshold float64 `yaml:"threshold"` // Onset threshold on the novelty score.
	Window    string  `yaml:"window"`    // Analysis window function (e.g., "hann", "hamming").
}

// GateConfig configures the host-side input noise gate.
type GateConfig struct {
	Enabled   bool    `yaml:"enabled"`   // Silence input frames whose peak is under Threshold.
	Threshold float64 `yaml:"threshold"` // Peak level in [0, 1].
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Capture the host output to a WAV file.
	OutputDir string `yaml:"output_dir"` // Directory to save recorded audio files.
	BitDepth  int    `yaml:"bit_depth"`  // 16, 24 or 32.
}

// ControlConfig configures the button inputs.
type ControlConfig struct {
	QueueSize    int    `yaml:"queue_size"`     // Pending button events between control goroutines and the audio callback.
	TUI          bool   `yaml:"tui"`            // Run the terminal control panel.
	MIDIEnabled  bool   `yaml:"midi_enabled"`   // Map MIDI notes to buttons and LEDs.
	MIDIIn       string `yaml:"midi_in"`        // Input port name substring ("" for the first port).
	MIDIOut      string `yaml:"midi_out"`       // Output port name substring ("" disables LED feedback).
	MIDIBaseNote int    `yaml:"midi_base_note"` // Note of button/LED 0; the next three notes follow.
}

// TransportConfig holds settings for publishing LED events.
type TransportConfig struct {
	LogEvents        bool          `yaml:"log_events"`         // Log every LED event.
	WSEnabled        bool          `yaml:"ws_enabled"`         // Serve the WebSocket control surface.
	WSAddress        string        `yaml:"ws_address"`         // Listen address for the WebSocket and metrics server.
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send periodic LED status packets over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between sending UDP packets.
}

// MetricsConfig configures Prometheus exposition on the WebSocket server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NewConfig returns the built-in defaults. LoadConfig starts from these.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Variant:  DefaultVariant,
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			OutputDevice:    DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultChannels,
			OutputChannels:  2,
		},
		Looper: LooperConfig{
			RecordBufferSize: 4000,
			ToneFrequency:    440,
			QueueSize:        16,
			FilterOrder:      10,
			FilterStep:       0.1,
			FilterEpsilon:    1e-4,
		},
		Pitch: PitchConfig{
			Targets:   []float64{440, 330, 262, 392},
			Tolerance:  1,
			WindowSize: 128,
			LagCount:   64,
		},
		Novelty: NoveltyConfig{
			Threshold: 0.005,
			Window:    "hann",
		},
		Gate: GateConfig{
			Enabled:   false,
			Threshold: 0.001,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: "./recordings",
			BitDepth:  16,
		},
		Control: ControlConfig{
			QueueSize:    DefaultControlQueueSize,
			TUI:          true,
			MIDIBaseNote: DefaultMIDIBaseNote,
		},
		Transport: TransportConfig{
			LogEvents:        true,
			WSAddress:        DefaultWSAddress,
			UDPTargetAddress: DefaultUDPTarget,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
		Metrics: MetricsConfig{
			Path: DefaultMetricsPath,
		},
	}
}
