// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"audiodemo/internal/analysis"
	"audiodemo/internal/app"
	"audiodemo/internal/event"
	applog "audiodemo/internal/log"

	"gopkg.in/yaml.v3"
)

// candidates are the locations searched when no path is given.
var candidates = []string{
	"config.yaml",
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		fail("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if _, err := app.ParseVariant(c.Variant); err != nil {
		fail("variant: %w", err)
	}

	// Audio
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		fail("audio.sample_rate %.0f outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer < 1 || c.Audio.FramesPerBuffer > app.MaxFrameSize {
		fail("audio.frames_per_buffer %d outside [1, %d]", c.Audio.FramesPerBuffer, app.MaxFrameSize)
	}
	if c.Audio.InputChannels < 1 || c.Audio.InputChannels > MaxChannels {
		fail("audio.input_channels %d outside [1, %d]", c.Audio.InputChannels, MaxChannels)
	}
	if c.Audio.OutputChannels < 1 || c.Audio.OutputChannels > MaxChannels {
		fail("audio.output_channels %d outside [1, %d]", c.Audio.OutputChannels, MaxChannels)
	}
	if c.Audio.InputDevice < MinDeviceID || c.Audio.OutputDevice < MinDeviceID {
		fail("audio device ids must be >= %d", MinDeviceID)
	}

	// Variants
	if c.Looper.RecordBufferSize < 1 {
		fail("looper.record_buffer_size must be positive")
	}
	if c.Looper.ToneFrequency <= 0 || c.Looper.ToneFrequency >= c.Audio.SampleRate/2 {
		fail("looper.tone_frequency %.1f must be in (0, sample_rate/2)", c.Looper.ToneFrequency)
	}
	if c.Looper.QueueSize < 1 {
		fail("looper.queue_size must be positive")
	}
	if c.Looper.FilterOrder < 1 || c.Looper.FilterStep <= 0 || c.Looper.FilterEpsilon <= 0 {
		fail("looper filter order, step and epsilon must be positive")
	}
	if len(c.Pitch.Targets) > event.NumLEDs {
		fail("pitch.targets has %d entries, at most %d", len(c.Pitch.Targets), event.NumLEDs)
	}
	if c.Pitch.Tolerance <= 0 {
		fail("pitch.tolerance must be positive")
	}
	if c.Pitch.LagCount < 3 || c.Pitch.LagCount > c.Pitch.WindowSize {
		fail("pitch.lag_count %d outside [3, window_size %d]", c.Pitch.LagCount, c.Pitch.WindowSize)
	}
	if c.Novelty.Threshold <= 0 {
		fail("novelty.threshold must be positive")
	}
	if _, err := analysis.ParseWindowFunc(c.Novelty.Window); err != nil {
		fail("novelty.window: %w", err)
	}

	// Host
	if c.Gate.Threshold < 0 || c.Gate.Threshold > 1 {
		fail("gate.threshold %.3f outside [0, 1]", c.Gate.Threshold)
	}
	switch c.Recording.BitDepth {
	case 16, 24, 32:
	default:
		fail("recording.bit_depth %d is not 16, 24 or 32", c.Recording.BitDepth)
	}
	if c.Recording.Enabled && c.Recording.OutputDir == "" {
		fail("recording.output_dir must be set when recording is enabled")
	}
	if c.Control.QueueSize < 1 {
		fail("control.queue_size must be positive")
	}
	if c.Control.MIDIBaseNote < 0 || c.Control.MIDIBaseNote+event.NumButtons-1 > 127 {
		fail("control.midi_base_note %d leaves the MIDI note range", c.Control.MIDIBaseNote)
	}

	// Transport Validation
	if c.Transport.UDPEnabled {
		if _, _, err := net.SplitHostPort(c.Transport.UDPTargetAddress); err != nil {
			fail("transport.udp_target_address %q: %w", c.Transport.UDPTargetAddress, err)
		}
		if c.Transport.UDPSendInterval <= 0 {
			fail("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if c.Transport.WSEnabled || c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Transport.WSAddress); err != nil {
			fail("transport.ws_address %q: %w", c.Transport.WSAddress, err)
		}
	}
	if c.Metrics.Enabled && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		fail("metrics.path %q must start with '/'", c.Metrics.Path)
	}

	return errors.Join(errs...)
}

// applyEnvOverrides applies ENV_* variables on top of file values. Values
// that fail to parse are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.

	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
			applog.Infof("configuration: Overriding debug from env: %v", bVal)
		} else {
			applog.Warnf("configuration: Ignoring ENV_DEBUG=%q: %v", val, err)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
		applog.Infof("configuration: Overriding log_level from env: %s", val)
	}
	// ENV_VARIANT
	if val, ok := os.LookupEnv("ENV_VARIANT"); ok {
		c.Variant = val
		applog.Infof("configuration: Overriding variant from env: %s", val)
	}

	// ENV_UDP_{...}
	// These are specific to the transport layer.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
			applog.Infof("configuration: Overriding transport.udp_enabled from env: %v", bVal)
		} else {
			applog.Warnf("configuration: Ignoring ENV_UDP_ENABLED=%q: %v", val, err)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		applog.Infof("configuration: Overriding transport.udp_target_address from env: %s", val)
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
			applog.Infof("configuration: Overriding transport.udp_send_interval from env: %s", dur)
		} else {
			applog.Warnf("configuration: Ignoring ENV_UDP_SEND_INTERVAL=%q: %v", val, err)
		}
	}
	// ENV_WS_ADDRESS
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		c.Transport.WSAddress = val
		applog.Infof("configuration: Overriding transport.ws_address from env: %s", val)
	}
}

// Level returns the effective log level; Debug forces LevelDebug.
func (c *Config) Level() applog.LogLevel {
	if c.Debug {
		return applog.LevelDebug
	}
	level, _ := applog.ParseLevel(c.LogLevel)
	return level
}
