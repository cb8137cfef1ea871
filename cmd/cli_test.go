// SPDX-License-Identifier: MIT
package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiodemo/internal/config"
)

func TestParseArgsDefaults(t *testing.T) {
	inv, err := ParseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, CommandRun, inv.Command)
	assert.Equal(t, config.NewConfig(), inv.Config)
	assert.Empty(t, inv.RecordFile)
}

func TestParseArgsFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
variant: pitch
audio:
  sample_rate: 44100
  frames_per_buffer: 128
  monitor: true
`), 0o644))

	inv, err := ParseArgs([]string{"run", "--config", path,
		"-s", "96000", "-d", "3", "--output-device", "5", "--variant", "Novelty",
		"--gate", "0.05", "--no-tui", "--udp", "127.0.0.1:7000", "-v"})
	require.NoError(t, err)

	cfg := inv.Config
	assert.Equal(t, "novelty", cfg.Variant)
	assert.Equal(t, 96000.0, cfg.Audio.SampleRate)
	assert.Equal(t, 128, cfg.Audio.FramesPerBuffer, "file value kept")
	assert.True(t, cfg.Audio.Monitor, "file value kept")
	assert.Equal(t, 3, cfg.Audio.InputDevice)
	assert.Equal(t, 5, cfg.Audio.OutputDevice)
	assert.True(t, cfg.Gate.Enabled)
	assert.Equal(t, 0.05, cfg.Gate.Threshold)
	assert.False(t, cfg.Control.TUI)
	assert.True(t, cfg.Transport.UDPEnabled)
	assert.Equal(t, "127.0.0.1:7000", cfg.Transport.UDPTargetAddress)
	assert.True(t, cfg.Debug)
}

func TestParseArgsRecording(t *testing.T) {
	inv, err := ParseArgs([]string{"--record"})
	require.NoError(t, err)
	assert.True(t, inv.Config.Recording.Enabled)
	assert.True(t, strings.HasPrefix(filepath.Base(inv.RecordFile), "recording-"))
	assert.Equal(t, ".wav", filepath.Ext(inv.RecordFile))

	inv, err = ParseArgs([]string{"-r", "-o", "take.wav"})
	require.NoError(t, err)
	assert.Equal(t, "take.wav", inv.RecordFile)
}

func TestParseArgsList(t *testing.T) {
	inv, err := ParseArgs([]string{"list"})
	require.NoError(t, err)
	assert.Equal(t, CommandList, inv.Command)
}

func TestParseArgsRender(t *testing.T) {
	inv, err := ParseArgs([]string{"render", "songs/riff.mp3", "--script", "cues.yaml",
		"--events", "leds.yaml", "--tail", "2s", "-m", "looper"})
	require.NoError(t, err)
	assert.Equal(t, CommandRender, inv.Command)
	assert.Equal(t, RenderArgs{
		Input:    "songs/riff.mp3",
		Output:   filepath.Join("songs", "riff-looper.wav"),
		Script:   "cues.yaml",
		EventLog: "leds.yaml",
		Tail:     2 * time.Second,
	}, inv.Render)

	inv, err = ParseArgs([]string{"render", "in.wav", "-o", "out.wav", "--record"})
	require.NoError(t, err)
	assert.Equal(t, "out.wav", inv.Render.Output)
	assert.Empty(t, inv.RecordFile, "render never captures the live output")

	_, err = ParseArgs([]string{"render"})
	assert.Error(t, err)
	_, err = ParseArgs([]string{"render", "in.wav", "--tail", "-1s"})
	assert.Error(t, err)
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"Unknown variant", []string{"--variant", "reverb"}},
		{"Frames too large", []string{"-b", "4096"}},
		{"Bad UDP address", []string{"--udp", "nowhere"}},
		{"Unknown flag", []string{"--bogus"}},
		{"Missing config", []string{"--config", "/nonexistent/config.yaml"}},
		{"Stray argument", []string{"extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseArgsVersion(t *testing.T) {
	inv, err := ParseArgs([]string{"--version"})
	require.NoError(t, err)
	assert.Empty(t, inv.Command, "nothing to run after printing the version")
}
