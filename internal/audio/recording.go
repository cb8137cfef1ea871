// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// RecordingPath returns a timestamped WAV path inside dir.
func RecordingPath(dir string, now time.Time) string {
	return filepath.Join(dir, "recording-"+now.Format("20060102-150405")+".wav")
}

// StartRecording captures the app's mono output to a PCM WAV file at the
// configured bit depth.
func (e *Engine) StartRecording(filename string) error {
	e.recMu.Lock()
	defer e.recMu.Unlock()

	if e.isRecording.Load() {
		return fmt.Errorf("already recording")
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create recording directory: %w", err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	e.outputFile = file

	bitDepth := e.config.Recording.BitDepth
	sampleRate := int(e.config.Audio.SampleRate)
	e.wavEncoder = wav.NewEncoder(file, sampleRate, bitDepth, 1, 1)

	e.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, e.config.Audio.FramesPerBuffer),
		SourceBitDepth: bitDepth,
	}
	e.sampleScale = float64(int64(1)<<(bitDepth-1) - 1)

	e.isRecording.Store(true)
	e.log.Infof("Recording to %s", filename)

	return nil
}

// StopRecording finalises the WAV header and closes the file. It is a
// no-op when not recording.
func (e *Engine) StopRecording() error {
	e.recMu.Lock()
	defer e.recMu.Unlock()

	if !e.isRecording.Load() {
		return nil
	}

	e.isRecording.Store(false)

	if e.wavEncoder != nil {
		if err := e.wavEncoder.Close(); err != nil {
			return err
		}
		e.wavEncoder = nil
	}

	if e.outputFile != nil {
		name := e.outputFile.Name()
		if err := e.outputFile.Close(); err != nil {
			return err
		}
		e.outputFile = nil
		e.log.Infof("Recording saved to %s", name)
	}

	return nil
}

// IsRecording reports whether output is being captured.
func (e *Engine) IsRecording() bool {
	return e.isRecording.Load()
}

// writeRecording is called from the audio callback. A frame arriving while
// a Start or Stop holds the lock is skipped rather than waited for.
func (e *Engine) writeRecording(frame []float32) {
	if !e.isRecording.Load() {
		return
	}
	if !e.recMu.TryLock() {
		return
	}
	defer e.recMu.Unlock()
	if e.wavEncoder == nil {
		return
	}

	data := e.sampleBuf.Data[:cap(e.sampleBuf.Data)]
	n := min(len(frame), len(data))
	for i, v := range frame[:n] {
		v = min(max(v, -1), 1)
		data[i] = int(float64(v) * e.sampleScale)
	}
	e.sampleBuf.Data = data[:n]

	if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
		e.log.Errorf("Error writing to WAV file: %v", err)
	}
}
