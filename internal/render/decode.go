// SPDX-License-Identifier: MIT
package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// ErrUnsupportedFormat is returned for files whose extension has no decoder.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Clip is a decoded file reduced to its first channel, matching what the
// live host hands the app.
type Clip struct {
	SampleRate int
	Channels   int // channel count of the source file
	Samples    []float32
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Decode reads a .wav, .mp3 or .ogg file.
func Decode(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var clip *Clip
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		clip, err = decodeWAV(f)
	case ".mp3":
		clip, err = decodeMP3(f)
	case ".ogg", ".oga":
		clip, err = decodeVorbis(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return clip, nil
}

func decodeWAV(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("not a valid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	channels := buf.Format.NumChannels
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	// 8-bit WAV is unsigned, everything wider is signed.
	var offset float32
	scale := float32(int64(1) << (bitDepth - 1))
	if bitDepth == 8 {
		offset = 128
	}

	samples := make([]float32, len(buf.Data)/channels)
	for i := range samples {
		samples[i] = (float32(buf.Data[i*channels]) - offset) / scale
	}
	return &Clip{SampleRate: buf.Format.SampleRate, Channels: channels, Samples: samples}, nil
}

// mp3Channels is fixed: go-mp3 always produces interleaved stereo.
const mp3Channels = 2

func decodeMP3(r io.Reader) (*Clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}
	return &Clip{
		SampleRate: dec.SampleRate(),
		Channels:   mp3Channels,
		Samples:    firstChannelPCM16(pcm, mp3Channels),
	}, nil
}

// firstChannelPCM16 converts interleaved 16-bit little-endian PCM to
// float samples of channel 0.
func firstChannelPCM16(pcm []byte, channels int) []float32 {
	stride := 2 * channels
	samples := make([]float32, len(pcm)/stride)
	for i := range samples {
		low := uint16(pcm[i*stride])
		high := uint16(pcm[i*stride+1])
		samples[i] = float32(int16(low|high<<8)) / 32768.0
	}
	return samples
}

func decodeVorbis(r io.Reader) (*Clip, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if format.Channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", format.Channels)
	}
	samples := make([]float32, len(data)/format.Channels)
	for i := range samples {
		samples[i] = data[i*format.Channels]
	}
	return &Clip{SampleRate: format.SampleRate, Channels: format.Channels, Samples: samples}, nil
}
