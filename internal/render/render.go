// SPDX-License-Identifier: MIT

// Package render runs a demo app over a decoded file instead of a live
// stream. Button events come from a script keyed by frame index; the LED
// events the app raises are collected with the frame that produced them.
package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"audiodemo/internal/app"
	applog "audiodemo/internal/log"
)

var log = applog.With("render")

// Options control an offline run.
type Options struct {
	FrameSize  int    // samples per Process call, at most app.MaxFrameSize
	TailFrames int    // silent frames appended after the input
	Script     Script // button cues, ordered by frame
}

// Result is the app's mono output and the LED events it raised.
type Result struct {
	Output []float32
	LEDs   []Cue
	Frames int
}

// Render feeds in to demo frame by frame. Cues for frame f are delivered
// before frame f is processed, the way the live host drains its control
// queue at the top of each callback. Cues past the last frame are ignored.
func Render(demo *app.Demo, in []float32, opts Options) (*Result, error) {
	if demo == nil {
		return nil, fmt.Errorf("render requires a demo app")
	}
	if opts.FrameSize <= 0 || opts.FrameSize > app.MaxFrameSize {
		return nil, fmt.Errorf("frame size %d outside [1, %d]", opts.FrameSize, app.MaxFrameSize)
	}
	if opts.TailFrames < 0 {
		return nil, fmt.Errorf("negative tail frames %d", opts.TailFrames)
	}

	total := len(in) + opts.TailFrames*opts.FrameSize
	res := &Result{Output: make([]float32, total)}
	silence := make([]float32, opts.FrameSize)
	script := opts.Script

	for start := 0; start < total; start += opts.FrameSize {
		frame := res.Frames
		for len(script) > 0 && script[0].Frame <= frame {
			if script[0].Frame == frame {
				demo.HandleEvent(script[0].Event)
			}
			script = script[1:]
		}

		end := min(start+opts.FrameSize, total)
		input := silence[:end-start]
		if start < len(in) {
			n := copy(input, in[start:min(end, len(in))])
			clear(input[n:])
		}

		demo.Process(input, res.Output[start:end])
		for {
			ev, ok := demo.NextOutgoingEvent()
			if !ok {
				break
			}
			res.LEDs = append(res.LEDs, Cue{Frame: frame, Event: ev})
		}
		res.Frames++
	}

	if len(script) > 0 {
		log.Warnf("%d cue(s) after the last frame %d were not delivered", len(script), res.Frames-1)
	}
	if dropped := demo.Dropped(); dropped > 0 {
		log.Warnf("App dropped %d outgoing event(s)", dropped)
	}
	return res, nil
}

// WriteWAV stores mono samples as PCM, clipping to full scale.
func WriteWAV(path string, samples []float32, sampleRate, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	scale := float64(int64(1)<<(bitDepth-1) - 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: bitDepth,
	}
	for i, v := range samples {
		v = min(max(v, -1), 1)
		buf.Data[i] = int(float64(v) * scale)
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, 1, 1)
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalise WAV: %w", err)
	}
	return f.Close()
}
