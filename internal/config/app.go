// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"slices"

	"audiodemo/internal/analysis"
	"audiodemo/internal/app"
	"audiodemo/internal/dsp"
	"audiodemo/internal/event"
)

// AppOptions converts the variant sections into the options NewDemo takes.
// The configuration must have passed Validate.
func (c *Config) AppOptions() (app.Variant, app.Options, error) {
	variant, err := app.ParseVariant(c.Variant)
	if err != nil {
		return 0, app.Options{}, err
	}

	window, err := analysis.ParseWindowFunc(c.Novelty.Window)
	if err != nil {
		return 0, app.Options{}, fmt.Errorf("novelty window: %w", err)
	}

	targets := c.pitchTargets()

	pitch := analysis.DefaultPitchOptions()
	pitch.WindowSize = c.Pitch.WindowSize
	pitch.HopSize = c.Pitch.WindowSize
	pitch.LagCount = c.Pitch.LagCount

	novelty := analysis.DefaultNoveltyOptions()
	novelty.Window = window

	opts := app.Options{
		Looper: app.LooperOptions{
			RecordBufferSize: c.Looper.RecordBufferSize,
			QueueSize:        c.Looper.QueueSize,
			ToneFrequency:    float32(c.Looper.ToneFrequency),
			Filter:           dsp.NewNLMS(c.Looper.FilterOrder, c.Looper.FilterStep, c.Looper.FilterEpsilon),
		},
		Pitch: app.PitchOptions{
			Analysis:  pitch,
			Targets:   targets,
			Tolerance: float32(c.Pitch.Tolerance),
		},
		Novelty: app.NoveltyOptions{
			Analysis:  novelty,
			Threshold: float32(c.Novelty.Threshold),
		},
	}
	return variant, opts, nil
}

// LEDLabels names the four LEDs of the configured variant for display.
// Unused LEDs get an empty label.
func (c *Config) LEDLabels() [event.NumLEDs]string {
	var labels [event.NumLEDs]string
	variant, err := app.ParseVariant(c.Variant)
	if err != nil {
		return labels
	}
	switch variant {
	case app.VariantLooper:
		labels = [event.NumLEDs]string{"tone", "filter", "record", "play"}
	case app.VariantPitch:
		for i, f := range c.pitchTargets() {
			if i < event.NumLEDs {
				labels[i] = fmt.Sprintf("%.0f Hz", f)
			}
		}
	case app.VariantNovelty:
		labels[0] = "onset"
	}
	return labels
}

// pitchTargets returns the frequencies the pitch tracker will match. An
// empty list selects app.DefaultTargets.
func (c *Config) pitchTargets() []float32 {
	if len(c.Pitch.Targets) == 0 {
		return slices.Clone(app.DefaultTargets[:])
	}
	targets := make([]float32, len(c.Pitch.Targets))
	for i, f := range c.Pitch.Targets {
		targets[i] = float32(f)
	}
	return targets
}
