// SPDX-License-Identifier: MIT

//go:build pitch && !novelty

package app

// SelectedVariant is the variant compiled into the native library.
const SelectedVariant = VariantPitch

// Selected is the concrete type behind SelectedVariant.
type Selected = PitchTracker

// NewSelected constructs the selected variant with default options. The
// defaults are valid, so a failure here is a programming error.
func NewSelected(sampleRate float32) *Selected {
	t, err := NewPitchTracker(sampleRate, PitchOptions{})
	if err != nil {
		panic(err)
	}
	return t
}
