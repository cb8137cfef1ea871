// SPDX-License-Identifier: MIT

//go:build !pitch && !novelty

package app

// SelectedVariant is the variant compiled into the native library. Build
// with -tags pitch or -tags novelty to pick another; the two tags are
// mutually exclusive.
const SelectedVariant = VariantLooper

// Selected is the concrete type behind SelectedVariant.
type Selected = Looper

// NewSelected constructs the selected variant with default options.
func NewSelected(sampleRate float32) *Selected {
	return NewLooper(sampleRate, LooperOptions{})
}
