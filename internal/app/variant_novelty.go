// SPDX-License-Identifier: MIT

//go:build novelty && !pitch

package app

// SelectedVariant is the variant compiled into the native library.
const SelectedVariant = VariantNovelty

// Selected is the concrete type behind SelectedVariant.
type Selected = NoveltyTrigger

// NewSelected constructs the selected variant with default options.
func NewSelected(sampleRate float32) *Selected {
	n, err := NewNoveltyTrigger(sampleRate, NoveltyOptions{})
	if err != nil {
		panic(err)
	}
	return n
}
