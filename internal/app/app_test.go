// SPDX-License-Identifier: MIT
package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiodemo/internal/event"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in   string
		want Variant
	}{
		{"looper", VariantLooper},
		{"NLMS", VariantLooper},
		{"pitch", VariantPitch},
		{" mpm ", VariantPitch},
		{"Novelty", VariantNovelty},
		{"sfnov", VariantNovelty},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVariant(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseVariant("reverb")
	assert.Error(t, err)

	for _, v := range Variants {
		got, err := ParseVariant(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestDemoDispatchesToLooper(t *testing.T) {
	d, err := NewDemo(VariantLooper, testRate, Options{Looper: LooperOptions{RecordBufferSize: 4}})
	require.NoError(t, err)
	require.NotNil(t, d.Looper())
	assert.Equal(t, VariantLooper, d.Variant())

	d.HandleEvent(event.Button2Down)
	d.Process([]float32{1, 2, 3, 4}, make([]float32, 4))
	d.HandleEvent(event.Button3Down)
	out := make([]float32, 4)
	d.Process(make([]float32, 4), out)

	assert.Equal(t, []float32{1, 2, 3, 4}, out)
	assert.Equal(t, []event.Event{event.LED3On, event.LED2Off, event.LED2On}, drain(d))
	assert.Zero(t, d.Dropped())
}

func TestDemoDispatchesToDetectors(t *testing.T) {
	pitch := &scriptedPitch{}
	d, err := NewDemo(VariantPitch, testRate, Options{Pitch: PitchOptions{Detector: pitch}})
	require.NoError(t, err)
	assert.Nil(t, d.Looper())

	pitch.pending = append(pitch.pending, tone(392))
	d.Process(nil, nil)
	assert.Equal(t, []event.Event{event.LED3On}, drain(d))

	nov := &scriptedNovelty{scores: []float32{1}}
	d, err = NewDemo(VariantNovelty, testRate, Options{Novelty: NoveltyOptions{Detector: nov}})
	require.NoError(t, err)
	d.Process(nil, nil)
	assert.Equal(t, []event.Event{event.LED0On}, drain(d))
}

func TestNewDemoErrors(t *testing.T) {
	_, err := NewDemo(Variant(7), testRate, Options{})
	assert.Error(t, err)

	_, err = NewDemo(VariantPitch, testRate, Options{Pitch: PitchOptions{Tolerance: -2}})
	assert.ErrorContains(t, err, "pitch demo")
}

func TestNewSelected(t *testing.T) {
	var a App = NewSelected(testRate)
	require.NotNil(t, a)
	a.Process(make([]float32, MaxFrameSize), make([]float32, MaxFrameSize))
	assert.Contains(t, Variants, SelectedVariant)
}
