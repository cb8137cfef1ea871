// SPDX-License-Identifier: MIT
package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiodemo/internal/analysis"
	"audiodemo/internal/event"
	"audiodemo/pkg/utils"
)

// scriptedNovelty reports one queued score per Process call.
type scriptedNovelty struct {
	scores []float32
}

func (s *scriptedNovelty) Process(_ []float32, fn analysis.NoveltyFunc) {
	if len(s.scores) == 0 {
		return
	}
	fn(analysis.NoveltyResult{Value: s.scores[0]})
	s.scores = s.scores[1:]
}

func TestNoveltyTriggerDebounces(t *testing.T) {
	det := &scriptedNovelty{scores: []float32{
		0, 0.001, // quiet
		0.02, 0.03, 0.01, // one onset held above threshold
		0.005,      // at threshold re-arms
		0.006,      // second onset
		0.004, 0.1, // third onset
	}}
	n, err := NewNoveltyTrigger(testRate, NoveltyOptions{Detector: det})
	require.NoError(t, err)
	assert.True(t, n.Armed())
	assert.False(t, n.LED())

	var got []event.Event
	for range 9 {
		n.Process(nil, nil)
		got = append(got, drain(n)...)
	}
	assert.Equal(t, []event.Event{event.LED0On, event.LED0Off, event.LED0On}, got)
	assert.True(t, n.LED())
	assert.False(t, n.Armed())
}

func TestNoveltyTriggerThresholdOption(t *testing.T) {
	det := &scriptedNovelty{scores: []float32{0.02, 0.2}}
	n, err := NewNoveltyTrigger(testRate, NoveltyOptions{Detector: det, Threshold: 0.1})
	require.NoError(t, err)

	n.Process(nil, nil)
	assert.Empty(t, drain(n))
	n.Process(nil, nil)
	assert.Equal(t, []event.Event{event.LED0On}, drain(n))

	_, err = NewNoveltyTrigger(testRate, NoveltyOptions{Threshold: -1})
	assert.Error(t, err)
}

func TestNoveltyTriggerWithSpectralFlux(t *testing.T) {
	const rate = 16000
	n, err := NewNoveltyTrigger(rate, NoveltyOptions{})
	require.NoError(t, err)

	// Two bursts of a bin-centred tone, each starting on a window boundary.
	hop := 256
	signal := make([]float32, 16*hop)
	copy(signal[2*hop:], utils.SineWave(4*hop, rate, 500, 0.9))
	copy(signal[10*hop:], utils.SineWave(4*hop, rate, 500, 0.9))

	out := make([]float32, 256)
	var got []event.Event
	for _, frame := range utils.Frames(signal, 256) {
		n.Process(frame, out)
		got = append(got, drain(n)...)
	}
	assert.Equal(t, []event.Event{event.LED0On, event.LED0Off}, got)
}

func TestNoveltyTriggerHotPath(t *testing.T) {
	n, err := NewNoveltyTrigger(16000, NoveltyOptions{})
	require.NoError(t, err)
	in := utils.ComplexWave(256, 16000)
	out := make([]float32, 256)

	n.Process(in, out)
	allocs := testing.AllocsPerRun(100, func() {
		n.Process(in, out)
		for {
			if _, ok := n.NextOutgoingEvent(); !ok {
				break
			}
		}
	})
	assert.Zero(t, allocs, "Expected zero allocations in novelty trigger")
}
