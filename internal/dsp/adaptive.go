// SPDX-License-Identifier: MIT
package dsp

// AdaptiveFilter is the contract of an external adaptive filter used for
// feedback/echo cancellation. Update adapts the filter to remove the part of
// input that is predictable from reference and returns the residual.
type AdaptiveFilter interface {
	Update(reference, input float32) float32
	Reset()
}

// FilterAdapter is the integration point between the looper and an
// AdaptiveFilter. It holds the filter instance and nothing else.
type FilterAdapter struct {
	filter AdaptiveFilter
}

// NewFilterAdapter wraps filter.
func NewFilterAdapter(filter AdaptiveFilter) *FilterAdapter {
	return &FilterAdapter{filter: filter}
}

// Update forwards one reference/input sample pair to the filter.
func (a *FilterAdapter) Update(reference, input float32) float32 {
	return a.filter.Update(reference, input)
}

// Reset clears the filter's adaptation state.
func (a *FilterAdapter) Reset() {
	a.filter.Reset()
}
