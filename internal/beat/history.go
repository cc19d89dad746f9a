// SPDX-License-Identifier: MIT
package beat

import "gonum.org/v1/gonum/stat"

// History is a fixed-capacity FIFO of recent band energies backed by a ring
// buffer. Statistics are population statistics over the current contents, so a
// single sample has variance 0.
type History struct {
	values []float64
	next   int // Slot the next Push writes.
	count  int
}

// NewHistory creates a history holding up to size samples. Sizes below 1 are
// raised to 1.
func NewHistory(size int) *History {
	return &History{values: make([]float64, max(size, 1))}
}

// Push appends v, evicting the oldest sample once the history is full.
func (h *History) Push(v float64) {
	h.values[h.next] = v
	h.next = (h.next + 1) % len(h.values)
	if h.count < len(h.values) {
		h.count++
	}
}

// Len returns the number of samples held, min(pushes, Cap()).
func (h *History) Len() int { return h.count }

// Cap returns the configured capacity.
func (h *History) Cap() int { return len(h.values) }

// window returns the live samples. Until the ring wraps they occupy
// values[:count]; afterwards every slot is live. Order is irrelevant to the
// statistics computed over it.
func (h *History) window() []float64 {
	return h.values[:h.count]
}

// Stats returns the mean and population variance of the contents. An empty
// history reports (0, 0).
func (h *History) Stats() (mean, variance float64) {
	if h.count == 0 {
		return 0, 0
	}
	return stat.PopMeanVariance(h.window(), nil)
}

// Average returns the mean of the contents, 0 when empty.
func (h *History) Average() float64 {
	if h.count == 0 {
		return 0
	}
	return stat.Mean(h.window(), nil)
}

// Variance returns sum((x-avg)^2)/count, 0 when empty.
func (h *History) Variance() float64 {
	_, v := h.Stats()
	return v
}

// Values returns a copy of the contents, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, 0, h.count)
	start := (h.next - h.count + len(h.values)) % len(h.values)
	for i := range h.count {
		out = append(out, h.values[(start+i)%len(h.values)])
	}
	return out
}

// Reset empties the history without reallocating.
func (h *History) Reset() {
	h.next = 0
	h.count = 0
}
