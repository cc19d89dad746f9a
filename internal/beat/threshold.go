// SPDX-License-Identifier: MIT
package beat

// DefaultRelaxRate is how fast the adaptive threshold follows its target, per second.
const DefaultRelaxRate = 2.0

// DefaultInitialThreshold seeds the adaptive threshold before any history exists.
const DefaultInitialThreshold = 0.15

// Lerp interpolates linearly between a and b by t without clamping t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp01 clamps v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp clamps v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	if v >= lo {
		return v
	}
	return lo
}

// AdaptiveThreshold is a smoothed, variance-aware detection boundary. Each
// update relaxes it toward mean + variance*VarianceWeight of the band history,
// so it rises with sustained loud passages and falls back during quiet ones.
type AdaptiveThreshold struct {
	value          float64
	varianceWeight float64
	relaxRate      float64
}

// NewAdaptiveThreshold returns a threshold starting at initial.
func NewAdaptiveThreshold(initial, varianceWeight, relaxRate float64) *AdaptiveThreshold {
	return &AdaptiveThreshold{value: initial, varianceWeight: varianceWeight, relaxRate: relaxRate}
}

// Value returns the current threshold.
func (t *AdaptiveThreshold) Value() float64 { return t.value }

// Target is the value the threshold relaxes toward for the given history.
func (t *AdaptiveThreshold) Target(h *History) float64 {
	avg, variance := h.Stats()
	return avg + variance*t.varianceWeight
}

// Update relaxes the threshold toward its target by clamp01(dt*relaxRate).
// An empty history leaves the threshold untouched.
func (t *AdaptiveThreshold) Update(h *History, dt float64) {
	if h.Len() == 0 {
		return
	}
	t.value = Lerp(t.value, t.Target(h), Clamp01(dt*t.relaxRate))
}

// Reset restores the threshold to initial.
func (t *AdaptiveThreshold) Reset(initial float64) {
	t.value = initial
}
