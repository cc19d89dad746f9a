// SPDX-License-Identifier: MIT
package beat

const (
	// DefaultFastWindow is the beat spacing below which the minimum cooldown applies.
	DefaultFastWindow = 0.6
	// DefaultRelaxSpan is how many seconds past the fast window the cooldown
	// takes to reach its maximum.
	DefaultRelaxSpan = 2.0
)

// CooldownPolicy sizes the re-trigger interval of a band from the time since
// its last beat. Closely spaced beats keep the cooldown at Min; sparse beats
// relax it toward Max.
type CooldownPolicy struct {
	Min float64
	Max float64

	FastWindow float64
	RelaxSpan  float64
}

// NewCooldownPolicy returns a policy with the stock fast window and relax span.
// A max below min is raised to min.
func NewCooldownPolicy(minCooldown, maxCooldown float64) CooldownPolicy {
	return CooldownPolicy{
		Min:        minCooldown,
		Max:        max(minCooldown, maxCooldown),
		FastWindow: DefaultFastWindow,
		RelaxSpan:  DefaultRelaxSpan,
	}
}

// Duration returns the cooldown for a band whose last beat was elapsed seconds ago.
// The result is always within [Min, Max].
func (p CooldownPolicy) Duration(elapsed float64) float64 {
	hi := max(p.Min, p.Max)
	if elapsed < p.FastWindow {
		return p.Min
	}
	t := 1.0
	if p.RelaxSpan > 0 {
		t = Clamp01((elapsed - p.FastWindow) / p.RelaxSpan)
	}
	return Clamp(Lerp(p.Min, hi, t), p.Min, hi)
}

// Ready reports whether a band that last fired at lastBeat may fire at now.
func (p CooldownPolicy) Ready(now, lastBeat float64) bool {
	elapsed := now - lastBeat
	return elapsed >= p.Duration(elapsed)
}
