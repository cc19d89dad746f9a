// SPDX-License-Identifier: MIT
package beat

import "math"

const (
	// Epsilon is the history average at or below which intensity falls back to DefaultIntensity.
	Epsilon = 0.001
	// DefaultIntensity is reported when the energy ratio is undefined.
	DefaultIntensity = 50.0

	intensityScale = 25.0
	minIntensity   = 1.0
	maxIntensity   = 100.0
)

// Intensity scores a beat by how far energy exceeds the history average.
func Intensity(energy, average float64) float64 {
	if average <= Epsilon || math.IsNaN(average) {
		return DefaultIntensity
	}
	return Clamp(energy/average*intensityScale, minIntensity, maxIntensity)
}

// Detector decides, for a single band, whether a beat occurred. It exclusively
// owns the band's history, adaptive threshold and cooldown state.
//
// A Detector is Armed until it fires, then Cooling until the dynamic cooldown
// measured from the last beat has elapsed.
type Detector struct {
	band      Band
	settings  Settings
	history   *History
	threshold *AdaptiveThreshold
	cooldown  CooldownPolicy

	fired    bool
	lastBeat float64
	energy   float64 // Most recent observed energy.
}

// NewDetector builds a detector for band. Settings are sanitized silently;
// callers that want the warnings call Settings.Sanitize first.
func NewDetector(band Band, s Settings) *Detector {
	s.Sanitize()
	if band.SuddenIncreaseMultiplier == 0 {
		band.SuddenIncreaseMultiplier = DefaultSuddenIncrease(band.ID)
	}
	return &Detector{
		band:      band,
		settings:  s,
		history:   NewHistory(s.HistorySize),
		threshold: NewAdaptiveThreshold(s.InitialThreshold, s.VarianceWeight, s.RelaxRate),
		cooldown:  NewCooldownPolicy(s.MinCooldown, s.MaxCooldown),
	}
}

func (d *Detector) Band() Band               { return d.band }
func (d *Detector) History() *History        { return d.history }
func (d *Detector) Threshold() float64       { return d.threshold.Value() }
func (d *Detector) Cooldown() CooldownPolicy { return d.cooldown }
func (d *Detector) Energy() float64          { return d.energy }

// LastBeat returns the time of the most recent beat, false before the first.
func (d *Detector) LastBeat() (float64, bool) {
	return d.lastBeat, d.fired
}

// SinceLastBeat returns now minus the last beat time, +Inf before the first beat.
func (d *Detector) SinceLastBeat(now float64) float64 {
	if !d.fired {
		return math.Inf(1)
	}
	return now - d.lastBeat
}

// Armed reports whether the cooldown allows a beat at now.
func (d *Detector) Armed(now float64) bool {
	if !d.fired {
		return true
	}
	return d.cooldown.Ready(now, d.lastBeat)
}

// Observe records energy into the history and relaxes the threshold by dt.
func (d *Detector) Observe(energy, dt float64) {
	d.energy = energy
	d.history.Push(energy)
	d.threshold.Update(d.history, dt)
}

// Evaluate tests energy at time now against the history as it stands and
// fires if every condition holds. On fire the band enters its cooldown.
func (d *Detector) Evaluate(now, energy float64) (Event, bool) {
	if !d.band.Valid() {
		return Event{}, false
	}
	if d.history.Len() < d.settings.MinHistory {
		return Event{}, false
	}
	if !d.Armed(now) {
		return Event{}, false
	}

	avg := Epsilon
	if d.history.Len() > 0 {
		avg = d.history.Average()
	}
	limit := max(d.threshold.Value(), avg*d.band.ThresholdMultiplier) * d.settings.Sensitivity * d.band.Weight
	spike := energy > limit
	sudden := energy > avg*d.band.SuddenIncreaseMultiplier
	if !spike || !sudden {
		return Event{}, false
	}

	d.fired = true
	d.lastBeat = now
	return Event{
		Band:      d.band.ID,
		Intensity: Intensity(energy, avg),
		Energy:    energy,
		Time:      now,
	}, true
}

// Process runs one tick. The new energy is judged against the history and
// threshold of the preceding ticks, then recorded. A sample must never be part
// of the average it is compared with.
func (d *Detector) Process(now, dt, energy float64) (Event, bool) {
	ev, ok := d.Evaluate(now, energy)
	d.Observe(energy, dt)
	return ev, ok
}

// Reset clears history, cooldown and threshold.
func (d *Detector) Reset() {
	d.history.Reset()
	d.threshold.Reset(d.settings.InitialThreshold)
	d.fired = false
	d.lastBeat = 0
	d.energy = 0
}
