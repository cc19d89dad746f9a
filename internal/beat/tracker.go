// SPDX-License-Identifier: MIT
package beat

import (
	"time"

	"rhythm/internal/log"
)

// DefaultWarningInterval throttles the missing-input diagnostic.
const DefaultWarningInterval = 5 * time.Second

// Tracker runs one Detector per band in a fixed order each tick and publishes
// the resulting events. It is single-threaded: Tick must not be called
// concurrently.
type Tracker struct {
	detectors  []*Detector
	sampleRate float64
	pub        Publisher

	seq    uint64
	now    float64
	states []BandState
	store  *SnapshotStore

	missing *log.Throttle
	details *log.Throttle
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithSnapshots publishes a Snapshot into store after every tick.
func WithSnapshots(store *SnapshotStore) Option {
	return func(t *Tracker) { t.store = store }
}

// WithDetailedLogging logs the band state every interval.
func WithDetailedLogging(interval time.Duration) Option {
	return func(t *Tracker) { t.details = log.NewThrottle(interval) }
}

// WithWarningInterval sets how often missing input is reported.
func WithWarningInterval(interval time.Duration) Option {
	return func(t *Tracker) { t.missing = log.NewThrottle(interval) }
}

// NewTracker creates detectors for bands, in the given order. Configuration
// anomalies are logged once here; they never prevent construction.
func NewTracker(bands []Band, s Settings, sampleRate float64, pub Publisher, opts ...Option) *Tracker {
	for _, w := range s.Sanitize() {
		log.Warnf("detection: %s", w)
	}
	if len(bands) == 0 {
		log.Warnf("detection: no bands configured, nothing will be detected")
	}
	if sampleRate <= 0 {
		log.Warnf("detection: sample rate %.1f is not positive, every band is silent", sampleRate)
	}

	t := &Tracker{
		sampleRate: sampleRate,
		pub:        pub,
		states:     make([]BandState, len(bands)),
		missing:    log.NewThrottle(DefaultWarningInterval),
	}
	for i, b := range bands {
		for _, w := range CheckBand(b) {
			log.Warnf("detection: %s", w)
		}
		d := NewDetector(b, s)
		t.detectors = append(t.detectors, d)
		t.states[i] = BandState{Band: b.ID, Name: b.Name(), SinceLastBeat: -1}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Detectors returns the per-band detectors in processing order.
func (t *Tracker) Detectors() []*Detector { return t.detectors }

// Detector returns the detector for id, or nil.
func (t *Tracker) Detector(id BandID) *Detector {
	for _, d := range t.detectors {
		if d.band.ID == id {
			return d
		}
	}
	return nil
}

// LastBeat returns the last beat time of band id, false if it never fired.
func (t *Tracker) LastBeat(id BandID) (float64, bool) {
	d := t.Detector(id)
	if d == nil {
		return 0, false
	}
	return d.LastBeat()
}

// Tick processes one spectrum frame at session time now, dt seconds after the
// previous tick. Bands are processed in order; each band's event is published
// before the next band is examined. It returns the number of beats fired.
//
// An empty spectrum means no input this tick: nothing is detected and a
// throttled warning is logged.
func (t *Tracker) Tick(now, dt float64, spectrum []float64) int {
	if len(spectrum) == 0 {
		log.WarnEvery(t.missing, log.Seconds(now), "detection: no spectrum input, beat detection paused")
		return 0
	}

	fired := 0
	for _, d := range t.detectors {
		energy := BandEnergy(spectrum, t.sampleRate, d.band)
		ev, ok := d.Process(now, dt, energy)
		if !ok {
			continue
		}
		fired++
		log.Debugf("detection: %s", ev)
		if t.pub != nil {
			t.pub.Publish(ev)
		}
	}

	t.snapshot(now)
	return fired
}

// Idle reports that the source is not producing audio. Detection state is
// kept so playback can resume where it left off.
func (t *Tracker) Idle(now float64, reason string) {
	log.WarnEvery(t.missing, log.Seconds(now), "detection: %s, beat detection paused", reason)
}

func (t *Tracker) snapshot(now float64) {
	t.seq++
	t.now = now
	for i, d := range t.detectors {
		st := &t.states[i]
		st.Energy = d.energy
		st.Threshold = d.threshold.Value()
		st.Average = d.history.Average()
		st.HistoryLen = d.history.Len()
		st.Armed = d.Armed(now)
		st.SinceLastBeat = -1
		if d.fired {
			st.SinceLastBeat = now - d.lastBeat
		}
	}

	snap := Snapshot{Seq: t.seq, Time: now, Bands: t.states}
	if t.store != nil {
		t.store.Store(snap)
	}
	if t.details.Allow(log.Seconds(now)) {
		log.Infof("detection: %s", snap)
	}
}

// Snapshot returns the state after the most recent tick. The Bands slice is a copy.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{Seq: t.seq, Time: t.now, Bands: append([]BandState(nil), t.states...)}
}

// Reset clears every detector.
func (t *Tracker) Reset() {
	for _, d := range t.detectors {
		d.Reset()
	}
	t.missing.Reset()
}
