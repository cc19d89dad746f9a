// SPDX-License-Identifier: MIT
package beat

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rhythm/internal/log"
)

func filled(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(nopWriter{}) })
	return &buf
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestTrackerPublishesInBandOrder(t *testing.T) {
	var got []Event
	tr := NewTracker(DefaultBands(), DefaultSettings(), testSampleRate, PublisherFunc(func(e Event) {
		got = append(got, e)
	}))

	quiet := filled(testBins, 0.01)
	const dt = 1.0 / 60
	for i := range 120 {
		require.Zero(t, tr.Tick(float64(i)*dt, dt, quiet))
	}

	n := tr.Tick(120*dt, dt, filled(testBins, 1))
	require.Equal(t, 3, n)
	require.Len(t, got, 3)
	assert.Equal(t, []BandID{Low, Mid, High}, []BandID{got[0].Band, got[1].Band, got[2].Band})
	for _, e := range got {
		assert.Equal(t, 100.0, e.Intensity)
		assert.InDelta(t, 120*dt, e.Time, 1e-12)
	}

	last, ok := tr.LastBeat(Mid)
	assert.True(t, ok)
	assert.InDelta(t, 120*dt, last, 1e-12)
}

func TestTrackerMissingInputIsThrottled(t *testing.T) {
	buf := captureLog(t)
	tr := NewTracker(DefaultBands(), DefaultSettings(), testSampleRate, nil, WithWarningInterval(5*time.Second))

	for i := range 600 { // Ten seconds at 60 Hz.
		assert.Zero(t, tr.Tick(float64(i)/60, 1.0/60, nil))
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "no spectrum input"))
}

func TestTrackerWarnsOnceForBadBand(t *testing.T) {
	buf := captureLog(t)
	bands := []Band{{ID: Low, MinHz: 300, MaxHz: 100, Weight: 1, ThresholdMultiplier: 1.6, SuddenIncreaseMultiplier: 1.3}}
	tr := NewTracker(bands, DefaultSettings(), testSampleRate, nil)
	for i := range 60 {
		assert.Zero(t, tr.Tick(float64(i)/60, 1.0/60, filled(testBins, float64(i))))
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "band is silent"))
}

func TestTrackerSnapshots(t *testing.T) {
	store := NewSnapshotStore()
	_, ok := store.Load()
	assert.False(t, ok)

	tr := NewTracker(DefaultBands(), DefaultSettings(), testSampleRate, nil, WithSnapshots(store))
	tr.Tick(0.5, 1.0/60, filled(testBins, 0.1))

	snap, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, uint64(1), snap.Seq)
	assert.Equal(t, 0.5, snap.Time)
	require.Len(t, snap.Bands, 3)
	for _, b := range snap.Bands {
		assert.InDelta(t, 0.01, b.Energy, 1e-12)
		assert.Equal(t, 1, b.HistoryLen)
		assert.Equal(t, -1.0, b.SinceLastBeat)
		assert.True(t, b.Armed)
	}
	assert.Equal(t, "low", snap.Bands[0].Name)
	assert.Contains(t, snap.String(), "last=never")

	own := tr.Snapshot()
	assert.Equal(t, snap.Time, own.Time)
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker(DefaultBands(), DefaultSettings(), testSampleRate, nil)
	tr.Tick(0, 1.0/60, filled(testBins, 0.1))
	tr.Reset()
	for _, d := range tr.Detectors() {
		assert.Zero(t, d.History().Len())
	}
	assert.Nil(t, tr.Detector(BandID(9)))
}

func TestTrackerTickHotPath(t *testing.T) {
	tr := NewTracker(DefaultBands(), DefaultSettings(), testSampleRate, nil, WithSnapshots(NewSnapshotStore()))
	quiet := filled(testBins, 0.01)
	now := 0.0
	tr.Tick(now, 1.0/60, quiet)
	allocs := testing.AllocsPerRun(100, func() {
		now += 1.0 / 60
		tr.Tick(now, 1.0/60, quiet)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Tracker.Tick without beats, got %.1f", allocs)
	}
}

func BenchmarkTrackerTick(b *testing.B) {
	tr := NewTracker(DefaultBands(), DefaultSettings(), testSampleRate, nil)
	spectrum := filled(testBins, 0.02)
	now := 0.0
	for b.Loop() {
		now += 1.0 / 60
		tr.Tick(now, 1.0/60, spectrum)
	}
}
