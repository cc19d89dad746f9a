// SPDX-License-Identifier: MIT
package log

import "time"

// Throttle rate-limits a repeating diagnostic. It is keyed by the caller's
// clock (session time, not wall time) so a paused or fast-forwarded session
// throttles consistently. The zero value never allows; use NewThrottle.
//
// Throttle is not safe for concurrent use; each tick loop owns its own.
type Throttle struct {
	interval time.Duration
	last     time.Duration
	primed   bool
}

// NewThrottle returns a Throttle that allows at most one event per interval.
// A non-positive interval allows every event.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether an event at time now may be emitted, and records it if so.
// The first call always succeeds.
func (t *Throttle) Allow(now time.Duration) bool {
	if t == nil {
		return false
	}
	if !t.primed || t.interval <= 0 || now-t.last >= t.interval {
		t.last = now
		t.primed = true
		return true
	}
	return false
}

// Reset forgets the last emission so the next Allow succeeds.
func (t *Throttle) Reset() {
	t.primed = false
}

// Seconds converts session seconds into a Duration for Throttle.Allow.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// WarnEvery logs a warning through th, dropping it when throttled.
func WarnEvery(th *Throttle, now time.Duration, format string, v ...any) {
	if th.Allow(now) {
		Warnf(format, v...)
	}
}
