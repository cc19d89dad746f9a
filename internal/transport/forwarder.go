// SPDX-License-Identifier: MIT
package transport

import (
	"time"

	"rhythm/internal/beat"
	"rhythm/internal/log"
)

// EventForwarder subscribes to the beat bus and forwards every event to a
// transport. Send errors are logged, throttled, and never reach the bus.
type EventForwarder struct {
	t     Transport
	warn  *log.Throttle
	start time.Time
}

func NewEventForwarder(t Transport) *EventForwarder {
	return &EventForwarder{
		t:     t,
		warn:  log.NewThrottle(5 * time.Second),
		start: time.Now(),
	}
}

// OnBeat implements events.Subscriber.
func (f *EventForwarder) OnBeat(e beat.Event) {
	if err := f.t.Send(BeatMessage(e)); err != nil {
		log.WarnEvery(f.warn, time.Since(f.start), "transport: dropping beat: %v", err)
	}
}
