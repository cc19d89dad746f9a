// SPDX-License-Identifier: MIT
package beat

import "fmt"

// Event is a detected beat. Events are values; consumers may keep them.
type Event struct {
	Band      BandID  `json:"band"`
	Intensity float64 `json:"intensity"` // 1..100, 50 when the history average is negligible.
	Energy    float64 `json:"energy"`
	Time      float64 `json:"time"` // Session seconds.
}

func (e Event) String() string {
	return fmt.Sprintf("%s beat t=%.3fs intensity=%.1f energy=%.5f", e.Band, e.Time, e.Intensity, e.Energy)
}

// Publisher receives events as they are detected. events.Bus implements it.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) { f(e) }
