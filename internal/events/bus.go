// SPDX-License-Identifier: MIT
package events

import (
	"sync"

	"rhythm/internal/beat"
)

// Subscriber receives beat events.
type Subscriber interface {
	OnBeat(beat.Event)
}

// Bus multicasts beat events synchronously to its subscribers, in the order
// they subscribed. There is no buffering: a subscriber added after Publish
// returns does not see that event.
//
// Subscribe and Unsubscribe are safe from any goroutine. Publishing takes a
// snapshot of the subscriber list, so a subscriber may unsubscribe itself
// from inside OnBeat; the change applies to the next Publish.
type Bus struct {
	mu   sync.Mutex
	subs []Subscriber
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe adds s. Subscribing the same subscriber twice is a no-op.
// Subscribers are compared by identity, so they must be comparable
// (pointers, or the *Func values returned by SubscribeFunc).
func (b *Bus) Subscribe(s Subscriber) {
	if s == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.indexOf(s) >= 0 {
		return
	}
	// Copy on write: a Publish in flight keeps iterating its own slice.
	next := make([]Subscriber, len(b.subs), len(b.subs)+1)
	copy(next, b.subs)
	b.subs = append(next, s)
}

// Unsubscribe removes s. Removing an unknown subscriber is a no-op.
func (b *Bus) Unsubscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(s)
	if i < 0 {
		return
	}
	next := make([]Subscriber, 0, len(b.subs)-1)
	next = append(next, b.subs[:i]...)
	b.subs = append(next, b.subs[i+1:]...)
}

func (b *Bus) indexOf(s Subscriber) int {
	for i, sub := range b.subs {
		if sub == s {
			return i
		}
	}
	return -1
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish delivers e to every current subscriber before returning.
func (b *Bus) Publish(e beat.Event) {
	b.mu.Lock()
	subs := b.subs
	b.mu.Unlock()

	for _, s := range subs {
		s.OnBeat(e)
	}
}

// Func is a Subscriber backed by a function. Its identity is the pointer
// returned by SubscribeFunc, which is also the handle to unsubscribe with.
type Func struct {
	fn func(beat.Event)
}

func (f *Func) OnBeat(e beat.Event) { f.fn(e) }

// SubscribeFunc subscribes fn and returns the handle that removes it.
func (b *Bus) SubscribeFunc(fn func(beat.Event)) *Func {
	f := &Func{fn: fn}
	b.Subscribe(f)
	return f
}

// Collector records every event it receives. Useful for offline analysis and tests.
type Collector struct {
	mu     sync.Mutex
	events []beat.Event
}

func (c *Collector) OnBeat(e beat.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (c *Collector) Events() []beat.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]beat.Event(nil), c.events...)
}

// Count returns how many events were recorded for band.
func (c *Collector) Count(band beat.BandID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Band == band {
			n++
		}
	}
	return n
}

// Reset drops recorded events.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.events = c.events[:0]
	c.mu.Unlock()
}
