// SPDX-License-Identifier: MIT
package analysis

import "sync/atomic"

const (
	handoffIndexMask = 0b011
	handoffFresh     = 0b100
)

// Handoff passes fixed-size sample frames from one producer goroutine (the
// audio callback) to one consumer goroutine (the tick loop) without locks.
//
// It is a triple buffer: the producer owns one slot, the consumer owns
// another, and the third is exchanged atomically. Neither side ever waits and
// the consumer always sees the most recent complete frame; older frames the
// consumer did not pick up are overwritten.
type Handoff struct {
	slots [3][]float64

	spare atomic.Uint32 // Index of the exchanged slot, plus handoffFresh.
	write int           // Producer-owned.
	read  int           // Consumer-owned.
	ready atomic.Bool   // At least one frame was published.
}

// NewHandoff returns a handoff for frames of size samples.
func NewHandoff(size int) *Handoff {
	h := &Handoff{write: 0, read: 1}
	for i := range h.slots {
		h.slots[i] = make([]float64, size)
	}
	h.spare.Store(2)
	return h
}

// Size returns the frame length.
func (h *Handoff) Size() int { return len(h.slots[0]) }

// Frame returns the producer's slot for in-place filling. The slice is valid
// until the next Publish.
func (h *Handoff) Frame() []float64 { return h.slots[h.write] }

// Publish makes the producer's slot visible to the consumer and hands the
// producer a fresh slot. Producer only.
func (h *Handoff) Publish() {
	prev := h.spare.Swap(uint32(h.write) | handoffFresh)
	h.write = int(prev & handoffIndexMask)
	h.ready.Store(true)
}

// Write copies frame into the producer's slot and publishes it. Frames longer
// than Size are truncated to their most recent samples; shorter frames are
// left aligned and the rest of the slot is zeroed. Producer only.
func (h *Handoff) Write(frame []float64) {
	dst := h.slots[h.write]
	if len(frame) > len(dst) {
		frame = frame[len(frame)-len(dst):]
	}
	n := copy(dst, frame)
	clear(dst[n:])
	h.Publish()
}

// Load returns the most recent published frame and whether it is new since
// the previous Load. The slice is owned by the consumer until its next Load.
// ok is false until the producer has published once. Consumer only.
func (h *Handoff) Load() (frame []float64, fresh, ok bool) {
	if !h.ready.Load() {
		return nil, false, false
	}
	if h.spare.Load()&handoffFresh == 0 {
		return h.slots[h.read], false, true
	}
	prev := h.spare.Swap(uint32(h.read))
	h.read = int(prev & handoffIndexMask)
	return h.slots[h.read], true, true
}

// Ready reports whether at least one frame has been published.
func (h *Handoff) Ready() bool { return h.ready.Load() }
