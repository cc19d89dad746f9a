// SPDX-License-Identifier: MIT
package session

import "rhythm/internal/beat"

// Target is a spawned block flying toward the player.
type Target struct {
	ID        int
	Hand      Hand
	Band      beat.BandID
	Intensity float64
	Progress  float64 // 0 at spawn, 1 at the miss wall.
}

// Field tracks targets between spawn and the miss wall. Targets take travel
// seconds to cross; the last zone fraction of the flight is in reach.
type Field struct {
	travel  float64
	zone    float64
	nextID  int
	targets []Target
}

// NewField returns a field. Non-positive travel defaults to 2 s and zone is
// clamped to (0, 1].
func NewField(travel, zone float64) *Field {
	if travel <= 0 {
		travel = 2
	}
	if zone <= 0 || zone > 1 {
		zone = 0.25
	}
	return &Field{travel: travel, zone: zone}
}

// Spawn implements Spawner.
func (f *Field) Spawn(hand Hand, ev beat.Event) {
	f.nextID++
	f.targets = append(f.targets, Target{
		ID:        f.nextID,
		Hand:      hand,
		Band:      ev.Band,
		Intensity: ev.Intensity,
	})
}

// Advance moves every target and removes the ones that reached the wall,
// returning how many did.
func (f *Field) Advance(dt float64) (missed int) {
	step := dt / f.travel
	kept := f.targets[:0]
	for _, t := range f.targets {
		t.Progress += step
		if t.Progress >= 1 {
			missed++
			continue
		}
		kept = append(kept, t)
	}
	f.targets = kept
	return missed
}

// Contact returns the target closest to the wall that is in reach. A target
// is only removed when hand matches; a wrong-hand contact leaves it flying.
func (f *Field) Contact(hand Hand) (t Target, hit bool, ok bool) {
	front := -1
	for i, c := range f.targets {
		if c.Progress < 1-f.zone {
			continue
		}
		if front < 0 || c.Progress > f.targets[front].Progress {
			front = i
		}
	}
	if front < 0 {
		return Target{}, false, false
	}
	t = f.targets[front]
	if t.Hand != hand {
		return t, false, true
	}
	f.targets = append(f.targets[:front], f.targets[front+1:]...)
	return t, true, true
}

// Targets returns a copy of the targets in flight.
func (f *Field) Targets() []Target {
	return append([]Target(nil), f.targets...)
}

func (f *Field) Len() int { return len(f.targets) }

func (f *Field) Reset() {
	f.targets = f.targets[:0]
}
