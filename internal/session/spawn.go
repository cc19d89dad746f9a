// SPDX-License-Identifier: MIT
package session

import (
	"rhythm/internal/beat"
	"rhythm/internal/config"
	"rhythm/internal/log"
)

// Spawner creates a target for a hand. The game or dashboard implements it.
type Spawner interface {
	Spawn(hand Hand, ev beat.Event)
}

// SpawnerFunc adapts a function to Spawner.
type SpawnerFunc func(hand Hand, ev beat.Event)

func (f SpawnerFunc) Spawn(hand Hand, ev beat.Event) { f(hand, ev) }

// SpawnGate decides which beats become targets: low beats spawn for the left
// hand and mid beats for the right, when the beat is intense enough and the
// hand's spawn cooldown has elapsed.
type SpawnGate struct {
	threshold float64
	cooldown  float64
	spawner   Spawner

	last    [2]float64
	spawned [2]bool
	counts  [2]int
}

func NewSpawnGate(cfg config.SpawningConfig, spawner Spawner) *SpawnGate {
	return &SpawnGate{
		threshold: cfg.IntensityThreshold,
		cooldown:  cfg.Cooldown,
		spawner:   spawner,
	}
}

// OnBeat implements events.Subscriber.
func (g *SpawnGate) OnBeat(ev beat.Event) {
	if ev.Intensity < g.threshold {
		return
	}
	hand, ok := HandForBand(ev.Band)
	if !ok {
		return
	}
	if g.spawned[hand] && ev.Time-g.last[hand] < g.cooldown {
		return
	}

	g.last[hand] = ev.Time
	g.spawned[hand] = true
	g.counts[hand]++
	log.Debugf("spawn: %s target on %s beat (intensity %.1f)", hand, ev.Band, ev.Intensity)
	if g.spawner != nil {
		g.spawner.Spawn(hand, ev)
	}
}

// Count returns how many targets were spawned for hand.
func (g *SpawnGate) Count(hand Hand) int {
	if hand != Left && hand != Right {
		return 0
	}
	return g.counts[hand]
}

func (g *SpawnGate) Reset() {
	g.spawned = [2]bool{}
	g.counts = [2]int{}
}
