// SPDX-License-Identifier: MIT
package session

import (
	"rhythm/internal/beat"
	"rhythm/internal/config"
)

// Pulse is the per-band visual pulse. A beat sets the band's level to the
// configured value and the level falls linearly back to zero.
type Pulse struct {
	value  float64
	decay  float64 // Units per second.
	levels map[beat.BandID]float64
}

func NewPulse(cfg config.PulseConfig) *Pulse {
	return &Pulse{
		value:  cfg.Value,
		decay:  cfg.Decay,
		levels: make(map[beat.BandID]float64, 3),
	}
}

// OnBeat triggers the pulse for the event's band.
func (p *Pulse) OnBeat(ev beat.Event) {
	p.levels[ev.Band] = p.value
}

// Decay moves every level toward zero by decay*dt.
func (p *Pulse) Decay(dt float64) {
	step := p.decay * dt
	for id, v := range p.levels {
		if v > 0 {
			p.levels[id] = max(v-step, 0)
		}
	}
}

// Level returns the band's current pulse.
func (p *Pulse) Level(id beat.BandID) float64 {
	return p.levels[id]
}

func (p *Pulse) Reset() {
	clear(p.levels)
}
