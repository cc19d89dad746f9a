// SPDX-License-Identifier: MIT
package audio

import (
	"sync/atomic"

	"rhythm/internal/analysis"
	"rhythm/internal/log"
)

// Capture turns the live input into a spectrum source. The engine produces
// sample windows on the audio thread; Spectrum runs the FFT on the caller's
// goroutine, once per tick.
type Capture struct {
	engine  *Engine // Nil when fed by a bare handoff.
	handoff *analysis.Handoff
	fft     *analysis.FFTProcessor
	gate    func() bool

	armed      atomic.Bool
	lastWindow analysis.WindowFunc
	computed   bool
}

var _ analysis.SpectrumSource = (*Capture)(nil)

// NewCapture wraps a live engine.
func NewCapture(engine *Engine, fft *analysis.FFTProcessor) *Capture {
	return &Capture{
		engine:  engine,
		handoff: engine.Handoff(),
		fft:     fft,
		gate:    engine.GateOpen,
	}
}

// newCapture builds a capture over any handoff. A nil gate is always open.
func newCapture(h *analysis.Handoff, fft *analysis.FFTProcessor, gate func() bool) *Capture {
	if gate == nil {
		gate = func() bool { return true }
	}
	return &Capture{handoff: h, fft: fft, gate: gate}
}

// Play arms detection, opening the input stream if it is not running yet.
func (c *Capture) Play() error {
	if c.engine != nil && !c.engine.Running() {
		if err := c.engine.StartInputStream(); err != nil {
			return err
		}
	}
	c.armed.Store(true)
	log.Debug("audio: capture armed")
	return nil
}

// Stop disarms detection. The stream stays open so a restart is immediate.
func (c *Capture) Stop() error {
	c.armed.Store(false)
	return nil
}

// Playing is true while armed and the noise gate is open.
func (c *Capture) Playing() bool {
	return c.armed.Load() && c.gate()
}

func (c *Capture) SampleRate() float64 { return c.fft.SampleRate() }

func (c *Capture) Bins() int { return c.fft.Bins() }

// Spectrum fills dst from the newest captured window. A window already
// transformed with w is not transformed again.
func (c *Capture) Spectrum(dst []float64, w analysis.WindowFunc) bool {
	frame, fresh, ok := c.handoff.Load()
	if !ok {
		return false
	}
	if fresh || !c.computed || w != c.lastWindow {
		c.fft.ProcessWith(frame, w)
		c.lastWindow = w
		c.computed = true
	}
	return c.fft.MagnitudesInto(dst) == nil
}
