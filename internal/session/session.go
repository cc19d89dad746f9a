// SPDX-License-Identifier: MIT
/*
Package session owns one play session: the spectrum source, the per-band beat
tracker, the event bus, the score tally and the gameplay subscribers wired to
them.

A Session is driven by a single goroutine calling Tick once per frame. Hits
and misses must come from that same goroutine. Nothing here is global, so any
number of sessions can run side by side.
*/
package session

import (
	"errors"
	"fmt"
	"time"

	"rhythm/internal/analysis"
	"rhythm/internal/beat"
	"rhythm/internal/config"
	"rhythm/internal/events"
	"rhythm/internal/log"
	"rhythm/internal/scoring"
)

// ErrNoSource is returned by New when no spectrum source is supplied.
var ErrNoSource = errors.New("session: no spectrum source")

// Playback starts and stops the audio behind a source.
type Playback interface {
	Play() error
	Stop() error
}

// Source is a spectrum source the session can start and stop.
type Source interface {
	analysis.SpectrumSource
	Playback
}

// Advancer is implemented by sources that move on the session clock rather
// than in real time, such as a file player.
type Advancer interface {
	Advance(dt float64)
}

// Options configures a session.
type Options struct {
	Bands      []beat.Band
	Settings   beat.Settings
	Window     scoring.Window
	Values     scoring.Values
	FFTWindow  analysis.WindowFunc
	StartDelay float64 // Seconds between Start and playback.

	Spawning config.SpawningConfig
	Pulse    config.PulseConfig

	// Spawner receives gated targets. When nil and spawning is enabled the
	// session spawns into its own Field.
	Spawner Spawner
	Field   *Field

	Snapshots       *beat.SnapshotStore
	DetailInterval  time.Duration // Zero disables the periodic state log.
	WarningInterval time.Duration
}

// OptionsFromConfig builds session options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Bands:           cfg.Detection.BandList(),
		Settings:        cfg.Detection.Settings(),
		Window:          cfg.Timing,
		Values:          cfg.Scoring,
		FFTWindow:       cfg.Audio.Window(),
		StartDelay:      cfg.Session.StartDelay,
		Spawning:        cfg.Spawning,
		Pulse:           cfg.Pulse,
		WarningInterval: cfg.Diagnostics.WarningInterval,
	}
	if cfg.Diagnostics.Enabled {
		opts.DetailInterval = cfg.Diagnostics.Interval
	}
	return opts
}

// DefaultOptions are OptionsFromConfig(config.Default()).
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

type Session struct {
	opts   Options
	source Source

	bus     *events.Bus
	tracker *beat.Tracker
	tally   *scoring.Tally
	sched   *Scheduler
	pulse   *Pulse
	gate    *SpawnGate
	field   *Field

	spectrum []float64
	now      float64

	started   bool
	playing   bool // Playback was started by the start task.
	startTask *Task
}

// New wires a session around src. A missing source is reported here, once.
func New(src Source, opts Options) (*Session, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	if src.Bins() <= 0 || src.SampleRate() <= 0 {
		return nil, fmt.Errorf("session: source reports %d bins at %.1f Hz", src.Bins(), src.SampleRate())
	}
	if len(opts.Bands) == 0 {
		opts.Bands = beat.DefaultBands()
	}
	for _, w := range opts.Window.Sanitize() {
		log.Warnf("config: timing: %s", w)
	}

	s := &Session{
		opts:     opts,
		source:   src,
		bus:      events.NewBus(),
		tally:    scoring.NewTally(opts.Values),
		sched:    NewScheduler(),
		pulse:    NewPulse(opts.Pulse),
		spectrum: make([]float64, src.Bins()),
	}

	var trackerOpts []beat.Option
	if opts.DetailInterval > 0 {
		trackerOpts = append(trackerOpts, beat.WithDetailedLogging(opts.DetailInterval))
	}
	if opts.WarningInterval > 0 {
		trackerOpts = append(trackerOpts, beat.WithWarningInterval(opts.WarningInterval))
	}
	if opts.Snapshots != nil {
		trackerOpts = append(trackerOpts, beat.WithSnapshots(opts.Snapshots))
	}
	s.tracker = beat.NewTracker(opts.Bands, opts.Settings, src.SampleRate(), s.bus, trackerOpts...)

	s.bus.Subscribe(s.pulse)
	if opts.Spawning.Enabled {
		spawner := opts.Spawner
		if spawner == nil {
			s.field = opts.Field
			if s.field == nil {
				s.field = NewField(0, 0)
			}
			spawner = s.field
		}
		s.gate = NewSpawnGate(opts.Spawning, spawner)
		s.bus.Subscribe(s.gate)
	}

	return s, nil
}

func (s *Session) Bus() *events.Bus                { return s.bus }
func (s *Session) Tracker() *beat.Tracker          { return s.tracker }
func (s *Session) Tally() *scoring.Tally           { return s.tally }
func (s *Session) Scheduler() *Scheduler           { return s.sched }
func (s *Session) Pulse() *Pulse                   { return s.pulse }
func (s *Session) Source() Source                  { return s.source }
func (s *Session) Window() scoring.Window          { return s.opts.Window }
func (s *Session) Snapshot() beat.Snapshot         { return s.tracker.Snapshot() }
func (s *Session) Summary() scoring.Summary        { return s.tally.Summary() }
func (s *Session) LastLabel() string               { return s.tally.LastLabel() }
func (s *Session) SpawnGate() *SpawnGate           { return s.gate }
func (s *Session) Field() *Field                   { return s.field }
func (s *Session) Subscribe(sub events.Subscriber) { s.bus.Subscribe(sub) }

// Now returns the session clock in seconds.
func (s *Session) Now() float64 { return s.now }

// Started reports whether Start was called without a later Stop.
func (s *Session) Started() bool { return s.started }

// Pending reports whether playback is still waiting for the start delay.
func (s *Session) Pending() bool {
	return s.startTask != nil && !s.startTask.Done()
}

// Start schedules playback after the configured start delay. Calling Start
// again replaces the pending start.
func (s *Session) Start() {
	s.sched.Cancel(s.startTask)
	s.started = true
	s.startTask = s.sched.After(s.opts.StartDelay, "play", s.play)
	log.Infof("session: playback starts in %.1fs", s.opts.StartDelay)
}

func (s *Session) play(now float64) {
	if err := s.source.Play(); err != nil {
		log.Errorf("session: failed to start playback: %v", err)
		return
	}
	s.playing = true
	log.Infof("session: playback started at %.2fs", now)
}

// Stop cancels a pending start and stops playback.
func (s *Session) Stop() error {
	s.sched.Cancel(s.startTask)
	s.startTask = nil
	s.started = false
	if !s.playing {
		return nil
	}
	s.playing = false
	if err := s.source.Stop(); err != nil {
		return fmt.Errorf("session: stop playback: %w", err)
	}
	return nil
}

// Restart stops, clears detection, score and targets, and starts again.
func (s *Session) Restart() error {
	if err := s.Stop(); err != nil {
		return err
	}
	s.Reset()
	s.Start()
	return nil
}

// Reset clears detector state, the tally, pulses and targets. The clock keeps
// running.
func (s *Session) Reset() {
	s.tracker.Reset()
	s.tally.Reset()
	s.pulse.Reset()
	if s.gate != nil {
		s.gate.Reset()
	}
	if s.field != nil {
		s.field.Reset()
	}
}

// Tick advances the session by dt seconds and runs one detection step. It
// returns the number of beats fired.
func (s *Session) Tick(dt float64) int {
	if dt < 0 {
		dt = 0
	}
	s.now += dt
	s.sched.Advance(dt)
	s.pulse.Decay(dt)

	if s.field != nil {
		for range s.field.Advance(dt) {
			s.Miss()
		}
	}

	if !s.started || s.Pending() {
		return 0
	}
	if adv, ok := s.source.(Advancer); ok {
		adv.Advance(dt)
	}
	if !s.source.Playing() {
		s.tracker.Idle(s.now, "source not playing")
		return 0
	}
	if !s.source.Spectrum(s.spectrum, s.opts.FFTWindow) {
		return s.tracker.Tick(s.now, dt, nil)
	}
	return s.tracker.Tick(s.now, dt, s.spectrum)
}

// Hit classifies a hit by hand at the current session time against the last
// beat of the hand's band and records it.
func (s *Session) Hit(hand Hand) scoring.Tier {
	return s.HitAt(hand, s.now)
}

// HitAt is Hit at an explicit session time.
func (s *Session) HitAt(hand Hand, at float64) scoring.Tier {
	last, ok := s.tracker.LastBeat(hand.Band())
	elapsed := scoring.Elapsed(at, last, ok)
	tier := s.opts.Window.Classify(elapsed)
	s.tally.Record(tier)
	log.Debugf("session: %s hit %.3fs after the %s beat: %s", hand, elapsed, hand.Band(), tier)
	return tier
}

// Miss records a target reaching the miss wall.
func (s *Session) Miss() {
	s.tally.Record(scoring.Miss)
	log.Debug("session: target missed")
}

// Swing resolves a swing of hand against the session's own field at the
// current session time. It reports false when nothing was in reach or the
// front target belongs to the other hand; neither is scored.
func (s *Session) Swing(hand Hand) (scoring.Tier, bool) {
	return s.SwingAt(hand, s.now)
}

// SwingAt is Swing for input that arrived at session time at, typically
// between two ticks.
func (s *Session) SwingAt(hand Hand, at float64) (scoring.Tier, bool) {
	if s.field == nil {
		return s.HitAt(hand, at), true
	}
	_, hit, ok := s.field.Contact(hand)
	if !ok || !hit {
		return scoring.Miss, false
	}
	return s.HitAt(hand, at), true
}
