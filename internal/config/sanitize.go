// SPDX-License-Identifier: MIT
package config

import (
	"fmt"

	"rhythm/internal/analysis"
	"rhythm/internal/beat"
	"rhythm/internal/log"
)

// Sanitize repairs out-of-range values in place and returns one warning per
// repair. A configuration is never rejected: a bad band simply
// stays silent and the detector runs with the repaired values.
func (c *Config) Sanitize() []string {
	var warnings []string
	warn := func(format string, v ...any) {
		warnings = append(warnings, fmt.Sprintf(format, v...))
	}

	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		warn("log_level %q is unknown, using info", c.LogLevel)
		c.LogLevel = "info"
	}

	// Audio.
	a := &c.Audio
	if a.InputDevice < MinDeviceID {
		warn("audio.input_device %d is invalid, using the default device", a.InputDevice)
		a.InputDevice = MinDeviceID
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		warn("audio.sample_rate %.0f is outside [%d, %d], using %d", a.SampleRate, MinSampleRate, MaxSampleRate, DefaultSampleRate)
		a.SampleRate = DefaultSampleRate
	}
	if a.SpectrumSize < MinSpectrumSize || a.SpectrumSize > MaxSpectrumSize {
		warn("audio.spectrum_size %d is outside [%d, %d], using %d", a.SpectrumSize, MinSpectrumSize, MaxSpectrumSize, DefaultSpectrumSize)
		a.SpectrumSize = DefaultSpectrumSize
	}
	if a.FramesPerBuffer < 1 || a.FramesPerBuffer > MaxBufferFrames {
		warn("audio.frames_per_buffer %d is outside [1, %d], using %d", a.FramesPerBuffer, MaxBufferFrames, DefaultFramesPerBuffer)
		a.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if a.InputChannels < 1 {
		warn("audio.input_channels %d is below 1, using %d", a.InputChannels, DefaultChannels)
		a.InputChannels = DefaultChannels
	}
	if _, err := analysis.ParseWindowFunc(a.FFTWindow); err != nil {
		warn("audio.fft_window: %v, using %s", err, analysis.DefaultWindow)
		a.FFTWindow = analysis.DefaultWindow.String()
	}
	if a.GateThreshold < 0 || a.GateThreshold > 1 {
		clamped := beat.Clamp01(a.GateThreshold)
		warn("audio.gate_threshold %.4f is outside [0, 1], using %.4f", a.GateThreshold, clamped)
		a.GateThreshold = clamped
	}

	// Detection.
	s := c.Detection.Settings()
	for _, w := range s.Sanitize() {
		warn("detection: %s", w)
	}
	// Band anomalies are never repaired; the tracker reports them once.
	c.Detection.setSettings(s)

	// Timing.
	for _, w := range c.Timing.Sanitize() {
		warn("timing: %s", w)
	}

	// Gameplay.
	if c.Spawning.Cooldown < 0 {
		warn("spawning.cooldown %.3f is negative, using 0", c.Spawning.Cooldown)
		c.Spawning.Cooldown = 0
	}
	if c.Pulse.Decay < 0 {
		warn("pulse.decay %.3f is negative, using 0", c.Pulse.Decay)
		c.Pulse.Decay = 0
	}
	if c.Session.StartDelay < 0 {
		warn("session.start_delay %.3f is negative, using 0", c.Session.StartDelay)
		c.Session.StartDelay = 0
	}
	if c.Session.TickRate <= 0 {
		warn("session.tick_rate %d is not positive, using %d", c.Session.TickRate, DefaultTickRate)
		c.Session.TickRate = DefaultTickRate
	}

	// Diagnostics and I/O.
	if c.Diagnostics.Interval <= 0 {
		warn("diagnostics.interval %s is not positive, using 2s", c.Diagnostics.Interval)
		c.Diagnostics.Interval = Default().Diagnostics.Interval
	}
	if c.Diagnostics.WarningInterval <= 0 {
		warn("diagnostics.warning_interval %s is not positive, using %s", c.Diagnostics.WarningInterval, beat.DefaultWarningInterval)
		c.Diagnostics.WarningInterval = beat.DefaultWarningInterval
	}
	switch c.Recording.BitDepth {
	case 16, 24, 32:
	default:
		warn("recording.bit_depth %d is unsupported, using 16", c.Recording.BitDepth)
		c.Recording.BitDepth = 16
	}
	if c.Transport.UDPEnabled && c.Transport.UDPSendInterval <= 0 {
		warn("transport.udp_send_interval %s is not positive, using 33ms", c.Transport.UDPSendInterval)
		c.Transport.UDPSendInterval = Default().Transport.UDPSendInterval
	}

	return warnings
}

func (d *DetectionConfig) setSettings(s beat.Settings) {
	d.Sensitivity = s.Sensitivity
	d.InitialThreshold = s.InitialThreshold
	d.VarianceWeight = s.VarianceWeight
	d.RelaxRate = s.RelaxRate
	d.HistorySize = s.HistorySize
	d.MinHistory = s.MinHistory
	d.MinCooldown = s.MinCooldown
	d.MaxCooldown = s.MaxCooldown
}
