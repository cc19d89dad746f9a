// SPDX-License-Identifier: MIT
package config

import (
	"time"

	"rhythm/internal/analysis"
	"rhythm/internal/beat"
	"rhythm/internal/scoring"
)

// Boundaries and defaults for the engine.
const (
	MinDeviceID     = -1 // -1 represents the system default device.
	MinSampleRate   = 8000
	MaxSampleRate   = 192000
	MinSpectrumSize = 64
	MaxSpectrumSize = 8192
	MaxBufferFrames = 8192

	DefaultSampleRate      = 44100
	DefaultSpectrumSize    = 1024
	DefaultFramesPerBuffer = 512
	DefaultChannels        = 1
	DefaultGateThreshold   = 0.001
	DefaultTickRate        = 60
	DefaultStartDelay      = 3.0
	DefaultWebSocketAddr   = ":8080"
	DefaultUDPTarget       = "127.0.0.1:9090"
)

// Config is the application configuration, loaded from YAML.
type Config struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`

	Audio       AudioConfig       `yaml:"audio"`
	Detection   DetectionConfig   `yaml:"detection"`
	Timing      scoring.Window    `yaml:"timing"`
	Scoring     scoring.Values    `yaml:"scoring"`
	Spawning    SpawningConfig    `yaml:"spawning"`
	Pulse       PulseConfig       `yaml:"pulse"`
	Session     SessionConfig     `yaml:"session"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Recording   RecordingConfig   `yaml:"recording"`
	Transport   TransportConfig   `yaml:"transport"`
}

// AudioConfig holds capture and spectrum settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index, -1 for the default.
	SampleRate      float64 `yaml:"sample_rate"`       // Hz.
	SpectrumSize    int     `yaml:"spectrum_size"`     // Magnitude bins per tick; the FFT is twice this.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // PortAudio callback size.
	InputChannels   int     `yaml:"input_channels"`    // Downmixed to mono for analysis.
	LowLatency      bool    `yaml:"low_latency"`
	FFTWindow       string  `yaml:"fft_window"`     // Window function name, see analysis.ParseWindowFunc.
	GateEnabled     bool    `yaml:"gate_enabled"`   // Treat quiet input as "not playing".
	GateThreshold   float64 `yaml:"gate_threshold"` // 0..1 of full scale.
}

// DetectionConfig holds the beat detector tuning.
type DetectionConfig struct {
	Sensitivity      float64      `yaml:"sensitivity"`
	InitialThreshold float64      `yaml:"initial_threshold"`
	VarianceWeight   float64      `yaml:"variance_weight"`
	RelaxRate        float64      `yaml:"relax_rate"`
	HistorySize      int          `yaml:"history_size"`
	MinHistory       int          `yaml:"min_history"`
	MinCooldown      float64      `yaml:"min_cooldown"`
	MaxCooldown      float64      `yaml:"max_cooldown"`
	Bands            []BandConfig `yaml:"bands"`
}

// BandConfig describes one frequency band. Names low, mid and high map to the
// gameplay bands; any other name is a custom band.
type BandConfig struct {
	Name                     string  `yaml:"name"`
	MinHz                    float64 `yaml:"min_hz"`
	MaxHz                    float64 `yaml:"max_hz"`
	Weight                   float64 `yaml:"weight"`
	ThresholdMultiplier      float64 `yaml:"threshold_multiplier"`
	SuddenIncreaseMultiplier float64 `yaml:"sudden_increase_multiplier"`
}

// SpawningConfig gates target spawning on beats.
type SpawningConfig struct {
	Enabled            bool    `yaml:"enabled"`
	IntensityThreshold float64 `yaml:"intensity_threshold"`
	Cooldown           float64 `yaml:"cooldown"` // Seconds, per hand.
}

// PulseConfig drives the visual beat pulse.
type PulseConfig struct {
	Value float64 `yaml:"value"` // Set on every beat.
	Decay float64 `yaml:"decay"` // Units per second.
}

// SessionConfig controls the tick loop and playback start.
type SessionConfig struct {
	StartDelay float64 `yaml:"start_delay"` // Seconds between Start and playback.
	TickRate   int     `yaml:"tick_rate"`   // Ticks per second.
}

// DiagnosticsConfig controls the periodic detector state log.
type DiagnosticsConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Interval        time.Duration `yaml:"interval"`
	WarningInterval time.Duration `yaml:"warning_interval"`
}

// RecordingConfig holds settings for recording the live input.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format"`
	BitDepth  int    `yaml:"bit_depth"`
}

// TransportConfig holds the outbound streams.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddress string        `yaml:"websocket_address"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	d := beat.DefaultSettings()
	bands := make([]BandConfig, 0, 3)
	for _, b := range beat.DefaultBands() {
		bands = append(bands, BandConfig{
			Name:                     b.Name(),
			MinHz:                    b.MinHz,
			MaxHz:                    b.MaxHz,
			Weight:                   b.Weight,
			ThresholdMultiplier:      b.ThresholdMultiplier,
			SuddenIncreaseMultiplier: b.SuddenIncreaseMultiplier,
		})
	}

	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     MinDeviceID,
			SampleRate:      DefaultSampleRate,
			SpectrumSize:    DefaultSpectrumSize,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultChannels,
			FFTWindow:       analysis.DefaultWindow.String(),
			GateEnabled:     true,
			GateThreshold:   DefaultGateThreshold,
		},
		Detection: DetectionConfig{
			Sensitivity:      d.Sensitivity,
			InitialThreshold: d.InitialThreshold,
			VarianceWeight:   d.VarianceWeight,
			RelaxRate:        d.RelaxRate,
			HistorySize:      d.HistorySize,
			MinHistory:       d.MinHistory,
			MinCooldown:      d.MinCooldown,
			MaxCooldown:      d.MaxCooldown,
			Bands:            bands,
		},
		Timing:  scoring.DefaultWindow(),
		Scoring: scoring.DefaultValues(),
		Spawning: SpawningConfig{
			Enabled:            true,
			IntensityThreshold: 20,
			Cooldown:           0.1,
		},
		Pulse: PulseConfig{Value: 1, Decay: 2},
		Session: SessionConfig{
			StartDelay: DefaultStartDelay,
			TickRate:   DefaultTickRate,
		},
		Diagnostics: DiagnosticsConfig{
			Enabled:         false,
			Interval:        2 * time.Second,
			WarningInterval: beat.DefaultWarningInterval,
		},
		Recording: RecordingConfig{
			OutputDir: "./recordings",
			Format:    "wav",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWebSocketAddr,
			UDPTargetAddress: DefaultUDPTarget,
			UDPSendInterval:  33 * time.Millisecond, // ~30Hz.
		},
	}
}

// Settings converts the detection section for the beat package.
func (d DetectionConfig) Settings() beat.Settings {
	return beat.Settings{
		Sensitivity:      d.Sensitivity,
		InitialThreshold: d.InitialThreshold,
		VarianceWeight:   d.VarianceWeight,
		RelaxRate:        d.RelaxRate,
		HistorySize:      d.HistorySize,
		MinHistory:       d.MinHistory,
		MinCooldown:      d.MinCooldown,
		MaxCooldown:      d.MaxCooldown,
	}
}

// BandList converts the configured bands, in order. Unknown names become
// custom band IDs numbered after High.
func (d DetectionConfig) BandList() []beat.Band {
	out := make([]beat.Band, 0, len(d.Bands))
	next := beat.High + 1
	for _, bc := range d.Bands {
		b := beat.Band{
			MinHz:                    bc.MinHz,
			MaxHz:                    bc.MaxHz,
			Weight:                   bc.Weight,
			ThresholdMultiplier:      bc.ThresholdMultiplier,
			SuddenIncreaseMultiplier: bc.SuddenIncreaseMultiplier,
		}
		if id, ok := beat.ParseBandID(bc.Name); ok {
			b.ID = id
		} else {
			b.ID = next
			b.Label = bc.Name
			next++
		}
		out = append(out, b)
	}
	return out
}

// Window returns the parsed FFT window, falling back to the default.
func (a AudioConfig) Window() analysis.WindowFunc {
	w, err := analysis.ParseWindowFunc(a.FFTWindow)
	if err != nil {
		return analysis.DefaultWindow
	}
	return w
}

// TickInterval is the wall-clock period of one tick.
func (s SessionConfig) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return time.Second / DefaultTickRate
	}
	return time.Second / time.Duration(s.TickRate)
}
