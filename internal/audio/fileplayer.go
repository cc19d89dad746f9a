// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/wav"

	"rhythm/internal/analysis"
	"rhythm/internal/log"
)

var ErrNotWAV = errors.New("not a valid WAV file")

// FilePlayer replays a decoded WAV file on the session clock. It does not
// drive a sound device; Advance moves the playhead and Spectrum analyses the
// window ending at it. This keeps offline runs deterministic.
type FilePlayer struct {
	name       string
	samples    []float64 // Mono, [-1, 1].
	sampleRate float64
	fft        *analysis.FFTProcessor

	mu      sync.Mutex
	pos     int
	playing bool
}

var _ analysis.SpectrumSource = (*FilePlayer)(nil)

// OpenWAV decodes path and prepares a player producing bins magnitudes.
func OpenWAV(path string, bins int, w analysis.WindowFunc) (*FilePlayer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotWAV)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%s: missing format", path)
	}

	depth := int(dec.BitDepth)
	if depth <= 0 {
		depth = 16
	}
	samples := downmix(buf.Data, buf.Format.NumChannels, depth)

	p, err := NewFilePlayerFromSamples(samples, float64(buf.Format.SampleRate), bins, w)
	if err != nil {
		return nil, err
	}
	p.name = path
	log.Infof("audio: loaded %s (%d ch @ %d Hz, %d-bit, %.2fs)",
		path, buf.Format.NumChannels, buf.Format.SampleRate, depth, p.Duration())
	return p, nil
}

// NewFilePlayerFromSamples plays already decoded mono samples.
func NewFilePlayerFromSamples(samples []float64, sampleRate float64, bins int, w analysis.WindowFunc) (*FilePlayer, error) {
	fft, err := analysis.NewFFTProcessor(bins, sampleRate, w)
	if err != nil {
		return nil, err
	}
	return &FilePlayer{
		name:       "samples",
		samples:    samples,
		sampleRate: sampleRate,
		fft:        fft,
	}, nil
}

// downmix averages interleaved integer PCM into mono floats.
func downmix(data []int, channels, bitDepth int) []float64 {
	scale := 1 / float64(int64(1)<<(bitDepth-1)) / float64(channels)
	out := make([]float64, len(data)/channels)
	for i := range out {
		var sum int
		for _, s := range data[i*channels : (i+1)*channels] {
			sum += s
		}
		out[i] = float64(sum) * scale
	}
	return out
}

func (p *FilePlayer) Name() string { return p.name }

// Duration is the file length in seconds.
func (p *FilePlayer) Duration() float64 {
	return float64(len(p.samples)) / p.sampleRate
}

// Position is the playhead in seconds.
func (p *FilePlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.pos) / p.sampleRate
}

// Play starts or resumes playback. Playing a finished file restarts it.
func (p *FilePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos >= len(p.samples) {
		p.pos = 0
	}
	p.playing = true
	return nil
}

// Stop pauses playback at the current position.
func (p *FilePlayer) Stop() error {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
	return nil
}

func (p *FilePlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Finished reports whether the playhead reached the end.
func (p *FilePlayer) Finished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos >= len(p.samples)
}

// Advance moves the playhead by dt seconds while playing. Reaching the end
// stops playback.
func (p *FilePlayer) Advance(dt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || dt <= 0 {
		return
	}
	p.pos = min(p.pos+int(dt*p.sampleRate+0.5), len(p.samples))
	if p.pos >= len(p.samples) {
		p.playing = false
	}
}

func (p *FilePlayer) SampleRate() float64 { return p.sampleRate }

func (p *FilePlayer) Bins() int { return p.fft.Bins() }

// Spectrum analyses the FFT-size window ending at the playhead.
func (p *FilePlayer) Spectrum(dst []float64, w analysis.WindowFunc) bool {
	p.mu.Lock()
	end := p.pos
	p.mu.Unlock()
	if end == 0 {
		return false
	}
	start := max(end-p.fft.FFTSize(), 0)
	p.fft.ProcessWith(p.samples[start:end], w)
	return p.fft.MagnitudesInto(dst) == nil
}
