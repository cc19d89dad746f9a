// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rhythm/internal/analysis"
	"rhythm/pkg/utils"
)

// writeTestWAV encodes mono samples as a stereo 16-bit file.
func writeTestWAV(t *testing.T, samples []float64, sampleRate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	pcm := utils.ToPCM(samples, 16)
	stereo := make([]int, 0, 2*len(pcm))
	for _, s := range pcm {
		stereo = append(stereo, s, s)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           stereo,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func TestOpenWAV(t *testing.T) {
	samples := utils.GenerateSineWave(int(testSampleRate), testSampleRate, 1000, 0.5)
	path := writeTestWAV(t, samples, int(testSampleRate))

	p, err := OpenWAV(path, testWindowSize/2, analysis.Hann)
	require.NoError(t, err)

	assert.Equal(t, path, p.Name())
	assert.InDelta(t, 1.0, p.Duration(), 1e-6)
	assert.Equal(t, testSampleRate, p.SampleRate())
	assert.Equal(t, testWindowSize/2, p.Bins())
	assert.InDelta(t, 0.5, utils.Peak(p.samples), 0.001)
}

func TestOpenWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not RIFF"), 0o644))

	_, err := OpenWAV(path, 256, analysis.Hann)
	assert.ErrorIs(t, err, ErrNotWAV)

	_, err = OpenWAV(filepath.Join(t.TempDir(), "missing.wav"), 256, analysis.Hann)
	assert.Error(t, err)
}

func TestFilePlayerPlayback(t *testing.T) {
	samples := utils.GenerateSineWave(int(testSampleRate), testSampleRate, 1000, 0.5)
	p, err := NewFilePlayerFromSamples(samples, testSampleRate, testWindowSize/2, analysis.Hann)
	require.NoError(t, err)

	dst := make([]float64, p.Bins())
	assert.False(t, p.Spectrum(dst, analysis.Hann), "no audio before the playhead moves")

	p.Advance(0.1)
	assert.Zero(t, p.Position(), "Advance is a no-op while stopped")

	require.NoError(t, p.Play())
	p.Advance(0.25)
	assert.InDelta(t, 0.25, p.Position(), 1e-4)
	assert.True(t, p.Playing())

	require.True(t, p.Spectrum(dst, analysis.Hann))
	peak := utils.FindPeakBin(dst, 0, len(dst)-1)
	assert.InDelta(t, 1000, float64(peak)*testSampleRate/testWindowSize, testSampleRate/testWindowSize)

	require.NoError(t, p.Stop())
	assert.False(t, p.Playing())

	require.NoError(t, p.Play())
	p.Advance(2)
	assert.True(t, p.Finished())
	assert.False(t, p.Playing(), "reaching the end stops playback")

	require.NoError(t, p.Play())
	assert.Zero(t, p.Position(), "playing a finished file restarts it")
}

func TestDownmix(t *testing.T) {
	got := downmix([]int{16384, -16384, 32767, 32767}, 2, 16)
	require.Len(t, got, 2)
	assert.InDelta(t, 0, got[0], 1e-9)
	assert.InDelta(t, 1, got[1], 0.001)
	assert.False(t, math.IsNaN(got[1]))
}
