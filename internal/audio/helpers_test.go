// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"strconv"

	"rhythm/internal/config"
)

const (
	testSampleRate = 48000.0
	testFrameSize  = 256
	testChannels   = 2
	testWindowSize = 1024
)

var (
	lowThreshold  = int32(0.01 * math.MaxInt32)
	highThreshold = int32(0.9 * math.MaxInt32)

	testBuffer  = makeTestBuffer(0.3)
	quietBuffer = makeTestBuffer(0.001)
	loudBuffer  = makeTestBuffer(0.9)
)

// makeTestBuffer returns an interleaved stereo 1 kHz sine at peak amplitude amp.
func makeTestBuffer(amp float64) []int32 {
	buf := make([]int32, testFrameSize*testChannels)
	for i := range testFrameSize {
		v := int32(amp * math.MaxInt32 * math.Sin(2*math.Pi*1000*float64(i)/testSampleRate))
		buf[i*testChannels] = v
		buf[i*testChannels+1] = -v
	}
	return buf
}

func testAudioConfig() config.AudioConfig {
	return config.AudioConfig{
		InputDevice:     config.MinDeviceID,
		SampleRate:      testSampleRate,
		SpectrumSize:    testWindowSize / 2,
		FramesPerBuffer: testFrameSize,
		InputChannels:   testChannels,
		FFTWindow:       "BlackmanHarris",
	}
}

func newTestEngine() *Engine {
	return newEngine(testAudioConfig(), testWindowSize)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func absFloat(x float64) float64 {
	return math.Abs(x)
}

// absInt32 returns the absolute value of x.
func absInt32(x int32) int32 {
	mask := x >> 31
	return (x ^ mask) - mask
}
