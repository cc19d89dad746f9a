// SPDX-License-Identifier: MIT
//
// Package utils provides synthetic signals and spectrum helpers shared by
// tests and the offline analyzer.
package utils

import "math"

// GenerateSineWave returns size samples of a sine at frequency with the given peak amplitude.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * amplitude
	}
	return buffer
}

// GenerateComplexWave returns a 440 Hz fundamental with two harmonics, peaking below 1.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = (math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2) * 0.9
	}
	return buffer
}

// GenerateKicks returns duration seconds of silence with a decaying low
// frequency burst at each onset (seconds). Each burst lasts about 120 ms.
func GenerateKicks(duration, sampleRate float64, onsets []float64) []float64 {
	const (
		kickFreq  = 60.0
		kickDecay = 30.0 // Per second.
		kickLen   = 0.12
	)
	buffer := make([]float64, int(duration*sampleRate))
	for _, onset := range onsets {
		start := int(onset * sampleRate)
		end := min(len(buffer), start+int(kickLen*sampleRate))
		for i := max(start, 0); i < end; i++ {
			t := float64(i-start) / sampleRate
			buffer[i] += math.Sin(2*math.Pi*kickFreq*t) * math.Exp(-kickDecay*t) * 0.9
		}
	}
	return buffer
}

// ToPCM scales samples in [-1, 1] to signed integers of the given bit depth, clipping.
func ToPCM(samples []float64, bitDepth int) []int {
	full := float64(int64(1)<<(bitDepth-1) - 1)
	out := make([]int, len(samples))
	for i, s := range samples {
		out[i] = int(math.Round(max(-1, min(1, s)) * full))
	}
	return out
}

// Peak returns the largest absolute sample value.
func Peak(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		peak = max(peak, math.Abs(s))
	}
	return peak
}

// FindPeakBin returns the index of the largest magnitude in [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	startBin = max(startBin, 0)
	endBin = min(endBin, len(magnitudes)-1)

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
