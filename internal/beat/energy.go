// SPDX-License-Identifier: MIT
package beat

import "math"

// FrequencyToBin converts a frequency to a spectrum bin index as
// round(freq * n / sampleRate), clamped to [0, n-1].
func FrequencyToBin(freq float64, n int, sampleRate float64) int {
	if n <= 0 || sampleRate <= 0 {
		return 0
	}
	bin := int(math.Round(freq * float64(n) / sampleRate))
	return min(max(bin, 0), n-1)
}

// BandEnergy returns the mean squared magnitude of spectrum over the band's
// bin range. A degenerate or inverted range yields 0; nothing here fails.
//
// Hot path: no allocations.
func BandEnergy(spectrum []float64, sampleRate float64, band Band) float64 {
	if !band.Valid() {
		return 0
	}
	start, end := band.Bins(len(spectrum), sampleRate)
	return binEnergy(spectrum, start, end)
}

// binEnergy averages spectrum[i]^2 over [start, end).
func binEnergy(spectrum []float64, start, end int) float64 {
	start = max(start, 0)
	end = min(end, len(spectrum))
	count := end - start
	if count <= 0 {
		return 0
	}

	var sum float64
	for _, m := range spectrum[start:end] {
		sum += m * m
	}
	return sum / float64(count)
}
