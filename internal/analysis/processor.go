// SPDX-License-Identifier: MIT
package analysis

// SpectrumSource supplies the magnitude spectrum consumed once per tick.
// Implementations are the live capture, the offline file player and test fakes.
type SpectrumSource interface {
	// Spectrum fills dst with the latest magnitudes computed with window w.
	// It returns false when no spectrum is available this tick.
	Spectrum(dst []float64, w WindowFunc) bool

	// Playing reports whether the source is actively producing audio.
	Playing() bool

	// SampleRate is the rate the spectrum bins are relative to (Hz).
	SampleRate() float64

	// Bins is the number of magnitudes Spectrum writes.
	Bins() int
}

// SampleProcessor consumes blocks of mono samples in [-1, 1].
type SampleProcessor interface {
	Process(samples []float64)
}

// SpectrumProvider exposes computed magnitudes to readers on other goroutines.
type SpectrumProvider interface {
	MagnitudesInto(dst []float64) error   // MagnitudesInto copies without allocating.
	FrequencyForBin(binIndex int) float64 // FrequencyForBin returns the bin's frequency (Hz).
	Bins() int
	SampleRate() float64
}
