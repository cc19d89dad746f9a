// SPDX-License-Identifier: MIT
package beat

import "fmt"

// BandID identifies a frequency band. The three stock bands drive gameplay;
// any other ID is an arbitrary labelled band.
type BandID int

const (
	Low  BandID = iota // Bass, kick drums.
	Mid                // Snare, vocals, instruments.
	High               // Cymbals, hi-hats.
)

func (id BandID) String() string {
	switch id {
	case Low:
		return "low"
	case Mid:
		return "mid"
	case High:
		return "high"
	default:
		return fmt.Sprintf("band%d", int(id))
	}
}

// ParseBandID maps a band name back to its ID. Unknown names return false.
func ParseBandID(name string) (BandID, bool) {
	switch name {
	case "low", "Low", "LOW":
		return Low, true
	case "mid", "Mid", "MID":
		return Mid, true
	case "high", "High", "HIGH":
		return High, true
	}
	return 0, false
}

// Band is an immutable frequency band descriptor covering [MinHz, MaxHz).
type Band struct {
	ID    BandID
	Label string // Optional display name; defaults to ID.String().

	MinHz float64
	MaxHz float64

	Weight                   float64 // Detection weight multiplier.
	ThresholdMultiplier      float64 // Multiplier on the history average.
	SuddenIncreaseMultiplier float64 // Attack test multiplier on the history average.
}

// DefaultBands returns the stock low/mid/high layout.
func DefaultBands() []Band {
	return []Band{
		{ID: Low, MinHz: 20, MaxHz: 250, Weight: 2.0, ThresholdMultiplier: 1.6, SuddenIncreaseMultiplier: 1.3},
		{ID: Mid, MinHz: 250, MaxHz: 4000, Weight: 1.5, ThresholdMultiplier: 1.8, SuddenIncreaseMultiplier: 1.4},
		{ID: High, MinHz: 4000, MaxHz: 20000, Weight: 1.0, ThresholdMultiplier: 2.0, SuddenIncreaseMultiplier: 1.5},
	}
}

// DefaultSuddenIncrease is the attack multiplier for a band that does not set one.
// Low bands react to bass transients, high bands need a larger jump because they are noisier.
func DefaultSuddenIncrease(id BandID) float64 {
	switch id {
	case Low:
		return 1.3
	case Mid:
		return 1.4
	case High:
		return 1.5
	default:
		return 1.4
	}
}

// Name returns the label, or the ID name when no label is set.
func (b Band) Name() string {
	if b.Label != "" {
		return b.Label
	}
	return b.ID.String()
}

// Valid reports whether the frequency range is non-empty. An invalid band is a
// configuration anomaly: it contributes zero energy and never fires.
func (b Band) Valid() bool {
	return b.MinHz < b.MaxHz
}

// Bins maps the band onto spectrum bin indices [start, end) for a spectrum of
// n bins at sampleRate.
func (b Band) Bins(n int, sampleRate float64) (start, end int) {
	return FrequencyToBin(b.MinHz, n, sampleRate), FrequencyToBin(b.MaxHz, n, sampleRate)
}

func (b Band) String() string {
	return fmt.Sprintf("%s %.0f-%.0f Hz", b.Name(), b.MinHz, b.MaxHz)
}
