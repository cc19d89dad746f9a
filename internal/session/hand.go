// SPDX-License-Identifier: MIT
package session

import "rhythm/internal/beat"

// Hand is the player's hand. Each hand plays one band.
type Hand int

const (
	Left  Hand = iota // Plays the low band.
	Right             // Plays the mid band.
)

func (h Hand) String() string {
	switch h {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Band returns the band whose beats time this hand's hits.
func (h Hand) Band() beat.BandID {
	if h == Right {
		return beat.Mid
	}
	return beat.Low
}

// HandForBand maps a beat band to the hand that plays it. High and custom
// bands have no hand.
func HandForBand(id beat.BandID) (Hand, bool) {
	switch id {
	case beat.Low:
		return Left, true
	case beat.Mid:
		return Right, true
	default:
		return 0, false
	}
}
