// SPDX-License-Identifier: MIT
package scoring

import (
	"fmt"
	"math"
)

// Tier is the quality of a hit. Better tiers compare greater.
type Tier int

const (
	Miss Tier = iota
	Ok
	Good
	Perfect
)

// Tiers lists every tier from best to worst.
var Tiers = [...]Tier{Perfect, Good, Ok, Miss}

func (t Tier) String() string {
	switch t {
	case Perfect:
		return "Perfect"
	case Good:
		return "Good"
	case Ok:
		return "Ok"
	case Miss:
		return "Miss"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Label is the short text shown to the player after a hit.
func (t Tier) Label() string {
	switch t {
	case Perfect:
		return "perfect!"
	case Good:
		return "good"
	case Ok:
		return "ok"
	default:
		return "miss"
	}
}

// Window holds the inclusive upper bounds, in seconds, of each scoring tier.
// Perfect < Good < Ok is expected; Sanitize enforces it.
type Window struct {
	Perfect float64 `yaml:"perfect_window" json:"perfect_window"`
	Good    float64 `yaml:"good_window" json:"good_window"`
	Ok      float64 `yaml:"ok_window" json:"ok_window"`
}

// DefaultWindow returns the stock timing windows.
func DefaultWindow() Window {
	return Window{Perfect: 0.05, Good: 0.12, Ok: 0.2}
}

// Classify grades a hit landing elapsed seconds after the relevant beat.
// Ties go to the better tier. +Inf (no beat yet) and NaN are a Miss.
func (w Window) Classify(elapsed float64) Tier {
	switch {
	case elapsed <= w.Perfect:
		return Perfect
	case elapsed <= w.Good:
		return Good
	case elapsed <= w.Ok:
		return Ok
	default:
		return Miss
	}
}

// Elapsed returns the time from the last beat to now, +Inf if there was none.
func Elapsed(now, lastBeat float64, hasBeat bool) float64 {
	if !hasBeat {
		return math.Inf(1)
	}
	return now - lastBeat
}

// Sanitize makes the window boundaries non-negative and ordered, returning a
// warning for every repair.
func (w *Window) Sanitize() []string {
	var warnings []string
	if w.Perfect < 0 {
		warnings = append(warnings, fmt.Sprintf("perfect window %.3f is negative, using 0", w.Perfect))
		w.Perfect = 0
	}
	if w.Good < w.Perfect {
		warnings = append(warnings, fmt.Sprintf("good window %.3f is below perfect window %.3f, raising it", w.Good, w.Perfect))
		w.Good = w.Perfect
	}
	if w.Ok < w.Good {
		warnings = append(warnings, fmt.Sprintf("ok window %.3f is below good window %.3f, raising it", w.Ok, w.Good))
		w.Ok = w.Good
	}
	return warnings
}
