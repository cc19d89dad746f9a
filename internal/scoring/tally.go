// SPDX-License-Identifier: MIT
package scoring

import "fmt"

// Values are the points awarded per tier.
type Values struct {
	Perfect int `yaml:"perfect" json:"perfect"`
	Good    int `yaml:"good" json:"good"`
	Ok      int `yaml:"ok" json:"ok"`
	Miss    int `yaml:"miss" json:"miss"`
}

// DefaultValues returns the stock scoring table.
func DefaultValues() Values {
	return Values{Perfect: 5, Good: 3, Ok: 1, Miss: 0}
}

// Of returns the points for t.
func (v Values) Of(t Tier) int {
	switch t {
	case Perfect:
		return v.Perfect
	case Good:
		return v.Good
	case Ok:
		return v.Ok
	default:
		return v.Miss
	}
}

// Tally accumulates hit results for one session. The only mutators are Record
// and Reset; display code reads through the accessors or Summary.
//
// A Tally is not safe for concurrent use.
type Tally struct {
	values Values
	counts [Perfect + 1]int
	total  int
	score  int
	last   Tier
	any    bool
}

// NewTally returns an empty tally using values.
func NewTally(values Values) *Tally {
	return &Tally{values: values}
}

// Record counts one hit of tier t and returns the points it earned.
func (t *Tally) Record(tier Tier) int {
	if tier < Miss || tier > Perfect {
		tier = Miss
	}
	t.counts[tier]++
	t.total++
	pts := t.values.Of(tier)
	t.score += pts
	t.last = tier
	t.any = true
	return pts
}

func (t *Tally) Count(tier Tier) int {
	if tier < Miss || tier > Perfect {
		return 0
	}
	return t.counts[tier]
}

func (t *Tally) Total() int { return t.total }
func (t *Tally) Score() int { return t.score }

// Accuracy is the share of non-Miss hits, 0 when nothing was recorded.
func (t *Tally) Accuracy() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.counts[Perfect]+t.counts[Good]+t.counts[Ok]) / float64(t.total)
}

// Last returns the most recent tier, false before the first Record.
func (t *Tally) Last() (Tier, bool) {
	return t.last, t.any
}

// LastLabel is the display text of the most recent hit, empty before any.
func (t *Tally) LastLabel() string {
	last, ok := t.Last()
	if !ok {
		return ""
	}
	return last.Label()
}

// Reset zeroes every counter and the score.
func (t *Tally) Reset() {
	values := t.values
	*t = Tally{values: values}
}

// Summary is a point-in-time copy of a Tally.
type Summary struct {
	Perfect  int     `json:"perfect" yaml:"perfect"`
	Good     int     `json:"good" yaml:"good"`
	Ok       int     `json:"ok" yaml:"ok"`
	Miss     int     `json:"miss" yaml:"miss"`
	Total    int     `json:"total" yaml:"total"`
	Score    int     `json:"score" yaml:"score"`
	Accuracy float64 `json:"accuracy" yaml:"accuracy"`
	Last     string  `json:"last,omitempty" yaml:"last,omitempty"`
}

// Summary copies the tally.
func (t *Tally) Summary() Summary {
	return Summary{
		Perfect:  t.counts[Perfect],
		Good:     t.counts[Good],
		Ok:       t.counts[Ok],
		Miss:     t.counts[Miss],
		Total:    t.total,
		Score:    t.score,
		Accuracy: t.Accuracy(),
		Last:     t.LastLabel(),
	}
}

func (s Summary) String() string {
	return fmt.Sprintf("Perfect: %d, Good: %d, Ok: %d, Misses: %d, Total: %d, Accuracy: %.1f%%, Score: %d",
		s.Perfect, s.Good, s.Ok, s.Miss, s.Total, s.Accuracy*100, s.Score)
}
