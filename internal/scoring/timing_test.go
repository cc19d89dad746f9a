// SPDX-License-Identifier: MIT
package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyBoundaries(t *testing.T) {
	w := Window{Perfect: 0.05, Good: 0.12, Ok: 0.2}
	tests := []struct {
		elapsed float64
		want    Tier
	}{
		{0, Perfect},
		{0.05, Perfect},
		{0.0501, Good},
		{0.119, Good},
		{0.12, Good},
		{0.2, Ok},
		{0.201, Miss},
		{5, Miss},
		{math.Inf(1), Miss},
		{math.NaN(), Miss},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.Classify(tt.elapsed), "elapsed %v", tt.elapsed)
	}
}

func TestClassifyMonotonic(t *testing.T) {
	w := DefaultWindow()
	prev := w.Classify(0)
	for elapsed := 0.0; elapsed < 1; elapsed += 0.0005 {
		tier := w.Classify(elapsed)
		assert.Contains(t, Tiers[:], tier)
		assert.LessOrEqual(t, tier, prev, "tier improved at %.4f", elapsed)
		prev = tier
	}
}

func TestElapsed(t *testing.T) {
	assert.True(t, math.IsInf(Elapsed(3, 0, false), 1))
	assert.InDelta(t, 0.5, Elapsed(3, 2.5, true), 1e-12)
	assert.Equal(t, Miss, DefaultWindow().Classify(Elapsed(3, 0, false)))
}

func TestWindowSanitize(t *testing.T) {
	w := Window{Perfect: -1, Good: 0.3, Ok: 0.1}
	warnings := w.Sanitize()
	assert.Len(t, warnings, 2)
	assert.Equal(t, Window{Perfect: 0, Good: 0.3, Ok: 0.3}, w)

	d := DefaultWindow()
	assert.Empty(t, d.Sanitize())
}

func TestTierLabels(t *testing.T) {
	assert.Equal(t, "perfect!", Perfect.Label())
	assert.Equal(t, "good", Good.Label())
	assert.Equal(t, "ok", Ok.Label())
	assert.Equal(t, "miss", Miss.Label())
	assert.Equal(t, "Tier(9)", Tier(9).String())
}
