// SPDX-License-Identifier: MIT
package log

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		want  LogLevel
		known bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"warning", LevelWarn, true},
		{" Error ", LevelError, true},
		{"fatal", LevelFatal, true},
		{"verbose", LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, ok)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nopWriter{})
	prev := GetLevel()
	defer SetLevel(prev)

	SetLevel(LevelWarn)
	Debugf("hidden %d", 1)
	Infof("hidden %d", 2)
	Warnf("shown %d", 3)
	Errorf("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, 2, strings.Count(out, "shown"))
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "[ERROR]")
}

func TestThrottle(t *testing.T) {
	th := NewThrottle(5 * time.Second)

	assert.True(t, th.Allow(0), "first event always passes")
	assert.False(t, th.Allow(Seconds(1)))
	assert.False(t, th.Allow(Seconds(4.999)))
	assert.True(t, th.Allow(Seconds(5)))
	assert.False(t, th.Allow(Seconds(9)))

	th.Reset()
	assert.True(t, th.Allow(Seconds(9)))
}

func TestThrottleNonPositiveInterval(t *testing.T) {
	th := NewThrottle(0)
	for i := range 5 {
		assert.True(t, th.Allow(Seconds(float64(i)*0.001)))
	}
}

func TestNilThrottle(t *testing.T) {
	var th *Throttle
	assert.False(t, th.Allow(time.Hour))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
