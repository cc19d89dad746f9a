// SPDX-License-Identifier: MIT
package beat

import "fmt"

// Settings are the detection parameters shared by every band.
type Settings struct {
	Sensitivity      float64
	InitialThreshold float64
	VarianceWeight   float64
	RelaxRate        float64
	HistorySize      int
	MinHistory       int
	MinCooldown      float64
	MaxCooldown      float64
}

// DefaultSettings mirrors the tuning the game shipped with.
func DefaultSettings() Settings {
	return Settings{
		Sensitivity:      1.5,
		InitialThreshold: DefaultInitialThreshold,
		VarianceWeight:   0.1,
		RelaxRate:        DefaultRelaxRate,
		HistorySize:      3,
		MinHistory:       1,
		MinCooldown:      0.15,
		MaxCooldown:      0.4,
	}
}

// Sanitize repairs values that would make detection meaningless and returns a
// warning for each repair. It never fails.
func (s *Settings) Sanitize() []string {
	var warnings []string
	warn := func(format string, v ...any) {
		warnings = append(warnings, fmt.Sprintf(format, v...))
	}

	if s.HistorySize < 1 {
		warn("history size %d is below 1, using 1", s.HistorySize)
		s.HistorySize = 1
	}
	if s.MinHistory < 0 {
		warn("min history %d is negative, using 0", s.MinHistory)
		s.MinHistory = 0
	}
	if s.MinHistory > s.HistorySize {
		warn("min history %d exceeds history size %d, using %d", s.MinHistory, s.HistorySize, s.HistorySize)
		s.MinHistory = s.HistorySize
	}
	if s.Sensitivity <= 0 {
		warn("sensitivity %.3f is not positive, using 1", s.Sensitivity)
		s.Sensitivity = 1
	}
	if s.RelaxRate < 0 {
		warn("relax rate %.3f is negative, using %.1f", s.RelaxRate, DefaultRelaxRate)
		s.RelaxRate = DefaultRelaxRate
	}
	if s.VarianceWeight < 0 {
		warn("variance weight %.3f is negative, using 0", s.VarianceWeight)
		s.VarianceWeight = 0
	}
	if s.MinCooldown < 0 {
		warn("min cooldown %.3f is negative, using 0", s.MinCooldown)
		s.MinCooldown = 0
	}
	if s.MaxCooldown < s.MinCooldown {
		warn("max cooldown %.3f is below min cooldown %.3f, using min", s.MaxCooldown, s.MinCooldown)
		s.MaxCooldown = s.MinCooldown
	}
	return warnings
}

// CheckBand returns a warning for each anomaly in b. Anomalies are not repaired:
// an inverted range simply makes the band silent.
func CheckBand(b Band) []string {
	var warnings []string
	if !b.Valid() {
		warnings = append(warnings, fmt.Sprintf("band %s: min %.1f Hz >= max %.1f Hz, band is silent", b.Name(), b.MinHz, b.MaxHz))
	}
	if b.Weight <= 0 {
		warnings = append(warnings, fmt.Sprintf("band %s: weight %.3f is not positive", b.Name(), b.Weight))
	}
	if b.SuddenIncreaseMultiplier <= 0 {
		warnings = append(warnings, fmt.Sprintf("band %s: sudden increase multiplier %.3f is not positive", b.Name(), b.SuddenIncreaseMultiplier))
	}
	return warnings
}
