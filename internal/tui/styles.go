// SPDX-License-Identifier: MIT
package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E8A33D")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			Padding(0, 1)

	tierStyles = map[string]lipgloss.Style{
		"perfect!": lipgloss.NewStyle().Foreground(lipgloss.Color("#F5D000")).Bold(true),
		"good":     lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065")).Bold(true),
		"ok":       lipgloss.NewStyle().Foreground(lipgloss.Color("#4A90E2")),
		"miss":     lipgloss.NewStyle().Foreground(lipgloss.Color("#D0453A")),
	}
)
