// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rhythm/internal/beat"
	"rhythm/internal/log"
	"rhythm/internal/session"
)

const (
	barWidth  = 30
	laneWidth = 40
	maxStep   = 250 * time.Millisecond // Longer gaps (suspend, stalls) are clamped.
)

type tickMsg time.Time

// Dashboard is the live session screen. The bubbletea loop owns the session:
// ticks, swings and restarts all run in Update.
type Dashboard struct {
	sess     *session.Session
	title    string
	interval time.Duration
	keys     keyMap
	help     help.Model

	last      time.Time
	clock     func() time.Time
	width     int
	beats     int
	lastSwing string
	err       error
}

// NewDashboard returns a dashboard ticking sess every interval.
func NewDashboard(sess *session.Session, title string, interval time.Duration) Dashboard {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return Dashboard{
		sess:     sess,
		title:    title,
		interval: interval,
		keys:     defaultKeys,
		help:     help.New(),
		clock:    time.Now,
	}
}

func (m Dashboard) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Dashboard) Init() tea.Cmd {
	return m.tick()
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tickMsg:
		now := time.Time(msg)
		dt := m.interval
		if !m.last.IsZero() {
			dt = min(now.Sub(m.last), maxStep)
		}
		m.last = now
		m.beats += m.sess.Tick(dt.Seconds())
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Left):
			m.swing(session.Left)
		case key.Matches(msg, m.keys.Right):
			m.swing(session.Right)
		case key.Matches(msg, m.keys.Restart):
			m.beats = 0
			m.lastSwing = ""
			if err := m.sess.Restart(); err != nil {
				m.err = err
				log.Errorf("tui: restart failed: %v", err)
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

// inputTime maps the wall clock onto session time. Keys arrive between ticks,
// so the time since the last tick is added to the session clock.
func (m Dashboard) inputTime() float64 {
	at := m.sess.Now()
	if !m.last.IsZero() && m.clock != nil {
		at += min(max(m.clock().Sub(m.last), 0), maxStep).Seconds()
	}
	return at
}

func (m *Dashboard) swing(hand session.Hand) {
	if _, scored := m.sess.SwingAt(hand, m.inputTime()); scored {
		m.lastSwing = m.sess.LastLabel()
	}
}

func (m Dashboard) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("  ")
	b.WriteString(m.status())
	b.WriteString("\n\n")

	b.WriteString(boxStyle.Render(m.bandsView()))
	b.WriteString("\n")
	if f := m.sess.Field(); f != nil {
		b.WriteString(boxStyle.Render(fieldView(f)))
		b.WriteString("\n")
	}
	b.WriteString(m.scoreView())
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(warnStyle.Render("error: "+m.err.Error()) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Dashboard) status() string {
	switch {
	case !m.sess.Started():
		return dimStyle.Render("stopped")
	case m.sess.Pending():
		return warnStyle.Render("starting...")
	case !m.sess.Source().Playing():
		return warnStyle.Render(fmt.Sprintf("%6.1fs  waiting for audio", m.sess.Now()))
	default:
		return infoStyle.Render(fmt.Sprintf("%6.1fs  %d beats", m.sess.Now(), m.beats))
	}
}

func (m Dashboard) bandsView() string {
	snap := m.sess.Snapshot()
	if len(snap.Bands) == 0 {
		return dimStyle.Render("no detector state yet")
	}

	rows := make([]string, 0, len(snap.Bands))
	for _, bs := range snap.Bands {
		since := "never"
		if bs.SinceLastBeat >= 0 {
			since = fmt.Sprintf("%.2fs", bs.SinceLastBeat)
		}
		state := highlightStyle.Render("armed  ")
		if !bs.Armed {
			state = warnStyle.Render("cooling")
		}
		ratio := 0.0
		if bs.Average > beat.Epsilon*beat.Epsilon {
			ratio = bs.Energy / bs.Average
		}
		rows = append(rows, fmt.Sprintf("%-5s %s %s pulse %s last %-6s e/avg %5.2f",
			bs.Name,
			meter(ratio/4, barWidth),
			state,
			meter(m.sess.Pulse().Level(bs.Band), 6),
			since,
			ratio,
		))
	}
	return strings.Join(rows, "\n")
}

func (m Dashboard) scoreView() string {
	sum := m.sess.Summary()
	line := infoStyle.Render(sum.String())
	if m.lastSwing != "" {
		style, ok := tierStyles[m.lastSwing]
		if !ok {
			style = infoStyle
		}
		line = lipgloss.JoinHorizontal(lipgloss.Top, style.Render(strings.ToUpper(m.lastSwing)), "  ", line)
	}
	return line
}

// fieldView draws one lane per hand; targets move right toward the wall.
func fieldView(f *session.Field) string {
	lanes := [2][]rune{
		[]rune(strings.Repeat("·", laneWidth)),
		[]rune(strings.Repeat("·", laneWidth)),
	}
	for _, t := range f.Targets() {
		pos := min(int(t.Progress*laneWidth), laneWidth-1)
		if t.Hand == session.Left || t.Hand == session.Right {
			lanes[t.Hand][pos] = '■'
		}
	}
	return fmt.Sprintf("L %s┃\nR %s┃", string(lanes[0]), string(lanes[1]))
}

// meter renders v in [0, 1] as a bar of width cells.
func meter(v float64, width int) string {
	if math.IsNaN(v) {
		v = 0
	}
	filled := int(math.Round(beat.Clamp01(v) * float64(width)))
	return highlightStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled))
}

// RunDashboard runs the dashboard until the user quits. While it runs, log
// output goes to logPath (discarded when empty) so it does not tear the screen.
func RunDashboard(sess *session.Session, title string, interval time.Duration, logPath string) error {
	var out io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening dashboard log: %w", err)
		}
		defer f.Close()
		out = f
	}
	log.SetOutput(out)
	defer log.SetOutput(os.Stderr)

	p := tea.NewProgram(NewDashboard(sess, title, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
