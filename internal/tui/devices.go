// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rhythm/internal/audio"
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// commonSampleRates are offered on the configuration screen in addition to
// the device's default rate.
var commonSampleRates = []float64{44100, 48000, 88200, 96000}

// Selection is the input device and rate the user confirmed.
type Selection struct {
	DeviceID   int
	Name       string
	SampleRate float64
}

// DevicePicker lets the user choose a capture device and sample rate.
type DevicePicker struct {
	fetch         func() ([]audio.Device, error)
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	sampleRates     []float64
	sampleRateIndex int

	selection *Selection
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// NewDevicePicker lists the input-capable devices returned by fetch.
func NewDevicePicker(fetch func() ([]audio.Device, error)) DevicePicker {
	return DevicePicker{fetch: fetch, activeScreen: ListScreen}
}

func (m DevicePicker) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		devices, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		inputs := devices[:0:0]
		for _, d := range devices {
			if d.MaxInputChannels > 0 {
				inputs = append(inputs, d)
			}
		}
		return devicesMsg{inputs}
	}
}

var (
	upKey    = key.NewBinding(key.WithKeys("up", "k"))
	downKey  = key.NewBinding(key.WithKeys("down", "j"))
	enterKey = key.NewBinding(key.WithKeys("enter"))
	backKey  = key.NewBinding(key.WithKeys("esc"))
	quitKey  = key.NewBinding(key.WithKeys("q", "ctrl+c"))
)

func (m DevicePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()

	case devicesMsg:
		m.devices = msg.devices
		m.selectedIndex = 0
		m.refresh()

	case errMsg:
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, quitKey) {
			return m, tea.Quit
		}

		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, upKey):
				if m.selectedIndex > 0 {
					m.selectedIndex--
				}
			case key.Matches(msg, downKey):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
				}
			case key.Matches(msg, enterKey):
				if len(m.devices) > 0 {
					m.activeScreen = ConfigScreen
					m.sampleRates, m.sampleRateIndex = sampleRatesFor(m.devices[m.selectedIndex])
				}
			}

		case ConfigScreen:
			switch {
			case key.Matches(msg, backKey):
				m.activeScreen = ListScreen
			case key.Matches(msg, upKey):
				if m.sampleRateIndex > 0 {
					m.sampleRateIndex--
				}
			case key.Matches(msg, downKey):
				if m.sampleRateIndex < len(m.sampleRates)-1 {
					m.sampleRateIndex++
				}
			case key.Matches(msg, enterKey):
				d := m.devices[m.selectedIndex]
				m.selection = &Selection{
					DeviceID:   d.ID,
					Name:       d.Name,
					SampleRate: m.sampleRates[m.sampleRateIndex],
				}
				return m, tea.Quit
			}
		}
		m.refresh()
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *DevicePicker) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ConfigScreen {
		m.viewport.SetContent(m.renderDeviceConfig())
	} else {
		m.viewport.SetContent(m.renderDevices())
	}
}

// sampleRatesFor returns the offered rates for d with the index of its default.
func sampleRatesFor(d audio.Device) ([]float64, int) {
	rates := append([]float64(nil), commonSampleRates...)
	for i, r := range rates {
		if r == d.DefaultSampleRate {
			return rates, i
		}
	}
	if d.DefaultSampleRate <= 0 {
		return rates, 0
	}
	rates = append([]float64{d.DefaultSampleRate}, rates...)
	return rates, 0
}

func (m DevicePicker) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	if !m.ready {
		return "Initializing..."
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Input Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Configure • q: Quit")
	} else {
		title = titleStyle.Render("Device Configuration")
		help = infoStyle.Render("↑/↓: Change Rate • Enter: Select • Esc: Back • q: Quit")
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DevicePicker) renderDevices() string {
	if len(m.devices) == 0 {
		return "No input devices found."
	}

	var sb strings.Builder
	for i, d := range m.devices {
		def := ""
		if d.IsDefaultInput {
			def = " [default]"
		}
		info := fmt.Sprintf("[%d] %s (%s)%s\n", d.ID, d.Name, d.HostAPI, def)
		info += fmt.Sprintf("    Input channels: %d, latency: %s - %s\n",
			d.MaxInputChannels, d.LowInputLatency, d.HighInputLatency)
		info += fmt.Sprintf("    Default sample rate: %.0f Hz\n", d.DefaultSampleRate)

		if i == m.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m DevicePicker) renderDeviceConfig() string {
	var sb strings.Builder
	d := m.devices[m.selectedIndex]

	fmt.Fprintf(&sb, "Configure Device: %s\n\n", d.Name)
	sb.WriteString("Sample Rate:\n")
	for i, rate := range m.sampleRates {
		marker := " "
		if i == m.sampleRateIndex {
			marker = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz\n", marker, rate)
		if i == m.sampleRateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// Selection returns the confirmed choice, nil if the user quit without one.
func (m DevicePicker) Selection() *Selection { return m.selection }

// Err returns the device enumeration error, if any.
func (m DevicePicker) Err() error { return m.err }

// PickDevice runs the picker. It returns nil without error when the user quits.
func PickDevice(fetch func() ([]audio.Device, error)) (*Selection, error) {
	p := tea.NewProgram(NewDevicePicker(fetch), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	picker := final.(DevicePicker)
	if picker.Err() != nil {
		return nil, picker.Err()
	}
	return picker.Selection(), nil
}
