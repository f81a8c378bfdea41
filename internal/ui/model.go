// ABOUTME: Bubbletea model for the playback status view
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state.
type Model struct {
	// Stream
	title    string
	backend  string
	format   string
	rate     int
	surround bool

	// Playback
	state  string
	volume int
	muted  bool
	speed  float64

	// Stats
	submitted  int64
	underruns  int64
	shortReads int64
	downgraded bool

	ctrl *Control

	width  int
	height int
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}
	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderStreamInfo()
	s += m.renderControls()
	s += m.renderStats()
	s += m.renderHelp()
	return s
}

func (m Model) renderHeader() string {
	return fmt.Sprintf(`┌─ Resound ────────────────────────────────────────────┐
│ State: %-45s │
├──────────────────────────────────────────────────────┤
`, m.state)
}

func (m Model) renderStreamInfo() string {
	if m.title == "" {
		return "│ No stream                                            │\n"
	}
	mode := "stereo"
	if m.surround {
		mode = "5.1"
	}
	s := fmt.Sprintf("│ Playing: %-43s │\n", truncate(m.title, 43))
	s += fmt.Sprintf("│ Output:  %s via %s, %d Hz, %s%-12s │\n",
		mode, m.backend, m.rate, m.format, "")
	return s
}

func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " muted"
	}
	volumeBar := renderBar(m.volume, 100, 10)
	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %d%%%s%-20s │\n"+
		"│ Speed:  %.2fx%-40s │\n",
		volumeBar, m.volume, muteIcon, "", m.speed, "")
}

func (m Model) renderStats() string {
	downgrade := ""
	if m.downgraded {
		downgrade = "  (surround downgraded)"
	}
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Buffers: %d  Underruns: %d  Starved: %d%-12s │
│%-54s│
`, m.submitted, m.underruns, m.shortReads, "", downgrade)
}

func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  q:Quit                          │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.ctrl != nil {
			select {
			case m.ctrl.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.volume += 5
		if m.volume > 100 {
			m.volume = 100
		}
		m.sendVolume()
	case "down":
		m.volume -= 5
		if m.volume < 0 {
			m.volume = 0
		}
		m.sendVolume()
	case "m":
		m.muted = !m.muted
		if m.ctrl != nil {
			select {
			case m.ctrl.Mute <- m.muted:
			default:
			}
		}
	}
	return m, nil
}

func (m Model) sendVolume() {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Volume <- m.volume:
	default:
	}
}

// applyStatus updates model from a status message.
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Title != "" {
		m.title = msg.Title
	}
	if msg.Backend != "" {
		m.backend = msg.Backend
		m.format = msg.Format
		m.rate = msg.Rate
		m.surround = msg.Surround
	}
	if msg.Speed != 0 {
		m.speed = msg.Speed
	}
	if msg.HasStats {
		m.submitted = msg.Submitted
		m.underruns = msg.Underruns
		m.shortReads = msg.ShortReads
		m.downgraded = msg.Downgraded
	}
}

// StatusMsg updates TUI state.
type StatusMsg struct {
	State    string
	Title    string
	Backend  string
	Format   string
	Rate     int
	Surround bool
	Speed    float64

	HasStats   bool
	Submitted  int64
	Underruns  int64
	ShortReads int64
	Downgraded bool
}

// Utility functions.
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
