// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the playback status view
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Control carries user intents from the TUI back to the session.
type Control struct {
	Volume chan int
	Mute   chan bool
	Quit   chan struct{}
}

// NewControl creates the control channel set.
func NewControl() *Control {
	return &Control{
		Volume: make(chan int, 10),
		Mute:   make(chan bool, 10),
		Quit:   make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model.
func NewModel(ctrl *Control) Model {
	return Model{
		volume: 100,
		state:  "starting",
		ctrl:   ctrl,
	}
}

// Run starts the TUI.
func Run(ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
