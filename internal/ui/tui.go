// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the playback UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Command is a user action forwarded to the app layer.
type Command int

const (
	CmdUnlock Command = iota
	CmdStop
	CmdFlush
	CmdPitchUp
	CmdPitchDown
	CmdQuit
)

// Controls holds the channel for keyboard-driven playback commands.
type Controls struct {
	Commands chan Command
}

// NewControls creates a control handler.
func NewControls() *Controls {
	return &Controls{
		Commands: make(chan Command, 10),
	}
}

// NewModel creates a TUI model.
func NewModel(controls *Controls) Model {
	return Model{
		pitch:    1.0,
		controls: controls,
	}
}

// Run starts the TUI program.
func Run(controls *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(controls), tea.WithAltScreen())
	return p, nil
}
