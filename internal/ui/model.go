// ABOUTME: Bubbletea model for the playback TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state.
type Model struct {
	// Connection
	connected  bool
	serverName string

	// Gate
	unlocked bool

	// Scheduler
	pending       int
	ready         int
	activeSources int
	deviceTime    float64
	cursor        float64
	playing       bool
	pitch         float64

	// Speech
	transcript string
	tools      []string

	// Controls
	controls *Controls

	// Dimensions
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
	s += m.renderScheduler()
	s += m.renderSpeech()
	s += m.renderHelp()

	return s
}

// renderHeader renders connection and gate status.
func (m Model) renderHeader() string {
	connStatus := "Disconnected"
	if m.connected {
		connStatus = fmt.Sprintf("Connected to %s", m.serverName)
	}

	gateIcon := "🔒"
	gateText := "Locked (press space to unlock output)"
	if m.unlocked {
		gateIcon = "✓"
		gateText = "Unlocked"
	}

	return fmt.Sprintf(`┌─ Vocalis Player ─────────────────────────────────────┐
│ Status: %-45s │
│ Gate:   %s %-42s │
├──────────────────────────────────────────────────────┤
`, connStatus, gateIcon, gateText)
}

// renderScheduler renders queue depths and timeline position.
func (m Model) renderScheduler() string {
	state := "idle"
	if m.playing {
		state = "playing"
	}

	s := fmt.Sprintf("│ State:  %-45s │\n", state)
	s += fmt.Sprintf("│ Queues: pending %d  ready %d  live %d%-16s │\n",
		m.pending, m.ready, m.activeSources, "")
	s += fmt.Sprintf("│ Clock:  %.2fs  cursor %.2fs%-24s │\n",
		m.deviceTime, m.cursor, "")
	s += fmt.Sprintf("│ Pitch:  %.2fx%-40s │\n", m.pitch, "")

	return s
}

// renderSpeech renders the latest transcript and detected tools.
func (m Model) renderSpeech() string {
	if m.transcript == "" {
		return "│ No transcript yet                                    │\n"
	}

	s := fmt.Sprintf("│ Heard:  %-45s │\n", truncate(m.transcript, 45))
	if len(m.tools) > 0 {
		s += fmt.Sprintf("│ Tools:  %-45s │\n", truncate(joinTools(m.tools), 45))
	}

	return s
}

// renderHelp renders keyboard shortcuts.
func (m Model) renderHelp() string {
	return `│ space:Unlock  s:Stop  f:Flush  +/-:Pitch  q:Quit    │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input by forwarding commands to the app
// layer; playback state only changes via StatusMsg echoes.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.send(CmdQuit)
		return m, tea.Quit
	case " ":
		m.send(CmdUnlock)
	case "s":
		m.send(CmdStop)
	case "f":
		m.send(CmdFlush)
	case "+", "=":
		m.send(CmdPitchUp)
	case "-":
		m.send(CmdPitchDown)
	}

	return m, nil
}

func (m Model) send(c Command) {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Commands <- c:
	default:
	}
}

// applyStatus updates model from a status message.
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.ServerName != "" {
		m.serverName = msg.ServerName
	}
	if msg.Unlocked != nil {
		m.unlocked = *msg.Unlocked
	}
	if msg.Playing != nil {
		m.playing = *msg.Playing
	}
	if msg.HasSchedule {
		m.pending = msg.Pending
		m.ready = msg.Ready
		m.activeSources = msg.ActiveSources
		m.deviceTime = msg.DeviceTime
		m.cursor = msg.Cursor
	}
	if msg.Pitch != 0 {
		m.pitch = msg.Pitch
	}
	if msg.Transcript != "" {
		m.transcript = msg.Transcript
		m.tools = msg.Tools
	}
}

// StatusMsg updates TUI state. Optional fields use pointers or a
// presence flag so partial updates never clobber prior values.
type StatusMsg struct {
	Connected  *bool
	ServerName string
	Unlocked   *bool
	Playing    *bool

	HasSchedule   bool
	Pending       int
	Ready         int
	ActiveSources int
	DeviceTime    float64
	Cursor        float64

	Pitch      float64
	Transcript string
	Tools      []string
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func joinTools(tools []string) string {
	out := ""
	for i, t := range tools {
		if i > 0 {
			out += ", "
		}
		out += t
	}
	return out
}
