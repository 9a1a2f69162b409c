package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dedene/narrowlink-cli/internal/channels"
)

// State represents the current phase of the TUI model.
type State int

const (
	// StatePicking is the fuzzy channel picker phase.
	StatePicking State = iota
	// StateTopic is the optional topic input phase.
	StateTopic
	// StateDone means the TUI is finished and ready to quit.
	StateDone
)

// Model is the bubbletea model for the channel picker.
type Model struct {
	state     State
	list      list.Model
	askTopic  bool
	selected  *channels.Channel
	cancelled bool
	width     int
	ready     bool

	input textinput.Model
	topic string
}

// NewPicker creates a picker over items. When askTopic is set, choosing a
// channel moves on to a topic prompt; an empty topic means the whole channel.
func NewPicker(items []list.Item, askTopic bool) Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select a channel"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()

	return Model{
		state:    StatePicking,
		list:     l,
		askTopic: askTopic,
	}
}

// Init returns the initial command. The list handles its own init internally.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.list.SetSize(wsm.Width, wsm.Height-2)
		m.input.Width = max(wsm.Width-12, 0)
		m.ready = true

		return m, nil
	}

	switch m.state {
	case StatePicking:
		return m.updatePicking(msg)
	case StateTopic:
		return m.updateTopic(msg)
	}

	return m, nil
}

func (m Model) updatePicking(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c":
			return m.cancel()

		case "esc":
			if m.list.FilterState() != list.Filtering {
				return m.cancel()
			}

		case "enter":
			if m.list.FilterState() == list.Filtering {
				break
			}

			return m.handlePickEnter()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m Model) cancel() (tea.Model, tea.Cmd) {
	m.cancelled = true
	m.state = StateDone

	return m, tea.Quit
}

// View renders the current TUI state.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.state {
	case StatePicking:
		return m.list.View()
	case StateTopic:
		return m.viewTopic()
	}

	return ""
}

// Selected returns the selected channel, or nil if none selected.
func (m Model) Selected() *channels.Channel { return m.selected }

// Cancelled returns true if the user cancelled the picker.
func (m Model) Cancelled() bool { return m.cancelled }

// State returns the current picker state.
func (m Model) State() State { return m.state }

// Topic returns the confirmed topic, trimmed. Empty means no topic.
func (m Model) Topic() string { return m.topic }

func (m Model) handlePickEnter() (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(ChannelItem)
	if !ok {
		return m, nil
	}

	c := item.Channel()
	m.selected = &c

	if !m.askTopic {
		m.state = StateDone

		return m, tea.Quit
	}

	ti := textinput.New()
	ti.Placeholder = "leave empty for the whole channel"
	ti.CharLimit = 60

	if m.width > 12 {
		ti.Width = m.width - 12
	}

	ti.Focus()

	m.input = ti
	m.state = StateTopic

	return m, textinput.Blink
}

func (m Model) updateTopic(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c":
			return m.cancel()

		case "esc":
			m.state = StatePicking
			m.selected = nil
			m.input.Blur()

			return m, nil

		case "enter":
			m.topic = strings.TrimSpace(m.input.Value())
			m.state = StateDone

			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m Model) viewTopic() string {
	name := ""
	if m.selected != nil {
		name = m.selected.Name
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Channel: %s\n\n", name)
	fmt.Fprintf(&b, "  Topic: %s\n", m.input.View())
	b.WriteString("\n  Enter: confirm | Esc: back | Ctrl+C: quit\n")

	return b.String()
}
