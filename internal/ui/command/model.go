// Package command is the ":" palette. It parses a typed line into a
// Command; the app executes it.
package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/teamkonekt/konekt/internal/theme"
)

// Command names.
const (
	Refresh  = "refresh"
	Quit     = "quit"
	SignOut  = "signout"
	Password = "password"
	Summary  = "summary"
	View     = "view"
	Go       = "go"
	Theme    = "theme"
	New      = "new"
)

var aliases = map[string]string{
	"r":       Refresh,
	"q":       Quit,
	"exit":    Quit,
	"logout":  SignOut,
	"passwd":  Password,
	"tab":     Go,
	"compose": New,
}

// argRequired lists the commands that take an argument.
var argRequired = map[string]bool{
	View:  true,
	Go:    true,
	Theme: true,
}

// Command is a parsed palette line.
type Command struct {
	Name string
	Arg  string
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Command Command
}

// CancelMsg is emitted when the palette is closed without a command.
type CancelMsg struct{}

// Parse splits a line into a command name and its argument.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	name, arg, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	if a, ok := aliases[name]; ok {
		name = a
	}
	arg = strings.TrimSpace(arg)

	switch name {
	case Refresh, Quit, SignOut, Password, Summary, View, Go, Theme, New:
	case "":
		return Command{}, fmt.Errorf("empty command")
	default:
		return Command{}, fmt.Errorf("unknown command %q", name)
	}
	if argRequired[name] && arg == "" {
		return Command{}, fmt.Errorf("%s needs an argument", name)
	}
	return Command{Name: name, Arg: arg}, nil
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    string
	width  int
	height int
}

// NewModel creates a new command palette model.
func NewModel(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "refresh, go tasks, view pending, theme green..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions([]string{
		Refresh, Quit, SignOut, Password, Summary,
		"go home", "go tasks", "go announcements", "go suggestions", "go employees", "go more",
		"view ", "theme ", New,
	})
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			line := m.input.Value()
			c, err := Parse(line)
			if err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.input.Reset()
			m.err = ""
			return m, func() tea.Msg { return CommandMsg{Command: c} }
		case "esc":
			m.input.Reset()
			m.err = ""
			return m, func() tea.Msg { return CancelMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render("Command Palette"), m.input.View()}
	if m.err != "" {
		parts = append(parts, theme.OverdueStyle.Render(m.err))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
