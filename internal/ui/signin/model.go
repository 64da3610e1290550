// Package signin renders the email and password form shown while no
// session is active.
package signin

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/teamkonekt/konekt/internal/theme"
)

// SubmitMsg carries the entered credentials.
type SubmitMsg struct {
	Email    string
	Password string
}

// QuitMsg is sent when the user aborts the form.
type QuitMsg struct{}

// bindings lives on the heap so huh's Value pointers survive model copies.
type bindings struct {
	email    string
	password string
}

// Model is the sign-in screen.
type Model struct {
	form    *huh.Form
	fb      *bindings
	err     string
	pending bool
	width   int
	height  int
}

func New(width, height int) Model {
	return Model{fb: &bindings{}, width: width, height: height}
}

// Start resets the password and builds a fresh form. The last email is
// kept so a retry only needs the password.
func (m *Model) Start() tea.Cmd {
	m.fb.password = ""
	m.pending = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@company.com").
				Value(&m.fb.email).
				Validate(required("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(required("Password")),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
	return m.form.Init()
}

// SetError shows a failed attempt and reopens the form.
func (m *Model) SetError(msg string) tea.Cmd {
	m.err = msg
	return m.Start()
}

// Pending reports whether a submitted sign-in is in flight.
func (m Model) Pending() bool { return m.pending }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.pending {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.pending = true
		m.err = ""
		sub := SubmitMsg{Email: strings.TrimSpace(m.fb.email), Password: m.fb.password}
		return m, func() tea.Msg { return sub }
	case huh.StateAborted:
		return m, func() tea.Msg { return QuitMsg{} }
	}
	return m, cmd
}

func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render("Sign in to TeamKonekt")

	body := ""
	switch {
	case m.pending:
		body = theme.DimmedStyle.Render("Signing in...")
	case m.form != nil:
		body = m.form.View()
	}

	parts := []string{title, "", body}
	if m.err != "" {
		parts = append(parts, "", theme.OverdueStyle.Render(m.err))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBlue).
		Padding(1, 3).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width / 2
	if w < 36 {
		w = 36
	}
	if w > 60 {
		w = 60
	}
	return w
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
