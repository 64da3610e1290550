// Package detail shows the full text of one entity in a scrollable
// viewport.
package detail

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/teamkonekt/konekt/internal/keys"
	"github.com/teamkonekt/konekt/internal/theme"
)

// BackMsg signals the parent to return to the list.
type BackMsg struct{}

// Model is the detail view.
type Model struct {
	title    string
	body     string
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width-4, height-4)
	vp.Style = lipgloss.NewStyle()
	return Model{viewport: vp, keys: k, width: width, height: height}
}

// Show replaces the content and scrolls to the top.
func (m *Model) Show(title, body string) {
	m.title = title
	m.body = body
	m.viewport.SetContent(m.render())
	m.viewport.GotoTop()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back, m.keys.Open) {
		return m, func() tea.Msg { return BackMsg{} }
	}

	// j/k, up/down and pgup/pgdown scroll.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return theme.DetailPanelStyle.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(m.viewport.View())
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 4
	m.viewport.Height = height - 4
	m.viewport.SetContent(m.render())
}

func (m Model) render() string {
	title := theme.HeaderStyle.Render(m.title)
	body := lipgloss.NewStyle().Width(m.viewport.Width).Render(m.body)
	return lipgloss.JoinVertical(lipgloss.Left, title, "", body)
}

var (
	labelStyle = lipgloss.NewStyle().Foreground(theme.ColorGray)
	valueStyle = lipgloss.NewStyle().Foreground(theme.ColorWhite)
)

// Fields renders label/value pairs, one per line, skipping empty values.
// pairs alternates label and value.
func Fields(pairs ...string) string {
	var lines []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		lines = append(lines, labelStyle.Render(pairs[i]+":")+"  "+valueStyle.Render(pairs[i+1]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
