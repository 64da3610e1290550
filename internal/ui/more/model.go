// Package more is the account screen: profile, recent badge activity and
// the account actions.
package more

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/teamkonekt/konekt/internal/keys"
	"github.com/teamkonekt/konekt/internal/model"
	"github.com/teamkonekt/konekt/internal/theme"
	"github.com/teamkonekt/konekt/internal/ui/detail"
)

// Name routes LoadedMsg to this screen.
const Name = "more"

// eventLimit caps the activity list.
const eventLimit = 20

// Action is an account action requested from the screen.
type Action int

const (
	ActionPassword Action = iota
	ActionSummaryTime
	ActionSignOut
)

// ActionMsg asks the app to run an account action.
type ActionMsg struct {
	Action Action
}

// LoadedMsg carries the profile and the badge journal.
type LoadedMsg struct {
	Profile model.UserProfile
	Events  []model.BadgeEvent
	Err     error
}

// Profiles loads the signed-in user. *session.Manager satisfies it.
type Profiles interface {
	Profile(ctx context.Context) (model.UserProfile, error)
}

// Journal reads the recorded badge increases. *store.SQLiteStore
// satisfies it.
type Journal interface {
	RecentBadgeEvents(ctx context.Context, limit int) ([]model.BadgeEvent, error)
}

type Model struct {
	profiles Profiles
	journal  Journal
	keys     *keys.KeyMap
	session  model.Session
	profile  model.UserProfile
	events   []model.BadgeEvent
	loaded   bool
	err      error
	now      func() time.Time
	width    int
	height   int
}

func New(p Profiles, j Journal, k *keys.KeyMap, sess model.Session, width, height int) *Model {
	return &Model{
		profiles: p,
		journal:  j,
		keys:     k,
		session:  sess,
		now:      time.Now,
		width:    width,
		height:   height,
	}
}

func (m *Model) Name() string  { return Name }
func (m *Model) Title() string { return "More" }

func (m *Model) Init() tea.Cmd { return m.Refresh() }

// Refresh reloads the profile and the activity list.
func (m *Model) Refresh() tea.Cmd {
	p, j := m.profiles, m.journal
	return func() tea.Msg {
		ctx := context.Background()
		var msg LoadedMsg
		profile, err := p.Profile(ctx)
		if err != nil {
			msg.Err = fmt.Errorf("loading profile: %w", err)
		}
		msg.Profile = profile
		if j != nil {
			events, jerr := j.RecentBadgeEvents(ctx, eventLimit)
			if jerr != nil && msg.Err == nil {
				msg.Err = fmt.Errorf("loading activity: %w", jerr)
			}
			msg.Events = events
		}
		return msg
	}
}

// Close is a no-op; the screen holds no background work.
func (m *Model) Close() {}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loaded = true
		m.err = msg.Err
		if msg.Profile.ID != 0 {
			m.profile = msg.Profile
		}
		m.events = msg.Events
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			return m.Refresh()
		case key.Matches(msg, m.keys.Password):
			return action(ActionPassword)
		case key.Matches(msg, m.keys.Summary):
			if m.session.IsManager() {
				return action(ActionSummaryTime)
			}
		case key.Matches(msg, m.keys.SignOut):
			return action(ActionSignOut)
		}
	}
	return nil
}

func action(a Action) tea.Cmd {
	return func() tea.Msg { return ActionMsg{Action: a} }
}

func (m *Model) View() string {
	section := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginTop(1)

	role := "Employee"
	if m.session.IsManager() {
		role = "Manager"
	}
	profile := detail.Fields(
		"Name", m.profile.Username,
		"Email", m.profile.Email,
		"Role", role,
		"Company", m.session.OrganizationName,
	)
	if !m.loaded {
		profile = theme.DimmedStyle.Render("Loading...")
	}

	parts := []string{section.Render("Account"), profile, section.Render("Recent activity"), m.renderEvents()}
	if m.err != nil {
		parts = append(parts, "", theme.OverdueStyle.Render(m.err.Error()))
	}

	return lipgloss.NewStyle().
		Padding(0, 2).
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *Model) renderEvents() string {
	if len(m.events) == 0 {
		return theme.DimmedStyle.Render("No new activity.")
	}
	now := m.now()
	var b strings.Builder
	for i, e := range m.events {
		if i > 0 {
			b.WriteByte('\n')
		}
		line := fmt.Sprintf("%-14s %s  %d → %d",
			categoryTitle(e.Category),
			humanize.RelTime(e.CreatedAt, now, "ago", "from now"),
			e.Previous, e.Current)
		if e.Read {
			line = theme.DimmedStyle.Render(line)
		} else {
			line = lipgloss.NewStyle().Bold(true).Render("• " + line)
		}
		b.WriteString(line)
	}
	return b.String()
}

func categoryTitle(c model.Category) string {
	switch c {
	case model.CategoryHome:
		return "Reports"
	case model.CategoryTasks:
		return "Tasks"
	case model.CategoryAnnouncements:
		return "Announcements"
	case model.CategorySuggestions:
		return "Suggestions"
	}
	return string(c)
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Hints returns the status bar hints for this screen.
func (m *Model) Hints() string {
	hint := "P change password · L sign out · r refresh"
	if m.session.IsManager() {
		hint = "P change password · S summary time · L sign out · r refresh"
	}
	return hint
}
