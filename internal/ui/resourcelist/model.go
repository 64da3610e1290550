// Package resourcelist is the list screen shared by every resource tab.
// It renders a pagination.Controller's items with bubbles/list, loads the
// next page when the cursor reaches the end, and turns key presses into
// controller operations run as Bubble Tea commands.
package resourcelist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/teamkonekt/konekt/internal/keys"
	"github.com/teamkonekt/konekt/internal/pagination"
	"github.com/teamkonekt/konekt/internal/theme"
)

// LoadedMsg reports the end of a page load.
type LoadedMsg struct {
	Name string
	Err  error
}

// DoneMsg reports the end of a user action. Info is shown in the status
// bar on success.
type DoneMsg struct {
	Name string
	Info string
	Err  error
}

// SetViewMsg switches the focused list to the named view. View may be
// the server name ("due/week") or its label ("due this week").
type SetViewMsg struct {
	View string
}

// EditMsg asks the app to open the edit form for Item.
type EditMsg struct {
	Name string
	Item any
}

// OpenMsg asks the parent to show an entity's full text.
type OpenMsg struct {
	Title string
	Body  string
}

// Action is an extra per-item command bound to a key.
type Action[T pagination.Entity] struct {
	Key key.Binding
	Run func(ctx context.Context, item T) (string, error)
}

// Config describes one resource tab.
type Config[T pagination.Entity] struct {
	// Name routes messages back to this list; it matches the controller name.
	Name  string
	Title string

	// Views are the server-side views cycled with NextView. The first is
	// the default.
	Views     []string
	ViewLabel func(view string) string

	Row func(T) Row

	// Advance returns the status enter moves an item to.
	Advance func(T) (string, bool)

	Deletable bool
	Editable  bool
	Actions   []Action[T]

	// Body renders the full text shown by Open.
	Body func(T) string
}

// Model is one resource tab.
type Model[T pagination.Entity] struct {
	cfg     Config[T]
	ctrl    *pagination.Controller[T]
	keys    *keys.KeyMap
	list    list.Model
	spinner spinner.Model
	view    int
	width   int
	height  int
}

// New creates a list over ctrl.
func New[T pagination.Entity](cfg Config[T], ctrl *pagination.Controller[T], k *keys.KeyMap, width, height int) *Model[T] {
	if len(cfg.Views) == 0 {
		cfg.Views = []string{""}
	}
	if cfg.ViewLabel == nil {
		cfg.ViewLabel = defaultViewLabel
	}

	l := list.New([]list.Item{}, delegate{}, width, height-1)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model[T]{
		cfg:     cfg,
		ctrl:    ctrl,
		keys:    k,
		list:    l,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

func defaultViewLabel(v string) string {
	if v == "" {
		return "all"
	}
	return v
}

// Name returns the resource name.
func (m *Model[T]) Name() string { return m.cfg.Name }

// Title returns the tab title.
func (m *Model[T]) Title() string { return m.cfg.Title }

// Init primes the list from the cached snapshot. Loading page 1 is left
// to Refresh or to the focus hook of the owning screen.
func (m *Model[T]) Init() tea.Cmd {
	return tea.Batch(m.prime(), m.spinner.Tick)
}

func (m *Model[T]) prime() tea.Cmd {
	ctrl, name := m.ctrl, m.cfg.Name
	return func() tea.Msg {
		return LoadedMsg{Name: name, Err: ctrl.Prime(context.Background())}
	}
}

// Refresh reloads page 1 of the current view.
func (m *Model[T]) Refresh() tea.Cmd {
	ctrl, name := m.ctrl, m.cfg.Name
	f := pagination.Filter{View: m.cfg.Views[m.view]}
	return func() tea.Msg {
		err := ctrl.LoadFirstPage(context.Background(), f)
		if errors.Is(err, pagination.ErrClosed) {
			err = nil
		}
		return LoadedMsg{Name: name, Err: err}
	}
}

func (m *Model[T]) loadNext() tea.Cmd {
	ctrl, name := m.ctrl, m.cfg.Name
	return func() tea.Msg {
		_, err := ctrl.LoadNextPage(context.Background())
		if errors.Is(err, pagination.ErrClosed) {
			err = nil
		}
		return LoadedMsg{Name: name, Err: err}
	}
}

// Create posts payload and reports the result as a DoneMsg.
func (m *Model[T]) Create(payload any, info string) tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		_, err := m.ctrl.Create(ctx, payload)
		return info, err
	})
}

// CreateWith is Create with a success message derived from the created
// entity.
func (m *Model[T]) CreateWith(payload any, info func(T) string) tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		created, err := m.ctrl.Create(ctx, payload)
		if err != nil {
			return "", err
		}
		return info(created), nil
	})
}

// Save patches the entity with the given id.
func (m *Model[T]) Save(id int64, patch any, info string) tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		_, err := m.ctrl.Update(ctx, id, patch)
		return info, err
	})
}

func (m *Model[T]) run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	name := m.cfg.Name
	return func() tea.Msg {
		info, err := fn(context.Background())
		return DoneMsg{Name: name, Info: info, Err: err}
	}
}

// Close stops the controller; late results are dropped.
func (m *Model[T]) Close() { m.ctrl.Close() }

// Selected returns the entity under the cursor.
func (m *Model[T]) Selected() (T, bool) {
	e, ok := m.list.SelectedItem().(entry[T])
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Update handles messages addressed to this list and key presses while
// it is focused.
func (m *Model[T]) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Name == m.cfg.Name {
			return m.sync()
		}
		return nil

	case DoneMsg:
		if msg.Name == m.cfg.Name {
			return m.sync()
		}
		return nil

	case SetViewMsg:
		for i, v := range m.cfg.Views {
			if strings.EqualFold(v, msg.View) || strings.EqualFold(m.cfg.ViewLabel(v), msg.View) {
				m.view = i
				m.list.Select(0)
				return m.Refresh()
			}
		}
		name, view := m.cfg.Name, msg.View
		return func() tea.Msg {
			return DoneMsg{Name: name, Err: fmt.Errorf("%s has no %q view", name, view)}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *Model[T]) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m.Refresh()

	case key.Matches(msg, m.keys.NextView):
		if len(m.cfg.Views) < 2 {
			return nil
		}
		m.view = (m.view + 1) % len(m.cfg.Views)
		m.list.Select(0)
		return m.Refresh()

	case key.Matches(msg, m.keys.Advance):
		item, ok := m.Selected()
		if !ok || m.cfg.Advance == nil {
			return nil
		}
		next, ok := m.cfg.Advance(item)
		if !ok {
			return nil
		}
		id := item.GetID()
		cmd := m.run(func(ctx context.Context) (string, error) {
			_, err := m.ctrl.Transition(ctx, id, next)
			return "", err
		})
		// Show the optimistic status at once.
		return tea.Batch(m.sync(), cmd)

	case key.Matches(msg, m.keys.Delete):
		item, ok := m.Selected()
		if !ok || !m.cfg.Deletable {
			return nil
		}
		id := item.GetID()
		return m.run(func(ctx context.Context) (string, error) {
			return "Deleted.", m.ctrl.Remove(ctx, id)
		})

	case key.Matches(msg, m.keys.Edit):
		item, ok := m.Selected()
		if !ok || !m.cfg.Editable {
			return nil
		}
		name := m.cfg.Name
		return func() tea.Msg { return EditMsg{Name: name, Item: item} }

	case key.Matches(msg, m.keys.Open):
		item, ok := m.Selected()
		if !ok || m.cfg.Body == nil {
			return nil
		}
		title, body := m.cfg.Row(item).Title, m.cfg.Body(item)
		return func() tea.Msg { return OpenMsg{Title: title, Body: body} }
	}

	for _, a := range m.cfg.Actions {
		if !key.Matches(msg, a.Key) {
			continue
		}
		item, ok := m.Selected()
		if !ok {
			return nil
		}
		run := a.Run
		return m.run(func(ctx context.Context) (string, error) {
			return run(ctx, item)
		})
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return tea.Batch(cmd, m.maybeLoadNext())
}

// maybeLoadNext fetches the next page once the cursor sits on the last
// loaded item.
func (m *Model[T]) maybeLoadNext() tea.Cmd {
	n := len(m.list.Items())
	if n == 0 || m.list.Index() < n-1 {
		return nil
	}
	st := m.ctrl.State()
	if st.LoadingFirst || st.LoadingNext || st.CurrentPage >= st.TotalPages {
		return nil
	}
	return m.loadNext()
}

// sync copies the controller's items into the list.
func (m *Model[T]) sync() tea.Cmd {
	items := m.ctrl.Items()
	entries := make([]list.Item, len(items))
	for i, v := range items {
		entries[i] = entry[T]{value: v, row: m.cfg.Row(v)}
	}
	return m.list.SetItems(entries)
}

// View renders the list with a one-line header of view and page state.
func (m *Model[T]) View() string {
	st := m.ctrl.State()

	header := fmt.Sprintf("%s · %s · page %d/%d",
		m.cfg.Title, m.cfg.ViewLabel(m.cfg.Views[m.view]), st.CurrentPage, st.TotalPages)
	switch {
	case st.LoadingFirst || st.LoadingNext:
		header += " " + m.spinner.View()
	case st.Stale:
		header += " (cached)"
	}
	header = theme.HelpStyle.Render(header)

	if len(m.list.Items()) == 0 {
		empty := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height-1).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Nothing here yet.")
		if st.LoadingFirst {
			empty = lipgloss.NewStyle().
				Width(m.width).
				Height(m.height-1).
				Align(lipgloss.Center, lipgloss.Center).
				Render(m.spinner.View() + " Loading...")
		}
		return lipgloss.JoinVertical(lipgloss.Left, header, empty)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View())
}

// SetSize updates the list dimensions.
func (m *Model[T]) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-1)
}

// Hints returns the status bar hints for this tab.
func (m *Model[T]) Hints() string {
	hint := "n new · r refresh"
	if m.cfg.Advance != nil {
		hint = "enter advance · " + hint
	}
	if m.cfg.Editable {
		hint += " · e edit"
	}
	if len(m.cfg.Views) > 1 {
		hint += " · v view"
	}
	if m.cfg.Deletable {
		hint += " · d delete"
	}
	for _, a := range m.cfg.Actions {
		h := a.Key.Help()
		hint += fmt.Sprintf(" · %s %s", h.Key, h.Desc)
	}
	return hint
}
