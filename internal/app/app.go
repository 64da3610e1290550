// Package app is the root Bubble Tea model. It owns the session flow
// (restore, sign-in, sign-out), the tab bar with its badge counts and the
// overlays shared by every screen.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/teamkonekt/konekt/internal/api"
	"github.com/teamkonekt/konekt/internal/keys"
	"github.com/teamkonekt/konekt/internal/model"
	"github.com/teamkonekt/konekt/internal/navigation"
	"github.com/teamkonekt/konekt/internal/notify"
	"github.com/teamkonekt/konekt/internal/session"
	"github.com/teamkonekt/konekt/internal/store"
	"github.com/teamkonekt/konekt/internal/theme"
	"github.com/teamkonekt/konekt/internal/ui"
	"github.com/teamkonekt/konekt/internal/ui/command"
	"github.com/teamkonekt/konekt/internal/ui/compose"
	"github.com/teamkonekt/konekt/internal/ui/detail"
	helpview "github.com/teamkonekt/konekt/internal/ui/help"
	"github.com/teamkonekt/konekt/internal/ui/more"
	"github.com/teamkonekt/konekt/internal/ui/resourcelist"
	"github.com/teamkonekt/konekt/internal/ui/signin"
)

// Deps are the long-lived services the UI drives.
type Deps struct {
	Config     model.AppConfig
	ConfigPath string
	Client     *api.Client
	Session    *session.Manager
	Center     *notify.Center
	Store      *store.SQLiteStore
}

// ViewState is the current top-level mode.
type ViewState int

const (
	ViewSignIn ViewState = iota
	ViewMain
	ViewCompose
	ViewDetail
	ViewHelp
	ViewCommand
)

type restoredMsg struct {
	ok  bool
	err error
}

type signedInMsg struct {
	session model.Session
	err     error
}

type signedOutMsg struct {
	expired bool
}

// focusedMsg reports a finished focus. ws is the workspace it was issued
// for; a reply for a workspace that has since been torn down is dropped.
type focusedMsg struct {
	ws    *workspace
	index int
	err   error
}

type profileMsg struct {
	profile model.UserProfile
	err     error
}

// employeesMsg carries the assignee options of the task form. edit is
// the task being edited, nil for a new one.
type employeesMsg struct {
	employees []model.Employee
	err       error
	edit      *model.Task
}

type accountDoneMsg struct {
	info string
	err  error
}

// Model is the root Bubble Tea model.
type Model struct {
	deps   Deps
	keys   *keys.KeyMap
	layout ui.Layout
	ready  bool

	currentView  ViewState
	previousView ViewState

	ws     *workspace
	active int
	counts model.NotificationCounts

	signin  signin.Model
	compose compose.Model
	detail  detail.Model
	help    helpview.Model
	command command.Model

	status string
	errMsg string
}

func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	return Model{
		deps:        d,
		keys:        k,
		currentView: ViewSignIn,
		counts:      model.NewNotificationCounts(),
		signin:      signin.New(80, 24),
		compose:     compose.New(80, 24),
		detail:      detail.New(k, 80, 24),
		help:        helpview.New(k, 80, 24),
		command:     command.NewModel(80, 24),
	}
}

// Init restores a stored session and starts listening for badge counts.
func (m Model) Init() tea.Cmd {
	sm := m.deps.Session
	return tea.Batch(
		func() tea.Msg {
			ok, err := sm.Restore(context.Background())
			return restoredMsg{ok: ok, err: err}
		},
		m.deps.Center.WaitForUpdate(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.signin.SetSize(msg.Width, msg.Height)
		m.compose.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.help.SetSize(w, h)
		m.command.SetSize(w, h)
		if m.ws != nil {
			m.ws.setSize(w, h)
		}
		return m.updateActiveView(msg)

	case notify.CountsMsg:
		m.counts = msg.Counts
		return m, m.deps.Center.WaitForUpdate()

	case restoredMsg:
		if msg.err != nil {
			log.Printf("app: %v", msg.err)
		}
		if msg.ok {
			return m.enterSession(m.deps.Session.Current())
		}
		m.currentView = ViewSignIn
		cmd := m.signin.Start()
		return m, cmd

	case signin.SubmitMsg:
		sm := m.deps.Session
		return m, func() tea.Msg {
			sess, err := sm.SignIn(context.Background(), msg.Email, msg.Password)
			return signedInMsg{session: sess, err: err}
		}

	case signin.QuitMsg:
		return m, tea.Quit

	case signedInMsg:
		if msg.err != nil {
			cmd := m.signin.SetError(signInMessage(msg.err))
			return m, cmd
		}
		return m.enterSession(msg.session)

	case signedOutMsg:
		m.leaveSession()
		m.currentView = ViewSignIn
		if msg.expired {
			cmd := m.signin.SetError("Your session has expired. Please sign in again.")
			return m, cmd
		}
		cmd := m.signin.Start()
		return m, cmd

	case focusedMsg:
		return m.handleFocused(msg)

	case profileMsg:
		if msg.err != nil {
			cmd := m.handleErr(msg.err)
			return m, cmd
		}
		if m.ws != nil && !m.ws.session.IsManager() {
			m.ws.employeeID.Store(msg.profile.EmployeeProfileID)
			return m, m.ws.announcements.Update(resourcelist.LoadedMsg{Name: m.ws.announcements.Name()})
		}
		return m, nil

	case resourcelist.LoadedMsg:
		cmd := m.broadcast(msg)
		if msg.Err != nil {
			errCmd := m.handleErr(msg.Err)
			return m, tea.Batch(cmd, errCmd)
		}
		return m, cmd

	case resourcelist.DoneMsg:
		cmd := m.broadcast(msg)
		if msg.Err != nil {
			errCmd := m.handleErr(msg.Err)
			return m, tea.Batch(cmd, errCmd)
		}
		m.errMsg = ""
		m.status = msg.Info
		return m, cmd

	case resourcelist.OpenMsg:
		m.detail.Show(msg.Title, msg.Body)
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, nil

	case resourcelist.EditMsg:
		return m.startEdit(msg)

	case detail.BackMsg, helpview.CloseMsg, command.CancelMsg:
		m.currentView = ViewMain
		return m, nil

	case command.CommandMsg:
		m.currentView = ViewMain
		return m.executeCommand(msg.Command)

	case employeesMsg:
		if msg.err != nil {
			m.currentView = ViewMain
			cmd := m.handleErr(msg.err)
			return m, cmd
		}
		m.compose.SetEmployees(msg.employees)
		if msg.edit != nil {
			cmd := m.compose.EditTask(*msg.edit)
			return m, cmd
		}
		cmd := m.compose.StartTask()
		return m, cmd

	case compose.SubmitMsg:
		m.currentView = ViewMain
		return m, m.submit(msg)

	case compose.CancelMsg:
		m.currentView = ViewMain
		return m, nil

	case more.LoadedMsg:
		if m.ws != nil {
			cmd := m.ws.more.Update(msg)
			if msg.Err != nil {
				errCmd := m.handleErr(msg.Err)
				return m, tea.Batch(cmd, errCmd)
			}
			return m, cmd
		}
		return m, nil

	case more.ActionMsg:
		return m.accountAction(msg.Action, "")

	case accountDoneMsg:
		if msg.err != nil {
			cmd := m.handleErr(msg.err)
			return m, cmd
		}
		m.errMsg = ""
		m.status = msg.info
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.currentView == ViewMain {
			if next, cmd, ok := m.handleMainKey(msg); ok {
				return next, cmd
			}
		}
	}

	return m.updateActiveView(msg)
}

// handleMainKey handles the keys of the tab screens that are not
// specific to one list.
func (m Model) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.NextTab):
		next, cmd := m.focus((m.active + 1) % len(m.ws.tabs))
		return next, cmd, true

	case key.Matches(msg, m.keys.PrevTab):
		next, cmd := m.focus((m.active + len(m.ws.tabs) - 1) % len(m.ws.tabs))
		return next, cmd, true

	case key.Matches(msg, m.keys.Help):
		t := m.ws.tabs[m.active]
		m.help.SetContext(t.view.Title(), t.view.Hints())
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.command.Focus()
		return m, cmd, true

	case key.Matches(msg, m.keys.New):
		next, cmd := m.startCompose()
		return next, cmd, true

	case key.Matches(msg, m.keys.Back):
		m.status = ""
		m.errMsg = ""
		return m, nil, true
	}
	return m, nil, false
}

// updateActiveView dispatches the message to the current view. Keys go
// to the focused view only; everything else also reaches every tab so
// list spinners keep ticking.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, isKey := msg.(tea.KeyMsg)
	var cmd tea.Cmd

	switch m.currentView {
	case ViewSignIn:
		m.signin, cmd = m.signin.Update(msg)
	case ViewMain:
		if m.ws != nil && isKey {
			return m, m.ws.tabs[m.active].view.Update(msg)
		}
	case ViewCompose:
		m.compose, cmd = m.compose.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.help, cmd = m.help.Update(msg)
	case ViewCommand:
		m.command, cmd = m.command.Update(msg)
	}

	if !isKey {
		cmd = tea.Batch(cmd, m.broadcast(msg))
	}
	return m, cmd
}

// broadcast hands msg to every tab; each keeps only its own messages.
func (m Model) broadcast(msg tea.Msg) tea.Cmd {
	if m.ws == nil {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(m.ws.tabs))
	for _, t := range m.ws.tabs {
		cmds = append(cmds, t.view.Update(msg))
	}
	return tea.Batch(cmds...)
}

// enterSession builds the role's tabs and focuses Home.
func (m Model) enterSession(sess model.Session) (tea.Model, tea.Cmd) {
	m.leaveSession()
	w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
	if !m.ready {
		w, h = 80, 21
	}
	m.ws = newWorkspace(m.deps, sess, m.keys, w, h)
	m.currentView = ViewMain
	m.status = ""
	m.errMsg = ""
	m.active = 0

	sm := m.deps.Session
	profile := func() tea.Msg {
		p, err := sm.Profile(context.Background())
		return profileMsg{profile: p, err: err}
	}
	next, focus := m.focus(0)
	return next, tea.Batch(m.ws.init(0), focus, profile)
}

func (m *Model) leaveSession() {
	if m.ws == nil {
		return
	}
	m.ws.close()
	m.ws = nil
	m.counts = model.NewNotificationCounts()
}

// focus switches to tab i and fires the navigation observer, which
// resets the tab's badge and reloads its first page.
func (m Model) focus(i int) (tea.Model, tea.Cmd) {
	m.active = i
	ws := m.ws
	obs, s := ws.observer, ws.tabs[i].screen
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, err := obs.Focus(ctx, s)
		return focusedMsg{ws: ws, index: i, err: err}
	}
}

func (m Model) handleFocused(msg focusedMsg) (tea.Model, tea.Cmd) {
	if m.ws == nil || msg.ws != m.ws || msg.index >= len(m.ws.tabs) {
		return m, nil
	}
	t := m.ws.tabs[msg.index]

	var cmd tea.Cmd
	if t.screen == navigation.ScreenMore {
		cmd = t.view.Refresh()
	} else {
		cmd = t.view.Update(resourcelist.LoadedMsg{Name: t.view.Name()})
	}
	if msg.err != nil {
		log.Printf("app: focusing %s: %v", t.screen, msg.err)
		errCmd := m.handleErr(msg.err)
		return m, tea.Batch(cmd, errCmd)
	}
	return m, cmd
}

// signInMessage words a failed sign-in. A rejected login is an auth
// error, which elsewhere means an expired session.
func signInMessage(err error) string {
	if api.IsAuthError(err) {
		return "Invalid email or password."
	}
	return api.UserMessage(err)
}

// handleErr shows err in the status bar. Auth errors end the session.
func (m *Model) handleErr(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	if api.IsAuthError(err) {
		sm := m.deps.Session
		return func() tea.Msg {
			sm.HandleError(context.Background(), err)
			return signedOutMsg{expired: true}
		}
	}
	m.status = ""
	m.errMsg = api.UserMessage(err)
	return nil
}

// startCompose opens the create form of the focused tab, if the role may
// create there.
func (m Model) startCompose() (tea.Model, tea.Cmd) {
	manager := m.ws.session.IsManager()
	var cmd tea.Cmd

	switch m.ws.tabs[m.active].screen {
	case navigation.ScreenHome:
		if manager {
			return m, nil
		}
		cmd = m.compose.StartReport()
	case navigation.ScreenTasks:
		if !manager {
			return m, nil
		}
		ws := m.ws
		cmd = func() tea.Msg {
			emps, err := ws.allEmployees(context.Background())
			return employeesMsg{employees: emps, err: err}
		}
	case navigation.ScreenAnnouncements:
		if !manager {
			return m, nil
		}
		cmd = m.compose.StartAnnouncement()
	case navigation.ScreenSuggestionBox:
		if manager {
			return m, nil
		}
		cmd = m.compose.StartSuggestion()
	case navigation.ScreenEmployees:
		cmd = m.compose.StartEmployee()
	default:
		return m, nil
	}

	m.previousView = m.currentView
	m.currentView = ViewCompose
	return m, cmd
}

func (m Model) startEdit(msg resourcelist.EditMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch item := msg.Item.(type) {
	case model.Task:
		ws := m.ws
		cmd = func() tea.Msg {
			emps, err := ws.allEmployees(context.Background())
			return employeesMsg{employees: emps, err: err, edit: &item}
		}
	case model.Announcement:
		cmd = m.compose.EditAnnouncement(item)
	default:
		return m, nil
	}
	m.previousView = m.currentView
	m.currentView = ViewCompose
	return m, cmd
}

// submit sends a completed form to the list or account it belongs to.
func (m Model) submit(msg compose.SubmitMsg) tea.Cmd {
	ws := m.ws
	if ws == nil {
		return nil
	}
	switch msg.Kind {
	case compose.KindTask:
		if msg.ID != 0 {
			return ws.tasks.Save(msg.ID, msg.Payload, "Task updated.")
		}
		return ws.tasks.Create(msg.Payload, "Task created.")
	case compose.KindReport:
		return ws.reports.Create(msg.Payload, "Report filed.")
	case compose.KindAnnouncement:
		if msg.ID != 0 {
			return ws.announcements.Save(msg.ID, msg.Payload, "Announcement updated.")
		}
		return ws.announcements.Create(msg.Payload, "Announcement posted.")
	case compose.KindSuggestion:
		return ws.suggestions.Create(msg.Payload, "Suggestion sent.")
	case compose.KindEmployee:
		if ws.employees == nil {
			return nil
		}
		return ws.employees.CreateWith(msg.Payload, func(e model.Employee) string {
			if e.TemporaryPassword == "" {
				return fmt.Sprintf("Added %s.", e.FullName())
			}
			return fmt.Sprintf("Added %s. Temporary password: %s", e.FullName(), e.TemporaryPassword)
		})
	case compose.KindPassword:
		pc, _ := msg.Payload.(compose.PasswordChange)
		sm := m.deps.Session
		return func() tea.Msg {
			err := sm.ChangePassword(context.Background(), pc.Old, pc.New, pc.Confirm)
			return accountDoneMsg{info: "Password changed.", err: err}
		}
	case compose.KindSummaryTime:
		clock, _ := msg.Payload.(string)
		return m.setSummaryTime(clock)
	}
	return nil
}

func (m Model) setSummaryTime(clock string) tea.Cmd {
	sm := m.deps.Session
	return func() tea.Msg {
		err := sm.SetSummaryTime(context.Background(), clock)
		return accountDoneMsg{info: "Daily summary will be sent at " + clock + ".", err: err}
	}
}

// accountAction runs an action of the More screen or the palette.
func (m Model) accountAction(a more.Action, arg string) (tea.Model, tea.Cmd) {
	switch a {
	case more.ActionPassword:
		m.previousView = m.currentView
		m.currentView = ViewCompose
		cmd := m.compose.StartPassword()
		return m, cmd

	case more.ActionSummaryTime:
		if m.ws == nil || !m.ws.session.IsManager() {
			m.errMsg = "Only managers have a daily summary."
			return m, nil
		}
		if arg != "" {
			return m, m.setSummaryTime(arg)
		}
		m.previousView = m.currentView
		m.currentView = ViewCompose
		cmd := m.compose.StartSummaryTime("")
		return m, cmd

	case more.ActionSignOut:
		sm := m.deps.Session
		return m, func() tea.Msg {
			sm.SignOut(context.Background())
			return signedOutMsg{}
		}
	}
	return m, nil
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.currentView == ViewSignIn || m.ws == nil {
		return m.signin.View()
	}

	header := m.layout.RenderHeader("TeamKonekt · "+m.ws.session.OrganizationName, m.headerStatus())
	tabs := m.layout.RenderTabs(m.tabBar())
	status := m.layout.RenderStatusBar(m.keyHints(), m.errMsg)
	return m.layout.RenderWithFrame(header, tabs, m.renderContent(), status)
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewCompose:
		return m.compose.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.help.View()
	case ViewCommand:
		return m.command.View()
	default:
		return m.ws.tabs[m.active].view.View()
	}
}

func (m Model) tabBar() []ui.Tab {
	tabs := make([]ui.Tab, len(m.ws.tabs))
	for i, t := range m.ws.tabs {
		tabs[i] = ui.Tab{Title: t.view.Title(), Active: i == m.active}
		if cat, ok := t.screen.Category(); ok {
			tabs[i].Badge = m.counts[cat]
		}
	}
	return tabs
}

func (m Model) headerStatus() string {
	role := "employee"
	if m.ws.session.IsManager() {
		role = "manager"
	}
	if n := m.counts.Total(); n > 0 {
		return fmt.Sprintf("%s · %d unread", role, n)
	}
	return role
}

// keyHints returns the status bar text for the current view.
func (m Model) keyHints() string {
	if m.status != "" {
		return m.status
	}
	switch m.currentView {
	case ViewHelp:
		return "? close help · esc back"
	case ViewCommand:
		return "enter execute · tab complete · esc back"
	case ViewDetail:
		return "esc back · j/k scroll"
	case ViewCompose:
		return "enter submit · esc cancel"
	}
	return m.ws.tabs[m.active].view.Hints() + " · tab switch · ? help · q quit"
}

// executeCommand runs a palette command.
func (m Model) executeCommand(c command.Command) (tea.Model, tea.Cmd) {
	if m.ws == nil {
		return m, nil
	}
	switch c.Name {
	case command.Refresh:
		m.deps.Center.Poll()
		return m, m.ws.tabs[m.active].view.Refresh()
	case command.Quit:
		return m, tea.Quit
	case command.SignOut:
		return m.accountAction(more.ActionSignOut, "")
	case command.Password:
		return m.accountAction(more.ActionPassword, "")
	case command.Summary:
		return m.accountAction(more.ActionSummaryTime, c.Arg)
	case command.New:
		return m.startCompose()
	case command.Go:
		s, ok := screenByName(c.Arg)
		if !ok {
			m.errMsg = fmt.Sprintf("No screen named %q.", c.Arg)
			return m, nil
		}
		i := m.ws.indexOf(s)
		if i < 0 {
			m.errMsg = fmt.Sprintf("%s is not available.", s)
			return m, nil
		}
		return m.focus(i)
	case command.View:
		return m, m.ws.tabs[m.active].view.Update(resourcelist.SetViewMsg{View: c.Arg})
	case command.Theme:
		return m.setTheme(c.Arg)
	}
	return m, nil
}

func screenByName(name string) (navigation.Screen, bool) {
	switch name {
	case "home", "reports":
		return navigation.ScreenHome, true
	case "tasks":
		return navigation.ScreenTasks, true
	case "announcements":
		return navigation.ScreenAnnouncements, true
	case "suggestions", "suggestion-box":
		return navigation.ScreenSuggestionBox, true
	case "employees":
		return navigation.ScreenEmployees, true
	case "more", "account":
		return navigation.ScreenMore, true
	}
	return 0, false
}

// setTheme recolors the UI and saves the choice to the config file.
func (m Model) setTheme(name string) (tea.Model, tea.Cmd) {
	if !theme.Known(name) {
		m.errMsg = fmt.Sprintf("%v %q. Try one of: %s.", errUnknownTheme, name, strings.Join(theme.Names, ", "))
		return m, nil
	}
	theme.Apply(name)
	m.deps.Config.Display.Theme = name
	cfg, path := m.deps.Config, m.deps.ConfigPath
	return m, func() tea.Msg {
		if path == "" {
			return accountDoneMsg{info: "Theme set to " + name + "."}
		}
		if err := model.SaveConfig(path, &cfg); err != nil {
			return accountDoneMsg{err: fmt.Errorf("saving theme: %w", err)}
		}
		return accountDoneMsg{info: "Theme set to " + name + " and saved."}
	}
}

var errUnknownTheme = errors.New("unknown theme")
