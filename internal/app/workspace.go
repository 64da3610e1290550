package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teamkonekt/konekt/internal/keys"
	"github.com/teamkonekt/konekt/internal/model"
	"github.com/teamkonekt/konekt/internal/navigation"
	"github.com/teamkonekt/konekt/internal/notify"
	"github.com/teamkonekt/konekt/internal/pagination"
	"github.com/teamkonekt/konekt/internal/resource"
	"github.com/teamkonekt/konekt/internal/ui/more"
	"github.com/teamkonekt/konekt/internal/ui/resourcelist"
)

// maxEmployeePages bounds the assignee lookup of the task form.
const maxEmployeePages = 10

// screen is what the root model needs from a tab.
type screen interface {
	Init() tea.Cmd
	Update(tea.Msg) tea.Cmd
	View() string
	SetSize(width, height int)
	Refresh() tea.Cmd
	Hints() string
	Name() string
	Title() string
	Close()
}

type tabEntry struct {
	screen navigation.Screen
	view   screen
}

// workspace is everything that lives for one signed-in session: the
// lists of the role, their focus hooks and the detectors feeding the
// badge counts.
type workspace struct {
	session  model.Session
	observer *navigation.Observer
	tabs     []tabEntry

	reports       *resourcelist.Model[model.Report]
	tasks         *resourcelist.Model[model.Task]
	announcements *resourcelist.Model[model.Announcement]
	suggestions   *resourcelist.Model[model.Suggestion]
	employees     *resourcelist.Model[model.Employee]
	more          *more.Model

	employeeSrc *resource.EmployeeSource

	// employeeID is the viewer's employee profile, 0 for managers and
	// until the profile has loaded.
	employeeID atomic.Int64
}

func newWorkspace(d Deps, sess model.Session, k *keys.KeyMap, width, height int) *workspace {
	ws := &workspace{session: sess}
	ws.observer = navigation.NewObserver(d.Center)
	manager := sess.IsManager()
	now := time.Now

	var snapshots pagination.Snapshotter
	if d.Store != nil {
		snapshots = d.Store
	}

	// Home: the company reports feed.
	reportCtrl := pagination.New[model.Report](resource.NewReportSource(d.Client), pagination.Options[model.Report]{
		Name:         "reports",
		CreatePolicy: pagination.CreatePrepend,
		Snapshots:    snapshots,
	})
	reportCfg := resourcelist.Config[model.Report]{
		Name:  "reports",
		Title: "Home",
		Row:   reportRow(now),
		Body:  reportBody,
	}
	if manager {
		reportCfg.Advance = model.Report.NextStatus
	}
	ws.reports = resourcelist.New(reportCfg, reportCtrl, k, width, height)
	ws.add(d, navigation.ScreenHome, ws.reports, reportCtrl)

	// Tasks.
	taskSrc := resource.NewTaskSource(d.Client, sess.Role)
	taskCtrl := pagination.New[model.Task](taskSrc, pagination.Options[model.Task]{
		Name:      "tasks",
		Snapshots: snapshots,
	})
	taskCfg := resourcelist.Config[model.Task]{
		Name:      "tasks",
		Title:     "Tasks",
		Views:     taskSrc.Views(),
		ViewLabel: viewLabel,
		Row:       taskRow(now),
		Body:      taskBody,
	}
	if manager {
		taskCfg.Editable = true
		taskCfg.Deletable = true
		taskCfg.Actions = []resourcelist.Action[model.Task]{{
			Key: k.Remind,
			Run: func(ctx context.Context, t model.Task) (string, error) {
				if err := taskSrc.Remind(ctx, t.ID); err != nil {
					return "", err
				}
				return fmt.Sprintf("Reminder sent for %q.", t.Title), nil
			},
		}}
	} else {
		taskCfg.Advance = model.Task.NextStatus
	}
	ws.tasks = resourcelist.New(taskCfg, taskCtrl, k, width, height)
	ws.add(d, navigation.ScreenTasks, ws.tasks, taskCtrl)

	// Announcements.
	annSrc := resource.NewAnnouncementSource(d.Client)
	annOpts := pagination.Options[model.Announcement]{
		Name:      "announcements",
		Snapshots: snapshots,
	}
	if d.Store != nil {
		detector := notify.NewAnnouncementDetector(d.Center, d.Store)
		annOpts.OnFirstPage = func(items []model.Announcement) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := detector.Observe(ctx, items); err != nil {
				log.Printf("app: announcement detector: %v", err)
			}
		}
	}
	annCtrl := pagination.New[model.Announcement](annSrc, annOpts)
	annCfg := resourcelist.Config[model.Announcement]{
		Name:  "announcements",
		Title: "Announcements",
		Row:   announcementRow(now, ws.employeeID.Load),
		Body:  announcementBody,
	}
	noted := k.Noted
	if manager {
		annCfg.Editable = true
		annCfg.Deletable = true
		noted.SetHelp("w", "who noted")
		annCfg.Actions = []resourcelist.Action[model.Announcement]{{
			Key: noted,
			Run: func(ctx context.Context, a model.Announcement) (string, error) {
				emps, err := annSrc.NotedEmployees(ctx, a.ID)
				if err != nil {
					return "", err
				}
				if len(emps) == 0 {
					return "Nobody has noted this yet.", nil
				}
				names := make([]string, len(emps))
				for i, e := range emps {
					names[i] = e.FullName()
				}
				return "Noted by " + strings.Join(names, ", ") + ".", nil
			},
		}}
	} else {
		noted.SetHelp("w", "mark noted")
		annCfg.Actions = []resourcelist.Action[model.Announcement]{{
			Key: noted,
			Run: func(ctx context.Context, a model.Announcement) (string, error) {
				if id := ws.employeeID.Load(); id != 0 && a.IsNotedBy(id) {
					return "Already noted.", nil
				}
				if _, err := annCtrl.Transition(ctx, a.ID, model.StatusNoted); err != nil {
					return "", err
				}
				return "Marked as noted.", nil
			},
		}}
	}
	ws.announcements = resourcelist.New(annCfg, annCtrl, k, width, height)
	ws.add(d, navigation.ScreenAnnouncements, ws.announcements, annCtrl)

	// Suggestion box.
	sugSrc := resource.NewSuggestionSource(d.Client, sess.Role)
	sugDetector := notify.NewSuggestionDetector(d.Center, sess.Role)
	sugCtrl := pagination.New[model.Suggestion](sugSrc, pagination.Options[model.Suggestion]{
		Name:        "suggestions",
		Snapshots:   snapshots,
		OnFirstPage: func(items []model.Suggestion) { sugDetector.Observe(items) },
	})
	sugCfg := resourcelist.Config[model.Suggestion]{
		Name:      "suggestions",
		Title:     "Suggestions",
		Views:     sugSrc.Views(),
		ViewLabel: viewLabel,
		Row:       suggestionRow(now),
		Body:      suggestionBody,
	}
	if manager {
		sugCfg.Advance = model.Suggestion.NextStatus
		sugCfg.Deletable = true
	}
	ws.suggestions = resourcelist.New(sugCfg, sugCtrl, k, width, height)
	ws.add(d, navigation.ScreenSuggestionBox, ws.suggestions, sugCtrl)

	// Employees, managers only.
	ws.employeeSrc = resource.NewEmployeeSource(d.Client)
	if manager {
		empCtrl := pagination.New[model.Employee](ws.employeeSrc, pagination.Options[model.Employee]{
			Name:      "employees",
			Snapshots: snapshots,
		})
		ws.employees = resourcelist.New(resourcelist.Config[model.Employee]{
			Name:      "employees",
			Title:     "Employees",
			Row:       employeeRow,
			Body:      employeeBody,
			Deletable: true,
		}, empCtrl, k, width, height)
		ws.add(d, navigation.ScreenEmployees, ws.employees, empCtrl)
	}

	var journal more.Journal
	if d.Store != nil {
		journal = d.Store
	}
	ws.more = more.New(d.Session, journal, k, sess, width, height)
	ws.tabs = append(ws.tabs, tabEntry{screen: navigation.ScreenMore, view: ws.more})

	return ws
}

// add registers a list tab and its focus hooks: reload page 1 of the
// current view and mark the category's journal entries read.
func (ws *workspace) add(d Deps, s navigation.Screen, view screen, ctrl interface {
	LoadFirstPage(ctx context.Context, f pagination.Filter) error
	State() pagination.State
}) {
	ws.tabs = append(ws.tabs, tabEntry{screen: s, view: view})

	ws.observer.OnFocus(s, func(ctx context.Context) error {
		err := ctrl.LoadFirstPage(ctx, ctrl.State().Filter)
		if errors.Is(err, pagination.ErrClosed) {
			return nil
		}
		return err
	})
	if cat, ok := s.Category(); ok && d.Store != nil {
		ws.observer.OnFocus(s, func(ctx context.Context) error {
			return d.Store.MarkBadgeEventsRead(ctx, cat)
		})
	}
}

// init primes every tab from its snapshot and loads the ones that will
// not be focused first; the focused tab loads through its focus hook.
func (ws *workspace) init(focused int) tea.Cmd {
	cmds := make([]tea.Cmd, 0, 2*len(ws.tabs))
	for i, t := range ws.tabs {
		cmds = append(cmds, t.view.Init())
		if i != focused {
			cmds = append(cmds, t.view.Refresh())
		}
	}
	return tea.Batch(cmds...)
}

func (ws *workspace) setSize(width, height int) {
	for _, t := range ws.tabs {
		t.view.SetSize(width, height)
	}
}

// close stops every controller so late page results are dropped.
func (ws *workspace) close() {
	ws.observer.Blur()
	for _, t := range ws.tabs {
		t.view.Close()
	}
}

// indexOf returns the tab showing s, or -1.
func (ws *workspace) indexOf(s navigation.Screen) int {
	for i, t := range ws.tabs {
		if t.screen == s {
			return i
		}
	}
	return -1
}

// allEmployees collects the assignee options of the task form.
func (ws *workspace) allEmployees(ctx context.Context) ([]model.Employee, error) {
	var all []model.Employee
	for p := 1; p <= maxEmployeePages; p++ {
		page, err := ws.employeeSrc.List(ctx, p, pagination.Filter{})
		if err != nil {
			return nil, fmt.Errorf("loading employees: %w", err)
		}
		all = append(all, page.Items...)
		if p >= page.TotalPages {
			break
		}
	}
	return all, nil
}
