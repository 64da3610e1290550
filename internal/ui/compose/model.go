// Package compose holds the huh forms used to create and edit entities
// and to change account settings.
package compose

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/teamkonekt/konekt/internal/model"
	"github.com/teamkonekt/konekt/internal/theme"
)

// Kind selects the form.
type Kind int

const (
	KindTask Kind = iota
	KindReport
	KindAnnouncement
	KindSuggestion
	KindEmployee
	KindPassword
	KindSummaryTime
)

var kindTitles = map[Kind]string{
	KindTask:         "Task",
	KindReport:       "Report",
	KindAnnouncement: "Announcement",
	KindSuggestion:   "Suggestion",
	KindEmployee:     "Employee",
	KindPassword:     "Change Password",
	KindSummaryTime:  "Daily Summary Time",
}

func (k Kind) String() string {
	if t, ok := kindTitles[k]; ok {
		return t
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// SubmitMsg carries a completed form. ID is set when an existing entity
// was edited. Payload is one of the model input types, a PasswordChange
// or the summary time string.
type SubmitMsg struct {
	Kind    Kind
	ID      int64
	Payload any
}

// CancelMsg is sent when the user aborts the form.
type CancelMsg struct {
	Kind Kind
}

// PasswordChange is the payload of the change password form.
type PasswordChange struct {
	Old     string
	New     string
	Confirm string
}

// formBindings holds field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	dueDate     string
	priority    string
	assignees   []int64

	message string
	content string

	firstName string
	lastName  string
	email     string
	role      string
	phone     string

	oldPassword string
	newPassword string
	confirm     string

	clock string
}

// Model is the compose screen.
type Model struct {
	form      *huh.Form
	fb        *formBindings
	kind      Kind
	editID    int64
	employees []model.Employee
	width     int
	height    int
}

func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// SetEmployees sets the assignee options of the task form.
func (m *Model) SetEmployees(employees []model.Employee) {
	m.employees = employees
}

// Kind returns the form being shown.
func (m Model) Kind() Kind { return m.kind }

// Editing reports whether the form edits an existing entity.
func (m Model) Editing() bool { return m.editID != 0 }

// StartTask opens an empty task form.
func (m *Model) StartTask() tea.Cmd {
	*m.fb = formBindings{priority: model.PriorityMedium}
	return m.start(KindTask, 0, m.taskFields()...)
}

// EditTask opens the task form filled with t.
func (m *Model) EditTask(t model.Task) tea.Cmd {
	*m.fb = formBindings{
		title:       t.Title,
		description: t.Description,
		dueDate:     t.DueDate,
		priority:    t.Priority,
		assignees:   append([]int64(nil), t.AssignedTo...),
	}
	if m.fb.priority == "" {
		m.fb.priority = model.PriorityMedium
	}
	return m.start(KindTask, t.ID, m.taskFields()...)
}

func (m *Model) StartReport() tea.Cmd {
	*m.fb = formBindings{}
	return m.start(KindReport, 0,
		huh.NewText().
			Title("What happened?").
			Placeholder("Describe the issue...").
			Value(&m.fb.message).
			Validate(required("Message")),
	)
}

func (m *Model) StartAnnouncement() tea.Cmd {
	*m.fb = formBindings{}
	return m.start(KindAnnouncement, 0, m.announcementFields()...)
}

// EditAnnouncement opens the announcement form filled with a.
func (m *Model) EditAnnouncement(a model.Announcement) tea.Cmd {
	*m.fb = formBindings{title: a.Title, content: a.Content}
	return m.start(KindAnnouncement, a.ID, m.announcementFields()...)
}

func (m *Model) StartSuggestion() tea.Cmd {
	*m.fb = formBindings{}
	return m.start(KindSuggestion, 0,
		huh.NewText().
			Title("Suggestion").
			Description("Your manager will see your name.").
			Value(&m.fb.message).
			Validate(required("Message")),
	)
}

func (m *Model) StartEmployee() tea.Cmd {
	*m.fb = formBindings{}
	return m.start(KindEmployee, 0,
		huh.NewInput().Title("First name").Value(&m.fb.firstName).Validate(required("First name")),
		huh.NewInput().Title("Last name").Value(&m.fb.lastName).Validate(required("Last name")),
		huh.NewInput().Title("Email").Value(&m.fb.email).Validate(validateEmail),
		huh.NewInput().Title("Role").Placeholder("e.g. Cashier (optional)").Value(&m.fb.role),
		huh.NewInput().Title("Phone").Placeholder("optional").Value(&m.fb.phone),
	)
}

func (m *Model) StartPassword() tea.Cmd {
	*m.fb = formBindings{}
	return m.start(KindPassword, 0,
		huh.NewInput().
			Title("Current password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.oldPassword).
			Validate(required("Current password")),
		huh.NewInput().
			Title("New password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.newPassword).
			Validate(required("New password")),
		huh.NewInput().
			Title("Confirm new password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.confirm).
			Validate(func(s string) error {
				if s != m.fb.newPassword {
					return fmt.Errorf("passwords do not match")
				}
				return nil
			}),
	)
}

// StartSummaryTime opens the daily summary form. current may be empty.
func (m *Model) StartSummaryTime(current string) tea.Cmd {
	*m.fb = formBindings{clock: current}
	return m.start(KindSummaryTime, 0,
		huh.NewInput().
			Title("Send the daily summary at").
			Placeholder("HH:MM").
			Value(&m.fb.clock).
			Validate(validateClock),
	)
}

func (m *Model) start(kind Kind, editID int64, fields ...huh.Field) tea.Cmd {
	m.kind = kind
	m.editID = editID
	m.form = huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
	return m.form.Init()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		// Still waiting for the form's options; esc backs out.
		if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
			kind := m.kind
			return m, func() tea.Msg { return CancelMsg{Kind: kind} }
		}
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		sub := m.submission()
		m.form = nil
		return m, func() tea.Msg { return sub }
	case huh.StateAborted:
		kind := m.kind
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{Kind: kind} }
	}
	return m, cmd
}

func (m Model) View() string {
	if m.form == nil {
		return theme.DimmedStyle.Render("Loading...")
	}

	title := "New " + m.kind.String()
	switch {
	case m.editID != 0:
		title = "Edit " + m.kind.String()
	case m.kind == KindPassword, m.kind == KindSummaryTime:
		title = m.kind.String()
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render(title) + "\n" + m.form.View())
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// submission builds the message for the filled-in form.
func (m Model) submission() SubmitMsg {
	fb := m.fb
	sub := SubmitMsg{Kind: m.kind, ID: m.editID}
	switch m.kind {
	case KindTask:
		sub.Payload = model.TaskInput{
			Title:       strings.TrimSpace(fb.title),
			Description: strings.TrimSpace(fb.description),
			AssignedTo:  append([]int64(nil), fb.assignees...),
			DueDate:     strings.TrimSpace(fb.dueDate),
			Priority:    fb.priority,
		}
	case KindReport:
		sub.Payload = model.ReportInput{Message: strings.TrimSpace(fb.message)}
	case KindAnnouncement:
		sub.Payload = model.AnnouncementInput{
			Title:   strings.TrimSpace(fb.title),
			Content: strings.TrimSpace(fb.content),
		}
	case KindSuggestion:
		sub.Payload = model.SuggestionInput{Message: strings.TrimSpace(fb.message)}
	case KindEmployee:
		sub.Payload = model.EmployeeInput{
			FirstName:   strings.TrimSpace(fb.firstName),
			LastName:    strings.TrimSpace(fb.lastName),
			Email:       strings.TrimSpace(fb.email),
			Role:        strings.TrimSpace(fb.role),
			PhoneNumber: strings.TrimSpace(fb.phone),
		}
	case KindPassword:
		sub.Payload = PasswordChange{Old: fb.oldPassword, New: fb.newPassword, Confirm: fb.confirm}
	case KindSummaryTime:
		sub.Payload = strings.TrimSpace(fb.clock)
	}
	return sub
}

func (m *Model) taskFields() []huh.Field {
	opts := make([]huh.Option[int64], 0, len(m.employees))
	for _, e := range m.employees {
		opts = append(opts, huh.NewOption(e.FullName(), e.ID))
	}
	assign := huh.NewMultiSelect[int64]().
		Title("Assign to").
		Options(opts...).
		Value(&m.fb.assignees).
		Validate(func(ids []int64) error {
			if len(ids) == 0 {
				return fmt.Errorf("assign at least one employee")
			}
			return nil
		})
	if len(opts) == 0 {
		assign.Description("No employees yet. Add one from the Employees tab.")
	}

	return []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&m.fb.title).
			Validate(required("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		huh.NewSelect[string]().
			Title("Priority").
			Options(
				huh.NewOption("Low", model.PriorityLow),
				huh.NewOption("Medium", model.PriorityMedium),
				huh.NewOption("High", model.PriorityHigh),
			).
			Value(&m.fb.priority),
		huh.NewInput().
			Title("Due date").
			Placeholder("YYYY-MM-DD").
			Value(&m.fb.dueDate).
			Validate(validateDate),
		assign,
	}
}

func (m *Model) announcementFields() []huh.Field {
	return []huh.Field{
		huh.NewInput().
			Title("Title").
			Value(&m.fb.title).
			Validate(required("Title")),
		huh.NewText().
			Title("Content").
			Value(&m.fb.content).
			Validate(required("Content")),
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func required(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("due date is required")
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 || strings.ContainsAny(s, " \t") {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

func validateClock(s string) error {
	h, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return fmt.Errorf("use HH:MM")
	}
	hour, err1 := strconv.Atoi(h)
	minute, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || len(mm) != 2 || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("use HH:MM, e.g. 08:30")
	}
	return nil
}
