package resource_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/teamkonekt/konekt/internal/api"
	"github.com/teamkonekt/konekt/internal/mockapi"
	"github.com/teamkonekt/konekt/internal/model"
	"github.com/teamkonekt/konekt/internal/pagination"
	"github.com/teamkonekt/konekt/internal/resource"
	"github.com/teamkonekt/konekt/tests/testutil"
)

const (
	bossEmail = "boss@acme.test"
	annEmail  = "ann@acme.test"
	bobEmail  = "bob@acme.test"
	password  = "pw"
)

type company struct {
	srv *mockapi.Server
	ann model.Employee
	bob model.Employee
}

func newCompany(t *testing.T) *company {
	t.Helper()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	srv := mockapi.New("Acme", mockapi.WithClock(func() time.Time { return now }))
	srv.AddManager(bossEmail, password, "Mia", "Boss")
	return &company{
		srv: srv,
		ann: srv.AddEmployee(annEmail, password, "Ann", "Lee"),
		bob: srv.AddEmployee(bobEmail, password, "Bob", "Ray"),
	}
}

func (c *company) as(t *testing.T, email string) *api.Client {
	t.Helper()
	client := testutil.NewTestAPI(t, c.srv)
	testutil.SignIn(t, client, email, password)
	return client
}

func (c *company) seedTasks(n int, assignee int64) {
	for i := 0; i < n; i++ {
		c.srv.AddTask(model.TaskInput{
			Title:      fmt.Sprintf("task %d", i),
			AssignedTo: []int64{assignee},
			DueDate:    "2026-03-12",
		})
	}
}

func TestTaskListPagesThroughController(t *testing.T) {
	co := newCompany(t)
	co.seedTasks(13, co.ann.ID)

	ctx := context.Background()
	ctrl := pagination.New[model.Task](
		resource.NewTaskSource(co.as(t, bossEmail), model.RoleManager),
		pagination.Options[model.Task]{Name: "tasks"},
	)

	if err := ctrl.LoadFirstPage(ctx, pagination.Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	if ctrl.Len() != mockapi.DefaultPageSize {
		t.Fatalf("expected %d items, got %d", mockapi.DefaultPageSize, ctrl.Len())
	}
	if got := ctrl.State().TotalPages; got != 2 {
		t.Fatalf("expected 2 pages, got %d", got)
	}
	if first := ctrl.Items()[0]; first.Title != "task 12" {
		t.Fatalf("expected newest first, got %q", first.Title)
	}

	more, err := ctrl.LoadNextPage(ctx)
	if err != nil || !more {
		t.Fatalf("LoadNextPage: more=%v err=%v", more, err)
	}
	if ctrl.Len() != 13 {
		t.Fatalf("expected 13 items, got %d", ctrl.Len())
	}
	if more, _ := ctrl.LoadNextPage(ctx); more {
		t.Fatal("expected no page after the last one")
	}
}

func TestManagerTaskViews(t *testing.T) {
	co := newCompany(t)
	co.srv.AddTask(model.TaskInput{Title: "late", AssignedTo: []int64{co.ann.ID}, DueDate: "2026-03-01"})
	co.srv.AddTask(model.TaskInput{Title: "today", AssignedTo: []int64{co.ann.ID}, DueDate: "2026-03-10"})
	co.srv.AddTask(model.TaskInput{Title: "soon", AssignedTo: []int64{co.bob.ID}, DueDate: "2026-03-15"})
	co.srv.AddTask(model.TaskInput{Title: "later", AssignedTo: []int64{co.bob.ID}, DueDate: "2026-04-01"})

	src := resource.NewTaskSource(co.as(t, bossEmail), model.RoleManager)
	tests := []struct {
		view string
		want []string
	}{
		{resource.TaskViewAll, []string{"later", "soon", "today", "late"}},
		{resource.TaskViewOverdue, []string{"late"}},
		{resource.TaskViewDueDay, []string{"today"}},
		{resource.TaskViewDueWeek, []string{"soon", "today"}},
		{resource.TaskViewDueMonth, []string{"later", "soon", "today"}},
		{resource.TaskViewCompleted, nil},
	}

	for _, tt := range tests {
		t.Run("view "+tt.view, func(t *testing.T) {
			page, err := src.List(context.Background(), 1, pagination.Filter{View: tt.view})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var got []string
			for _, task := range page.Items {
				got = append(got, task.Title)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEmployeeTaskViews(t *testing.T) {
	co := newCompany(t)
	co.seedTasks(2, co.ann.ID)
	co.seedTasks(1, co.bob.ID)

	client := co.as(t, annEmail)
	src := resource.NewTaskSource(client, model.RoleEmployee)
	ctx := context.Background()

	page, err := src.List(ctx, 1, pagination.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected only Ann's 2 tasks, got %d", len(page.Items))
	}

	if _, err := src.Transition(ctx, page.Items[0].ID, model.TaskInProgress); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	pending, err := src.List(ctx, 1, pagination.Filter{View: resource.TaskViewPending})
	if err != nil {
		t.Fatalf("List pending: %v", err)
	}
	if len(pending.Items) != 2 {
		t.Fatalf("pending should include in-progress tasks, got %d", len(pending.Items))
	}

	if _, err := src.List(ctx, 1, pagination.Filter{View: resource.TaskViewOverdue}); err == nil {
		t.Fatal("expected overdue view to be unavailable to employees")
	}
	if len(src.Views()) != 3 {
		t.Fatalf("expected 3 employee views, got %v", src.Views())
	}
}

func TestEmployeeTaskTransitionRules(t *testing.T) {
	co := newCompany(t)
	co.seedTasks(1, co.ann.ID)

	ctx := context.Background()
	ctrl := pagination.New[model.Task](
		resource.NewTaskSource(co.as(t, annEmail), model.RoleEmployee),
		pagination.Options[model.Task]{Name: "tasks"},
	)
	if err := ctrl.LoadFirstPage(ctx, pagination.Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	id := ctrl.Items()[0].ID

	_, err := ctrl.Transition(ctx, id, model.TaskCompleted)
	var verr *api.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Message != "Invalid status transition from PENDING to COMPLETED" {
		t.Fatalf("unexpected message %q", verr.Message)
	}
	if got, _ := ctrl.Find(id); got.Status != model.TaskPending {
		t.Fatalf("expected rollback to PENDING, got %s", got.Status)
	}

	for _, next := range []string{model.TaskInProgress, model.TaskCompleted, model.TaskInProgress} {
		task, err := ctrl.Transition(ctx, id, next)
		if err != nil {
			t.Fatalf("moving to %s: %v", next, err)
		}
		if task.Status != next {
			t.Fatalf("expected %s, got %s", next, task.Status)
		}
	}
}

func TestOnlyManagersCreateTasks(t *testing.T) {
	co := newCompany(t)
	src := resource.NewTaskSource(co.as(t, annEmail), model.RoleEmployee)

	_, err := src.Create(context.Background(), model.TaskInput{Title: "x", AssignedTo: []int64{co.ann.ID}})
	if !api.IsValidationError(err) {
		t.Fatalf("expected 403 ValidationError, got %v", err)
	}
	if api.UserMessage(err) != "Only managers can create tasks" {
		t.Fatalf("unexpected message %q", api.UserMessage(err))
	}
}

func TestRemindTask(t *testing.T) {
	co := newCompany(t)
	task := co.srv.AddTask(model.TaskInput{Title: "x", AssignedTo: []int64{co.ann.ID}})

	src := resource.NewTaskSource(co.as(t, bossEmail), model.RoleManager)
	if err := src.Remind(context.Background(), task.ID); err != nil {
		t.Fatalf("Remind: %v", err)
	}
	if n := co.srv.RequestCount("POST", fmt.Sprintf("/tasks/%d/remind/", task.ID)); n != 1 {
		t.Fatalf("expected one remind request, got %d", n)
	}

	if err := src.Remind(context.Background(), task.ID+1000); !api.IsNotFoundError(err) {
		t.Fatalf("expected NotFoundError for unknown task, got %v", err)
	}
}

func TestReportWorkflow(t *testing.T) {
	co := newCompany(t)
	co.srv.AddReport(co.bob.ID, "older")

	ctx := context.Background()
	ctrl := pagination.New[model.Report](
		resource.NewReportSource(co.as(t, annEmail)),
		pagination.Options[model.Report]{Name: "reports", CreatePolicy: pagination.CreatePrepend},
	)
	if err := ctrl.LoadFirstPage(ctx, pagination.Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}

	created, err := ctrl.Create(ctx, model.ReportInput{Message: "Freezer leaking"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ctrl.Items()[0].ID != created.ID || ctrl.Len() != 2 {
		t.Fatalf("expected new report prepended, got %+v", ctrl.Items())
	}
	if created.EmployeeName != "Ann Lee" {
		t.Fatalf("unexpected author %q", created.EmployeeName)
	}

	attended, err := ctrl.Transition(ctx, created.ID, model.ReportAttended)
	if err != nil {
		t.Fatalf("attend: %v", err)
	}
	if attended.AttendedByName != "Ann Lee" || attended.AttendedAt == nil {
		t.Fatalf("attend did not record the actor: %+v", attended)
	}
	resolved, err := ctrl.Transition(ctx, created.ID, model.ReportResolved)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != model.ReportResolved || resolved.ResolvedAt == nil {
		t.Fatalf("unexpected resolved report %+v", resolved)
	}

	if _, err := ctrl.Transition(ctx, created.ID, model.ReportPending); !api.IsValidationError(err) {
		t.Fatalf("expected ValidationError for PENDING, got %v", err)
	}
	if got, _ := ctrl.Find(created.ID); got.Status != model.ReportResolved {
		t.Fatalf("expected RESOLVED to be kept, got %s", got.Status)
	}
}

func TestReportRaisesOtherUsersBadges(t *testing.T) {
	co := newCompany(t)
	src := resource.NewReportSource(co.as(t, annEmail))

	if _, err := src.Create(context.Background(), model.ReportInput{Message: "Door jammed"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := co.srv.Counts(bossEmail).Reports; got != 1 {
		t.Fatalf("expected manager reports=1, got %d", got)
	}
	if got := co.srv.Counts(bobEmail).Reports; got != 1 {
		t.Fatalf("expected coworker reports=1, got %d", got)
	}
	if got := co.srv.Counts(annEmail).Reports; got != 0 {
		t.Fatalf("expected author reports=0, got %d", got)
	}
}

func TestAnnouncementMarkNoted(t *testing.T) {
	co := newCompany(t)
	a := co.srv.AddAnnouncement("Holiday", "Closed Friday")

	ctx := context.Background()
	ctrl := pagination.New[model.Announcement](
		resource.NewAnnouncementSource(co.as(t, annEmail)),
		pagination.Options[model.Announcement]{Name: "announcements"},
	)
	if err := ctrl.LoadFirstPage(ctx, pagination.Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}

	noted, err := ctrl.Transition(ctx, a.ID, model.StatusNoted)
	if err != nil {
		t.Fatalf("mark noted: %v", err)
	}
	if noted.NotedCount != 1 || !noted.IsNotedBy(co.ann.ID) {
		t.Fatalf("expected server copy noted by Ann, got %+v", noted)
	}

	_, err = ctrl.Transition(ctx, a.ID, model.StatusNoted)
	if api.UserMessage(err) != "Already noted" {
		t.Fatalf("expected Already noted, got %v", err)
	}
	if got, _ := ctrl.Find(a.ID); got.NotedCount != 1 {
		t.Fatalf("expected rollback to keep count 1, got %d", got.NotedCount)
	}

	boss := resource.NewAnnouncementSource(co.as(t, bossEmail))
	emps, err := boss.NotedEmployees(ctx, a.ID)
	if err != nil {
		t.Fatalf("NotedEmployees: %v", err)
	}
	if len(emps) != 1 || emps[0].ID != co.ann.ID {
		t.Fatalf("expected Ann only, got %+v", emps)
	}
}

func TestAnnouncementUpdateReplaces(t *testing.T) {
	co := newCompany(t)
	a := co.srv.AddAnnouncement("Holiday", "Closed Friday")

	src := resource.NewAnnouncementSource(co.as(t, bossEmail))
	got, err := src.Update(context.Background(), a.ID, model.AnnouncementInput{Title: "Holiday", Content: "Closed Monday"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Content != "Closed Monday" {
		t.Fatalf("unexpected content %q", got.Content)
	}
}

func TestSuggestionStatusViews(t *testing.T) {
	co := newCompany(t)
	first := co.srv.AddSuggestion(co.ann.ID, "printer")
	co.srv.AddSuggestion(co.bob.ID, "coffee")

	ctx := context.Background()
	src := resource.NewSuggestionSource(co.as(t, bossEmail), model.RoleManager)
	ctrl := pagination.New[model.Suggestion](src, pagination.Options[model.Suggestion]{Name: "suggestions"})
	if err := ctrl.LoadFirstPage(ctx, pagination.Filter{}); err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	if ctrl.Len() != 2 {
		t.Fatalf("expected 2 suggestions, got %d", ctrl.Len())
	}

	read, err := ctrl.Transition(ctx, first.ID, model.SuggestionRead)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if read.Status != model.SuggestionRead {
		t.Fatalf("expected READ, got %s", read.Status)
	}

	unread, err := src.List(ctx, 1, pagination.Filter{View: model.SuggestionUnread})
	if err != nil {
		t.Fatalf("List unread: %v", err)
	}
	if len(unread.Items) != 1 || unread.Items[0].Message != "coffee" {
		t.Fatalf("expected only the coffee suggestion unread, got %+v", unread.Items)
	}
	for _, r := range co.srv.Requests() {
		if strings.Contains(r.Query, "my_suggestions") {
			t.Fatalf("manager requests must not carry my_suggestions: %s", r.Query)
		}
	}
}

func TestEmployeeSuggestionsAreScoped(t *testing.T) {
	co := newCompany(t)
	co.srv.AddSuggestion(co.bob.ID, "coffee")

	ctx := context.Background()
	src := resource.NewSuggestionSource(co.as(t, annEmail), model.RoleEmployee)
	if _, err := src.Create(ctx, model.SuggestionInput{Message: "printer"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	page, err := src.List(ctx, 1, pagination.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Message != "printer" {
		t.Fatalf("expected only Ann's suggestion, got %+v", page.Items)
	}

	reqs := co.srv.Requests()
	if last := reqs[len(reqs)-1]; !strings.Contains(last.Query, "my_suggestions=true") {
		t.Fatalf("expected my_suggestions=true, got %q", last.Query)
	}

	if _, err := src.Transition(ctx, page.Items[0].ID, model.SuggestionRead); !api.IsValidationError(err) {
		t.Fatalf("expected employees to be refused status changes, got %v", err)
	}
}

func TestCreateEmployeeReturnsTemporaryPassword(t *testing.T) {
	co := newCompany(t)
	src := resource.NewEmployeeSource(co.as(t, bossEmail))

	e, err := src.Create(context.Background(), model.EmployeeInput{
		FirstName: "Cleo",
		LastName:  "Ruiz",
		Email:     "cleo@acme.test",
		Role:      "Cashier",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.TemporaryPassword == "" {
		t.Fatal("expected a temporary password")
	}

	client := testutil.NewTestAPI(t, co.srv)
	if _, err := client.Login(context.Background(), "cleo@acme.test", e.TemporaryPassword); err != nil {
		t.Fatalf("new employee cannot log in: %v", err)
	}

	_, err = src.Create(context.Background(), model.EmployeeInput{FirstName: "Dup", Email: "cleo@acme.test"})
	var verr *api.ValidationError
	if !errors.As(err, &verr) || verr.FieldMessage("email") == "" {
		t.Fatalf("expected an email field error, got %v", err)
	}
}
