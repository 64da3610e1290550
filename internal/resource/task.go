package resource

import (
	"context"
	"fmt"

	"github.com/teamkonekt/konekt/internal/api"
	"github.com/teamkonekt/konekt/internal/model"
	"github.com/teamkonekt/konekt/internal/pagination"
)

const (
	tasksPath         = "/tasks/"
	employeeTasksPath = "/employee-tasks/"
)

// Task list views. Managers get every view; employees only all, pending
// and completed.
const (
	TaskViewAll       = ""
	TaskViewPending   = "pending"
	TaskViewCompleted = "completed"
	TaskViewOverdue   = "overdue"
	TaskViewDueDay    = "due/day"
	TaskViewDueWeek   = "due/week"
	TaskViewDueMonth  = "due/month"
)

// TaskSource implements pagination.Source for tasks.
type TaskSource struct {
	client *api.Client
	role   model.Role
}

var (
	_ pagination.Source[model.Task]       = (*TaskSource)(nil)
	_ pagination.Transitioner[model.Task] = (*TaskSource)(nil)
)

// NewTaskSource creates a task source for the given role. The role picks
// between the manager and the employee list endpoints.
func NewTaskSource(client *api.Client, role model.Role) *TaskSource {
	return &TaskSource{client: client, role: role}
}

// Views returns the list views available to the role, in menu order.
func (s *TaskSource) Views() []string {
	if s.role == model.RoleManager {
		return []string{
			TaskViewAll, TaskViewPending, TaskViewCompleted, TaskViewOverdue,
			TaskViewDueDay, TaskViewDueWeek, TaskViewDueMonth,
		}
	}
	return []string{TaskViewAll, TaskViewPending, TaskViewCompleted}
}

func (s *TaskSource) listPath(view string) (string, error) {
	if s.role != model.RoleManager {
		switch view {
		case TaskViewAll:
			return employeeTasksPath, nil
		case TaskViewPending, TaskViewCompleted:
			return employeeTasksPath + view + "/", nil
		}
		return "", fmt.Errorf("task view %q is not available to employees", view)
	}

	switch view {
	case TaskViewAll:
		return tasksPath, nil
	case TaskViewPending, TaskViewCompleted, TaskViewOverdue,
		TaskViewDueDay, TaskViewDueWeek, TaskViewDueMonth:
		return tasksPath + view + "/", nil
	}
	return "", fmt.Errorf("unknown task view %q", view)
}

// List fetches one page of the filter's view.
func (s *TaskSource) List(ctx context.Context, page int, f pagination.Filter) (api.Page[model.Task], error) {
	path, err := s.listPath(f.View)
	if err != nil {
		return api.Page[model.Task]{}, err
	}
	return api.GetPage[model.Task](ctx, s.client, path, page, f.Query)
}

// Create assigns a new task. Only managers may create tasks.
func (s *TaskSource) Create(ctx context.Context, payload any) (model.Task, error) {
	var t model.Task
	err := s.client.Post(ctx, tasksPath, payload, &t)
	return t, err
}

// Update patches a task.
func (s *TaskSource) Update(ctx context.Context, id int64, patch any) (model.Task, error) {
	var t model.Task
	err := s.client.Patch(ctx, itemPath(tasksPath, id), patch, &t)
	return t, err
}

// Delete removes a task.
func (s *TaskSource) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, itemPath(tasksPath, id))
}

// Transition moves a task to status. The server rejects moves outside
// PENDING -> IN_PROGRESS -> COMPLETED (and reopening) for employees.
func (s *TaskSource) Transition(ctx context.Context, id int64, status string) (model.Task, error) {
	return s.Update(ctx, id, model.StatusPatch{Status: status})
}

// Remind asks the server to e-mail the task's assignees.
func (s *TaskSource) Remind(ctx context.Context, id int64) error {
	if err := s.client.Post(ctx, itemPath(tasksPath, id, "remind"), nil, nil); err != nil {
		return fmt.Errorf("sending reminder for task %d: %w", id, err)
	}
	return nil
}
