package model

import "time"

// Task status values as returned by the API.
const (
	TaskPending    = "PENDING"
	TaskInProgress = "IN_PROGRESS"
	TaskCompleted  = "COMPLETED"
)

// Task priority values.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// dueDateLayout is the wire format of Task.DueDate.
const dueDateLayout = "2006-01-02"

// Task is a unit of work a manager assigns to one or more employees.
type Task struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	AssignedTo     []int64    `json:"assigned_to"`
	AssignedToName string     `json:"assigned_to_name,omitempty"`
	ManagerName    string     `json:"manager_name,omitempty"`
	DueDate        string     `json:"due_date"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// GetID returns the server id.
func (t Task) GetID() int64 { return t.ID }

// WithStatus returns a copy of t in the given status.
func (t Task) WithStatus(status string) Task {
	t.Status = status
	if status == TaskCompleted && t.CompletedAt == nil {
		now := time.Now().UTC()
		t.CompletedAt = &now
	}
	if status != TaskCompleted {
		t.CompletedAt = nil
	}
	return t
}

// NextStatus returns the status an employee would move the task to next.
// Completed tasks can be reopened to in-progress.
func (t Task) NextStatus() (string, bool) {
	switch t.Status {
	case TaskPending:
		return TaskInProgress, true
	case TaskInProgress:
		return TaskCompleted, true
	case TaskCompleted:
		return TaskInProgress, true
	}
	return "", false
}

// Due parses DueDate. The second result is false when it is empty or malformed.
func (t Task) Due() (time.Time, bool) {
	if t.DueDate == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(dueDateLayout, t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// IsOverdue reports whether the task is still open after its due date.
func (t Task) IsOverdue(now time.Time) bool {
	due, ok := t.Due()
	if !ok || t.Status == TaskCompleted {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}

// TaskInput is the payload for creating or editing a task.
type TaskInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	AssignedTo  []int64 `json:"assigned_to"`
	DueDate     string  `json:"due_date"`
	Priority    string  `json:"priority"`
}

// StatusPatch is the body used to move an entity to a new status.
type StatusPatch struct {
	Status string `json:"status"`
}
