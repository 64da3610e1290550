package mockapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teamkonekt/konekt/internal/model"
)

// taskPatch is a partial task update. Nil fields are left alone.
type taskPatch struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	AssignedTo  *[]int64 `json:"assigned_to"`
	DueDate     *string  `json:"due_date"`
	Priority    *string  `json:"priority"`
	Status      *string  `json:"status"`
}

var employeeTransitions = map[string]string{
	model.TaskPending:    model.TaskInProgress,
	model.TaskInProgress: model.TaskCompleted,
	model.TaskCompleted:  model.TaskInProgress,
}

func (s *Server) registerTaskRoutes(r gin.IRouter) {
	r.GET("/tasks/", s.listTasks(nil))
	r.POST("/tasks/", s.createTask)
	r.GET("/tasks/pending/", s.managerOnly(s.listTasks(hasStatus(model.TaskPending))))
	r.GET("/tasks/completed/", s.managerOnly(s.listTasks(hasStatus(model.TaskCompleted))))
	r.GET("/tasks/overdue/", s.managerOnly(s.listOverdueTasks))
	r.GET("/tasks/due/:period/", s.managerOnly(s.listDueTasks))
	r.GET("/tasks/:id/", s.getTask)
	r.PATCH("/tasks/:id/", s.updateTask)
	r.PUT("/tasks/:id/", s.updateTask)
	r.DELETE("/tasks/:id/", s.managerOnly(s.deleteTask))
	r.POST("/tasks/:id/remind/", s.managerOnly(s.remindTask))

	r.GET("/employee-tasks/", s.employeeOnly(s.listTasks(nil)))
	r.GET("/employee-tasks/pending/", s.employeeOnly(s.listTasks(hasStatus(model.TaskPending, model.TaskInProgress))))
	r.GET("/employee-tasks/completed/", s.employeeOnly(s.listTasks(hasStatus(model.TaskCompleted))))
}

func (s *Server) managerOnly(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if caller(c).role != model.RoleManager {
			forbidden(c, "You do not have permission to perform this action.")
			return
		}
		h(c)
	}
}

func (s *Server) employeeOnly(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if caller(c).role != model.RoleEmployee {
			forbidden(c, "You do not have permission to perform this action.")
			return
		}
		h(c)
	}
}

func hasStatus(statuses ...string) func(model.Task) bool {
	return func(t model.Task) bool {
		for _, st := range statuses {
			if t.Status == st {
				return true
			}
		}
		return false
	}
}

// visibleTo reports whether acc may see t. Managers see every task;
// employees only those assigned to them.
func visibleTo(acc *account, t model.Task) bool {
	if acc.role == model.RoleManager {
		return true
	}
	for _, id := range t.AssignedTo {
		if id == acc.employeeID {
			return true
		}
	}
	return false
}

func (s *Server) listTasks(keep func(model.Task) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.listTasksWhere(c, keep)
	}
}

func (s *Server) listTasksWhere(c *gin.Context, keep func(model.Task) bool) {
	acc := caller(c)
	s.mu.Lock()
	items := newestFirst(s.tasks, func(t model.Task) bool {
		return visibleTo(acc, t) && (keep == nil || keep(t))
	})
	s.mu.Unlock()
	paginate(c, items, s.pageSize)
}

func (s *Server) listOverdueTasks(c *gin.Context) {
	now := s.now()
	s.listTasksWhere(c, func(t model.Task) bool { return t.IsOverdue(now) })
}

func (s *Server) listDueTasks(c *gin.Context) {
	var days int
	switch c.Param("period") {
	case "day":
		days = 0
	case "week":
		days = 7
	case "month":
		days = 30
	default:
		notFound(c)
		return
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	limit := today.AddDate(0, 0, days)
	s.listTasksWhere(c, func(t model.Task) bool {
		due, ok := t.Due()
		return ok && t.Status != model.TaskCompleted && !due.Before(today) && !due.After(limit)
	})
}

func (s *Server) getTask(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	acc := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(id)
	if i < 0 || !visibleTo(acc, s.tasks[i]) {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, s.tasks[i])
}

func (s *Server) createTask(c *gin.Context) {
	acc := caller(c)
	if acc.role != model.RoleManager {
		forbidden(c, "Only managers can create tasks")
		return
	}
	var in model.TaskInput
	if !bindJSON(c, &in) {
		return
	}
	if errs := validateTask(in); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.addTask(in, acc)
	c.JSON(http.StatusCreated, t)
}

// AddTask seeds a task as if the manager had created it.
func (s *Server) AddTask(in model.TaskInput) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTask(in, s.manager())
}

func (s *Server) addTask(in model.TaskInput, by *account) model.Task {
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	t := model.Task{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		AssignedTo:  append([]int64(nil), in.AssignedTo...),
		DueDate:     in.DueDate,
		Status:      model.TaskPending,
		Priority:    priority,
		CreatedAt:   s.now().UTC(),
	}
	t.AssignedToName = s.assigneeNames(t.AssignedTo)
	if by != nil {
		t.ManagerName = by.fullName()
	}
	s.tasks = append(s.tasks, t)

	assigned := make(map[int64]bool, len(t.AssignedTo))
	for _, id := range t.AssignedTo {
		assigned[id] = true
	}
	s.bump(func(a *account) bool { return assigned[a.employeeID] }, func(sc *model.ServerCounts) { sc.Tasks++ })
	return t
}

func (s *Server) assigneeNames(ids []int64) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, s.employeeName(id))
	}
	return strings.Join(names, ", ")
}

func validateTask(in model.TaskInput) gin.H {
	errs := gin.H{}
	if strings.TrimSpace(in.Title) == "" {
		errs["title"] = []string{"This field may not be blank."}
	}
	if len(in.AssignedTo) == 0 {
		errs["assigned_to"] = []string{"This list may not be empty."}
	}
	if in.DueDate != "" {
		if _, err := time.Parse("2006-01-02", in.DueDate); err != nil {
			errs["due_date"] = []string{"Date has wrong format. Use one of these formats instead: YYYY-MM-DD."}
		}
	}
	return errs
}

func (s *Server) updateTask(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var patch taskPatch
	if !bindJSON(c, &patch) {
		return
	}

	acc := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 || !visibleTo(acc, s.tasks[i]) {
		notFound(c)
		return
	}
	t := s.tasks[i]

	if acc.role == model.RoleEmployee {
		if patch.Status == nil || *patch.Status == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
			return
		}
		if employeeTransitions[t.Status] != *patch.Status {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Invalid status transition from %s to %s", t.Status, *patch.Status),
			})
			return
		}
		s.tasks[i] = s.withTaskStatus(t, *patch.Status)
		c.JSON(http.StatusOK, s.tasks[i])
		return
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.AssignedTo != nil {
		t.AssignedTo = append([]int64(nil), (*patch.AssignedTo)...)
		t.AssignedToName = s.assigneeNames(t.AssignedTo)
	}
	if patch.DueDate != nil {
		t.DueDate = *patch.DueDate
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Status != nil {
		switch *patch.Status {
		case model.TaskPending, model.TaskInProgress, model.TaskCompleted:
			t = s.withTaskStatus(t, *patch.Status)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"status": []string{fmt.Sprintf("%q is not a valid choice.", *patch.Status)}})
			return
		}
	}
	s.tasks[i] = t
	c.JSON(http.StatusOK, t)
}

func (s *Server) withTaskStatus(t model.Task, status string) model.Task {
	t.Status = status
	if status == model.TaskCompleted {
		now := s.now().UTC()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	return t
}

func (s *Server) deleteTask(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	c.Status(http.StatusNoContent)
}

func (s *Server) remindTask(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Reminder sent successfully."})
}

func (s *Server) taskIndex(id int64) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
