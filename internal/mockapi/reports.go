package mockapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/teamkonekt/konekt/internal/model"
)

func (s *Server) registerReportRoutes(r gin.IRouter) {
	r.GET("/reports/", s.listReports)
	r.POST("/reports/", s.createReport)
	r.GET("/reports/:id/", s.getReport)
	r.PATCH("/reports/:id/", s.updateReport)
	r.DELETE("/reports/:id/", s.deleteReport)
	r.POST("/reports/:id/attend/", s.reportAction(model.ReportAttended))
	r.POST("/reports/:id/resolve/", s.reportAction(model.ReportResolved))
}

func (s *Server) listReports(c *gin.Context) {
	s.mu.Lock()
	items := newestFirst(s.reports, nil)
	s.mu.Unlock()
	paginate(c, items, s.pageSize)
}

func (s *Server) getReport(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.reportIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, s.reports[i])
}

func (s *Server) createReport(c *gin.Context) {
	acc := caller(c)
	if acc.role != model.RoleEmployee {
		forbidden(c, "Only employees can create reports")
		return
	}
	var in model.ReportInput
	if !bindJSON(c, &in) {
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": []string{"This field may not be blank."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusCreated, s.addReport(acc.employeeID, in))
}

// AddReport seeds a report filed by the given employee.
func (s *Server) AddReport(employeeID int64, message string) model.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addReport(employeeID, model.ReportInput{Message: message})
}

// addReport files the report and raises the reports badge of everyone
// except its author.
func (s *Server) addReport(employeeID int64, in model.ReportInput) model.Report {
	r := model.Report{
		ID:           s.newID(),
		Employee:     employeeID,
		EmployeeName: s.employeeName(employeeID),
		Message:      in.Message,
		Status:       model.ReportPending,
		CreatedAt:    s.now().UTC(),
	}
	for _, e := range s.employees {
		if e.ID == employeeID {
			r.EmployeePhone = e.PhoneNumber
		}
	}
	s.reports = append(s.reports, r)

	s.bump(func(a *account) bool { return a.employeeID != employeeID }, func(sc *model.ServerCounts) { sc.Reports++ })
	return r
}

func (s *Server) updateReport(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in struct {
		Message *string `json:"message"`
	}
	if !bindJSON(c, &in) {
		return
	}

	acc := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.reportIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	if acc.role != model.RoleManager && s.reports[i].Employee != acc.employeeID {
		forbidden(c, "You do not have permission to perform this action.")
		return
	}
	if in.Message != nil {
		s.reports[i].Message = *in.Message
	}
	c.JSON(http.StatusOK, s.reports[i])
}

func (s *Server) deleteReport(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	acc := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.reportIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	if acc.role != model.RoleManager && s.reports[i].Employee != acc.employeeID {
		forbidden(c, "You do not have permission to perform this action.")
		return
	}
	s.reports = append(s.reports[:i], s.reports[i+1:]...)
	c.Status(http.StatusNoContent)
}

// reportAction moves a report to status and records the actor.
func (s *Server) reportAction(status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		acc := caller(c)
		s.mu.Lock()
		defer s.mu.Unlock()
		i := s.reportIndex(id)
		if i < 0 {
			notFound(c)
			return
		}

		now := s.now().UTC()
		r := s.reports[i]
		r.Status = status
		switch status {
		case model.ReportAttended:
			actor := acc.id
			r.AttendedBy = &actor
			r.AttendedByName = acc.fullName()
			r.AttendedAt = &now
		case model.ReportResolved:
			r.ResolvedAt = &now
		}
		s.reports[i] = r
		c.JSON(http.StatusOK, r)
	}
}

func (s *Server) reportIndex(id int64) int {
	for i, r := range s.reports {
		if r.ID == id {
			return i
		}
	}
	return -1
}
