package mockapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teamkonekt/konekt/internal/model"
)

func (s *Server) registerEmployeeRoutes(r gin.IRouter) {
	r.GET("/employees/", s.managerOnly(s.listEmployees))
	r.POST("/employees/", s.managerOnly(s.createEmployee))
	r.GET("/employees/:id/", s.managerOnly(s.getEmployee))
	r.PATCH("/employees/:id/", s.managerOnly(s.updateEmployee))
	r.PUT("/employees/:id/", s.managerOnly(s.updateEmployee))
	r.DELETE("/employees/:id/", s.managerOnly(s.deleteEmployee))
}

func (s *Server) listEmployees(c *gin.Context) {
	s.mu.Lock()
	items := newestFirst(s.employees, nil)
	s.mu.Unlock()
	paginate(c, items, s.pageSize)
}

func (s *Server) getEmployee(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.employeeIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, s.employees[i])
}

// createEmployee adds a profile with a login account. The generated
// password is only returned by this response.
func (s *Server) createEmployee(c *gin.Context) {
	var in model.EmployeeInput
	if !bindJSON(c, &in) {
		return
	}
	errs := gin.H{}
	if strings.TrimSpace(in.FirstName) == "" {
		errs["first_name"] = []string{"This field may not be blank."}
	}
	if !strings.Contains(in.Email, "@") {
		errs["email"] = []string{"Enter a valid email address."}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountByEmail(in.Email) != nil {
		errs["email"] = []string{"A user with this email already exists."}
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, errs)
		return
	}

	password := uuid.NewString()[:12]
	emp := s.addEmployee(in.Email, password, in)
	emp.TemporaryPassword = password
	c.JSON(http.StatusCreated, emp)
}

func (s *Server) updateEmployee(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in struct {
		FirstName   *string `json:"first_name"`
		LastName    *string `json:"last_name"`
		Role        *string `json:"role"`
		PhoneNumber *string `json:"phone_number"`
	}
	if !bindJSON(c, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.employeeIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	e := s.employees[i]
	if in.FirstName != nil {
		e.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		e.LastName = *in.LastName
	}
	if in.Role != nil {
		e.Role = *in.Role
	}
	if in.PhoneNumber != nil {
		e.PhoneNumber = *in.PhoneNumber
	}
	s.employees[i] = e
	if acc := s.accountByEmployee(id); acc != nil {
		acc.firstName, acc.lastName = e.FirstName, e.LastName
	}
	c.JSON(http.StatusOK, e)
}

// deleteEmployee removes the profile and revokes its login.
func (s *Server) deleteEmployee(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.employeeIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	s.employees = append(s.employees[:i], s.employees[i+1:]...)

	acc := s.accountByEmployee(id)
	if acc == nil {
		c.Status(http.StatusNoContent)
		return
	}
	for tok, a := range s.tokens {
		if a == acc {
			delete(s.tokens, tok)
		}
	}
	for j, a := range s.accounts {
		if a == acc {
			s.accounts = append(s.accounts[:j], s.accounts[j+1:]...)
			break
		}
	}
	delete(s.counts, acc.id)
	c.Status(http.StatusNoContent)
}

func (s *Server) employeeIndex(id int64) int {
	for i, e := range s.employees {
		if e.ID == id {
			return i
		}
	}
	return -1
}
