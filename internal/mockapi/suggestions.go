package mockapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/teamkonekt/konekt/internal/model"
)

func (s *Server) registerSuggestionRoutes(r gin.IRouter) {
	r.GET("/suggestions/", s.listSuggestions(""))
	r.POST("/suggestions/", s.createSuggestion)
	r.GET("/suggestions/status/:status/", s.listSuggestionsByStatus)
	r.GET("/suggestions/:id/", s.getSuggestion)
	r.PATCH("/suggestions/:id/", s.managerOnly(s.updateSuggestion))
	r.PUT("/suggestions/:id/", s.managerOnly(s.updateSuggestion))
	r.DELETE("/suggestions/:id/", s.deleteSuggestion)
}

// ownsSuggestion reports whether acc may see sg. Managers see every
// suggestion; employees only their own.
func ownsSuggestion(acc *account, sg model.Suggestion) bool {
	if acc.role == model.RoleManager {
		return true
	}
	return sg.Employee != nil && *sg.Employee == acc.employeeID
}

func (s *Server) listSuggestionsByStatus(c *gin.Context) {
	status := strings.ToUpper(c.Param("status"))
	switch status {
	case model.SuggestionUnread, model.SuggestionRead, model.SuggestionArchived:
		s.listSuggestions(status)(c)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid status."})
	}
}

func (s *Server) listSuggestions(status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc := caller(c)
		s.mu.Lock()
		items := newestFirst(s.suggestions, func(sg model.Suggestion) bool {
			return ownsSuggestion(acc, sg) && (status == "" || sg.Status == status)
		})
		s.mu.Unlock()
		paginate(c, items, s.pageSize)
	}
}

func (s *Server) getSuggestion(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	acc := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.suggestionIndex(id)
	if i < 0 || !ownsSuggestion(acc, s.suggestions[i]) {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, s.suggestions[i])
}

func (s *Server) createSuggestion(c *gin.Context) {
	acc := caller(c)
	if acc.role != model.RoleEmployee {
		forbidden(c, "Only employees can create suggestions")
		return
	}
	var in model.SuggestionInput
	if !bindJSON(c, &in) {
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": []string{"This field may not be blank."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusCreated, s.addSuggestion(acc.employeeID, in.Message))
}

// AddSuggestion seeds an unread suggestion from the given employee.
func (s *Server) AddSuggestion(employeeID int64, message string) model.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addSuggestion(employeeID, message)
}

func (s *Server) addSuggestion(employeeID int64, message string) model.Suggestion {
	emp := employeeID
	sg := model.Suggestion{
		ID:           s.newID(),
		Message:      message,
		Status:       model.SuggestionUnread,
		Employee:     &emp,
		EmployeeName: s.employeeName(employeeID),
		CreatedAt:    s.now().UTC(),
	}
	s.suggestions = append(s.suggestions, sg)

	s.bump(func(a *account) bool { return a.role == model.RoleManager }, func(sc *model.ServerCounts) { sc.Suggestions++ })
	return sg
}

func (s *Server) updateSuggestion(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in struct {
		Status *string `json:"status"`
	}
	if !bindJSON(c, &in) {
		return
	}
	if in.Status == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only status can be updated"})
		return
	}
	switch *in.Status {
	case model.SuggestionUnread, model.SuggestionRead, model.SuggestionArchived:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"status": []string{"Invalid choice."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.suggestionIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	s.suggestions[i].Status = *in.Status
	c.JSON(http.StatusOK, s.suggestions[i])
}

func (s *Server) deleteSuggestion(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	acc := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.suggestionIndex(id)
	if i < 0 || !ownsSuggestion(acc, s.suggestions[i]) {
		notFound(c)
		return
	}
	s.suggestions = append(s.suggestions[:i], s.suggestions[i+1:]...)
	c.Status(http.StatusNoContent)
}

func (s *Server) suggestionIndex(id int64) int {
	for i, sg := range s.suggestions {
		if sg.ID == id {
			return i
		}
	}
	return -1
}
