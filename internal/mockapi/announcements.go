package mockapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/teamkonekt/konekt/internal/model"
)

func (s *Server) registerAnnouncementRoutes(r gin.IRouter) {
	r.GET("/announcements/", s.listAnnouncements)
	r.POST("/announcements/", s.managerOnly(s.createAnnouncement))
	r.GET("/announcements/:id/", s.getAnnouncement)
	r.PUT("/announcements/:id/", s.managerOnly(s.updateAnnouncement))
	r.PATCH("/announcements/:id/", s.managerOnly(s.updateAnnouncement))
	r.DELETE("/announcements/:id/", s.managerOnly(s.deleteAnnouncement))
	r.POST("/announcements/:id/mark_noted/", s.employeeOnly(s.markNoted))
	r.GET("/announcements/:id/noted_employees/", s.managerOnly(s.notedEmployees))
}

func (s *Server) listAnnouncements(c *gin.Context) {
	s.mu.Lock()
	items := newestFirst(s.announcements, nil)
	s.mu.Unlock()
	paginate(c, items, s.pageSize)
}

func (s *Server) getAnnouncement(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.announcementIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, s.announcements[i])
}

func (s *Server) createAnnouncement(c *gin.Context) {
	var in model.AnnouncementInput
	if !bindJSON(c, &in) {
		return
	}
	if errs := validateAnnouncement(in); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, errs)
		return
	}

	acc := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusCreated, s.addAnnouncement(in, acc))
}

// AddAnnouncement seeds an announcement posted by the manager.
func (s *Server) AddAnnouncement(title, content string) model.Announcement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAnnouncement(model.AnnouncementInput{Title: title, Content: content}, s.manager())
}

func (s *Server) addAnnouncement(in model.AnnouncementInput, by *account) model.Announcement {
	now := s.now().UTC()
	a := model.Announcement{
		ID:        s.newID(),
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
		NotedBy:   []int64{},
	}
	if by != nil {
		a.Manager = by.fullName()
	}
	s.announcements = append(s.announcements, a)

	s.bump(func(acc *account) bool { return acc.role == model.RoleEmployee }, func(sc *model.ServerCounts) { sc.Announcements++ })
	return a
}

func validateAnnouncement(in model.AnnouncementInput) gin.H {
	errs := gin.H{}
	if strings.TrimSpace(in.Title) == "" {
		errs["title"] = []string{"This field may not be blank."}
	}
	if strings.TrimSpace(in.Content) == "" {
		errs["content"] = []string{"This field may not be blank."}
	}
	return errs
}

func (s *Server) updateAnnouncement(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if !bindJSON(c, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.announcementIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	a := s.announcements[i]
	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.Content != nil {
		a.Content = *in.Content
	}
	a.UpdatedAt = s.now().UTC()
	s.announcements[i] = a
	c.JSON(http.StatusOK, a)
}

func (s *Server) deleteAnnouncement(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.announcementIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	s.announcements = append(s.announcements[:i], s.announcements[i+1:]...)
	c.Status(http.StatusNoContent)
}

func (s *Server) markNoted(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	acc := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.announcementIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	a := s.announcements[i]
	if a.IsNotedBy(acc.employeeID) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Already noted"})
		return
	}
	a.NotedBy = append(append([]int64(nil), a.NotedBy...), acc.employeeID)
	a.NotedCount = len(a.NotedBy)
	s.announcements[i] = a
	c.JSON(http.StatusOK, gin.H{"detail": "Marked as noted"})
}

// notedEmployees answers with a bare array, not a page.
func (s *Server) notedEmployees(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.announcementIndex(id)
	if i < 0 {
		notFound(c)
		return
	}
	out := []model.Employee{}
	for _, eid := range s.announcements[i].NotedBy {
		for _, e := range s.employees {
			if e.ID == eid {
				out = append(out, e)
			}
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) announcementIndex(id int64) int {
	for i, a := range s.announcements {
		if a.ID == id {
			return i
		}
	}
	return -1
}
