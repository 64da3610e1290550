// Package mockapi is an in-memory implementation of the TeamKonekt REST
// contract. It backs the client tests and the konekt-mock command. It
// models the parts of the server the client depends on (token auth,
// roles, pagination, status workflows, badge counters) and nothing more.
package mockapi

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/teamkonekt/konekt/internal/model"
)

// DefaultPageSize matches the server's page size.
const DefaultPageSize = 10

const accountKey = "mockapi_account"

// Request is one request the server received.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
}

type account struct {
	id          int64
	email       string
	password    string
	role        model.Role
	firstName   string
	lastName    string
	employeeID  int64
	summaryTime string
}

func (a *account) fullName() string {
	return strings.TrimSpace(a.firstName + " " + a.lastName)
}

type failure struct {
	status  int
	message string
}

// Server holds the fake company's state.
type Server struct {
	mu       sync.Mutex
	now      func() time.Time
	pageSize int
	company  string
	nextID   int64

	accounts      []*account
	tokens        map[string]*account
	employees     []model.Employee
	tasks         []model.Task
	reports       []model.Report
	announcements []model.Announcement
	suggestions   []model.Suggestion
	counts        map[int64]*model.ServerCounts
	failures      map[string]failure
	requests      []Request

	engine *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithPageSize sets the list page size.
func WithPageSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates an empty server for the given company.
func New(company string, opts ...Option) *Server {
	s := &Server{
		now:      time.Now,
		pageSize: DefaultPageSize,
		company:  company,
		tokens:   make(map[string]*account),
		counts:   make(map[int64]*model.ServerCounts),
		failures: make(map[string]failure),
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.TestMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.observe)
	s.RegisterRoutes(s.engine)
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// RegisterRoutes mounts the API on r.
func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.POST("/login/", s.login)

	auth := r.Group("/", s.authenticate)
	auth.POST("/logout/", s.logout)
	auth.GET("/auth/user/", s.currentUser)
	auth.POST("/change-password/", s.changePassword)
	auth.POST("/manager/set-summary-time/", s.setSummaryTime)
	auth.GET("/notifications/count/", s.notificationCounts)
	auth.POST("/notifications/reset-count/", s.resetCount)

	s.registerTaskRoutes(auth)
	s.registerReportRoutes(auth)
	s.registerAnnouncementRoutes(auth)
	s.registerSuggestionRoutes(auth)
	s.registerEmployeeRoutes(auth)
}

// AddManager creates the manager account and returns its user id.
func (s *Server) AddManager(email, password, firstName, lastName string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := &account{
		id:        s.newID(),
		email:     email,
		password:  password,
		role:      model.RoleManager,
		firstName: firstName,
		lastName:  lastName,
	}
	s.accounts = append(s.accounts, acc)
	s.counts[acc.id] = &model.ServerCounts{}
	return acc.id
}

// AddEmployee creates an employee account with a login and returns its
// employee profile.
func (s *Server) AddEmployee(email, password, firstName, lastName string) model.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addEmployee(email, password, model.EmployeeInput{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Role:      "Staff",
	})
}

func (s *Server) addEmployee(email, password string, in model.EmployeeInput) model.Employee {
	emp := model.Employee{
		ID:          s.newID(),
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       email,
		Role:        in.Role,
		PhoneNumber: in.PhoneNumber,
	}
	acc := &account{
		id:         s.newID(),
		email:      email,
		password:   password,
		role:       model.RoleEmployee,
		firstName:  in.FirstName,
		lastName:   in.LastName,
		employeeID: emp.ID,
	}
	s.accounts = append(s.accounts, acc)
	s.employees = append(s.employees, emp)
	s.counts[acc.id] = &model.ServerCounts{}
	return emp
}

// SetCounts overwrites the badge counters of the account with email.
func (s *Server) SetCounts(email string, c model.ServerCounts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc := s.accountByEmail(email); acc != nil {
		cp := c
		s.counts[acc.id] = &cp
	}
}

// Counts returns the badge counters of the account with email.
func (s *Server) Counts(email string) model.ServerCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc := s.accountByEmail(email); acc != nil {
		return *s.counts[acc.id]
	}
	return model.ServerCounts{}
}

// FailNext makes the next request matching method and path fail with
// status.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: http.StatusText(status)}
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestCount returns how many requests hit method and path.
func (s *Server) RequestCount(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// observe records the request and serves injected failures.
func (s *Server) observe(c *gin.Context) {
	key := c.Request.Method + " " + c.Request.URL.Path

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		Query:         c.Request.URL.RawQuery,
		Authorization: c.GetHeader("Authorization"),
	})
	f, injected := s.failures[key]
	if injected {
		delete(s.failures, key)
	}
	s.mu.Unlock()

	if injected {
		c.AbortWithStatusJSON(f.status, gin.H{"detail": f.message})
		return
	}
	c.Next()
}

// authenticate resolves "Token <key>" to an account.
func (s *Server) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Token ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
		return
	}

	s.mu.Lock()
	acc, ok := s.tokens[strings.TrimPrefix(header, "Token ")]
	s.mu.Unlock()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
		return
	}

	c.Set(accountKey, acc)
	c.Next()
}

func caller(c *gin.Context) *account {
	return c.MustGet(accountKey).(*account)
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accountByEmail(req.Email)
	if acc == nil || acc.password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	s.tokens[token] = acc
	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"user_type":    string(acc.role),
		"company_name": s.company,
	})
}

func (s *Server) logout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Token ")
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (s *Server) currentUser(c *gin.Context) {
	acc := caller(c)
	data := gin.H{
		"id":          acc.id,
		"username":    acc.email,
		"email":       acc.email,
		"is_manager":  acc.role == model.RoleManager,
		"is_employee": acc.role == model.RoleEmployee,
	}
	if acc.employeeID != 0 {
		data["employee_profile_id"] = acc.employeeID
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) changePassword(c *gin.Context) {
	var req struct {
		OldPassword     string `json:"old_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	_ = c.ShouldBindJSON(&req)

	acc := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case req.OldPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
	case req.NewPassword != req.ConfirmPassword:
		c.JSON(http.StatusBadRequest, gin.H{"error": "New passwords do not match"})
	case req.OldPassword != acc.password:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect old password"})
	default:
		acc.password = req.NewPassword
		c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
	}
}

func (s *Server) setSummaryTime(c *gin.Context) {
	acc := caller(c)
	if acc.role != model.RoleManager {
		c.JSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
		return
	}
	var req struct {
		Time string `json:"time"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Time == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": `Missing "time" field.`})
		return
	}

	s.mu.Lock()
	acc.summaryTime = req.Time
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"detail": "Daily summary time updated successfully."})
}

func (s *Server) notificationCounts(c *gin.Context) {
	acc := caller(c)
	s.mu.Lock()
	counts := *s.counts[acc.id]
	s.mu.Unlock()
	c.JSON(http.StatusOK, counts)
}

func (s *Server) resetCount(c *gin.Context) {
	var req struct {
		Type string `json:"type"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type is required"})
		return
	}

	acc := caller(c)
	s.mu.Lock()
	counts := s.counts[acc.id]
	switch req.Type {
	case "reports":
		counts.Reports = 0
	case "tasks":
		counts.Tasks = 0
	case "announcements":
		counts.Announcements = 0
	case "suggestions":
		counts.Suggestions = 0
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"detail": "Notification count reset"})
}

// bump applies fn to the counters of every account matching who.
// Callers hold the lock.
func (s *Server) bump(who func(*account) bool, fn func(*model.ServerCounts)) {
	for _, acc := range s.accounts {
		if who(acc) {
			fn(s.counts[acc.id])
		}
	}
}

func (s *Server) accountByEmail(email string) *account {
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.email, email) {
			return acc
		}
	}
	return nil
}

func (s *Server) accountByEmployee(employeeID int64) *account {
	for _, acc := range s.accounts {
		if acc.employeeID == employeeID {
			return acc
		}
	}
	return nil
}

func (s *Server) manager() *account {
	for _, acc := range s.accounts {
		if acc.role == model.RoleManager {
			return acc
		}
	}
	return nil
}

func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) employeeName(id int64) string {
	for _, e := range s.employees {
		if e.ID == id {
			return e.FullName()
		}
	}
	return fmt.Sprintf("employee %d", id)
}

func forbidden(c *gin.Context, detail string) {
	c.JSON(http.StatusForbidden, gin.H{"detail": detail})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}
