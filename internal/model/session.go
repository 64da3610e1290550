package model

// Role identifies which side of the organization a signed-in user is on.
type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// ParseRole maps the server's user_type value to a Role. Unknown values
// yield the empty Role.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleManager:
		return RoleManager
	case RoleEmployee:
		return RoleEmployee
	default:
		return ""
	}
}

// Session is the authenticated state of the client. At most one Session
// is live per process; session.Manager is its only writer.
type Session struct {
	// Token is the opaque credential sent in the Authorization header.
	// Empty means no session.
	Token string `json:"token"`

	// Role is the user's role, empty when unknown.
	Role Role `json:"user_type"`

	// OrganizationName is the company the user belongs to.
	OrganizationName string `json:"company_name"`
}

// Active reports whether the session carries a token.
func (s Session) Active() bool {
	return s.Token != ""
}

// IsManager reports whether the session belongs to a manager.
func (s Session) IsManager() bool {
	return s.Role == RoleManager
}

// UserProfile is the response from GET /auth/user/.
type UserProfile struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	IsManager         bool   `json:"is_manager"`
	EmployeeProfileID int64  `json:"employee_profile_id,omitempty"`
}
