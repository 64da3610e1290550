package model

// Employee is a worker managed by a manager account.
type Employee struct {
	ID                int64  `json:"id"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	PhoneNumber       string `json:"phone_number"`
	TemporaryPassword string `json:"temporary_password,omitempty"`
}

// GetID returns the server id.
func (e Employee) GetID() int64 { return e.ID }

// FullName joins first and last name.
func (e Employee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// EmployeeInput is the payload for adding or editing an employee.
type EmployeeInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phone_number"`
}
