package model

import "time"

// Report status values.
const (
	ReportPending  = "PENDING"
	ReportAttended = "ATTENDED"
	ReportResolved = "RESOLVED"
)

// Report is an issue raised by an employee and visible company-wide.
type Report struct {
	ID             int64      `json:"id"`
	Employee       int64      `json:"employee"`
	EmployeeName   string     `json:"employee_name"`
	EmployeePhone  string     `json:"employee_phone,omitempty"`
	Message        string     `json:"message"`
	AttendedBy     *int64     `json:"attended_by,omitempty"`
	AttendedByName string     `json:"attended_by_name,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	AttendedAt     *time.Time `json:"attended_at,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// GetID returns the server id.
func (r Report) GetID() int64 { return r.ID }

// WithStatus returns a copy of r in the given status with the matching
// timestamp filled in. The attending actor is only known to the server.
func (r Report) WithStatus(status string) Report {
	now := time.Now().UTC()
	r.Status = status
	switch status {
	case ReportAttended:
		r.AttendedAt = &now
	case ReportResolved:
		r.ResolvedAt = &now
	}
	return r
}

// NextStatus returns the next step of the report workflow.
func (r Report) NextStatus() (string, bool) {
	switch r.Status {
	case ReportPending:
		return ReportAttended, true
	case ReportAttended:
		return ReportResolved, true
	}
	return "", false
}

// ReportInput is the payload for filing a report.
type ReportInput struct {
	Message string `json:"message"`
}
