package model

import "time"

// Suggestion status values.
const (
	SuggestionUnread   = "UNREAD"
	SuggestionRead     = "READ"
	SuggestionArchived = "ARCHIVED"
)

// Suggestion is an employee's note to their manager.
type Suggestion struct {
	ID           int64     `json:"id"`
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	Employee     *int64    `json:"employee,omitempty"`
	EmployeeName string    `json:"employee_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// GetID returns the server id.
func (s Suggestion) GetID() int64 { return s.ID }

// WithStatus returns a copy of s in the given status.
func (s Suggestion) WithStatus(status string) Suggestion {
	s.Status = status
	return s
}

// NextStatus returns the next step of the suggestion workflow.
func (s Suggestion) NextStatus() (string, bool) {
	switch s.Status {
	case SuggestionUnread:
		return SuggestionRead, true
	case SuggestionRead:
		return SuggestionArchived, true
	}
	return "", false
}

// SuggestionInput is the payload for dropping a suggestion.
type SuggestionInput struct {
	Message string `json:"message"`
}
