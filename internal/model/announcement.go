package model

import "time"

// StatusNoted is the pseudo-status used to mark an announcement as noted.
// Noting is set membership on the server, not a linear state.
const StatusNoted = "NOTED"

// Announcement is a message a manager posts to all employees.
type Announcement struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Manager    string    `json:"manager"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	NotedBy    []int64   `json:"noted_by"`
	NotedCount int       `json:"noted_count"`

	// notedLocally is set by an optimistic update until the server's
	// copy replaces the entity.
	notedLocally bool
}

// GetID returns the server id.
func (a Announcement) GetID() int64 { return a.ID }

// WithStatus applies the optimistic "noted" update.
func (a Announcement) WithStatus(status string) Announcement {
	if status == StatusNoted && !a.notedLocally {
		a.notedLocally = true
		a.NotedCount++
	}
	return a
}

// IsNotedBy reports whether the given employee profile has noted the announcement.
func (a Announcement) IsNotedBy(employeeID int64) bool {
	if a.notedLocally {
		return true
	}
	for _, id := range a.NotedBy {
		if id == employeeID {
			return true
		}
	}
	return false
}

// AnnouncementInput is the payload for posting or editing an announcement.
type AnnouncementInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
