package model

import "time"

// Category is a notification badge bucket. Each category belongs to one screen.
type Category string

const (
	CategoryHome          Category = "home"
	CategoryTasks         Category = "tasks"
	CategoryAnnouncements Category = "announcements"
	CategorySuggestions   Category = "suggestions"
)

// Categories lists every badge category in display order.
var Categories = []Category{
	CategoryHome,
	CategoryTasks,
	CategoryAnnouncements,
	CategorySuggestions,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryHome, CategoryTasks, CategoryAnnouncements, CategorySuggestions:
		return true
	}
	return false
}

// ServerKey returns the key the API uses for this category in the counts
// payload and the reset-count request. Home badges count reports.
func (c Category) ServerKey() string {
	if c == CategoryHome {
		return "reports"
	}
	return string(c)
}

// NotificationCounts holds the unread badge count per category.
// Values are never negative.
type NotificationCounts map[Category]int

// NewNotificationCounts returns counts with every category at zero.
func NewNotificationCounts() NotificationCounts {
	c := make(NotificationCounts, len(Categories))
	for _, cat := range Categories {
		c[cat] = 0
	}
	return c
}

// Add adds delta to the category, clamping the result at zero.
func (c NotificationCounts) Add(cat Category, delta int) {
	v := c[cat] + delta
	if v < 0 {
		v = 0
	}
	c[cat] = v
}

// Set stores v for the category, clamping at zero.
func (c NotificationCounts) Set(cat Category, v int) {
	if v < 0 {
		v = 0
	}
	c[cat] = v
}

// Clone returns an independent copy.
func (c NotificationCounts) Clone() NotificationCounts {
	out := make(NotificationCounts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Total sums all categories.
func (c NotificationCounts) Total() int {
	total := 0
	for _, v := range c {
		total += v
	}
	return total
}

// ServerCounts is the response from GET /notifications/count/.
// Missing keys decode as zero.
type ServerCounts struct {
	Reports       int `json:"reports"`
	Tasks         int `json:"tasks"`
	Announcements int `json:"announcements"`
	Suggestions   int `json:"suggestions"`
}

// Counts converts the server payload into client categories.
func (s ServerCounts) Counts() NotificationCounts {
	c := NewNotificationCounts()
	c.Set(CategoryHome, s.Reports)
	c.Set(CategoryTasks, s.Tasks)
	c.Set(CategoryAnnouncements, s.Announcements)
	c.Set(CategorySuggestions, s.Suggestions)
	return c
}

// BadgeEvent records a badge count increase observed by the client.
type BadgeEvent struct {
	ID        string    `json:"id" db:"id"`
	Category  Category  `json:"category" db:"category"`
	Previous  int       `json:"previous" db:"previous_count"`
	Current   int       `json:"current" db:"current_count"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
