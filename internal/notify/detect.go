package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/teamkonekt/konekt/internal/model"
)

// Incrementer is the part of a Center the detectors use.
type Incrementer interface {
	Increment(cat model.Category, amount int)
}

// MarkerStore persists the last time a category's list was checked.
type MarkerStore interface {
	LastChecked(ctx context.Context, cat model.Category) (time.Time, bool, error)
	MarkChecked(ctx context.Context, cat model.Category, at time.Time) error
}

// AnnouncementDetector raises the announcements badge by one when a
// freshly loaded first page holds announcements created after the last
// check. The first check ever only records the marker.
type AnnouncementDetector struct {
	center  Incrementer
	markers MarkerStore
	now     func() time.Time
}

func NewAnnouncementDetector(center Incrementer, markers MarkerStore) *AnnouncementDetector {
	return &AnnouncementDetector{center: center, markers: markers, now: time.Now}
}

// Observe inspects a first page and advances the marker.
func (d *AnnouncementDetector) Observe(ctx context.Context, page []model.Announcement) error {
	last, ok, err := d.markers.LastChecked(ctx, model.CategoryAnnouncements)
	if err != nil {
		return fmt.Errorf("reading announcements marker: %w", err)
	}

	if ok {
		for _, a := range page {
			if a.CreatedAt.After(last) {
				d.center.Increment(model.CategoryAnnouncements, 1)
				break
			}
		}
	}

	if err := d.markers.MarkChecked(ctx, model.CategoryAnnouncements, d.now().UTC()); err != nil {
		return fmt.Errorf("saving announcements marker: %w", err)
	}
	return nil
}

// SuggestionDetector raises the suggestions badge by the number of
// unread suggestions on a manager's first page.
type SuggestionDetector struct {
	center Incrementer
	role   model.Role
}

func NewSuggestionDetector(center Incrementer, role model.Role) *SuggestionDetector {
	return &SuggestionDetector{center: center, role: role}
}

// Observe counts the unread suggestions of a first page.
func (d *SuggestionDetector) Observe(page []model.Suggestion) int {
	if d.role != model.RoleManager {
		return 0
	}
	unread := 0
	for _, s := range page {
		if s.Status == model.SuggestionUnread {
			unread++
		}
	}
	if unread > 0 {
		d.center.Increment(model.CategorySuggestions, unread)
	}
	return unread
}
