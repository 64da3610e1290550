package resource

import (
	"context"
	"fmt"

	"github.com/teamkonekt/konekt/internal/api"
	"github.com/teamkonekt/konekt/internal/model"
	"github.com/teamkonekt/konekt/internal/pagination"
)

const announcementsPath = "/announcements/"

// AnnouncementSource implements pagination.Source for announcements.
// Edits replace the whole announcement (PUT).
type AnnouncementSource struct {
	client *api.Client
}

var (
	_ pagination.Source[model.Announcement]       = (*AnnouncementSource)(nil)
	_ pagination.Transitioner[model.Announcement] = (*AnnouncementSource)(nil)
)

func NewAnnouncementSource(client *api.Client) *AnnouncementSource {
	return &AnnouncementSource{client: client}
}

func (s *AnnouncementSource) List(ctx context.Context, page int, f pagination.Filter) (api.Page[model.Announcement], error) {
	return api.GetPage[model.Announcement](ctx, s.client, announcementsPath, page, f.Query)
}

func (s *AnnouncementSource) Create(ctx context.Context, payload any) (model.Announcement, error) {
	var a model.Announcement
	err := s.client.Post(ctx, announcementsPath, payload, &a)
	return a, err
}

func (s *AnnouncementSource) Update(ctx context.Context, id int64, patch any) (model.Announcement, error) {
	var a model.Announcement
	err := s.client.Put(ctx, itemPath(announcementsPath, id), patch, &a)
	return a, err
}

func (s *AnnouncementSource) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, itemPath(announcementsPath, id))
}

// Get fetches a single announcement.
func (s *AnnouncementSource) Get(ctx context.Context, id int64) (model.Announcement, error) {
	var a model.Announcement
	err := s.client.Get(ctx, itemPath(announcementsPath, id), &a)
	return a, err
}

// Transition supports only model.StatusNoted. mark_noted answers with a
// bare detail message, so the announcement is fetched again afterwards.
func (s *AnnouncementSource) Transition(ctx context.Context, id int64, status string) (model.Announcement, error) {
	if status != model.StatusNoted {
		return model.Announcement{}, &api.ValidationError{
			Message: "announcements can only be marked as noted",
		}
	}

	if err := s.client.Post(ctx, itemPath(announcementsPath, id, "mark_noted"), nil, nil); err != nil {
		return model.Announcement{}, err
	}
	return s.Get(ctx, id)
}

// NotedEmployees lists the employees who noted an announcement.
func (s *AnnouncementSource) NotedEmployees(ctx context.Context, id int64) ([]model.Employee, error) {
	page, err := api.GetPage[model.Employee](ctx, s.client, itemPath(announcementsPath, id, "noted_employees"), 1, nil)
	if err != nil {
		return nil, fmt.Errorf("listing employees who noted announcement %d: %w", id, err)
	}
	return page.Items, nil
}
