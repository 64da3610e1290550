package resource

import (
	"context"

	"github.com/teamkonekt/konekt/internal/api"
	"github.com/teamkonekt/konekt/internal/model"
	"github.com/teamkonekt/konekt/internal/pagination"
)

const reportsPath = "/reports/"

// ReportSource implements pagination.Source for reports. Status changes go
// through the attend and resolve actions, which record the acting user.
type ReportSource struct {
	client *api.Client
}

var (
	_ pagination.Source[model.Report]       = (*ReportSource)(nil)
	_ pagination.Transitioner[model.Report] = (*ReportSource)(nil)
)

func NewReportSource(client *api.Client) *ReportSource {
	return &ReportSource{client: client}
}

func (s *ReportSource) List(ctx context.Context, page int, f pagination.Filter) (api.Page[model.Report], error) {
	return api.GetPage[model.Report](ctx, s.client, reportsPath, page, f.Query)
}

// Create files a report. The server only accepts reports from employees.
func (s *ReportSource) Create(ctx context.Context, payload any) (model.Report, error) {
	var r model.Report
	err := s.client.Post(ctx, reportsPath, payload, &r)
	return r, err
}

func (s *ReportSource) Update(ctx context.Context, id int64, patch any) (model.Report, error) {
	var r model.Report
	err := s.client.Patch(ctx, itemPath(reportsPath, id), patch, &r)
	return r, err
}

func (s *ReportSource) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, itemPath(reportsPath, id))
}

// Transition maps ATTENDED and RESOLVED onto their action endpoints.
func (s *ReportSource) Transition(ctx context.Context, id int64, status string) (model.Report, error) {
	var action string
	switch status {
	case model.ReportAttended:
		action = "attend"
	case model.ReportResolved:
		action = "resolve"
	default:
		return model.Report{}, &api.ValidationError{
			Message: "reports can only be attended or resolved",
		}
	}

	var r model.Report
	err := s.client.Post(ctx, itemPath(reportsPath, id, action), nil, &r)
	return r, err
}
