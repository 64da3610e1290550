package resource

import (
	"context"
	"fmt"

	"github.com/teamkonekt/konekt/internal/api"
	"github.com/teamkonekt/konekt/internal/model"
	"github.com/teamkonekt/konekt/internal/pagination"
)

const suggestionsPath = "/suggestions/"

// SuggestionViewAll lists every suggestion visible to the user. The other
// views are the suggestion status values.
const SuggestionViewAll = ""

// SuggestionSource implements pagination.Source for the suggestion box.
// Employees only ever list their own suggestions.
type SuggestionSource struct {
	client *api.Client
	role   model.Role
}

var (
	_ pagination.Source[model.Suggestion]       = (*SuggestionSource)(nil)
	_ pagination.Transitioner[model.Suggestion] = (*SuggestionSource)(nil)
)

func NewSuggestionSource(client *api.Client, role model.Role) *SuggestionSource {
	return &SuggestionSource{client: client, role: role}
}

// Views returns the list views available to the role.
func (s *SuggestionSource) Views() []string {
	if s.role == model.RoleManager {
		return []string{
			SuggestionViewAll, model.SuggestionUnread,
			model.SuggestionRead, model.SuggestionArchived,
		}
	}
	return []string{SuggestionViewAll}
}

func (s *SuggestionSource) List(ctx context.Context, page int, f pagination.Filter) (api.Page[model.Suggestion], error) {
	path := suggestionsPath
	switch f.View {
	case SuggestionViewAll:
	case model.SuggestionUnread, model.SuggestionRead, model.SuggestionArchived:
		path = suggestionsPath + "status/" + f.View + "/"
	default:
		return api.Page[model.Suggestion]{}, fmt.Errorf("unknown suggestion view %q", f.View)
	}

	q := cloneQuery(f.Query)
	if s.role != model.RoleManager {
		q.Set("my_suggestions", "true")
	}
	return api.GetPage[model.Suggestion](ctx, s.client, path, page, q)
}

// Create drops a suggestion. Only employees may create suggestions.
func (s *SuggestionSource) Create(ctx context.Context, payload any) (model.Suggestion, error) {
	var sg model.Suggestion
	err := s.client.Post(ctx, suggestionsPath, payload, &sg)
	return sg, err
}

func (s *SuggestionSource) Update(ctx context.Context, id int64, patch any) (model.Suggestion, error) {
	var sg model.Suggestion
	err := s.client.Patch(ctx, itemPath(suggestionsPath, id), patch, &sg)
	return sg, err
}

func (s *SuggestionSource) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, itemPath(suggestionsPath, id))
}

// Transition patches the status. Only managers may change it.
func (s *SuggestionSource) Transition(ctx context.Context, id int64, status string) (model.Suggestion, error) {
	return s.Update(ctx, id, model.StatusPatch{Status: status})
}
