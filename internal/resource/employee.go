package resource

import (
	"context"

	"github.com/teamkonekt/konekt/internal/api"
	"github.com/teamkonekt/konekt/internal/model"
	"github.com/teamkonekt/konekt/internal/pagination"
)

const employeesPath = "/employees/"

// EmployeeSource implements pagination.Source for a manager's employees.
// Employees have no status workflow.
type EmployeeSource struct {
	client *api.Client
}

var _ pagination.Source[model.Employee] = (*EmployeeSource)(nil)

func NewEmployeeSource(client *api.Client) *EmployeeSource {
	return &EmployeeSource{client: client}
}

func (s *EmployeeSource) List(ctx context.Context, page int, f pagination.Filter) (api.Page[model.Employee], error) {
	return api.GetPage[model.Employee](ctx, s.client, employeesPath, page, f.Query)
}

// Create adds an employee. The returned copy carries the generated
// temporary password, which the server never returns again.
func (s *EmployeeSource) Create(ctx context.Context, payload any) (model.Employee, error) {
	var e model.Employee
	err := s.client.Post(ctx, employeesPath, payload, &e)
	return e, err
}

func (s *EmployeeSource) Update(ctx context.Context, id int64, patch any) (model.Employee, error) {
	var e model.Employee
	err := s.client.Patch(ctx, itemPath(employeesPath, id), patch, &e)
	return e, err
}

func (s *EmployeeSource) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, itemPath(employeesPath, id))
}
