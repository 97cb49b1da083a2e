package service

import (
	"context"

	"github.com/acadly/complaintdesk/internal/core"
	"github.com/acadly/complaintdesk/internal/domain/model"
)

// DepartmentServiceOptions groups dependencies for DepartmentService.
type DepartmentServiceOptions struct {
	Repo  core.DepartmentRepository
	Users core.UserRepository
}

// DepartmentService manages departments and their officer rosters.
type DepartmentService struct {
	repo  core.DepartmentRepository
	users core.UserRepository
}

// NewDepartmentService constructs a new DepartmentService.
func NewDepartmentService(opts DepartmentServiceOptions) *DepartmentService {
	return &DepartmentService{repo: opts.Repo, users: opts.Users}
}

// Create creates a department.
func (s *DepartmentService) Create(ctx context.Context, req *model.CreateDepartmentRequest) (*model.Department, error) {
	return s.repo.Create(ctx, req)
}

// GetByID retrieves a department by ID.
func (s *DepartmentService) GetByID(ctx context.Context, id string) (*model.Department, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByCode retrieves a department by code.
func (s *DepartmentService) GetByCode(ctx context.Context, code string) (*model.Department, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns a page of departments.
func (s *DepartmentService) List(ctx context.Context, limit, offset int) ([]*model.Department, error) {
	return s.repo.List(ctx, limit, offset)
}

// Update updates a department.
func (s *DepartmentService) Update(
	ctx context.Context,
	id string,
	req model.UpdateDepartmentRequest,
) (*model.Department, error) {
	return s.repo.Update(ctx, id, req)
}

// Delete deletes a department. Departments with officers or complaints are
// refused by the store.
func (s *DepartmentService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// Officers lists the officers of a department after checking it exists.
func (s *DepartmentService) Officers(ctx context.Context, id string) ([]*model.User, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	officers, err := s.users.ListOfficers(ctx, id)
	if err != nil {
		return nil, err
	}
	if officers == nil {
		officers = []*model.User{}
	}
	return officers, nil
}
