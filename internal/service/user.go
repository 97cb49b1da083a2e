package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/acadly/complaintdesk/internal/core"
	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/domain/model"
	apperrors "github.com/acadly/complaintdesk/internal/errors"
	"github.com/acadly/complaintdesk/internal/ports"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	Repo     core.UserRepository
	Hasher   ports.PasswordHasher
	Sessions ports.SessionStore
	Logger   *slog.Logger
}

// UserService manages the user directory.
type UserService struct {
	repo     core.UserRepository
	hasher   ports.PasswordHasher
	sessions ports.SessionStore
	logger   *slog.Logger
}

// NewUserService constructs a new UserService.
func NewUserService(opts UserServiceOptions) *UserService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		repo:     opts.Repo,
		hasher:   opts.Hasher,
		sessions: opts.Sessions,
		logger:   logger.With("component", "user_service"),
	}
}

// Create adds a user. A password, when given, is hashed before storage.
func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if req == nil {
		return nil, errors.New("create user request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var hash *string
	if req.Password != "" {
		h, err := s.hashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		hash = &h
	}
	return s.repo.Create(ctx, req, hash)
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, opts model.UserListOptions) ([]*model.User, error) {
	return s.repo.List(ctx, opts)
}

// Update changes profile or role data of a user.
func (s *UserService) Update(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error) {
	return s.repo.Update(ctx, id, req)
}

// SetRole changes a user's role. departmentID is required when the new role
// is department_officer and is cleared for every other role.
func (s *UserService) SetRole(
	ctx context.Context,
	id string,
	role domainauth.Role,
	departmentID string,
) (*model.User, error) {
	req := model.UpdateUserRequest{Role: &role}
	if role == domainauth.RoleDepartmentOfficer {
		req.DepartmentID = &departmentID
	} else {
		req.ClearDepartment = true
	}
	return s.repo.Update(ctx, id, req)
}

// ResetPassword replaces a user's password and signs the user out everywhere.
func (s *UserService) ResetPassword(ctx context.Context, id, password string) error {
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, id, hash); err != nil {
		return err
	}
	s.revokeSessions(ctx, id)
	return nil
}

// Delete removes a user and their sessions.
func (s *UserService) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.revokeSessions(ctx, id)
	return true, nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return "", apperrors.ValidationField("password",
			fmt.Sprintf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength))
	}
	if s.hasher == nil {
		return "", errors.New("password hasher is not configured")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID string) {
	if s.sessions == nil {
		return
	}
	if _, err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "revoke sessions failed", "user_id", userID, "error", err)
	}
}
