package services

import (
	"context"

	"github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
	"github.com/abrezinsky/surveydesk/internal/repository"
)

var roles = []string{models.RoleUser, models.RoleBusiness, models.RoleAdmin}

// UserService handles admin user management
type UserService struct {
	log  logger.Logger
	repo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(log logger.Logger, repo repository.UserRepository) *UserService {
	return &UserService{log: log, repo: repo}
}

// List returns a page of users matching search on email or name
func (s *UserService) List(ctx context.Context, search string, page, limit int) (*paginator.Page[models.User], error) {
	users, err := s.repo.ListUsers(ctx, search, page, limit)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return users, nil
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *UserService) SetRole(ctx context.Context, actor Actor, userID int, role string) (*models.User, error) {
	if !oneOf(role, roles) {
		return nil, errors.Field("role", "must be user, business or admin")
	}
	if actor.UserID == userID && role != models.RoleAdmin {
		return nil, errors.InvalidInput("you cannot remove your own admin role")
	}
	if err := s.repo.UpdateUserRole(ctx, userID, role); err != nil {
		return nil, fromRepo(err, "user not found")
	}
	s.log.Info("User role changed", "user_id", userID, "role", role, "by", actor.UserID)
	user, err := s.repo.GetUser(ctx, userID)
	return user, fromRepo(err, "user not found")
}
