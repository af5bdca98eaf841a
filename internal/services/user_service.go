package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
)

var ErrProfileAccessDenied = errors.New("not authorized to update this profile")

// UserService provides business logic for user directory and profile
// operations.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListUsers returns a page of active users.
func (s *UserService) ListUsers(params utils.PaginationParams) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// GetUser retrieves a user by ID. Any authenticated user may look up any
// profile.
func (s *UserService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateProfileInput represents input for updating a profile. Nil fields are
// left unchanged. Credentials and role are not updatable here.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Bio       *string
	Skills    *[]string
	Avatar    *string
}

// UpdateProfile updates a user's profile fields if the requester is that
// user or an admin. The access check runs against the requester alone, so a
// non-privileged caller is refused before the target is even looked up.
func (s *UserService) UpdateProfile(requesterID, targetID uint64, input UpdateProfileInput) (*models.User, error) {
	requester, err := s.userRepo.FindByID(requesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileAccessDenied
		}
		return nil, fmt.Errorf("failed to find requester: %w", err)
	}

	if authz.MutateUser(requester, targetID) != authz.Allowed {
		return nil, ErrProfileAccessDenied
	}

	target, err := s.userRepo.FindByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.FirstName != nil {
		target.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		target.LastName = *input.LastName
	}
	if input.Bio != nil {
		target.Bio = *input.Bio
	}
	if input.Skills != nil {
		target.Skills = *input.Skills
	}
	if input.Avatar != nil {
		target.Avatar = *input.Avatar
	}

	if err := s.userRepo.Update(target); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return target, nil
}
