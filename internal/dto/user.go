package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// UserSummaryDTO represents a user embedded in another resource
type UserSummaryDTO struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserDTO represents a full user profile in API responses. The password
// hash never appears here.
type UserDTO struct {
	ID        uint64          `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Bio       string          `json:"bio"`
	Avatar    string          `json:"avatar"`
	Skills    []string        `json:"skills"`
	Role      models.UserRole `json:"role"`
	IsActive  bool            `json:"is_active"`
	LastLogin *time.Time      `json:"last_login"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// UserListResponse represents a paginated user directory page
type UserListResponse struct {
	Users      []UserDTO                `json:"users"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
		Avatar:    user.Avatar,
		Skills:    user.Skills,
		Role:      user.Role,
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ToUserListResponse converts a page of users to UserListResponse
func ToUserListResponse(users []models.User, pagination utils.PaginationResponse) UserListResponse {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}

	return UserListResponse{
		Users:      items,
		Pagination: pagination,
	}
}
