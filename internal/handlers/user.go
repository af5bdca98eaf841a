package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/logger"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers returns a paginated directory of active users
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	users, total, err := h.userService.ListUsers(params)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list users")
		apierrors.InternalError(c, "Failed to fetch users")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users, utils.NewPaginationResponse(params, total)))
}

// GetUser returns one user's public profile
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	user, err := h.userService.GetUser(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			apierrors.NotFound(c, "User not found")
			return
		}
		logger.Error().Err(err).Uint64("user_id", userID).Msg("failed to fetch user")
		apierrors.InternalError(c, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": dto.ToUserDTO(*user),
	})
}

// UpdateUser updates a user's profile fields. Only the user themselves or an
// admin may do this; credentials and role are not updatable here.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	requesterID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	type UpdateUserRequest struct {
		FirstName *string   `json:"first_name"`
		LastName  *string   `json:"last_name"`
		Bio       *string   `json:"bio"`
		Skills    *[]string `json:"skills"`
		Avatar    *string   `json:"avatar"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(requesterID, targetID, services.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Skills:    req.Skills,
		Avatar:    req.Avatar,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProfileAccessDenied):
			apierrors.Forbidden(c, "Not authorized to update this profile")
		case errors.Is(err, services.ErrUserNotFound):
			apierrors.NotFound(c, "User not found")
		default:
			logger.Error().Err(err).Uint64("user_id", targetID).Msg("failed to update user")
			apierrors.InternalError(c, "Failed to update user")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": dto.ToUserDTO(*user),
	})
}
