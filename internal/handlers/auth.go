package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/logger"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates a new user account and returns a signed token
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Username  string `json:"username" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required"`
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Missing required fields")
		return
	}

	user, token, err := h.authService.Register(services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserExists):
			apierrors.Conflict(c, "User already exists")
		case errors.Is(err, services.ErrPasswordTooShort):
			apierrors.BadRequest(c, "Password must be at least 6 characters")
		default:
			logger.Error().Err(err).Msg("registration failed")
			apierrors.InternalError(c, "Failed to register user")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  dto.ToUserDTO(*user),
	})
}

// Login authenticates a user and returns a signed token
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Missing email or password")
		return
	}

	user, token, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			apierrors.Unauthorized(c, "Invalid credentials")
			return
		}
		logger.Error().Err(err).Msg("login failed")
		apierrors.InternalError(c, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  dto.ToUserDTO(*user),
	})
}

// Me returns the authenticated user's own profile
func (h *AuthHandler) Me(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			apierrors.NotFound(c, "User not found")
			return
		}
		logger.Error().Err(err).Msg("failed to load current user")
		apierrors.InternalError(c, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": dto.ToUserDTO(*user),
	})
}
