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
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// ListProjects returns all active projects the current user owns or belongs to
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projects, err := h.projectService.ListProjects(userID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list projects")
		apierrors.InternalError(c, "Failed to fetch projects")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": dto.ToProjectDTOs(projects),
	})
}

// CreateProject creates a new project owned by the current user
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateProjectRequest struct {
		Name         string                 `json:"name" binding:"required"`
		Description  string                 `json:"description"`
		Status       models.ProjectStatus   `json:"status"`
		Priority     models.ProjectPriority `json:"priority"`
		Tags         []string               `json:"tags"`
		Technologies []string               `json:"technologies"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Project name is required")
		return
	}

	project, err := h.projectService.CreateProject(services.CreateProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		Tags:         req.Tags,
		Technologies: req.Technologies,
		OwnerID:      userID,
	})
	if err != nil {
		if errors.Is(err, services.ErrProjectNameRequired) {
			apierrors.BadRequest(c, "Project name is required")
			return
		}
		logger.Error().Err(err).Msg("failed to create project")
		apierrors.InternalError(c, "Failed to create project")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"project": dto.ToProjectDTO(*project),
	})
}

// GetProject returns one project with its tasks
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	project, tasks, err := h.projectService.GetProject(projectID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProjectNotFound):
			apierrors.NotFound(c, "Project not found")
		case errors.Is(err, services.ErrProjectViewDenied):
			apierrors.Forbidden(c, "Not authorized to view this project")
		default:
			logger.Error().Err(err).Uint64("project_id", projectID).Msg("failed to fetch project")
			apierrors.InternalError(c, "Failed to fetch project")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project": dto.ToProjectDTO(*project),
		"tasks":   dto.ToTaskDTOs(tasks),
	})
}

// UpdateProject updates a project's fields and member list
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	type MemberRequest struct {
		UserID uint64             `json:"user_id" binding:"required"`
		Role   models.ProjectRole `json:"role"`
	}

	type UpdateProjectRequest struct {
		Name         *string                 `json:"name"`
		Description  *string                 `json:"description"`
		Status       *models.ProjectStatus   `json:"status"`
		Priority     *models.ProjectPriority `json:"priority"`
		Tags         *[]string               `json:"tags"`
		Technologies *[]string               `json:"technologies"`
		Progress     *int                    `json:"progress"`
		Members      []MemberRequest         `json:"members"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		Tags:         req.Tags,
		Technologies: req.Technologies,
		Progress:     req.Progress,
	}
	if req.Members != nil {
		input.Members = make([]services.ProjectMemberInput, len(req.Members))
		for i, m := range req.Members {
			input.Members[i] = services.ProjectMemberInput{
				UserID: m.UserID,
				Role:   m.Role,
			}
		}
	}

	project, err := h.projectService.UpdateProject(projectID, userID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProjectNotFound):
			apierrors.NotFound(c, "Project not found")
		case errors.Is(err, services.ErrProjectMutateDenied):
			apierrors.Forbidden(c, "Not authorized to update this project")
		case errors.Is(err, services.ErrProjectNameRequired):
			apierrors.BadRequest(c, "Project name is required")
		case errors.Is(err, services.ErrInvalidProgress):
			apierrors.BadRequest(c, "Progress must be between 0 and 100")
		default:
			logger.Error().Err(err).Uint64("project_id", projectID).Msg("failed to update project")
			apierrors.InternalError(c, "Failed to update project")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project": dto.ToProjectDTO(*project),
	})
}
