package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/logger"
	"github.com/yukikurage/project-management-api/internal/middleware"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// AttachmentRequest is one attachment entry in a create or update request
type AttachmentRequest struct {
	Filename string `json:"filename" binding:"required"`
	URL      string `json:"url" binding:"required"`
}

// ListTasks returns active tasks assigned to or created by the current user.
// Supports optional status, project and priority filters.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	filter := repository.TaskFilter{UserID: userID}

	if status := c.Query("status"); status != "" {
		s := models.TaskStatus(status)
		filter.Status = &s
	}
	if priority := c.Query("priority"); priority != "" {
		p := models.TaskPriority(priority)
		filter.Priority = &p
	}
	if projectIDStr := c.Query("project"); projectIDStr != "" {
		projectID, err := strconv.ParseUint(projectIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project filter")
			return
		}
		filter.ProjectID = &projectID
	}

	tasks, err := h.taskService.ListTasks(filter)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list tasks")
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(tasks),
	})
}

// CreateTask creates a new task inside a project
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title          string              `json:"title" binding:"required"`
		Description    string              `json:"description"`
		ProjectID      uint64              `json:"project_id" binding:"required"`
		AssignedToID   *uint64             `json:"assigned_to_id"`
		Status         models.TaskStatus   `json:"status"`
		Priority       models.TaskPriority `json:"priority"`
		Type           models.TaskType     `json:"type"`
		EstimatedHours *float64            `json:"estimated_hours"`
		DueDate        *time.Time          `json:"due_date"`
		Tags           []string            `json:"tags"`
		Dependencies   []uint64            `json:"dependencies"`
		Attachments    []AttachmentRequest `json:"attachments"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Title and project_id are required")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		ProjectID:      req.ProjectID,
		AssignedToID:   req.AssignedToID,
		CreatedByID:    userID,
		Status:         req.Status,
		Priority:       req.Priority,
		Type:           req.Type,
		EstimatedHours: req.EstimatedHours,
		DueDate:        req.DueDate,
		Tags:           req.Tags,
		Dependencies:   req.Dependencies,
		Attachments:    toAttachmentInputs(req.Attachments),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProjectNotFound):
			apierrors.NotFound(c, "Project not found")
		case errors.Is(err, services.ErrTaskCreateDenied):
			apierrors.Forbidden(c, "Not authorized to create tasks in this project")
		case errors.Is(err, services.ErrTaskTitleRequired):
			apierrors.BadRequest(c, "Task title is required")
		case errors.Is(err, services.ErrTaskTitleTooLong):
			apierrors.BadRequest(c, "Task title is too long")
		case errors.Is(err, services.ErrInvalidEstimatedHours):
			apierrors.BadRequest(c, "Estimated hours out of range")
		default:
			logger.Error().Err(err).Msg("failed to create task")
			apierrors.InternalError(c, "Failed to create task")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"task": dto.ToTaskDTO(*task),
	})
}

// GetTask returns one task with its comments, dependencies and attachments
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := h.taskService.GetTask(taskID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			apierrors.NotFound(c, "Task not found")
		case errors.Is(err, services.ErrTaskViewDenied):
			apierrors.Forbidden(c, "Not authorized to view this task")
		default:
			logger.Error().Err(err).Uint64("task_id", taskID).Msg("failed to fetch task")
			apierrors.InternalError(c, "Failed to fetch task")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task": dto.ToTaskDTO(*task),
	})
}

// UpdateTask updates a task's fields, dependencies and attachments
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	type UpdateTaskRequest struct {
		Title          *string              `json:"title"`
		Description    *string              `json:"description"`
		Status         *models.TaskStatus   `json:"status"`
		Priority       *models.TaskPriority `json:"priority"`
		Type           *models.TaskType     `json:"type"`
		AssignedToID   *uint64              `json:"assigned_to_id"`
		ClearAssignee  bool                 `json:"clear_assignee"`
		EstimatedHours *float64             `json:"estimated_hours"`
		ActualHours    *float64             `json:"actual_hours"`
		DueDate        *time.Time           `json:"due_date"`
		ClearDueDate   bool                 `json:"clear_due_date"`
		Tags           *[]string            `json:"tags"`
		Dependencies   []uint64             `json:"dependencies"`
		Attachments    []AttachmentRequest  `json:"attachments"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		Type:           req.Type,
		AssignedToID:   req.AssignedToID,
		ClearAssignee:  req.ClearAssignee,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		DueDate:        req.DueDate,
		ClearDueDate:   req.ClearDueDate,
		Tags:           req.Tags,
		Dependencies:   req.Dependencies,
	}
	if req.Attachments != nil {
		input.Attachments = toAttachmentInputs(req.Attachments)
	}

	task, err := h.taskService.UpdateTask(taskID, userID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			apierrors.NotFound(c, "Task not found")
		case errors.Is(err, services.ErrTaskMutateDenied):
			apierrors.Forbidden(c, "Not authorized to update this task")
		case errors.Is(err, services.ErrTaskTitleRequired):
			apierrors.BadRequest(c, "Task title is required")
		case errors.Is(err, services.ErrTaskTitleTooLong):
			apierrors.BadRequest(c, "Task title is too long")
		case errors.Is(err, services.ErrInvalidEstimatedHours):
			apierrors.BadRequest(c, "Estimated hours out of range")
		default:
			logger.Error().Err(err).Uint64("task_id", taskID).Msg("failed to update task")
			apierrors.InternalError(c, "Failed to update task")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task": dto.ToTaskDTO(*task),
	})
}

// AddComment appends a comment to a task
func (h *TaskHandler) AddComment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	type AddCommentRequest struct {
		Content string `json:"content" binding:"required"`
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Comment content is required")
		return
	}

	task, err := h.taskService.AddComment(taskID, userID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			apierrors.NotFound(c, "Task not found")
		case errors.Is(err, services.ErrTaskCommentDenied):
			apierrors.Forbidden(c, "Not authorized to comment on this task")
		case errors.Is(err, services.ErrCommentRequired):
			apierrors.BadRequest(c, "Comment content is required")
		case errors.Is(err, services.ErrCommentTooLong):
			apierrors.BadRequest(c, "Comment must be at most 1000 characters")
		default:
			logger.Error().Err(err).Uint64("task_id", taskID).Msg("failed to add comment")
			apierrors.InternalError(c, "Failed to add comment")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task": dto.ToTaskDTO(*task),
	})
}

// SuggestTasks extracts task proposals from free-form text using AI. Nothing
// is persisted.
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type SuggestTasksRequest struct {
		Text      string `json:"text" binding:"required"`
		ProjectID uint64 `json:"project_id" binding:"required"`
	}

	var req SuggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Text and project_id are required")
		return
	}

	suggestions, err := h.taskService.SuggestTasks(c.Request.Context(), req.ProjectID, userID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAIServiceNotConfigured):
			apierrors.ServiceUnavailable(c, "AI service is not configured")
		case errors.Is(err, services.ErrProjectNotFound):
			apierrors.NotFound(c, "Project not found")
		case errors.Is(err, services.ErrProjectViewDenied):
			apierrors.Forbidden(c, "Not authorized to view this project")
		default:
			logger.Error().Err(err).Msg("failed to suggest tasks")
			apierrors.InternalError(c, "Failed to suggest tasks")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": suggestions,
	})
}

// toAttachmentInputs preserves nil-ness: a nil request slice means "leave
// attachments alone", an empty one means "remove them all".
func toAttachmentInputs(reqs []AttachmentRequest) []services.AttachmentInput {
	if reqs == nil {
		return nil
	}
	inputs := make([]services.AttachmentInput, len(reqs))
	for i, a := range reqs {
		inputs[i] = services.AttachmentInput{
			Filename: a.Filename,
			URL:      a.URL,
		}
	}
	return inputs
}
