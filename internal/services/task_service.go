package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTaskCreateDenied       = errors.New("not authorized to create tasks in this project")
	ErrTaskViewDenied         = errors.New("not authorized to view this task")
	ErrTaskMutateDenied       = errors.New("not authorized to update this task")
	ErrTaskCommentDenied      = errors.New("not authorized to comment on this task")
	ErrTaskTitleRequired      = errors.New("task title is required")
	ErrTaskTitleTooLong       = errors.New("task title too long")
	ErrCommentRequired        = errors.New("comment content is required")
	ErrCommentTooLong         = errors.New("comment too long")
	ErrInvalidEstimatedHours  = errors.New("estimated hours out of range")
	ErrAIServiceNotConfigured = errors.New("AI service not configured")
)

// TaskService provides business logic for task operations.
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	aiService   *AIService
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, aiService *AIService) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		aiService:   aiService,
	}
}

// ListTasks returns active tasks assigned to or created by the user, with
// optional filters.
func (s *TaskService) ListTasks(filter repository.TaskFilter) ([]models.Task, error) {
	tasks, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// AttachmentInput represents one attachment entry in a create or update
// request.
type AttachmentInput struct {
	Filename string
	URL      string
}

// CreateTaskInput represents parameters to create a new task.
type CreateTaskInput struct {
	Title          string
	Description    string
	ProjectID      uint64
	AssignedToID   *uint64
	CreatedByID    uint64
	Status         models.TaskStatus
	Priority       models.TaskPriority
	Type           models.TaskType
	EstimatedHours *float64
	DueDate        *time.Time
	Tags           []string
	Dependencies   []uint64
	Attachments    []AttachmentInput
}

// CreateTask creates a task inside a project the creator can view. The
// project must exist; a missing project is reported before any access
// decision is made.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTaskTitleRequired
	}
	// Limits are in characters, not bytes.
	if utf8.RuneCountInString(title) > constants.MaxTitleLength {
		return nil, ErrTaskTitleTooLong
	}
	if input.EstimatedHours != nil && (*input.EstimatedHours < 0 || *input.EstimatedHours > constants.MaxEstimatedHours) {
		return nil, ErrInvalidEstimatedHours
	}

	project, err := s.projectRepo.FindByID(input.ProjectID, "Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if authz.CreateTask(input.CreatedByID, project) != authz.Allowed {
		return nil, ErrTaskCreateDenied
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if input.Type == "" {
		input.Type = models.TaskTypeFeature
	}

	task := &models.Task{
		Title:          title,
		Description:    input.Description,
		ProjectID:      input.ProjectID,
		AssignedToID:   input.AssignedToID,
		CreatedByID:    input.CreatedByID,
		Status:         input.Status,
		Priority:       input.Priority,
		Type:           input.Type,
		EstimatedHours: input.EstimatedHours,
		DueDate:        input.DueDate,
		Tags:           input.Tags,
		IsActive:       true,
		Attachments:    buildAttachments(input.Attachments),
	}

	if err := s.taskRepo.Create(task, input.Dependencies); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Project", "AssignedTo", "CreatedBy", "Dependencies", "Attachments")
}

// GetTask returns a task with its comments, dependencies and attachments, if
// the requester may view it.
func (s *TaskService) GetTask(taskID, requesterID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID,
		"Project", "AssignedTo", "CreatedBy", "Comments.User", "Dependencies", "Attachments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	project, err := s.loadProjectForTask(task)
	if err != nil {
		return nil, err
	}

	if authz.ViewTask(requesterID, task, project) != authz.Allowed {
		return nil, ErrTaskViewDenied
	}

	return task, nil
}

// UpdateTaskInput represents input for updating a task. Nil fields are left
// unchanged; the Clear flags reset their optional columns.
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	Type           *models.TaskType
	AssignedToID   *uint64
	ClearAssignee  bool
	EstimatedHours *float64
	ActualHours    *float64
	DueDate        *time.Time
	ClearDueDate   bool
	Tags           *[]string
	Dependencies   []uint64
	Attachments    []AttachmentInput
}

// UpdateTask updates a task's fields, dependency edges and attachments, if
// the requester is the assignee, the creator, or holds project mutation
// rights. Concurrent updates are last-write-wins.
func (s *TaskService) UpdateTask(taskID, requesterID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	project, err := s.loadProjectForTask(task)
	if err != nil {
		return nil, err
	}

	if authz.MutateTask(requesterID, task, project) != authz.Allowed {
		return nil, ErrTaskMutateDenied
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTaskTitleRequired
		}
		if utf8.RuneCountInString(title) > constants.MaxTitleLength {
			return nil, ErrTaskTitleTooLong
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Type != nil {
		task.Type = *input.Type
	}
	if input.ClearAssignee {
		task.AssignedToID = nil
	} else if input.AssignedToID != nil {
		task.AssignedToID = input.AssignedToID
	}
	if input.EstimatedHours != nil {
		if *input.EstimatedHours < 0 || *input.EstimatedHours > constants.MaxEstimatedHours {
			return nil, ErrInvalidEstimatedHours
		}
		task.EstimatedHours = input.EstimatedHours
	}
	if input.ActualHours != nil {
		task.ActualHours = *input.ActualHours
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Tags != nil {
		task.Tags = *input.Tags
	}

	if err := s.taskRepo.Update(task, input.Dependencies, buildAttachments(input.Attachments)); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Project", "AssignedTo", "CreatedBy", "Dependencies", "Attachments")
}

// AddComment appends a comment to a task and returns the task with all its
// comments. Comments are append-only; there is no edit or delete.
func (s *TaskService) AddComment(taskID, requesterID uint64, content string) (*models.Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrCommentRequired
	}
	if utf8.RuneCountInString(content) > constants.MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	project, err := s.loadProjectForTask(task)
	if err != nil {
		return nil, err
	}

	if authz.CommentTask(requesterID, task, project) != authz.Allowed {
		return nil, ErrTaskCommentDenied
	}

	comment := &models.TaskComment{
		TaskID:  task.ID,
		UserID:  requesterID,
		Content: content,
	}
	if err := s.taskRepo.AddComment(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Project", "AssignedTo", "CreatedBy", "Comments.User")
}

// SuggestTasks extracts task proposals from free-form text for a project the
// requester can view. Nothing is persisted; the proposals are returned for
// review.
func (s *TaskService) SuggestTasks(ctx context.Context, projectID, requesterID uint64, text string) ([]SuggestedTask, error) {
	if s.aiService == nil || !s.aiService.Configured() {
		return nil, ErrAIServiceNotConfigured
	}

	project, err := s.projectRepo.FindByID(projectID, "Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if authz.ViewProject(requesterID, project) != authz.Allowed {
		return nil, ErrProjectViewDenied
	}

	suggestions, err := s.aiService.SuggestTasksFromText(ctx, project.Name, text)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest tasks: %w", err)
	}

	if len(suggestions) > constants.MaxAISuggestedTasks {
		suggestions = suggestions[:constants.MaxAISuggestedTasks]
	}

	return suggestions, nil
}

// loadProjectForTask loads the task's project with its member list. A
// dangling project reference resolves to nil, which the access rules treat
// as denied rather than missing.
func (s *TaskService) loadProjectForTask(task *models.Task) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(task.ProjectID, "Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// buildAttachments preserves nil-ness: nil means "leave attachments alone",
// an empty slice means "remove them all".
func buildAttachments(inputs []AttachmentInput) []models.TaskAttachment {
	if inputs == nil {
		return nil
	}
	attachments := make([]models.TaskAttachment, len(inputs))
	for i, a := range inputs {
		attachments[i] = models.TaskAttachment{
			Filename:   a.Filename,
			URL:        a.URL,
			UploadedAt: time.Now(),
		}
	}
	return attachments
}
