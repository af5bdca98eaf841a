package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
)

// TaskCommentDTO represents a task comment in API responses
type TaskCommentDTO struct {
	ID        uint64         `json:"id"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	User      UserSummaryDTO `json:"user"`
}

// TaskDependencyDTO represents a dependency edge in API responses
type TaskDependencyDTO struct {
	ID     uint64            `json:"id"`
	Title  string            `json:"title"`
	Status models.TaskStatus `json:"status"`
}

// TaskAttachmentDTO represents an attachment in API responses
type TaskAttachmentDTO struct {
	ID         uint64    `json:"id"`
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID             uint64              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	ProjectID      uint64              `json:"project_id"`
	AssignedToID   *uint64             `json:"assigned_to_id"`
	CreatedByID    uint64              `json:"created_by_id"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	Type           models.TaskType     `json:"type"`
	EstimatedHours *float64            `json:"estimated_hours"`
	ActualHours    float64             `json:"actual_hours"`
	DueDate        *time.Time          `json:"due_date"`
	Tags           []string            `json:"tags"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Project        *ProjectRefDTO      `json:"project,omitempty"`
	AssignedTo     *UserSummaryDTO     `json:"assigned_to,omitempty"`
	CreatedBy      *UserSummaryDTO     `json:"created_by,omitempty"`
	Comments       []TaskCommentDTO    `json:"comments,omitempty"`
	Dependencies   []TaskDependencyDTO `json:"dependencies,omitempty"`
	Attachments    []TaskAttachmentDTO `json:"attachments,omitempty"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		ProjectID:      task.ProjectID,
		AssignedToID:   task.AssignedToID,
		CreatedByID:    task.CreatedByID,
		Status:         task.Status,
		Priority:       task.Priority,
		Type:           task.Type,
		EstimatedHours: task.EstimatedHours,
		ActualHours:    task.ActualHours,
		DueDate:        task.DueDate,
		Tags:           task.Tags,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}

	// Include project if preloaded
	if task.Project.ID != 0 {
		project := ToProjectRefDTO(task.Project)
		dto.Project = &project
	}

	// Include assignee if preloaded
	if task.AssignedTo != nil && task.AssignedTo.ID != 0 {
		assignee := ToUserSummaryDTO(*task.AssignedTo)
		dto.AssignedTo = &assignee
	}

	// Include creator if preloaded
	if task.CreatedBy.ID != 0 {
		creator := ToUserSummaryDTO(task.CreatedBy)
		dto.CreatedBy = &creator
	}

	if len(task.Comments) > 0 {
		dto.Comments = make([]TaskCommentDTO, len(task.Comments))
		for i, comment := range task.Comments {
			dto.Comments[i] = TaskCommentDTO{
				ID:        comment.ID,
				Content:   comment.Content,
				CreatedAt: comment.CreatedAt,
				User:      ToUserSummaryDTO(comment.User),
			}
		}
	}

	if len(task.Dependencies) > 0 {
		dto.Dependencies = make([]TaskDependencyDTO, len(task.Dependencies))
		for i, dep := range task.Dependencies {
			dto.Dependencies[i] = TaskDependencyDTO{
				ID:     dep.ID,
				Title:  dep.Title,
				Status: dep.Status,
			}
		}
	}

	if len(task.Attachments) > 0 {
		dto.Attachments = make([]TaskAttachmentDTO, len(task.Attachments))
		for i, att := range task.Attachments {
			dto.Attachments[i] = TaskAttachmentDTO{
				ID:         att.ID,
				Filename:   att.Filename,
				URL:        att.URL,
				UploadedAt: att.UploadedAt,
			}
		}
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks to TaskDTOs
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}
