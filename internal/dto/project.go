package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
)

// ProjectMemberDTO represents a project member with their role
type ProjectMemberDTO struct {
	User     UserSummaryDTO     `json:"user"`
	Role     models.ProjectRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID           uint64                 `json:"id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	OwnerID      uint64                 `json:"owner_id"`
	Status       models.ProjectStatus   `json:"status"`
	Priority     models.ProjectPriority `json:"priority"`
	Tags         []string               `json:"tags"`
	Technologies []string               `json:"technologies"`
	Progress     int                    `json:"progress"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	Owner        *UserSummaryDTO        `json:"owner,omitempty"`
	Members      []ProjectMemberDTO     `json:"members,omitempty"`
}

// ProjectRefDTO represents a minimal project reference embedded in tasks
type ProjectRefDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:           project.ID,
		Name:         project.Name,
		Description:  project.Description,
		OwnerID:      project.OwnerID,
		Status:       project.Status,
		Priority:     project.Priority,
		Tags:         project.Tags,
		Technologies: project.Technologies,
		Progress:     project.Progress,
		CreatedAt:    project.CreatedAt,
		UpdatedAt:    project.UpdatedAt,
	}

	// Include owner if preloaded
	if project.Owner.ID != 0 {
		owner := ToUserSummaryDTO(project.Owner)
		dto.Owner = &owner
	}

	// Include members if preloaded
	if len(project.Members) > 0 {
		dto.Members = make([]ProjectMemberDTO, len(project.Members))
		for i, member := range project.Members {
			dto.Members[i] = ProjectMemberDTO{
				User:     ToUserSummaryDTO(member.User),
				Role:     member.Role,
				JoinedAt: member.JoinedAt,
			}
		}
	}

	return dto
}

// ToProjectDTOs converts a slice of projects to ProjectDTOs
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	items := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectDTO(project)
	}
	return items
}

// ToProjectRefDTO converts a Project model to ProjectRefDTO
func ToProjectRefDTO(project models.Project) ProjectRefDTO {
	return ProjectRefDTO{
		ID:   project.ID,
		Name: project.Name,
	}
}
