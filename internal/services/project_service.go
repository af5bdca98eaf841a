package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound     = errors.New("project not found")
	ErrProjectViewDenied   = errors.New("not authorized to view this project")
	ErrProjectMutateDenied = errors.New("not authorized to update this project")
	ErrProjectNameRequired = errors.New("project name is required")
	ErrInvalidProgress     = errors.New("progress must be between 0 and 100")
)

// ProjectService provides business logic for project operations.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, taskRepo repository.TaskRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
	}
}

// ListProjects returns active projects the user owns or is a member of.
func (s *ProjectService) ListProjects(userID uint64) ([]models.Project, error) {
	projects, err := s.projectRepo.ListForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name         string
	Description  string
	Status       models.ProjectStatus
	Priority     models.ProjectPriority
	Tags         []string
	Technologies []string
	OwnerID      uint64
}

// CreateProject creates a project owned by the requester, who is also added
// as a member with the project_manager role. Ownership and that membership
// entry stay independent from then on.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrProjectNameRequired
	}

	if input.Status == "" {
		input.Status = models.ProjectStatusActive
	}
	if input.Priority == "" {
		input.Priority = models.ProjectPriorityMedium
	}

	project := &models.Project{
		Name:         input.Name,
		Description:  input.Description,
		OwnerID:      input.OwnerID,
		Status:       input.Status,
		Priority:     input.Priority,
		Tags:         input.Tags,
		Technologies: input.Technologies,
		IsActive:     true,
		Members: []models.ProjectMember{
			{UserID: input.OwnerID, Role: models.RoleProjectManager, JoinedAt: time.Now()},
		},
	}

	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.projectRepo.FindByID(project.ID, "Owner", "Members.User")
}

// GetProject returns a project with its tasks, if the requester may view it.
// Existence is checked before authorization: a missing project is reported
// as not found even to strangers.
func (s *ProjectService) GetProject(projectID, requesterID uint64) (*models.Project, []models.Task, error) {
	project, err := s.projectRepo.FindByID(projectID, "Owner", "Members.User")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to find project: %w", err)
	}

	if authz.ViewProject(requesterID, project) != authz.Allowed {
		return nil, nil, ErrProjectViewDenied
	}

	tasks, err := s.taskRepo.ListByProject(project.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list project tasks: %w", err)
	}

	return project, tasks, nil
}

// ProjectMemberInput represents one member entry in an update request.
type ProjectMemberInput struct {
	UserID uint64
	Role   models.ProjectRole
}

// UpdateProjectInput represents input for updating a project. Nil fields are
// left unchanged.
type UpdateProjectInput struct {
	Name         *string
	Description  *string
	Status       *models.ProjectStatus
	Priority     *models.ProjectPriority
	Tags         *[]string
	Technologies *[]string
	Progress     *int
	Members      []ProjectMemberInput
}

// UpdateProject updates a project's fields, including its member list, if
// the requester is the owner or a project_manager member. The update is a
// plain load-then-save: concurrent updates are last-write-wins.
func (s *ProjectService) UpdateProject(projectID, requesterID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID, "Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if authz.MutateProject(requesterID, project) != authz.Allowed {
		return nil, ErrProjectMutateDenied
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrProjectNameRequired
		}
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != nil {
		project.Status = *input.Status
	}
	if input.Priority != nil {
		project.Priority = *input.Priority
	}
	if input.Tags != nil {
		project.Tags = *input.Tags
	}
	if input.Technologies != nil {
		project.Technologies = *input.Technologies
	}
	if input.Progress != nil {
		if *input.Progress < 0 || *input.Progress > constants.MaxProgress {
			return nil, ErrInvalidProgress
		}
		project.Progress = *input.Progress
	}

	// nil members means "leave the list alone"; an empty slice clears it.
	var members []models.ProjectMember
	if input.Members != nil {
		members = make([]models.ProjectMember, len(input.Members))
		for i, m := range input.Members {
			role := m.Role
			if role == "" {
				role = models.RoleDeveloper
			}
			members[i] = models.ProjectMember{
				UserID:   m.UserID,
				Role:     role,
				JoinedAt: time.Now(),
			}
		}
	}

	if err := s.projectRepo.Update(project, members); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.projectRepo.FindByID(project.ID, "Owner", "Members.User")
}
