package repository

import (
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// List retrieves active users with pagination, newest first
	List(params utils.PaginationParams) ([]models.User, int64, error)

	// Update updates a user
	Update(user *models.User) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project together with its initial members
	Create(project *models.Project) error

	// FindByID finds a project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	// ListForUser retrieves active projects the user owns or is a member of,
	// newest first
	ListForUser(userID uint64) ([]models.Project, error)

	// Update updates a project's own columns and, when members is non-nil,
	// replaces the member list in the same transaction
	Update(project *models.Project, members []models.ProjectMember) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	UserID    uint64
	Status    *models.TaskStatus
	ProjectID *uint64
	Priority  *models.TaskPriority
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task with its dependency edges in one
	// transaction (attachments supplied on the struct are created with it)
	Create(task *models.Task, dependencyIDs []uint64) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves active tasks assigned to or created by the user,
	// newest first
	List(filter TaskFilter) ([]models.Task, error)

	// ListByProject retrieves all tasks of a project, newest first
	ListByProject(projectID uint64) ([]models.Task, error)

	// Update updates a task's own columns and, when the slices are
	// non-nil, replaces dependency edges and attachment rows in the same
	// transaction
	Update(task *models.Task, dependencyIDs []uint64, attachments []models.TaskAttachment) error

	// AddComment appends a comment to a task
	AddComment(comment *models.TaskComment) error
}
