package repository

import (
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project together with its initial members
func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// ListForUser retrieves active projects the user owns or is a member of,
// newest first. Ownership and membership are independent conditions.
func (r *GormProjectRepository) ListForUser(userID uint64) ([]models.Project, error) {
	memberSubQuery := r.db.Model(&models.ProjectMember{}).
		Select("1").
		Where("project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID)

	var projects []models.Project
	err := r.db.Model(&models.Project{}).
		Where("projects.is_active = ?", true).
		Where("projects.owner_id = ? OR EXISTS (?)", userID, memberSubQuery).
		Order("projects.created_at DESC").
		Preload("Owner").
		Preload("Members.User").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}

	return projects, nil
}

// Update updates a project's own columns and, when members is non-nil,
// replaces the member list. Everything runs in one transaction, so a failed
// member replacement rolls the column update back too. Loaded associations
// are omitted from the save; member rows only change through the explicit
// replacement.
func (r *GormProjectRepository) Update(project *models.Project, members []models.ProjectMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(project).Error; err != nil {
			return err
		}

		if members == nil {
			return nil
		}

		return replaceMembers(tx, project.ID, members)
	})
}

// replaceMembers swaps the project's member list. An empty slice clears it.
func replaceMembers(tx *gorm.DB, projectID uint64, members []models.ProjectMember) error {
	if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectMember{}).Error; err != nil {
		return err
	}

	if len(members) == 0 {
		return nil
	}

	for i := range members {
		members[i].ProjectID = projectID
	}

	return tx.Create(&members).Error
}
