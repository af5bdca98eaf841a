package repository

import (
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task together with its dependency edges. The insert
// and the edges share one transaction; attachments supplied on the struct
// ride along in GORM's own nested create.
func (r *GormTaskRepository) Create(task *models.Task, dependencyIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}

		if len(dependencyIDs) == 0 {
			return nil
		}

		return replaceDependencies(tx, task.ID, dependencyIDs)
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves active tasks assigned to or created by the user, newest
// first, with optional status/project/priority filters.
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, error) {
	query := r.db.Model(&models.Task{}).
		Where("tasks.is_active = ?", true).
		Where("tasks.assigned_to_id = ? OR tasks.created_by_id = ?", filter.UserID, filter.UserID)

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *filter.ProjectID)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}

	var tasks []models.Task
	err := query.
		Order("tasks.created_at DESC").
		Preload("Project").
		Preload("AssignedTo").
		Preload("CreatedBy").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// ListByProject retrieves all tasks of a project, newest first
func (r *GormTaskRepository) ListByProject(projectID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Preload("AssignedTo").
		Preload("CreatedBy").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// Update updates a task's own columns and, when the slices are non-nil,
// replaces dependency edges and attachment rows. One transaction covers the
// whole write, so a failed replacement rolls the column update back too.
// Loaded associations are omitted from the save.
func (r *GormTaskRepository) Update(task *models.Task, dependencyIDs []uint64, attachments []models.TaskAttachment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(task).Error; err != nil {
			return err
		}

		if dependencyIDs != nil {
			if err := replaceDependencies(tx, task.ID, dependencyIDs); err != nil {
				return err
			}
		}

		if attachments != nil {
			if err := replaceAttachments(tx, task.ID, attachments); err != nil {
				return err
			}
		}

		return nil
	})
}

// AddComment appends a comment to a task
func (r *GormTaskRepository) AddComment(comment *models.TaskComment) error {
	return r.db.Create(comment).Error
}

// replaceDependencies swaps the task's dependency edges. An empty slice
// clears them. No cycle check is performed.
func replaceDependencies(tx *gorm.DB, taskID uint64, dependencyIDs []uint64) error {
	task := models.Task{ID: taskID}

	if len(dependencyIDs) == 0 {
		return tx.Model(&task).Association("Dependencies").Clear()
	}

	deps := make([]models.Task, len(dependencyIDs))
	for i, id := range dependencyIDs {
		deps[i] = models.Task{ID: id}
	}

	return tx.Model(&task).Association("Dependencies").Replace(&deps)
}

// replaceAttachments swaps the task's attachment rows. An empty slice
// clears them.
func replaceAttachments(tx *gorm.DB, taskID uint64, attachments []models.TaskAttachment) error {
	if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAttachment{}).Error; err != nil {
		return err
	}

	if len(attachments) == 0 {
		return nil
	}

	for i := range attachments {
		attachments[i].TaskID = taskID
		attachments[i].ID = 0
	}

	return tx.Create(&attachments).Error
}
