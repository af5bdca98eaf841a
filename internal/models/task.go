package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

type TaskType string

const (
	TaskTypeFeature       TaskType = "feature"
	TaskTypeBug           TaskType = "bug"
	TaskTypeRefactor      TaskType = "refactor"
	TaskTypeDocumentation TaskType = "documentation"
	TaskTypeTesting       TaskType = "testing"
)

type Task struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Title          string         `gorm:"type:varchar(200);not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	ProjectID      uint64         `gorm:"not null;index" json:"project_id"`
	AssignedToID   *uint64        `gorm:"index" json:"assigned_to_id"`
	CreatedByID    uint64         `gorm:"not null;index" json:"created_by_id"`
	Status         TaskStatus     `gorm:"type:varchar(20);not null;default:'todo'" json:"status"`
	Priority       TaskPriority   `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Type           TaskType       `gorm:"type:varchar(20);not null;default:'feature'" json:"type"`
	EstimatedHours *float64       `json:"estimated_hours"`
	ActualHours    float64        `gorm:"not null;default:0" json:"actual_hours"`
	DueDate        *time.Time     `json:"due_date"`
	Tags           []string       `gorm:"serializer:json" json:"tags"`
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project    Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	AssignedTo *User   `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	CreatedBy  User    `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	// Directed dependency edges; acyclicity is not enforced.
	Dependencies []Task           `gorm:"many2many:task_dependencies;joinForeignKey:TaskID;joinReferences:DependsOnID" json:"dependencies,omitempty"`
	Attachments  []TaskAttachment `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
	Comments     []TaskComment    `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}
