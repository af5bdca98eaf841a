package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
)

type ProjectPriority string

const (
	ProjectPriorityLow      ProjectPriority = "low"
	ProjectPriorityMedium   ProjectPriority = "medium"
	ProjectPriorityHigh     ProjectPriority = "high"
	ProjectPriorityCritical ProjectPriority = "critical"
)

type Project struct {
	ID           uint64          `gorm:"primarykey" json:"id"`
	Name         string          `gorm:"type:varchar(100);not null" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	OwnerID      uint64          `gorm:"not null;index" json:"owner_id"`
	Status       ProjectStatus   `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Priority     ProjectPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Tags         []string        `gorm:"serializer:json" json:"tags"`
	Technologies []string        `gorm:"serializer:json" json:"technologies"`
	Progress     int             `gorm:"not null;default:0" json:"progress"`
	IsActive     bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relations
	Owner   User            `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Tasks   []Task          `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}
