package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	FirstName    string         `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName     string         `gorm:"type:varchar(50);not null" json:"last_name"`
	Bio          string         `gorm:"type:text" json:"bio"`
	Avatar       string         `gorm:"type:varchar(500)" json:"avatar"`
	Skills       []string       `gorm:"serializer:json" json:"skills"`
	Role         UserRole       `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`
	LastLogin    *time.Time     `json:"last_login"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	OwnedProjects []Project       `gorm:"foreignKey:OwnerID" json:"-"`
	Memberships   []ProjectMember `gorm:"foreignKey:UserID" json:"-"`
	CreatedTasks  []Task          `gorm:"foreignKey:CreatedByID" json:"-"`
}
