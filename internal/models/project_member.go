package models

import "time"

// ProjectRole is the role a member holds within a project. Authorization
// treats any value other than the known constants as non-privileged.
type ProjectRole string

const (
	RoleProjectManager ProjectRole = "project_manager"
	RoleDeveloper      ProjectRole = "developer"
	RoleTester         ProjectRole = "tester"
)

type ProjectMember struct {
	ProjectID uint64      `gorm:"primarykey" json:"project_id"`
	UserID    uint64      `gorm:"primarykey" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(30);not null;default:'developer'" json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
