package models

import "time"

type TaskAttachment struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	TaskID     uint64    `gorm:"not null;index" json:"task_id"`
	Filename   string    `gorm:"type:varchar(255)" json:"filename"`
	URL        string    `gorm:"type:varchar(500)" json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
}
