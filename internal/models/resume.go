package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ResumeVersion is one uploaded resume for a job, stored with its parsed structure.
type ResumeVersion struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"job_id"`
	VersionLabel string         `gorm:"type:text;not null" json:"version_label"`
	Filename     string         `gorm:"type:text" json:"filename,omitempty"`
	FilePath     string         `gorm:"type:text" json:"-"`
	FileType     string         `gorm:"type:text" json:"file_type,omitempty"`
	Structure    datatypes.JSON `gorm:"type:jsonb;not null" json:"structure"`
	BulletCount  int            `gorm:"not null" json:"bullet_count"`
	CreatedAt    time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ResumeVersion) TableName() string {
	return "resume_versions"
}
