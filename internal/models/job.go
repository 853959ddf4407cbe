package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Job struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title       string    `gorm:"type:text;not null" json:"title"`
	Company     string    `gorm:"type:text" json:"company"`
	Posting     string    `gorm:"type:text;not null" json:"posting"`
	PostingHash string    `gorm:"type:varchar(16);index" json:"posting_hash"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// JobAnalysisRecord caches a validated LLM analysis by posting content hash.
type JobAnalysisRecord struct {
	PostingHash string         `gorm:"type:varchar(16);primary_key" json:"posting_hash"`
	Analysis    datatypes.JSON `gorm:"type:jsonb;not null" json:"analysis"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (JobAnalysisRecord) TableName() string {
	return "job_analyses"
}
