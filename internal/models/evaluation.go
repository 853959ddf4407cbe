package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Evaluation is the persisted score of one resume version. ResumeID is unique.
type Evaluation struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ResumeID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"resume_id"`
	JobID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"job_id"`
	RubricID        uuid.UUID      `gorm:"type:uuid;not null" json:"rubric_id"`
	RubricRevision  int            `gorm:"not null" json:"rubric_revision"`
	RulesetVersion  string         `gorm:"type:text;not null" json:"ruleset_version"`
	Weights         datatypes.JSON `gorm:"type:jsonb" json:"weights"`
	OverallScore    float64        `gorm:"type:decimal(4,2);not null" json:"overall_score"`
	Dimensions      datatypes.JSON `gorm:"type:jsonb;not null" json:"dimensions"`
	Excluded        datatypes.JSON `gorm:"type:jsonb" json:"excluded,omitempty"`
	Recommendations datatypes.JSON `gorm:"type:jsonb;not null" json:"recommendations"`
	BulletCount     int            `gorm:"not null" json:"bullet_count"`
	HasExperience   bool           `gorm:"not null" json:"has_experience"`
	CreatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}
