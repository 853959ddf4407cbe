package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Rubric is the compiled, weighted dimension set of one job. There is at most
// one row per job; recompilation rewrites it and bumps Revision.
type Rubric struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID              uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"job_id"`
	BaseRubricID       string         `gorm:"type:text;not null" json:"base_rubric_id"`
	BaseRubricVersion  string         `gorm:"type:text;not null" json:"base_rubric_version"`
	RulesetVersion     string         `gorm:"type:text;not null" json:"ruleset_version"`
	Revision           int            `gorm:"not null;default:1" json:"revision"`
	Source             string         `gorm:"type:text;not null" json:"source"`
	FallbackReason     string         `gorm:"type:text" json:"fallback_reason,omitempty"`
	PostingHash        string         `gorm:"type:varchar(16);not null" json:"posting_hash"`
	RoleLevel          string         `gorm:"type:text" json:"role_level"`
	Domain             string         `gorm:"type:text" json:"domain"`
	Analysis           datatypes.JSON `gorm:"type:jsonb" json:"analysis"`
	DimensionOverrides datatypes.JSON `gorm:"type:jsonb;not null" json:"dimension_overrides"`
	Tags               datatypes.JSON `gorm:"type:jsonb" json:"tags,omitempty"`
	Evidence           datatypes.JSON `gorm:"type:jsonb" json:"evidence,omitempty"`
	CreatedAt          time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Rubric) TableName() string {
	return "rubrics"
}
