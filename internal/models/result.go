package models

import (
	"github.com/google/uuid"

	"alfredoptarigan/resume-rubric/internal/resume"
)

type CreateJobRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Company string `json:"company" validate:"max=200"`
	Posting string `json:"posting" validate:"required"`
}

// UpdateJobRequest carries optional edits. Only a posting change recompiles the rubric.
type UpdateJobRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=200"`
	Company *string `json:"company" validate:"omitempty,max=200"`
	Posting *string `json:"posting" validate:"omitempty,min=1"`
}

type StructuredResumeRequest struct {
	VersionLabel string           `json:"version_label" validate:"required,max=100"`
	Structure    resume.Structure `json:"structure"`
}

type JobResponse struct {
	Job    *Job    `json:"job"`
	Rubric *Rubric `json:"rubric,omitempty"`
}

type ResumeResponse struct {
	Resume     *ResumeVersion `json:"resume"`
	Evaluation *Evaluation    `json:"evaluation"`
}

// ProgressEntry is one resume version in a job's progress listing.
type ProgressEntry struct {
	ResumeID       uuid.UUID          `json:"resume_id"`
	VersionLabel   string             `json:"version_label"`
	UploadedAt     string             `json:"uploaded_at"`
	OverallScore   *float64           `json:"overall_score"`
	RubricRevision int                `json:"rubric_revision,omitempty"`
	Dimensions     map[string]float64 `json:"dimensions,omitempty"`
}

type ProgressResponse struct {
	JobID   uuid.UUID       `json:"job_id"`
	Entries []ProgressEntry `json:"entries"`
}
