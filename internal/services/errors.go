package services

import "errors"

var (
	ErrJobNotFound        = errors.New("job not found")
	ErrResumeNotFound     = errors.New("resume not found")
	ErrEvaluationNotFound = errors.New("evaluation not found")

	// ErrRubricNotFound and ErrRubricMismatch are consistency failures raised before scoring.
	ErrRubricNotFound      = errors.New("rubric not found")
	ErrRubricMismatch      = errors.New("rubric belongs to a different job")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyDocument       = errors.New("no text content found in document")
)
