package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"alfredoptarigan/resume-rubric/internal/logger"
	"alfredoptarigan/resume-rubric/internal/models"
	"alfredoptarigan/resume-rubric/internal/repositories"
	"alfredoptarigan/resume-rubric/internal/rubric"
)

// BaseRubricID names the built-in dimension catalog every rubric derives from.
const BaseRubricID = "canonical"

type RubricService interface {
	// EnsureForJob returns the job's rubric, compiling and storing it first if
	// the job has none. Concurrent calls converge on one stored rubric.
	EnsureForJob(ctx context.Context, job *models.Job) (*models.Rubric, error)
	// RecompileForJob rebuilds the rubric from the job's current posting and bumps its revision.
	RecompileForJob(ctx context.Context, job *models.Job) (*models.Rubric, error)
	GetByJob(ctx context.Context, jobID uuid.UUID) (*models.Rubric, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Rubric, error)
}

type rubricService struct {
	rubricRepo        repositories.RubricRepository
	compiler          *rubric.Compiler
	baseRubricVersion string
	group             singleflight.Group
	logger            *zap.Logger
}

func NewRubricService(
	rubricRepo repositories.RubricRepository,
	compiler *rubric.Compiler,
	baseRubricVersion string,
	log *zap.Logger,
) RubricService {
	return &rubricService{
		rubricRepo:        rubricRepo,
		compiler:          compiler,
		baseRubricVersion: baseRubricVersion,
		logger:            logger.WithFields(log).Named("rubrics"),
	}
}

func (s *rubricService) EnsureForJob(ctx context.Context, job *models.Job) (*models.Rubric, error) {
	v, err, _ := s.group.Do("ensure:"+job.ID.String(), func() (interface{}, error) {
		existing, err := s.rubricRepo.FindByJobID(ctx, job.ID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}

		rb, err := s.compile(ctx, job)
		if err != nil {
			return nil, err
		}
		stored, created, err := s.rubricRepo.CreateIfAbsent(ctx, rb)
		if err != nil {
			return nil, err
		}
		s.logCompiled(job, stored, created)
		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Rubric), nil
}

func (s *rubricService) RecompileForJob(ctx context.Context, job *models.Job) (*models.Rubric, error) {
	v, err, _ := s.group.Do("recompile:"+job.ID.String(), func() (interface{}, error) {
		current, err := s.rubricRepo.FindByJobID(ctx, job.ID)
		if errors.Is(err, repositories.ErrNotFound) {
			return s.EnsureForJob(ctx, job)
		}
		if err != nil {
			return nil, err
		}

		rb, err := s.compile(ctx, job)
		if err != nil {
			return nil, err
		}

		stored, err := s.rubricRepo.Recompile(ctx, rb, current.Revision)
		if errors.Is(err, repositories.ErrStaleRevision) {
			// Another process recompiled first. Its result stands if it saw the same posting.
			latest, findErr := s.rubricRepo.FindByJobID(ctx, job.ID)
			if findErr != nil {
				return nil, findErr
			}
			if latest.PostingHash == rb.PostingHash {
				return latest, nil
			}
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		s.logCompiled(job, stored, true)
		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Rubric), nil
}

func (s *rubricService) GetByJob(ctx context.Context, jobID uuid.UUID) (*models.Rubric, error) {
	rb, err := s.rubricRepo.FindByJobID(ctx, jobID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: job %s", ErrRubricNotFound, jobID)
	}
	return rb, err
}

func (s *rubricService) GetByID(ctx context.Context, id uuid.UUID) (*models.Rubric, error) {
	rb, err := s.rubricRepo.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRubricNotFound, id)
	}
	return rb, err
}

func (s *rubricService) compile(ctx context.Context, job *models.Job) (*models.Rubric, error) {
	c, err := s.compiler.Compile(ctx, job.Posting)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rubric: %w", err)
	}
	return s.toModel(job.ID, c)
}

func (s *rubricService) toModel(jobID uuid.UUID, c *rubric.Compilation) (*models.Rubric, error) {
	overrides, err := encodeJSON(c.Mapping)
	if err != nil {
		return nil, err
	}
	analysis, err := encodeJSON(c.Analysis)
	if err != nil {
		return nil, err
	}
	tags, err := encodeJSON(c.Tags)
	if err != nil {
		return nil, err
	}
	evidence, err := encodeJSON(c.Evidence)
	if err != nil {
		return nil, err
	}

	return &models.Rubric{
		ID:                 uuid.New(),
		JobID:              jobID,
		BaseRubricID:       BaseRubricID,
		BaseRubricVersion:  s.baseRubricVersion,
		RulesetVersion:     c.RulesetVersion,
		Revision:           1,
		Source:             c.Source,
		FallbackReason:     c.FallbackReason,
		PostingHash:        c.PostingHash,
		RoleLevel:          c.Analysis.RoleLevel,
		Domain:             c.Analysis.Domain,
		Analysis:           analysis,
		DimensionOverrides: overrides,
		Tags:               tags,
		Evidence:           evidence,
	}, nil
}

func (s *rubricService) logCompiled(job *models.Job, rb *models.Rubric, created bool) {
	s.logger.Info("rubric stored",
		zap.String(logger.FieldJobID, job.ID.String()),
		zap.String(logger.FieldRubricID, rb.ID.String()),
		zap.String(logger.FieldPostingHash, rb.PostingHash),
		zap.String("source", rb.Source),
		zap.Int("revision", rb.Revision),
		zap.Bool("created", created),
	)
}

// RubricMapping decodes the stored dimension overrides of rb.
func RubricMapping(rb *models.Rubric) (rubric.DimensionMapping, error) {
	var m rubric.DimensionMapping
	if err := json.Unmarshal(rb.DimensionOverrides, &m); err != nil {
		return nil, fmt.Errorf("failed to decode rubric %s: %w", rb.ID, err)
	}
	return m, nil
}

func encodeJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	return datatypes.JSON(raw), nil
}
