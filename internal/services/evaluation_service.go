package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"alfredoptarigan/resume-rubric/internal/logger"
	"alfredoptarigan/resume-rubric/internal/models"
	"alfredoptarigan/resume-rubric/internal/repositories"
	"alfredoptarigan/resume-rubric/internal/resume"
	"alfredoptarigan/resume-rubric/internal/scoring"
)

type EvaluationService interface {
	// Evaluate scores a resume version against rubricID and stores the result,
	// replacing any earlier evaluation of that resume.
	Evaluate(ctx context.Context, resumeID, rubricID uuid.UUID) (*models.Evaluation, error)
	// EvaluateCurrent scores a resume version against its job's current rubric.
	EvaluateCurrent(ctx context.Context, resumeID uuid.UUID) (*models.Evaluation, error)
	GetByResume(ctx context.Context, resumeID uuid.UUID) (*models.Evaluation, error)
	// Stale lists resume ids whose evaluation predates the job's current rubric revision.
	Stale(ctx context.Context, limit int) ([]uuid.UUID, error)
}

type evaluationService struct {
	evalRepo   repositories.EvaluationRepository
	resumeRepo repositories.ResumeRepository
	rubricRepo repositories.RubricRepository
	evaluator  *scoring.Evaluator
	group      singleflight.Group
	logger     *zap.Logger
}

func NewEvaluationService(
	evalRepo repositories.EvaluationRepository,
	resumeRepo repositories.ResumeRepository,
	rubricRepo repositories.RubricRepository,
	evaluator *scoring.Evaluator,
	log *zap.Logger,
) EvaluationService {
	return &evaluationService{
		evalRepo:   evalRepo,
		resumeRepo: resumeRepo,
		rubricRepo: rubricRepo,
		evaluator:  evaluator,
		logger:     logger.WithFields(log).Named("evaluations"),
	}
}

func (s *evaluationService) Evaluate(ctx context.Context, resumeID, rubricID uuid.UUID) (*models.Evaluation, error) {
	rv, err := s.resumeRepo.FindByID(ctx, resumeID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrResumeNotFound, resumeID)
	}
	if err != nil {
		return nil, err
	}

	rb, err := s.rubricRepo.FindByID(ctx, rubricID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRubricNotFound, rubricID)
	}
	if err != nil {
		return nil, err
	}

	return s.evaluate(ctx, rv, rb)
}

func (s *evaluationService) EvaluateCurrent(ctx context.Context, resumeID uuid.UUID) (*models.Evaluation, error) {
	rv, err := s.resumeRepo.FindByID(ctx, resumeID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrResumeNotFound, resumeID)
	}
	if err != nil {
		return nil, err
	}

	rb, err := s.rubricRepo.FindByJobID(ctx, rv.JobID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: job %s", ErrRubricNotFound, rv.JobID)
	}
	if err != nil {
		return nil, err
	}

	return s.evaluate(ctx, rv, rb)
}

func (s *evaluationService) evaluate(ctx context.Context, rv *models.ResumeVersion, rb *models.Rubric) (*models.Evaluation, error) {
	if rb.JobID != rv.JobID {
		return nil, fmt.Errorf("%w: rubric %s is for job %s, resume %s is for job %s",
			ErrRubricMismatch, rb.ID, rb.JobID, rv.ID, rv.JobID)
	}

	key := fmt.Sprintf("%s:%s:%d", rv.ID, rb.ID, rb.Revision)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		var structure resume.Structure
		if err := json.Unmarshal(rv.Structure, &structure); err != nil {
			return nil, fmt.Errorf("failed to decode resume %s: %w", rv.ID, err)
		}
		weights, err := RubricMapping(rb)
		if err != nil {
			return nil, err
		}

		result, err := s.evaluator.Evaluate(structure, weights)
		if err != nil {
			return nil, err
		}

		row, err := toEvaluationModel(rv, rb, result)
		if err != nil {
			return nil, err
		}
		stored, err := s.evalRepo.Upsert(ctx, row)
		if err != nil {
			return nil, err
		}

		s.logger.Info("resume evaluated",
			zap.String(logger.FieldResumeID, rv.ID.String()),
			zap.String(logger.FieldRubricID, rb.ID.String()),
			zap.Int("rubric_revision", rb.Revision),
			zap.Float64("overall", result.Overall),
		)
		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Evaluation), nil
}

func (s *evaluationService) GetByResume(ctx context.Context, resumeID uuid.UUID) (*models.Evaluation, error) {
	ev, err := s.evalRepo.FindByResumeID(ctx, resumeID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: resume %s", ErrEvaluationNotFound, resumeID)
	}
	return ev, err
}

func (s *evaluationService) Stale(ctx context.Context, limit int) ([]uuid.UUID, error) {
	evals, err := s.evalRepo.FindStale(ctx, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(evals))
	for _, e := range evals {
		ids = append(ids, e.ResumeID)
	}
	return ids, nil
}

func toEvaluationModel(rv *models.ResumeVersion, rb *models.Rubric, ev *scoring.Evaluation) (*models.Evaluation, error) {
	dims, err := encodeJSON(ev.Dimensions)
	if err != nil {
		return nil, err
	}
	excluded, err := encodeJSON(ev.Excluded)
	if err != nil {
		return nil, err
	}
	recs, err := encodeJSON(ev.Recommendations)
	if err != nil {
		return nil, err
	}

	return &models.Evaluation{
		ID:              uuid.New(),
		ResumeID:        rv.ID,
		JobID:           rv.JobID,
		RubricID:        rb.ID,
		RubricRevision:  rb.Revision,
		RulesetVersion:  rb.RulesetVersion,
		Weights:         rb.DimensionOverrides,
		OverallScore:    ev.Overall,
		Dimensions:      dims,
		Excluded:        excluded,
		Recommendations: recs,
		BulletCount:     ev.BulletCount,
		HasExperience:   ev.HasExperience,
	}, nil
}
