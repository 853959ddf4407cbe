package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/resume-rubric/internal/models"
)

type EvaluationRepository interface {
	// Upsert writes the evaluation for its resume, replacing any previous row
	// for the same resume, and returns the stored row.
	Upsert(ctx context.Context, eval *models.Evaluation) (*models.Evaluation, error)
	FindByResumeID(ctx context.Context, resumeID uuid.UUID) (*models.Evaluation, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Evaluation, error)
	// FindStale returns evaluations scored against an older revision of their job's rubric.
	FindStale(ctx context.Context, limit int) ([]models.Evaluation, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Upsert(ctx context.Context, eval *models.Evaluation) (*models.Evaluation, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "resume_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"rubric_id",
				"rubric_revision",
				"ruleset_version",
				"weights",
				"overall_score",
				"dimensions",
				"excluded",
				"recommendations",
				"bullet_count",
				"has_experience",
				"updated_at",
			}),
		}).
		Create(eval).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert evaluation: %w", err)
	}
	return r.FindByResumeID(ctx, eval.ResumeID)
}

func (r *evaluationRepository) FindByResumeID(ctx context.Context, resumeID uuid.UUID) (*models.Evaluation, error) {
	var eval models.Evaluation
	if err := r.db.WithContext(ctx).Where("resume_id = ?", resumeID).First(&eval).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("evaluation for resume %s: %w", resumeID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find evaluation: %w", err)
	}
	return &eval, nil
}

func (r *evaluationRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Evaluation, error) {
	var evals []models.Evaluation
	if err := r.db.WithContext(ctx).Where("job_id = ?", jobID).Find(&evals).Error; err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return evals, nil
}

func (r *evaluationRepository) FindStale(ctx context.Context, limit int) ([]models.Evaluation, error) {
	var evals []models.Evaluation
	err := r.db.WithContext(ctx).
		Select("evaluations.*").
		Joins("JOIN rubrics ON rubrics.job_id = evaluations.job_id").
		Where("evaluations.rubric_revision < rubrics.revision").
		Order("evaluations.updated_at ASC").
		Limit(limit).
		Find(&evals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find stale evaluations: %w", err)
	}
	return evals, nil
}
