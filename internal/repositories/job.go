package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-rubric/internal/models"
)

type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Update(ctx context.Context, job *models.Job) error
	// List returns every job, newest first.
	List(ctx context.Context) ([]models.Job, error)
	// Delete removes a job with its rubric, resume versions and evaluations.
	Delete(ctx context.Context, id uuid.UUID) error
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *jobRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) Update(ctx context.Context, job *models.Job) error {
	result := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"title":        job.Title,
			"company":      job.Company,
			"posting":      job.Posting,
			"posting_hash": job.PostingHash,
			"updated_at":   gorm.Expr("CURRENT_TIMESTAMP"),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %s: %w", job.ID, ErrNotFound)
	}
	return nil
}

func (r *jobRepository) List(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&models.Evaluation{}).Error; err != nil {
			return fmt.Errorf("failed to delete evaluations: %w", err)
		}
		if err := tx.Where("job_id = ?", id).Delete(&models.ResumeVersion{}).Error; err != nil {
			return fmt.Errorf("failed to delete resume versions: %w", err)
		}
		if err := tx.Where("job_id = ?", id).Delete(&models.Rubric{}).Error; err != nil {
			return fmt.Errorf("failed to delete rubric: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&models.Job{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete job: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil
	})
}
