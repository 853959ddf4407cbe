package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-rubric/internal/models"
)

type ResumeRepository interface {
	Create(ctx context.Context, rv *models.ResumeVersion) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ResumeVersion, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.ResumeVersion, error)
	// Delete removes a resume version and its evaluation.
	Delete(ctx context.Context, id uuid.UUID) error
}

type resumeRepository struct {
	db *gorm.DB
}

func NewResumeRepository(db *gorm.DB) ResumeRepository {
	return &resumeRepository{db: db}
}

func (r *resumeRepository) Create(ctx context.Context, rv *models.ResumeVersion) error {
	if err := r.db.WithContext(ctx).Create(rv).Error; err != nil {
		return fmt.Errorf("failed to create resume version: %w", err)
	}
	return nil
}

func (r *resumeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ResumeVersion, error) {
	var rv models.ResumeVersion
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resume %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find resume version: %w", err)
	}
	return &rv, nil
}

// ListByJob returns a job's resume versions oldest first.
func (r *resumeRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.ResumeVersion, error) {
	var out []models.ResumeVersion
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list resume versions: %w", err)
	}
	return out, nil
}

func (r *resumeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("resume_id = ?", id).Delete(&models.Evaluation{}).Error; err != nil {
			return fmt.Errorf("failed to delete evaluation: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&models.ResumeVersion{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete resume version: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("resume %s: %w", id, ErrNotFound)
		}
		return nil
	})
}
