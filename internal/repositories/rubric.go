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

type RubricRepository interface {
	// CreateIfAbsent inserts rb unless the job already has a rubric, and
	// returns whichever row is stored. created is false when another writer won.
	CreateIfAbsent(ctx context.Context, rb *models.Rubric) (stored *models.Rubric, created bool, err error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Rubric, error)
	FindByJobID(ctx context.Context, jobID uuid.UUID) (*models.Rubric, error)
	// Recompile rewrites the job's rubric if it is still at fromRevision and bumps the revision.
	Recompile(ctx context.Context, rb *models.Rubric, fromRevision int) (*models.Rubric, error)
}

type rubricRepository struct {
	db *gorm.DB
}

func NewRubricRepository(db *gorm.DB) RubricRepository {
	return &rubricRepository{db: db}
}

func (r *rubricRepository) CreateIfAbsent(ctx context.Context, rb *models.Rubric) (*models.Rubric, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}},
			DoNothing: true,
		}).
		Create(rb)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create rubric: %w", result.Error)
	}

	stored, err := r.FindByJobID(ctx, rb.JobID)
	if err != nil {
		return nil, false, err
	}
	return stored, result.RowsAffected == 1, nil
}

func (r *rubricRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Rubric, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *rubricRepository) FindByJobID(ctx context.Context, jobID uuid.UUID) (*models.Rubric, error) {
	return r.findOne(ctx, "job_id = ?", jobID)
}

func (r *rubricRepository) findOne(ctx context.Context, query string, arg uuid.UUID) (*models.Rubric, error) {
	var rb models.Rubric
	if err := r.db.WithContext(ctx).Where(query, arg).First(&rb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("rubric %s: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find rubric: %w", err)
	}
	return &rb, nil
}

func (r *rubricRepository) Recompile(ctx context.Context, rb *models.Rubric, fromRevision int) (*models.Rubric, error) {
	result := r.db.WithContext(ctx).Model(&models.Rubric{}).
		Where("job_id = ? AND revision = ?", rb.JobID, fromRevision).
		Updates(map[string]interface{}{
			"base_rubric_id":      rb.BaseRubricID,
			"base_rubric_version": rb.BaseRubricVersion,
			"ruleset_version":     rb.RulesetVersion,
			"revision":            fromRevision + 1,
			"source":              rb.Source,
			"fallback_reason":     rb.FallbackReason,
			"posting_hash":        rb.PostingHash,
			"role_level":          rb.RoleLevel,
			"domain":              rb.Domain,
			"analysis":            rb.Analysis,
			"dimension_overrides": rb.DimensionOverrides,
			"tags":                rb.Tags,
			"evidence":            rb.Evidence,
			"updated_at":          gorm.Expr("CURRENT_TIMESTAMP"),
		})

	if result.Error != nil {
		return nil, fmt.Errorf("failed to recompile rubric: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("rubric for job %s at revision %d: %w", rb.JobID, fromRevision, ErrStaleRevision)
	}
	return r.FindByJobID(ctx, rb.JobID)
}
