package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/resume-rubric/internal/models"
	"alfredoptarigan/resume-rubric/internal/rubric"
)

// AnalysisRepository is the durable rubric.AnalysisCache.
type AnalysisRepository interface {
	rubric.AnalysisCache
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) GetAnalysis(ctx context.Context, postingHash string) (*rubric.JobAnalysis, bool, error) {
	var rec models.JobAnalysisRecord
	err := r.db.WithContext(ctx).Where("posting_hash = ?", postingHash).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find job analysis: %w", err)
	}

	var a rubric.JobAnalysis
	if err := json.Unmarshal(rec.Analysis, &a); err != nil {
		return nil, false, fmt.Errorf("failed to decode job analysis: %w", err)
	}
	return &a, true, nil
}

// PutAnalysis keeps the first analysis stored for a hash.
func (r *analysisRepository) PutAnalysis(ctx context.Context, postingHash string, analysis *rubric.JobAnalysis) error {
	raw, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to encode job analysis: %w", err)
	}

	rec := models.JobAnalysisRecord{PostingHash: postingHash, Analysis: raw}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to store job analysis: %w", err)
	}
	return nil
}
