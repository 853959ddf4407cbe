package rubric

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidAnalysis marks a job analysis that does not satisfy its schema.
	ErrInvalidAnalysis = errors.New("invalid job analysis")
	// ErrInvalidMapping marks a dimension mapping that does not satisfy its schema.
	ErrInvalidMapping = errors.New("invalid dimension mapping")
	// ErrCatalog marks a catalog that cannot produce a valid rubric.
	ErrCatalog = errors.New("dimension catalog misconfigured")
)

// Role levels accepted in a JobAnalysis.
const (
	LevelJunior  = "junior"
	LevelMid     = "mid"
	LevelSenior  = "senior"
	LevelLead    = "lead"
	LevelUnknown = "unknown"
)

// JobAnalysis is the structured reading of a job posting.
type JobAnalysis struct {
	RoleLevel    string   `json:"role_level" validate:"required,oneof=junior mid senior lead unknown"`
	Domain       string   `json:"domain" validate:"required"`
	Requirements []string `json:"requirements" validate:"min=1,dive,required"`
	Priorities   []string `json:"priorities" validate:"required,min=1,dive,required"`
}

// Analyzer is the narrow capability the compiler needs from an LLM.
// Implementations return raw decoded output; the compiler validates it.
type Analyzer interface {
	Analyze(ctx context.Context, posting string) (*JobAnalysis, error)
	MapDimensions(ctx context.Context, analysis *JobAnalysis, catalog *Catalog) (DimensionMapping, error)
}

// AnalysisCache stores validated analyses keyed by posting hash.
type AnalysisCache interface {
	GetAnalysis(ctx context.Context, postingHash string) (*JobAnalysis, bool, error)
	PutAnalysis(ctx context.Context, postingHash string, analysis *JobAnalysis) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateAnalysis checks a on its schema. The whole analysis is rejected on any failure.
func ValidateAnalysis(a *JobAnalysis) error {
	if a == nil {
		return fmt.Errorf("%w: empty response", ErrInvalidAnalysis)
	}
	a.Domain = strings.TrimSpace(a.Domain)
	a.RoleLevel = strings.ToLower(strings.TrimSpace(a.RoleLevel))
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnalysis, err)
	}
	for _, r := range a.Requirements {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("%w: blank requirement", ErrInvalidAnalysis)
		}
	}
	for _, p := range a.Priorities {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: blank priority", ErrInvalidAnalysis)
		}
	}
	return nil
}

// DimensionMapping maps dimension ids to weights in (0,1].
// Weights need not sum to one; the aggregator normalizes.
type DimensionMapping map[string]float64

// IDs returns the mapped dimension ids in lexical order.
func (m DimensionMapping) IDs() []string {
	return sortedKeys(m)
}

// Clone returns an independent copy.
func (m DimensionMapping) Clone() DimensionMapping {
	out := make(DimensionMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ValidateMapping checks m against the catalog and injects any missing core
// dimension with its default weight. It never drops a core dimension.
func ValidateMapping(m DimensionMapping, catalog *Catalog) (DimensionMapping, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("%w: no dimensions selected", ErrInvalidMapping)
	}
	out := make(DimensionMapping, len(m))
	for _, id := range m.IDs() {
		w := m[id]
		if !catalog.Has(id) {
			return nil, fmt.Errorf("%w: unknown dimension %q", ErrInvalidMapping, id)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 || w > 1 {
			return nil, fmt.Errorf("%w: weight %v for %q outside (0,1]", ErrInvalidMapping, w, id)
		}
		out[id] = w
	}
	for _, id := range catalog.Core() {
		if _, ok := out[id]; !ok {
			out[id] = DefaultWeight(CategoryCore)
		}
	}
	return out, nil
}

// PostingHash is the content key of a job posting.
func PostingHash(posting string) string {
	sum := sha256.Sum256([]byte(posting))
	return hex.EncodeToString(sum[:])[:16]
}
