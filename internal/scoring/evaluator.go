package scoring

import (
	"alfredoptarigan/resume-rubric/internal/resume"
	"alfredoptarigan/resume-rubric/internal/rubric"
)

// Evaluator runs checks, scoring and recommendations for one rubric mapping.
// It holds only read-only data and is safe for concurrent use.
type Evaluator struct {
	catalog  *rubric.Catalog
	registry Registry
	rules    []PenaltyRule
}

func NewEvaluator(catalog *rubric.Catalog, registry Registry) *Evaluator {
	return &Evaluator{catalog: catalog, registry: registry, rules: DefaultPenalties()}
}

// Evaluate scores structure against the weighted dimensions in weights.
func (e *Evaluator) Evaluate(structure resume.Structure, weights rubric.DimensionMapping) (*Evaluation, error) {
	content := ContentOf(structure)
	if content.BulletCount == 0 {
		return nil, ErrInsufficientContent
	}

	weights, err := rubric.ValidateMapping(weights, e.catalog)
	if err != nil {
		return nil, err
	}

	dims := e.catalog.Select(weights.IDs())
	results := RunChecks(structure, dims, e.registry)

	ev, err := ScoreWith(results, dims, weights, content, e.rules)
	if err != nil {
		return nil, err
	}
	ev.Recommendations = Recommend(ev, e.catalog)
	return ev, nil
}
