package scoring

import (
	"errors"
	"math"

	"alfredoptarigan/resume-rubric/internal/resume"
	"alfredoptarigan/resume-rubric/internal/rubric"
)

// ErrInsufficientContent is returned for a resume with no bullets at all.
var ErrInsufficientContent = errors.New("resume has no sections or bullets to evaluate")

type scoreBand struct {
	minRate float64
	score   float64
}

// Pass-rate bands, highest first. Anything below the last band scores ScaleMin.
var scoreBands = []scoreBand{
	{minRate: 0.95, score: 5.0},
	{minRate: 0.85, score: 4.0},
	{minRate: 0.70, score: 3.0},
	{minRate: 0.50, score: 2.0},
}

// ScoreForPassRate maps a pass rate onto the 1-5 scale.
func ScoreForPassRate(rate float64) float64 {
	for _, b := range scoreBands {
		if rate >= b.minRate {
			return b.score
		}
	}
	return rubric.ScaleMin
}

// nextBand returns the pass rate needed to reach the band above rate.
func nextBand(rate float64) (float64, bool) {
	next, ok := 0.0, false
	for _, b := range scoreBands {
		if rate >= b.minRate {
			break
		}
		next, ok = b.minRate, true
	}
	return next, ok
}

// Content is the resume volume the penalty rules look at.
type Content struct {
	BulletCount   int
	HasExperience bool
}

// ContentOf summarizes a structure for the penalty rules.
func ContentOf(s resume.Structure) Content {
	return Content{BulletCount: s.BulletCount(), HasExperience: s.HasExperience()}
}

// PenaltyRule adjusts a dimension score when Applies holds. Rules are
// evaluated in order and only the first matching rule is applied.
type PenaltyRule struct {
	Name    string
	Applies func(c Content, dim rubric.Dimension) bool
	Apply   func(score float64) float64
}

// DefaultPenalties returns the content-volume rules in priority order.
func DefaultPenalties() []PenaltyRule {
	return []PenaltyRule{
		{
			Name:    "no_experience_critical",
			Applies: func(c Content, dim rubric.Dimension) bool { return !c.HasExperience && dim.Critical },
			Apply:   func(float64) float64 { return rubric.ScaleMin },
		},
		{
			Name:    "under_3_bullets",
			Applies: func(c Content, _ rubric.Dimension) bool { return c.BulletCount < 3 },
			Apply:   func(s float64) float64 { return math.Min(s, 1.5) },
		},
		{
			Name:    "under_5_bullets",
			Applies: func(c Content, _ rubric.Dimension) bool { return c.BulletCount < 5 },
			Apply:   func(s float64) float64 { return s * 0.70 },
		},
		{
			Name:    "under_8_bullets",
			Applies: func(c Content, _ rubric.Dimension) bool { return c.BulletCount < 8 },
			Apply:   func(s float64) float64 { return s * 0.85 },
		},
	}
}

// ApplyPenalties runs the first matching rule and clamps the result to the
// scale. It returns the rule name, or "" when none matched.
func ApplyPenalties(score float64, c Content, dim rubric.Dimension, rules []PenaltyRule) (float64, string) {
	applied := ""
	for _, r := range rules {
		if r.Applies(c, dim) {
			score = r.Apply(score)
			applied = r.Name
			break
		}
	}
	return clamp(score), applied
}

func clamp(s float64) float64 {
	return math.Max(rubric.ScaleMin, math.Min(rubric.ScaleMax, s))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// DimensionScore is one scored dimension. Score is rounded; every value
// derived from it elsewhere uses the unrounded figure.
type DimensionScore struct {
	Dimension     string          `json:"dimension"`
	Category      rubric.Category `json:"category"`
	Score         float64         `json:"score"`
	BaseScore     float64         `json:"base_score"`
	Weight        float64         `json:"weight"`
	PassRate      float64         `json:"pass_rate"`
	Checked       int             `json:"checked"`
	Failed        int             `json:"failed"`
	FailedSignals []string        `json:"failed_signals"`
	Penalty       string          `json:"penalty,omitempty"`
}

// Evaluation is the scored outcome for one resume against one rubric.
type Evaluation struct {
	Overall         float64          `json:"overall"`
	Dimensions      []DimensionScore `json:"dimensions"`
	Excluded        []string         `json:"excluded,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
	BulletCount     int              `json:"bullet_count"`
	HasExperience   bool             `json:"has_experience"`
}

// Dimension returns the score for id.
func (e *Evaluation) Dimension(id string) (DimensionScore, bool) {
	for _, d := range e.Dimensions {
		if d.Dimension == id {
			return d, true
		}
	}
	return DimensionScore{}, false
}

// Score turns signal results into per-dimension and overall scores using the
// default penalty rules. Dimensions are reported in the order of dims.
func Score(results map[string]SignalResult, dims []rubric.Dimension, weights rubric.DimensionMapping, content Content) (*Evaluation, error) {
	return ScoreWith(results, dims, weights, content, DefaultPenalties())
}

// ScoreWith is Score with an explicit penalty rule list.
func ScoreWith(results map[string]SignalResult, dims []rubric.Dimension, weights rubric.DimensionMapping, content Content, rules []PenaltyRule) (*Evaluation, error) {
	if content.BulletCount == 0 {
		return nil, ErrInsufficientContent
	}

	ev := &Evaluation{
		BulletCount:   content.BulletCount,
		HasExperience: content.HasExperience,
	}

	var weighted, totalWeight float64
	for _, dim := range dims {
		w, active := weights[dim.ID]
		if !active || w <= 0 {
			continue
		}
		res := results[dim.ID]
		rate, ok := res.PassRate()
		if !ok {
			ev.Excluded = append(ev.Excluded, dim.ID)
			continue
		}

		base := ScoreForPassRate(rate)
		final, penalty := ApplyPenalties(base, content, dim, rules)

		weighted += w * final
		totalWeight += w

		ev.Dimensions = append(ev.Dimensions, DimensionScore{
			Dimension:     dim.ID,
			Category:      dim.Category,
			Score:         round2(final),
			BaseScore:     base,
			Weight:        w,
			PassRate:      rate,
			Checked:       res.Checked,
			Failed:        res.Failed,
			FailedSignals: res.FailedSignals(),
			Penalty:       penalty,
		})
	}

	ev.Overall = rubric.ScaleMin
	if totalWeight > 0 {
		ev.Overall = round2(weighted / totalWeight)
	}
	return ev, nil
}
