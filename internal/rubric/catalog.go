package rubric

import (
	"fmt"
	"sort"
)

// Category groups dimensions by how they are activated for a job.
type Category string

const (
	CategoryCore       Category = "core"
	CategoryAlignment  Category = "alignment"
	CategoryRisk       Category = "risk"
	CategoryContextual Category = "contextual"
)

// Scoring scale bounds shared by every dimension.
const (
	ScaleMin = 1.0
	ScaleMax = 5.0
)

// Dimension is one evaluation criterion. Values are defined once and never mutated.
type Dimension struct {
	ID          string
	Category    Category
	Description string
	Signals     []string
	// Critical dimensions are forced to the scale minimum when a resume has no work experience.
	Critical bool
	// DefaultEnabled dimensions are active in fallback rubrics without a keyword hit.
	DefaultEnabled bool
	Advice         string
}

// Catalog is an immutable, ordered registry of dimensions.
// It is safe for concurrent reads.
type Catalog struct {
	order []string
	dims  map[string]Dimension
}

// NewCatalog builds a catalog and rejects duplicate or malformed entries.
func NewCatalog(dims ...Dimension) (*Catalog, error) {
	c := &Catalog{dims: make(map[string]Dimension, len(dims))}
	for _, d := range dims {
		if d.ID == "" {
			return nil, fmt.Errorf("%w: dimension without id", ErrCatalog)
		}
		if _, dup := c.dims[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate dimension %q", ErrCatalog, d.ID)
		}
		switch d.Category {
		case CategoryCore, CategoryAlignment, CategoryRisk, CategoryContextual:
		default:
			return nil, fmt.Errorf("%w: dimension %q has unknown category %q", ErrCatalog, d.ID, d.Category)
		}
		d.Signals = append([]string(nil), d.Signals...)
		c.dims[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	if len(c.Core()) == 0 {
		return nil, fmt.Errorf("%w: catalog has no core dimensions", ErrCatalog)
	}
	return c, nil
}

// Get returns the dimension with the given id.
func (c *Catalog) Get(id string) (Dimension, bool) {
	d, ok := c.dims[id]
	return d, ok
}

// Has reports whether id is a known dimension.
func (c *Catalog) Has(id string) bool {
	_, ok := c.dims[id]
	return ok
}

// IDs returns dimension ids in catalog order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

// All returns every dimension in catalog order.
func (c *Catalog) All() []Dimension {
	out := make([]Dimension, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.dims[id])
	}
	return out
}

// ByCategory returns the dimensions of one category in catalog order.
func (c *Catalog) ByCategory(cat Category) []Dimension {
	var out []Dimension
	for _, id := range c.order {
		if d := c.dims[id]; d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

// Core returns the ids of the core dimensions.
func (c *Catalog) Core() []string {
	var out []string
	for _, id := range c.order {
		if c.dims[id].Category == CategoryCore {
			out = append(out, id)
		}
	}
	return out
}

// Select returns the dimensions named in ids, ordered as in the catalog.
// Unknown ids are skipped.
func (c *Catalog) Select(ids []string) []Dimension {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []Dimension
	for _, id := range c.order {
		if _, ok := want[id]; ok {
			out = append(out, c.dims[id])
		}
	}
	return out
}

// DefaultWeight is the fallback weight ladder: core > alignment > risk > contextual.
func DefaultWeight(cat Category) float64 {
	switch cat {
	case CategoryCore:
		return 1.0
	case CategoryAlignment:
		return 0.8
	case CategoryRisk:
		return 0.6
	default:
		return 0.4
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultCatalog returns the canonical 17-dimension catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultDimensions...)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultDimensions = []Dimension{
	{
		ID:          "clarity",
		Category:    CategoryCore,
		Description: "Bullets are concrete, readable and open with a clear action verb.",
		Signals: []string{
			"clear_action_verbs",
			"specific_technologies",
			"quantified_outcomes",
			"no_jargon_overload",
			"readable_structure",
		},
		DefaultEnabled: true,
		Advice:         "Open every bullet with a strong action verb and name the tools you used.",
	},
	{
		ID:          "evidence",
		Category:    CategoryCore,
		Description: "Claims are backed by metrics, timeframes, scale and named technologies.",
		Signals: []string{
			"has_metrics",
			"has_timeframes",
			"has_scale_indicators",
			"specific_technologies_named",
			"verifiable_claims",
		},
		Critical:       true,
		DefaultEnabled: true,
		Advice:         "Add specific numbers, timeframes and scale to your claims.",
	},
	{
		ID:          "impact",
		Category:    CategoryCore,
		Description: "Work is tied to business, user, performance, cost or time outcomes.",
		Signals: []string{
			"business_outcome",
			"user_impact",
			"performance_improvement",
			"cost_reduction",
			"time_saved",
		},
		Critical:       true,
		DefaultEnabled: true,
		Advice:         "Focus on outcomes, not activities: connect the work to business value.",
	},
	{
		ID:          "structure",
		Category:    CategoryCore,
		Description: "Consistent formatting, sensible ordering and appropriate bullet length.",
		Signals: []string{
			"consistent_formatting",
			"logical_ordering",
			"appropriate_length",
			"no_redundancy",
			"clear_sections",
		},
		DefaultEnabled: true,
		Advice:         "Keep bullets to one or two lines with a consistent format.",
	},
	{
		ID:          "skill_alignment",
		Category:    CategoryAlignment,
		Description: "Required skills for the role are present and demonstrated.",
		Signals: []string{
			"required_skills_present",
			"skill_depth_matches_level",
			"recent_skill_usage",
			"complementary_skills",
		},
		Critical: true,
		Advice:   "Highlight the skills the posting requires more prominently.",
	},
	{
		ID:          "tooling_match",
		Category:    CategoryAlignment,
		Description: "Tools and platforms named in the posting appear in context.",
		Signals: []string{
			"exact_tool_match",
			"equivalent_tool",
			"tool_category_match",
			"demonstrated_tool_proficiency",
		},
		Critical: true,
		Advice:   "Show the posting's tools in use inside your experience bullets.",
	},
	{
		ID:          "domain_relevance",
		Category:    CategoryAlignment,
		Description: "Past work maps to the posting's industry, problem domain and scale.",
		Signals: []string{
			"industry_match",
			"problem_domain_match",
			"system_scale_match",
			"architecture_pattern_match",
		},
		Critical: true,
		Advice:   "Connect past work to the problems and scale of this domain.",
	},
	{
		ID:          "level_appropriateness",
		Category:    CategoryAlignment,
		Description: "Scope and autonomy match the seniority of the role.",
		Signals: []string{
			"scope_matches_level",
			"autonomy_indicators",
			"leadership_if_senior",
			"mentorship_if_senior",
			"learning_if_junior",
		},
		Critical: true,
		Advice:   "Add scope and ownership indicators that match the role's level.",
	},
	{
		ID:          "signal_density",
		Category:    CategoryRisk,
		Description: "Every line carries information; no filler or obvious statements.",
		Signals: []string{
			"high_info_per_line",
			"no_filler_words",
			"every_bullet_valuable",
			"no_obvious_statements",
		},
		DefaultEnabled: true,
		Advice:         "Remove filler phrases and combine sparse bullets.",
	},
	{
		ID:          "overclaim_risk",
		Category:    CategoryRisk,
		Description: "Claims are proportionate, evidenced and personally attributable.",
		Signals: []string{
			"claims_without_evidence",
			"extreme_superlatives",
			"unclear_personal_contribution",
			"timeline_inconsistencies",
		},
		DefaultEnabled: true,
		Advice:         "Back strong claims with evidence and clarify your own contribution.",
	},
	{
		ID:          "consistency",
		Category:    CategoryRisk,
		Description: "Timeline, titles and skill progression are coherent.",
		Signals: []string{
			"timeline_coherence",
			"skill_progression_logical",
			"role_titles_appropriate",
			"no_contradictions",
		},
		DefaultEnabled: true,
		Advice:         "Check dates, titles and skill progression for conflicts.",
	},
	{
		ID:          "leadership",
		Category:    CategoryContextual,
		Description: "Team leadership, mentorship, initiative and stakeholder management.",
		Signals: []string{
			"led_team",
			"mentored_others",
			"drove_initiative",
			"influenced_strategy",
			"managed_stakeholders",
		},
		Advice: "Add team size, mentorship and initiatives you owned.",
	},
	{
		ID:          "research_quality",
		Category:    CategoryContextual,
		Description: "Publications, experimental rigor and peer-reviewed contributions.",
		Signals: []string{
			"publications_cited",
			"experimental_rigor",
			"novel_contributions",
			"peer_review",
		},
		Advice: "Include publication venues, methodology and novel contributions.",
	},
	{
		ID:          "communication",
		Category:    CategoryContextual,
		Description: "Documentation, presentations and cross-team collaboration.",
		Signals: []string{
			"documentation_work",
			"presentations_given",
			"cross_team_collaboration",
			"technical_writing",
		},
		Advice: "Highlight documentation, talks and cross-functional work.",
	},
	{
		ID:          "product_thinking",
		Category:    CategoryContextual,
		Description: "User focus, product metrics and end-to-end feature ownership.",
		Signals: []string{
			"user_focus",
			"product_metrics",
			"feature_ownership",
			"user_research",
		},
		Advice: "Connect the work to user outcomes and product metrics.",
	},
	{
		ID:          "data_rigor",
		Category:    CategoryContextual,
		Description: "Statistical methods, experimentation and data quality.",
		Signals: []string{
			"statistical_methods",
			"ab_testing",
			"data_quality",
			"analysis_depth",
		},
		Advice: "Name the statistical methods, experiments and sample sizes involved.",
	},
	{
		ID:          "security_awareness",
		Category:    CategoryContextual,
		Description: "Security practices, compliance and threat modeling.",
		Signals: []string{
			"security_practices",
			"compliance_work",
			"threat_modeling",
			"security_audits",
		},
		Advice: "Mention security reviews, compliance frameworks and audits.",
	},
}
