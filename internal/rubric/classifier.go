package rubric

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	juniorRe = regexp.MustCompile(`(?i)\b(intern|internship|student|entry[- ]level|new grad|0-?2\s*years?)\b`)
	leadRe   = regexp.MustCompile(`(?i)\b(tech lead|team lead|engineering manager|head of|director)\b`)
	seniorRe = regexp.MustCompile(`(?i)\b(senior|sr\.?|staff|principal|lead|[5-9]\+\s*years?|1\d\+\s*years?)\b`)
	midRe    = regexp.MustCompile(`(?i)\b(3-?5\s*years?|[34]\+\s*years?|mid[- ]level|intermediate)\b`)

	requiredHeaderRe  = regexp.MustCompile(`(?i)^\W*(requirements?|qualifications?|must[- ]haves?|required skills?|what you bring|what we're looking for)\W*$`)
	preferredHeaderRe = regexp.MustCompile(`(?i)^\W*(preferred|bonus|nice[- ]to[- ]haves?|optional|pluses)\b.*$`)
	dutiesHeaderRe    = regexp.MustCompile(`(?i)^\W*(responsibilities|duties|what you'?ll do|the role|about the role)\W*$`)
	listMarkerRe      = regexp.MustCompile(`^\s*(?:[-*•●▪‣◦]|\d+[.)])\s*`)
)

// Classifier is the deterministic fallback: vocabulary matching plus regex
// role-level inference. Identical text always yields identical output.
type Classifier struct {
	catalog *Catalog
	vocab   *Vocabulary
}

// NewClassifier binds a vocabulary to a catalog and checks that every
// dimension the vocabulary can activate exists.
func NewClassifier(catalog *Catalog, vocab *Vocabulary) (*Classifier, error) {
	for tag, dims := range vocab.tagDims {
		for _, d := range dims {
			if !catalog.Has(d) {
				return nil, fmt.Errorf("%w: tag %q activates unknown dimension %q", ErrCatalog, tag, d)
			}
		}
	}
	return &Classifier{catalog: catalog, vocab: vocab}, nil
}

// Vocabulary exposes the classifier's vocabulary.
func (c *Classifier) Vocabulary() *Vocabulary {
	return c.vocab
}

// FallbackResult is the deterministic reading of a posting.
type FallbackResult struct {
	Analysis JobAnalysis
	Mapping  DimensionMapping
	Tags     []string
	Evidence map[string][]string
}

// Classify maps posting text to an analysis and a dimension mapping.
func (c *Classifier) Classify(posting string) (*FallbackResult, error) {
	level := InferRoleLevel(posting)
	evidence := c.vocab.Evidence(posting)

	mapping := make(DimensionMapping)
	for _, d := range c.catalog.All() {
		switch {
		case d.Category == CategoryCore, d.DefaultEnabled:
			mapping[d.ID] = DefaultWeight(d.Category)
		case len(evidence[d.ID]) > 0:
			mapping[d.ID] = DefaultWeight(d.Category)
		}
	}

	if level == LevelSenior || level == LevelLead {
		for _, id := range []string{"level_appropriateness", "leadership"} {
			if d, ok := c.catalog.Get(id); ok {
				mapping[id] = DefaultWeight(d.Category)
				evidence[id] = append(evidence[id], "role_level:"+level)
			}
		}
	}

	for _, id := range c.catalog.Core() {
		if mapping[id] <= 0 {
			return nil, fmt.Errorf("%w: core dimension %q not weighted", ErrCatalog, id)
		}
	}

	tags := sortedKeys(c.vocab.Tags(posting))
	requirements := extractRequirements(posting)

	return &FallbackResult{
		Analysis: JobAnalysis{
			RoleLevel:    level,
			Domain:       inferDomain(tags),
			Requirements: requirements,
			Priorities:   tags,
		},
		Mapping:  mapping,
		Tags:     tags,
		Evidence: evidence,
	}, nil
}

// InferRoleLevel reads the seniority of a posting. Checks run from most to least specific.
func InferRoleLevel(posting string) string {
	switch {
	case juniorRe.MatchString(posting):
		return LevelJunior
	case leadRe.MatchString(posting):
		return LevelLead
	case seniorRe.MatchString(posting):
		return LevelSenior
	case midRe.MatchString(posting):
		return LevelMid
	}
	return LevelUnknown
}

func inferDomain(tags []string) string {
	for _, candidate := range []string{"ml", "data", "security", "mobile", "frontend", "backend", "cloud", "research"} {
		for _, t := range tags {
			if t == candidate {
				return candidate
			}
		}
	}
	return "general"
}

// extractRequirements collects list items under requirement-like headings,
// falling back to every list item, then to the first non-empty line.
func extractRequirements(posting string) []string {
	var required, items []string
	section := ""
	for _, raw := range strings.Split(posting, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case requiredHeaderRe.MatchString(line):
			section = "required"
			continue
		case preferredHeaderRe.MatchString(line):
			section = "preferred"
			continue
		case dutiesHeaderRe.MatchString(line):
			section = "duties"
			continue
		}
		if !listMarkerRe.MatchString(raw) {
			continue
		}
		item := strings.TrimSpace(listMarkerRe.ReplaceAllString(raw, ""))
		if item == "" {
			continue
		}
		items = append(items, item)
		if section == "required" {
			required = append(required, item)
		}
	}
	switch {
	case len(required) > 0:
		return required
	case len(items) > 0:
		return items
	}
	for _, raw := range strings.Split(posting, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			return []string{line}
		}
	}
	return []string{"unspecified"}
}
