package resume

import "strings"

// Bullet is one resume line with its extracted metadata.
type Bullet struct {
	Text          string   `json:"text" validate:"required"`
	HasActionVerb bool     `json:"has_action_verb"`
	HasMetric     bool     `json:"has_metric"`
	Tools         []string `json:"tools"`
	HasOutcome    bool     `json:"has_outcome"`
}

// Section is a named, ordered group of bullets.
type Section struct {
	Name    string   `json:"name" validate:"required"`
	Bullets []Bullet `json:"bullets" validate:"dive"`
}

// Structure is the parsed form of a resume. It is treated as immutable once built.
type Structure struct {
	Sections []Section `json:"sections" validate:"dive"`
}

var experienceSections = map[string]struct{}{
	"experience":              {},
	"work experience":         {},
	"professional experience": {},
	"employment":              {},
	"employment history":      {},
	"work history":            {},
	"relevant experience":     {},
}

// IsExperienceSection reports whether a section name denotes work experience.
func IsExperienceSection(name string) bool {
	_, ok := experienceSections[normalizeHeading(name)]
	return ok
}

// BulletCount is the number of bullets across all sections.
func (s Structure) BulletCount() int {
	n := 0
	for _, sec := range s.Sections {
		n += len(sec.Bullets)
	}
	return n
}

// ExperienceBulletCount counts bullets in work-experience sections only.
func (s Structure) ExperienceBulletCount() int {
	n := 0
	for _, sec := range s.Sections {
		if IsExperienceSection(sec.Name) {
			n += len(sec.Bullets)
		}
	}
	return n
}

// HasExperience reports whether any work-experience section carries content.
func (s Structure) HasExperience() bool {
	return s.ExperienceBulletCount() > 0
}

// Bullets flattens every section in document order.
func (s Structure) Bullets() []Bullet {
	out := make([]Bullet, 0, s.BulletCount())
	for _, sec := range s.Sections {
		out = append(out, sec.Bullets...)
	}
	return out
}

func normalizeHeading(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimRight(name, ":")
	return strings.Join(strings.Fields(name), " ")
}
