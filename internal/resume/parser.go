package resume

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	markerRe  = regexp.MustCompile(`^\s*(?:[-*•●▪‣◦–]|\d+[.)])\s+`)
	metricRe  = regexp.MustCompile(`(?i)[$€£]\s?\d|\d+(?:[.,]\d+)?\s*(?:%|percent\b|x\b|k\b|m\b|ms\b)|\b\d+\s+(?:users|customers|engineers|services|teams|requests|servers|clients|people)\b`)
	numberRe  = regexp.MustCompile(`\b\d+(?:[.,]\d+)*\b`)
	yearRe    = regexp.MustCompile(`^(?:19|20)\d{2}$`)
	outcomeRe = regexp.MustCompile(`(?i)\b(resulting in|achiev\w*|improv\w*|reduc\w*|increas\w*|revenue|cost\w*|efficien\w*|users?|customers?|time|performance|conversion|retention|satisfaction|saving\w*)\b`)
)

var actionVerbs = map[string]struct{}{
	"built": {}, "developed": {}, "designed": {}, "implemented": {}, "created": {},
	"led": {}, "managed": {}, "improved": {}, "optimized": {}, "reduced": {},
	"increased": {}, "launched": {}, "delivered": {}, "architected": {}, "established": {},
	"migrated": {}, "automated": {}, "scaled": {}, "collaborated": {}, "drove": {},
	"shipped": {}, "owned": {}, "spearheaded": {}, "engineered": {}, "deployed": {},
	"refactored": {}, "mentored": {}, "introduced": {}, "rewrote": {}, "streamlined": {},
}

var knownHeadings = map[string]struct{}{
	"summary": {}, "profile": {}, "about": {}, "objective": {},
	"skills": {}, "technical skills": {}, "education": {}, "projects": {},
	"certifications": {}, "publications": {}, "awards": {}, "volunteering": {},
	"languages": {}, "interests": {},
}

// StartsWithActionVerb reports whether text opens with a strong action verb.
func StartsWithActionVerb(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimFunc(fields[0], func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	_, ok := actionVerbs[first]
	return ok
}

// HasMetric reports whether text carries a quantifiable figure. Years and
// dotted version numbers alone do not count.
func HasMetric(text string) bool {
	if metricRe.MatchString(text) {
		return true
	}
	for _, n := range numberRe.FindAllString(text, -1) {
		if strings.Contains(n, ".") || yearRe.MatchString(n) {
			continue
		}
		if strings.Contains(n, ",") || len(n) >= 2 {
			return true
		}
	}
	return false
}

// HasOutcomeLanguage reports whether text names a result rather than an activity.
func HasOutcomeLanguage(text string) bool {
	return outcomeRe.MatchString(text)
}

// Parser turns extracted plain text into a Structure. It holds only compiled
// patterns and is safe for concurrent use.
type Parser struct {
	tools []toolPattern
}

type toolPattern struct {
	name string
	re   *regexp.Regexp
}

// NewParser builds a parser that recognizes the given tool names.
func NewParser(tools []string) *Parser {
	names := append([]string(nil), tools...)
	sort.Strings(names)
	p := &Parser{}
	for _, name := range names {
		lower := strings.ToLower(strings.TrimSpace(name))
		if lower == "" {
			continue
		}
		p.tools = append(p.tools, toolPattern{
			name: lower,
			re:   regexp.MustCompile(`(?i)(?:^|[^a-z0-9])` + regexp.QuoteMeta(lower) + `(?:$|[^a-z0-9])`),
		})
	}
	return p
}

// Tools returns the recognized tools named in text, in lexical order.
func (p *Parser) Tools(text string) []string {
	var out []string
	for _, t := range p.tools {
		if t.re.MatchString(text) {
			out = append(out, t.name)
		}
	}
	return out
}

// Annotate builds a bullet with its metadata extracted from text.
func (p *Parser) Annotate(text string) Bullet {
	text = strings.TrimSpace(text)
	return Bullet{
		Text:          text,
		HasActionVerb: StartsWithActionVerb(text),
		HasMetric:     HasMetric(text),
		Tools:         p.Tools(text),
		HasOutcome:    HasOutcomeLanguage(text),
	}
}

// Parse splits text into sections at heading lines and collects list items as
// bullets. Indented lines right after a bullet continue it; other prose is skipped.
func (p *Parser) Parse(text string) Structure {
	var (
		sections []Section
		current  *Section
		pending  []string
	)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if current == nil {
			sections = append(sections, Section{Name: "other"})
			current = &sections[len(sections)-1]
		}
		current.Bullets = append(current.Bullets, p.Annotate(strings.Join(pending, " ")))
		pending = nil
	}

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flush()
		case markerRe.MatchString(raw):
			flush()
			if item := strings.TrimSpace(markerRe.ReplaceAllString(raw, "")); item != "" {
				pending = append(pending, item)
			}
		case startsSection(line, current):
			flush()
			sections = append(sections, Section{Name: normalizeHeading(line)})
			current = &sections[len(sections)-1]
		case len(pending) > 0 && raw != line && unicode.IsSpace(rune(raw[0])):
			pending = append(pending, line)
		default:
			flush()
		}
	}
	flush()

	out := sections[:0]
	for _, s := range sections {
		if len(s.Bullets) > 0 {
			out = append(out, s)
		}
	}
	return Structure{Sections: out}
}

// startsSection accepts known section names anywhere and short all-caps lines
// outside experience, where they are usually employer names.
func startsSection(line string, current *Section) bool {
	name := normalizeHeading(line)
	if name == "" || len(strings.Fields(name)) > 4 {
		return false
	}
	if _, ok := experienceSections[name]; ok {
		return true
	}
	if _, ok := knownHeadings[name]; ok {
		return true
	}
	if current != nil && IsExperienceSection(current.Name) {
		return false
	}
	if strings.HasSuffix(line, ".") {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

// DefaultTools is the tool lexicon used when none is configured.
func DefaultTools() []string {
	return append([]string(nil), defaultTools...)
}

var defaultTools = []string{
	"airflow", "android", "angular", "ansible", "aws", "azure", "c#", "c++",
	"circleci", "css", "datadog", "django", "docker", "dynamodb", "elasticsearch",
	"etl", "fastapi", "flask", "flutter", "gcp", "git", "github actions", "gitlab",
	"go", "golang", "grafana", "graphql", "grpc", "html", "ios", "java",
	"javascript", "jenkins", "jest", "kafka", "kotlin", "kubernetes", "k8s",
	"lambda", "linux", "looker", "mongodb", "mysql", "next.js", "node.js",
	"numpy", "pandas", "php", "postgresql", "postgres", "prometheus", "pytest",
	"python", "pytorch", "rabbitmq", "react", "react native", "redis",
	"ruby", "rust", "s3", "scala", "scikit-learn", "snowflake", "spark",
	"spring", "sql", "swift", "tableau", "tensorflow", "terraform",
	"typescript", "vue",
}
