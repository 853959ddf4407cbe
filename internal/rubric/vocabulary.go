package rubric

import (
	"regexp"
	"sort"
	"strings"
)

// Vocabulary maps posting terms to tags and tags to the dimensions they activate.
// It is read-only after construction.
type Vocabulary struct {
	terms    []vocabTerm
	tagDims  map[string][]string
	termTags map[string][]string
}

type vocabTerm struct {
	term string
	re   *regexp.Regexp
}

// NewVocabulary compiles one case-insensitive, word-bounded matcher per term.
func NewVocabulary(termTags map[string][]string, tagDims map[string][]string) *Vocabulary {
	v := &Vocabulary{
		tagDims:  make(map[string][]string, len(tagDims)),
		termTags: make(map[string][]string, len(termTags)),
	}
	for _, term := range sortedKeys(termTags) {
		lower := strings.ToLower(term)
		v.termTags[lower] = append([]string(nil), termTags[term]...)
		v.terms = append(v.terms, vocabTerm{term: lower, re: termPattern(lower)})
	}
	for tag, dims := range tagDims {
		v.tagDims[tag] = append([]string(nil), dims...)
	}
	return v
}

// termPattern matches term when not glued to other letters or digits, so
// "go" does not fire inside "good" and "c++" still matches.
func termPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^a-z0-9])` + regexp.QuoteMeta(term) + `(?:$|[^a-z0-9])`)
}

// Terms returns every vocabulary term in lexical order.
func (v *Vocabulary) Terms() []string {
	out := make([]string, 0, len(v.terms))
	for _, t := range v.terms {
		out = append(out, t.term)
	}
	return out
}

// Match returns the vocabulary terms present in text, in lexical order.
func (v *Vocabulary) Match(text string) []string {
	var hits []string
	for _, t := range v.terms {
		if t.re.MatchString(text) {
			hits = append(hits, t.term)
		}
	}
	return hits
}

// Tags groups matched terms by tag. Term lists are in lexical order.
func (v *Vocabulary) Tags(text string) map[string][]string {
	out := make(map[string][]string)
	for _, term := range v.Match(text) {
		for _, tag := range v.termTags[term] {
			out[tag] = append(out[tag], term)
		}
	}
	return out
}

// DimensionsForTag returns the dimensions a tag activates.
func (v *Vocabulary) DimensionsForTag(tag string) []string {
	return v.tagDims[tag]
}

// Evidence maps each activated dimension to the sorted, de-duplicated terms that triggered it.
func (v *Vocabulary) Evidence(text string) map[string][]string {
	seen := make(map[string]map[string]struct{})
	for tag, terms := range v.Tags(text) {
		for _, dim := range v.tagDims[tag] {
			if seen[dim] == nil {
				seen[dim] = make(map[string]struct{})
			}
			for _, t := range terms {
				seen[dim][t] = struct{}{}
			}
		}
	}
	out := make(map[string][]string, len(seen))
	for dim, set := range seen {
		terms := make([]string, 0, len(set))
		for t := range set {
			terms = append(terms, t)
		}
		sort.Strings(terms)
		out[dim] = terms
	}
	return out
}

// DefaultVocabulary returns the built-in posting vocabulary.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(defaultTermTags, defaultTagDimensions)
}

var defaultTagDimensions = map[string][]string{
	"infra":         {"tooling_match", "skill_alignment"},
	"devops":        {"tooling_match", "skill_alignment"},
	"iac":           {"tooling_match"},
	"cicd":          {"tooling_match"},
	"cloud":         {"tooling_match", "skill_alignment"},
	"backend":       {"domain_relevance", "skill_alignment"},
	"frontend":      {"domain_relevance", "skill_alignment"},
	"database":      {"tooling_match", "skill_alignment"},
	"api":           {"skill_alignment"},
	"data":          {"data_rigor", "skill_alignment"},
	"ml":            {"data_rigor", "skill_alignment"},
	"science":       {"data_rigor", "research_quality"},
	"security":      {"security_awareness", "consistency"},
	"auth":          {"security_awareness"},
	"compliance":    {"security_awareness"},
	"research":      {"research_quality", "evidence"},
	"testing":       {"consistency", "signal_density"},
	"observability": {"impact", "data_rigor"},
	"leadership":    {"leadership"},
	"collaboration": {"communication"},
	"mobile":        {"domain_relevance", "skill_alignment"},
	"product":       {"product_thinking"},
}

var defaultTermTags = map[string][]string{
	// infrastructure
	"docker":         {"infra", "devops"},
	"kubernetes":     {"infra", "devops", "cloud"},
	"k8s":            {"infra", "devops", "cloud"},
	"terraform":      {"infra", "iac"},
	"ansible":        {"infra", "iac"},
	"jenkins":        {"infra", "cicd"},
	"gitlab":         {"infra", "cicd"},
	"circleci":       {"infra", "cicd"},
	"github actions": {"infra", "cicd"},

	// cloud
	"aws":                 {"cloud"},
	"amazon web services": {"cloud"},
	"gcp":                 {"cloud"},
	"google cloud":        {"cloud"},
	"azure":               {"cloud"},
	"cloudflare":          {"cloud"},
	"ec2":                 {"cloud"},
	"s3":                  {"cloud"},
	"lambda":              {"cloud"},
	"rds":                 {"cloud"},

	// backend
	"postgres":      {"backend", "database"},
	"postgresql":    {"backend", "database"},
	"mysql":         {"backend", "database"},
	"mongodb":       {"backend", "database"},
	"redis":         {"backend", "database"},
	"grpc":          {"backend", "api"},
	"rest api":      {"backend", "api"},
	"graphql":       {"backend", "api"},
	"microservices": {"backend"},
	"kafka":         {"backend"},
	"rabbitmq":      {"backend"},

	// frontend
	"react":      {"frontend"},
	"vue":        {"frontend"},
	"angular":    {"frontend"},
	"typescript": {"frontend", "backend"},
	"javascript": {"frontend", "backend"},
	"html":       {"frontend"},
	"css":        {"frontend"},
	"webpack":    {"frontend"},
	"next.js":    {"frontend"},
	"nextjs":     {"frontend"},

	// data
	"metrics":          {"data", "observability"},
	"experiments":      {"data", "science"},
	"a/b test":         {"data", "science"},
	"a/b testing":      {"data", "science"},
	"ab test":          {"data", "science"},
	"machine learning": {"data", "ml"},
	"ml":               {"data", "ml"},
	"deep learning":    {"data", "ml"},
	"neural network":   {"data", "ml"},
	"data pipeline":    {"data"},
	"etl":              {"data"},
	"spark":            {"data"},
	"airflow":          {"data"},
	"sql":              {"data", "backend"},
	"analytics":        {"data"},
	"tableau":          {"data"},
	"looker":           {"data"},

	// security
	"oauth":            {"security", "auth"},
	"authentication":   {"security", "auth"},
	"authorization":    {"security", "auth"},
	"compliance":       {"security", "compliance"},
	"soc2":             {"security", "compliance"},
	"gdpr":             {"security", "compliance"},
	"hipaa":            {"security", "compliance"},
	"threat":           {"security"},
	"vulnerability":    {"security"},
	"penetration test": {"security"},
	"security audit":   {"security"},
	"encryption":       {"security"},
	"ssl":              {"security"},
	"tls":              {"security"},

	// research
	"paper":       {"research"},
	"publication": {"research"},
	"conference":  {"research"},
	"journal":     {"research"},
	"phd":         {"research"},
	"research":    {"research"},
	"experiment":  {"research", "data"},

	// languages
	"python":      {"backend", "data"},
	"java":        {"backend"},
	"go":          {"backend"},
	"golang":      {"backend"},
	"rust":        {"backend"},
	"c++":         {"backend"},
	"c#":          {"backend"},
	"ruby":        {"backend"},
	"php":         {"backend"},
	"swift":       {"mobile"},
	"kotlin":      {"mobile"},
	"objective-c": {"mobile"},

	// mobile
	"ios":          {"mobile"},
	"android":      {"mobile"},
	"mobile":       {"mobile"},
	"react native": {"mobile"},
	"flutter":      {"mobile"},

	// testing
	"testing":          {"testing"},
	"pytest":           {"testing"},
	"jest":             {"testing"},
	"unit test":        {"testing"},
	"integration test": {"testing"},
	"e2e":              {"testing"},

	// observability
	"monitoring": {"observability"},
	"logging":    {"observability"},
	"tracing":    {"observability"},
	"datadog":    {"observability"},
	"prometheus": {"observability"},
	"grafana":    {"observability"},
	"splunk":     {"observability"},
	"new relic":  {"observability"},

	// people and product
	"lead":             {"leadership"},
	"manage":           {"leadership"},
	"mentor":           {"leadership"},
	"team":             {"collaboration"},
	"cross-functional": {"collaboration"},
	"stakeholders":     {"collaboration"},
	"product":          {"product"},
	"user research":    {"product"},
	"customer-facing":  {"product"},
	"product managers": {"product", "collaboration"},
}
