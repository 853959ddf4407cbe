package scoring

import (
	"regexp"
	"strings"
	"unicode"

	"alfredoptarigan/resume-rubric/internal/resume"
)

// Predicate is a pure test over one bullet.
type Predicate func(resume.Bullet) bool

// Check is a registered signal. A bullet check counts once per bullet. A
// coverage check counts once per resume and passes when at least one bullet
// satisfies the predicate and the satisfying share reaches MinShare.
type Check struct {
	Pass     Predicate
	Coverage bool
	MinShare float64
}

// BulletCheck registers pass as a per-bullet check.
func BulletCheck(pass Predicate) Check {
	return Check{Pass: pass}
}

// CoverageCheck registers pass as a resume-level check.
func CoverageCheck(pass Predicate, minShare float64) Check {
	return Check{Pass: pass, Coverage: true, MinShare: minShare}
}

// Registry maps signal ids to checks. Signals without an entry are not applicable.
type Registry map[string]Check

// Has reports whether a signal has a registered check.
func (r Registry) Has(signal string) bool {
	_, ok := r[signal]
	return ok
}

var (
	buzzwordRe    = regexp.MustCompile(`(?i)\b(synergy|leverag\w*|utiliz\w*|dynamic|innovative|cutting-edge|world-class|best-in-class|disruptive|rockstar|ninja|thought leader)\b`)
	fillerRe      = regexp.MustCompile(`(?i)\b(responsible for|various|helped with|duties included|worked on|tasked with|assisted with)\b`)
	obviousRe     = regexp.MustCompile(`(?i)\b(team player|hard[- ]working|hard worker|detail[- ]oriented|self[- ]starter|fast learner|go-getter)\b`)
	superlativeRe = regexp.MustCompile(`(?i)\b(best|greatest|unparalleled|unmatched|world's|revolutionary|revolutioniz\w*|single-handedly|massively|tremendously|exceptional)\b`)
	strongClaimRe = regexp.MustCompile(`(?i)\b(significantly|dramatically|drastically|greatly|substantially|massively|hugely|transformed)\b`)
	timeframeRe   = regexp.MustCompile(`(?i)\b(in|within|over|under|after)\s+\d+\s*(days?|weeks?|months?|quarters?|years?|hours?|sprints?)\b|\b(19|20)\d{2}\b|\bq[1-4]\b`)
	scaleRe       = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s*(k|m|b|million|billion|thousand)?\s*(users|customers|requests|rps|qps|tps|transactions|events|records|rows|servers|nodes|services|engineers|tb|gb|pb)\b|\bat scale\b|\bhigh[- ]traffic\b`)
	userRe        = regexp.MustCompile(`(?i)\b(users?|customers?|clients?|members|subscribers|patients|players|merchants)\b`)
	perfRe        = regexp.MustCompile(`(?i)\b(latency|throughput|performance|faster|speed\w*|load time|p9\d|response time|uptime|availability)\b`)
	costRe        = regexp.MustCompile(`(?i)\b(cost|costs|spend|savings?|saved|budget)\b|\$\s?\d`)
	timeSavedRe   = regexp.MustCompile(`(?i)\b(hours?|days?|weeks?|time)\b.*\b(saved|saving|reduced|cut|faster)\b|\b(saved|saving|reduced|cut)\b.*\b(hours?|days?|weeks?|time)\b|\bautomat\w*`)
	archRe        = regexp.MustCompile(`(?i)\b(microservices?|distributed|event[- ]driven|architecture|serverless|pipelines?|apis?|monolith|message queues?|streaming)\b`)
	autonomyRe    = regexp.MustCompile(`(?i)\b(owned|led|drove|spearheaded|architected|established|initiated|independently|end[- ]to[- ]end|from scratch)\b`)
	unclearOwnRe  = regexp.MustCompile(`(?i)^(we|our team|the team)\b|^(participated|involved|was part|part of)\b`)
)

func matches(re *regexp.Regexp) Predicate {
	return func(b resume.Bullet) bool { return re.MatchString(b.Text) }
}

func keyword(pattern string) Check {
	return CoverageCheck(matches(regexp.MustCompile(`(?i)`+pattern)), 0)
}

func hasTools(b resume.Bullet) bool { return len(b.Tools) > 0 }

func wordCount(s string) int { return len(strings.Fields(s)) }

func verifiable(b resume.Bullet) bool {
	claim := strongClaimRe.MatchString(b.Text) || superlativeRe.MatchString(b.Text)
	return !claim || b.HasMetric
}

func startsUpper(b resume.Bullet) bool {
	for _, r := range b.Text {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r)
		}
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// DefaultRegistry returns the built-in signal checks. Only signals that can be
// decided from a bullet's text and metadata are registered.
func DefaultRegistry() Registry {
	return Registry{
		// clarity
		"clear_action_verbs":    BulletCheck(func(b resume.Bullet) bool { return b.HasActionVerb }),
		"specific_technologies": BulletCheck(hasTools),
		"quantified_outcomes":   BulletCheck(func(b resume.Bullet) bool { return b.HasMetric }),
		"no_jargon_overload": BulletCheck(func(b resume.Bullet) bool {
			return len(buzzwordRe.FindAllString(b.Text, -1)) <= 2
		}),
		"readable_structure": BulletCheck(func(b resume.Bullet) bool { return wordCount(b.Text) <= 40 }),

		// evidence
		"has_metrics":                 BulletCheck(func(b resume.Bullet) bool { return b.HasMetric }),
		"has_timeframes":              CoverageCheck(matches(timeframeRe), 0.2),
		"has_scale_indicators":        CoverageCheck(matches(scaleRe), 0.2),
		"specific_technologies_named": BulletCheck(hasTools),
		"verifiable_claims":           BulletCheck(verifiable),

		// impact
		"business_outcome":        BulletCheck(func(b resume.Bullet) bool { return b.HasOutcome }),
		"user_impact":             CoverageCheck(matches(userRe), 0),
		"performance_improvement": CoverageCheck(matches(perfRe), 0),
		"cost_reduction":          CoverageCheck(matches(costRe), 0),
		"time_saved":              CoverageCheck(matches(timeSavedRe), 0),

		// structure
		"consistent_formatting": BulletCheck(startsUpper),
		"appropriate_length":    BulletCheck(func(b resume.Bullet) bool { return len(b.Text) <= 200 }),

		// alignment
		"required_skills_present": CoverageCheck(hasTools, 0.3),
		"exact_tool_match":        CoverageCheck(hasTools, 0),
		"demonstrated_tool_proficiency": CoverageCheck(func(b resume.Bullet) bool {
			return hasTools(b) && b.HasActionVerb
		}, 0.3),
		"system_scale_match":         CoverageCheck(matches(scaleRe), 0),
		"architecture_pattern_match": CoverageCheck(matches(archRe), 0),
		"autonomy_indicators":        CoverageCheck(matches(autonomyRe), 0),

		// signal density
		"high_info_per_line": BulletCheck(func(b resume.Bullet) bool { return wordCount(b.Text) >= 6 }),
		"no_filler_words":    BulletCheck(func(b resume.Bullet) bool { return !fillerRe.MatchString(b.Text) }),
		"every_bullet_valuable": BulletCheck(func(b resume.Bullet) bool {
			return b.HasActionVerb || b.HasMetric || b.HasOutcome
		}),
		"no_obvious_statements": BulletCheck(func(b resume.Bullet) bool { return !obviousRe.MatchString(b.Text) }),

		// overclaim
		"claims_without_evidence": BulletCheck(verifiable),
		"extreme_superlatives":    BulletCheck(func(b resume.Bullet) bool { return !superlativeRe.MatchString(b.Text) }),
		"unclear_personal_contribution": BulletCheck(func(b resume.Bullet) bool {
			return b.HasActionVerb || !unclearOwnRe.MatchString(strings.TrimSpace(b.Text))
		}),

		// leadership
		"led_team":             keyword(`\b(led|managed|headed|built)\b.{0,40}\bteam\b|\bteam of \d+`),
		"mentored_others":      keyword(`\b(mentor\w*|coach\w*|onboard\w*|trained)\b`),
		"drove_initiative":     keyword(`\b(drove|spearheaded|initiated|championed|pioneered)\b`),
		"influenced_strategy":  keyword(`\b(strateg\w*|roadmap|vision|okrs?)\b`),
		"managed_stakeholders": keyword(`\b(stakeholders?|executives?|leadership team|c-level)\b`),

		// research
		"publications_cited":  keyword(`\b(publish\w*|papers?|journal|conference|proceedings|arxiv)\b`),
		"experimental_rigor":  keyword(`\b(experiments?|hypothes\w*|control group|ablation|benchmark\w*)\b`),
		"novel_contributions": keyword(`\b(novel|patent\w*|invent\w*|first-of-its-kind)\b`),
		"peer_review":         keyword(`\b(peer[- ]review\w*|reviewer)\b`),

		// communication
		"documentation_work":       keyword(`\b(document\w*|runbooks?|wiki|rfcs?|design docs?)\b`),
		"presentations_given":      keyword(`\b(present\w*|talks?|speaker|demo\w*|workshops?)\b`),
		"cross_team_collaboration": keyword(`\b(cross[- ]functional|partnered|collaborat\w*|across teams)\b`),
		"technical_writing":        keyword(`\b(wrote|authored|blog|articles?|guides?|tutorials?)\b`),

		// product
		"user_focus":        CoverageCheck(matches(userRe), 0),
		"product_metrics":   keyword(`\b(conversion|retention|engagement|dau|mau|nps|churn|activation)\b`),
		"feature_ownership": keyword(`\b(owned|end[- ]to[- ]end|features?|launched)\b`),
		"user_research":     keyword(`\b(user research|interviews?|usability|surveys?|user feedback)\b`),

		// data
		"statistical_methods": keyword(`\b(statistic\w*|regression|significance|bayesian|confidence intervals?|p-values?)\b`),
		"ab_testing":          keyword(`\b(a/b|ab test\w*|split test\w*|experiments?)\b`),
		"data_quality":        keyword(`\b(data quality|validation|cleaning|anomal\w*|deduplicat\w*)\b`),
		"analysis_depth":      keyword(`\b(analy[sz]\w*|insights?|cohorts?|segmentation|root cause)\b`),

		// security
		"security_practices": keyword(`\b(security|secure\w*|encrypt\w*|oauth|authentication|authorization|iam|secrets)\b`),
		"compliance_work":    keyword(`\b(compliance|soc ?2|gdpr|hipaa|pci|iso 27001)\b`),
		"threat_modeling":    keyword(`\b(threat model\w*|attack surface|risk assessments?)\b`),
		"security_audits":    keyword(`\b(audits?|penetration|pentest\w*|vulnerabilit\w*|cves?)\b`),
	}
}
