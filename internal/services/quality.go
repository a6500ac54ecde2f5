package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/match"
	"github.com/cvready/cvready-backend/internal/repos"
	"github.com/cvready/cvready-backend/internal/types"
)

type QualityDecision string

const (
	DecisionReady            QualityDecision = "READY"
	DecisionNeedsImprovement QualityDecision = "NEEDS_IMPROVEMENT"
	DecisionNotReady         QualityDecision = "NOT_READY"
)

type QualityFinding struct {
	RuleID   string         `json:"rule_id"`
	Category match.RuleType `json:"category"`
	Passed   bool           `json:"passed"`
	Severity string         `json:"severity"` // critical|warning|info
	Reason   string         `json:"reason"`
	Evidence []string       `json:"evidence"`
}

type QualityScores struct {
	MustHave     float64 `json:"must_have"`
	NiceToHave   float64 `json:"nice_to_have"`
	BestPractice float64 `json:"best_practice"`
	Total        float64 `json:"total"`
}

type QualityResult struct {
	Decision       QualityDecision  `json:"decision"`
	Findings       []QualityFinding `json:"findings"`
	Scores         QualityScores    `json:"scores"`
	RuleSetVersion string           `json:"rule_set_version,omitempty"`
}

type QualityService interface {
	Evaluate(ctx context.Context, cvID uuid.UUID, includeSemantic bool) (*QualityResult, error)
}

type qualityService struct {
	log      *logger.Logger
	cfg      MatchConfig
	cvRepo   repos.CvRepo
	semantic SemanticEvaluator
}

func NewQualityService(log *logger.Logger, cfg MatchConfig, cvRepo repos.CvRepo, semantic SemanticEvaluator) QualityService {
	return &qualityService{
		log:      log.With("service", "QualityService"),
		cfg:      cfg,
		cvRepo:   cvRepo,
		semantic: semantic,
	}
}

// Structural detectors. Each is a pure predicate over the loaded CV; the
// collection is a flat slice of rule values, evaluated in order.
var (
	emailRe      = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe      = regexp.MustCompile(`(\+?\d[\d\s\-().]{7,}\d)`)
	linkedinRe   = regexp.MustCompile(`(?i)linkedin\.com/in/[\w\-]+`)
	githubRe     = regexp.MustCompile(`(?i)github\.com/[\w\-]+`)
	urlRe        = regexp.MustCompile(`(?i)https?://[^\s]+|www\.[^\s]+`)
	dateRe       = regexp.MustCompile(`(?i)\b(19|20)\d{2}\b|\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{4}`)
	degreeRe     = regexp.MustCompile(`(?i)\b(b\.?\s?tech|m\.?\s?tech|b\.?\s?sc|m\.?\s?sc|b\.?\s?e|b\.?\s?a|m\.?\s?a|mba|bca|mca|bachelor|master|diploma|ph\.?d)\b`)
	metricRe     = regexp.MustCompile(`\d+(\.\d+)?\s*%|\b\d+[kKxX]\b|\$\s?\d+|\b\d{2,}\b`)
	quantifierRe = regexp.MustCompile(`(?i)\b(increased|decreased|reduced|improved|grew|saved|led|managed|delivered|achieved|boosted|optimi[sz]ed)\b`)
)

type structuralRule struct {
	ruleKey  string
	category match.RuleType
	severity string
	evaluate func(cv *types.CV) (passed bool, reason string, evidence []string)
}

func structuralRules() []structuralRule {
	return []structuralRule{
		{
			ruleKey: "structural.section.education", category: match.RuleMustHave, severity: "critical",
			evaluate: sectionPresent(match.SectionEducation, "an EDUCATION section"),
		},
		{
			ruleKey: "structural.section.experience-or-projects", category: match.RuleMustHave, severity: "critical",
			evaluate: func(cv *types.CV) (bool, string, []string) {
				if hasSection(cv, match.SectionExperience) || hasSection(cv, match.SectionProjects) {
					return true, "CV has an EXPERIENCE or PROJECTS section", nil
				}
				return false, "CV has neither an EXPERIENCE nor a PROJECTS section", nil
			},
		},
		{
			ruleKey: "structural.contact.email", category: match.RuleMustHave, severity: "critical",
			evaluate: patternPresent(emailRe, "an email address"),
		},
		{
			ruleKey: "structural.section.skills", category: match.RuleNiceToHave, severity: "warning",
			evaluate: sectionPresent(match.SectionSkills, "a SKILLS section"),
		},
		{
			ruleKey: "structural.contact.phone", category: match.RuleNiceToHave, severity: "warning",
			evaluate: patternPresent(phoneRe, "a phone number"),
		},
		{
			ruleKey: "structural.link.linkedin", category: match.RuleNiceToHave, severity: "warning",
			evaluate: patternPresent(linkedinRe, "a LinkedIn profile link"),
		},
		{
			ruleKey: "structural.link.github", category: match.RuleNiceToHave, severity: "warning",
			evaluate: patternPresent(githubRe, "a GitHub profile link"),
		},
		{
			ruleKey: "structural.dates.experience", category: match.RuleNiceToHave, severity: "warning",
			evaluate: func(cv *types.CV) (bool, string, []string) {
				text := sectionText(cv, match.SectionExperience) + " " + sectionText(cv, match.SectionProjects)
				if m := dateRe.FindString(text); m != "" {
					return true, "Experience entries carry dates", []string{m}
				}
				return false, "No dates found in experience or project entries", nil
			},
		},
		{
			ruleKey: "structural.education.degree", category: match.RuleNiceToHave, severity: "warning",
			evaluate: func(cv *types.CV) (bool, string, []string) {
				if m := degreeRe.FindString(sectionText(cv, match.SectionEducation)); m != "" {
					return true, "Education section names a degree", []string{m}
				}
				return false, "Education section does not name a recognizable degree", nil
			},
		},
		{
			ruleKey: "structural.section.summary", category: match.RuleBestPractice, severity: "info",
			evaluate: sectionPresent(match.SectionSummary, "a SUMMARY section"),
		},
		{
			ruleKey: "structural.link.any-url", category: match.RuleBestPractice, severity: "info",
			evaluate: patternPresent(urlRe, "at least one URL"),
		},
		{
			ruleKey: "structural.metrics.present", category: match.RuleBestPractice, severity: "info",
			evaluate: patternPresent(metricRe, "a quantified metric"),
		},
		{
			ruleKey: "structural.quantifiers.present", category: match.RuleBestPractice, severity: "info",
			evaluate: patternPresent(quantifierRe, "an impact verb"),
		},
	}
}

func sectionPresent(st match.SectionType, label string) func(cv *types.CV) (bool, string, []string) {
	return func(cv *types.CV) (bool, string, []string) {
		if hasSection(cv, st) {
			return true, "CV has " + label, nil
		}
		return false, "CV is missing " + label, nil
	}
}

func patternPresent(re *regexp.Regexp, label string) func(cv *types.CV) (bool, string, []string) {
	return func(cv *types.CV) (bool, string, []string) {
		if m := re.FindString(cvText(cv)); m != "" {
			return true, "CV contains " + label, []string{m}
		}
		return false, "CV does not contain " + label, nil
	}
}

func hasSection(cv *types.CV, st match.SectionType) bool {
	for _, s := range cv.Sections {
		if s.Type == st {
			return true
		}
	}
	return false
}

func sectionText(cv *types.CV, st match.SectionType) string {
	var b strings.Builder
	for _, s := range cv.Sections {
		if s.Type != st {
			continue
		}
		for _, c := range s.Chunks {
			b.WriteString(c.Content)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func cvText(cv *types.CV) string {
	var b strings.Builder
	for _, s := range cv.Sections {
		for _, c := range s.Chunks {
			b.WriteString(c.Content)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *qualityService) Evaluate(ctx context.Context, cvID uuid.UUID, includeSemantic bool) (*QualityResult, error) {
	cv, err := s.cvRepo.GetWithSectionsAndChunks(ctx, nil, cvID)
	if err != nil {
		return nil, fmt.Errorf("load cv: %w", err)
	}
	if cv == nil {
		return nil, ErrCvNotFound
	}

	findings := make([]QualityFinding, 0, 16)
	for _, rule := range structuralRules() {
		passed, reason, evidence := rule.evaluate(cv)
		if evidence == nil {
			evidence = []string{}
		}
		findings = append(findings, QualityFinding{
			RuleID:   rule.ruleKey,
			Category: rule.category,
			Passed:   passed,
			Severity: rule.severity,
			Reason:   reason,
			Evidence: evidence,
		})
	}

	version := ""
	if includeSemantic {
		semRes, set, err := s.semantic.EvaluateCvQualityRules(ctx, cvID, s.cfg.QualityRuleSetKey)
		if err != nil {
			return nil, err
		}
		if set != nil {
			version = set.Version
			severityByRule := make(map[uuid.UUID]string, len(set.Rules))
			for _, r := range set.Rules {
				severityByRule[r.ID] = r.Severity
			}
			for _, ev := range semRes.Results {
				findings = append(findings, semanticFinding(cv, ev, severityByRule[ev.RuleID]))
			}
		}
	}

	result := &QualityResult{
		Decision:       decide(findings),
		Findings:       findings,
		Scores:         scoreFindings(findings),
		RuleSetVersion: version,
	}
	return result, nil
}

func semanticFinding(cv *types.CV, ev RuleEvidence, severity string) QualityFinding {
	passed := ev.Result == match.StatusFull || ev.Result == match.StatusPartial

	var reason string
	var evidence []string
	if ev.BestMatch != nil {
		reason = fmt.Sprintf("Best evidence at similarity %.2f (band %s) in %s", ev.BestMatch.Similarity, ev.BestMatch.Band, ev.BestMatch.SectionType)
		evidence = []string{ev.BestMatch.Content}
	} else {
		reason = "No evidence found above the similarity floor"
		evidence = []string{closestSectionName(cv)}
	}
	if severity == "" {
		severity = "warning"
	}
	return QualityFinding{
		RuleID:   ev.RuleKey,
		Category: ev.RuleType,
		Passed:   passed,
		Severity: severity,
		Reason:   reason,
		Evidence: evidence,
	}
}

// closestSectionName names the first section in document order, which is the
// most useful anchor when a rule produced no candidate at all.
func closestSectionName(cv *types.CV) string {
	if len(cv.Sections) == 0 {
		return "(no sections)"
	}
	return string(cv.Sections[0].Type)
}

// decide applies the readiness rule: any failed MUST_HAVE blocks outright,
// too many failed NICE_TO_HAVE or BEST_PRACTICE findings demand improvement.
func decide(findings []QualityFinding) QualityDecision {
	var niceFailed, bestFailed int
	for _, f := range findings {
		if f.Passed {
			continue
		}
		switch f.Category {
		case match.RuleMustHave:
			return DecisionNotReady
		case match.RuleNiceToHave:
			niceFailed++
		case match.RuleBestPractice:
			bestFailed++
		}
	}
	if niceFailed > 2 || bestFailed > 3 {
		return DecisionNeedsImprovement
	}
	return DecisionReady
}

func scoreFindings(findings []QualityFinding) QualityScores {
	counts := map[match.RuleType][2]int{} // passed, total
	for _, f := range findings {
		c := counts[f.Category]
		if f.Passed {
			c[0]++
		}
		c[1]++
		counts[f.Category] = c
	}
	pct := func(rt match.RuleType) float64 {
		c := counts[rt]
		if c[1] == 0 {
			return 100
		}
		return 100 * float64(c[0]) / float64(c[1])
	}
	scores := QualityScores{
		MustHave:     pct(match.RuleMustHave),
		NiceToHave:   pct(match.RuleNiceToHave),
		BestPractice: pct(match.RuleBestPractice),
	}
	scores.Total = round2(0.5*scores.MustHave + 0.3*scores.NiceToHave + 0.2*scores.BestPractice)
	return scores
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
