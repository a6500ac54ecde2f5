package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/match"
	"github.com/cvready/cvready-backend/internal/types"
)

func buildCV(userID uuid.UUID, sections map[match.SectionType][]string) *types.CV {
	cv := &types.CV{ID: uuid.New(), UserID: userID, Status: types.CvStatusParsed}
	order := 0
	for _, st := range []match.SectionType{
		match.SectionSummary, match.SectionExperience, match.SectionProjects,
		match.SectionSkills, match.SectionEducation, match.SectionActivities,
	} {
		chunks, ok := sections[st]
		if !ok {
			continue
		}
		sec := &types.CvSection{ID: uuid.New(), CvID: cv.ID, Type: st, SectionOrder: order}
		order++
		for i, content := range chunks {
			sec.Chunks = append(sec.Chunks, &types.CvChunk{
				ID: uuid.New(), CvSectionID: sec.ID, ChunkOrder: i, Content: content,
			})
		}
		cv.Sections = append(cv.Sections, sec)
	}
	return cv
}

func completeCvSections() map[match.SectionType][]string {
	return map[match.SectionType][]string{
		match.SectionSummary: {
			"Final-year student seeking a backend role. jane.doe@example.com +91 98765 43210 " +
				"linkedin.com/in/janedoe github.com/janedoe https://janedoe.dev",
		},
		match.SectionExperience: {
			"Software intern at Acme, Jun 2024 to Aug 2024. Improved API latency by 40% across 12 endpoints.",
		},
		match.SectionProjects: {
			"Built a URL shortener in Go handling 500 requests per second, reduced storage cost by 30%.",
		},
		match.SectionSkills:    {"Go, PostgreSQL, Docker, Redis"},
		match.SectionEducation: {"B.Tech in Computer Science, 2021-2025, CGPA 8.4"},
	}
}

func newQualityForTest(cvs ...*types.CV) (QualityService, *fakeSemanticEvaluator) {
	sem := &fakeSemanticEvaluator{}
	repo := newFakeCvRepo(cvs...)
	return NewQualityService(testLogger(), testMatchConfig(), repo, sem), sem
}

func TestStructuralEvaluateCompleteCv(t *testing.T) {
	cv := buildCV(uuid.New(), completeCvSections())
	svc, _ := newQualityForTest(cv)

	res, err := svc.Evaluate(context.Background(), cv.ID, false)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Decision != DecisionReady {
		for _, f := range res.Findings {
			if !f.Passed {
				t.Logf("failed finding: %s (%s)", f.RuleID, f.Reason)
			}
		}
		t.Fatalf("decision=%s, want READY", res.Decision)
	}
	if res.Scores.MustHave != 100 {
		t.Fatalf("must-have score=%v, want 100", res.Scores.MustHave)
	}
	if res.Scores.Total != 100 {
		t.Fatalf("total score=%v, want 100", res.Scores.Total)
	}
}

func TestStructuralMissingEducationBlocks(t *testing.T) {
	sections := completeCvSections()
	delete(sections, match.SectionEducation)
	cv := buildCV(uuid.New(), sections)
	svc, _ := newQualityForTest(cv)

	res, err := svc.Evaluate(context.Background(), cv.ID, false)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Decision != DecisionNotReady {
		t.Fatalf("decision=%s, want NOT_READY", res.Decision)
	}
	var found bool
	for _, f := range res.Findings {
		if f.RuleID == "structural.section.education" {
			found = true
			if f.Passed {
				t.Fatalf("education finding passed without an education section")
			}
		}
	}
	if !found {
		t.Fatalf("no education finding emitted")
	}
}

func TestStructuralMissingEmailBlocks(t *testing.T) {
	sections := completeCvSections()
	sections[match.SectionSummary] = []string{"Final-year student seeking a backend role."}
	cv := buildCV(uuid.New(), sections)
	svc, _ := newQualityForTest(cv)

	res, err := svc.Evaluate(context.Background(), cv.ID, false)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Decision != DecisionNotReady {
		t.Fatalf("decision=%s, want NOT_READY", res.Decision)
	}
}

func TestStructuralTooManyNiceFailuresNeedsImprovement(t *testing.T) {
	// MUST rules pass but phone, linkedin, github and skills are all absent.
	sections := map[match.SectionType][]string{
		match.SectionSummary:    {"Student, reach me at jane.doe@example.com"},
		match.SectionExperience: {"Intern at Acme, Jun 2024. Improved latency by 40%."},
		match.SectionEducation:  {"B.Tech in Computer Science, 2025"},
	}
	cv := buildCV(uuid.New(), sections)
	svc, _ := newQualityForTest(cv)

	res, err := svc.Evaluate(context.Background(), cv.ID, false)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Decision != DecisionNeedsImprovement {
		t.Fatalf("decision=%s, want NEEDS_IMPROVEMENT", res.Decision)
	}
}

func TestEvaluateUnknownCv(t *testing.T) {
	svc, _ := newQualityForTest()
	if _, err := svc.Evaluate(context.Background(), uuid.New(), false); err != ErrCvNotFound {
		t.Fatalf("err=%v, want ErrCvNotFound", err)
	}
}

func TestSemanticFindingsMergedIntoDecision(t *testing.T) {
	cv := buildCV(uuid.New(), completeCvSections())
	svc, sem := newQualityForTest(cv)

	ruleID := uuid.New()
	sem.qualitySet = &types.RuleSet{
		Key:     "cv-quality-student-fresher",
		Version: "1.0.0",
		Rules: []*types.CvQualityRule{
			{ID: ruleID, RuleKey: "semantic.impact", Category: match.RuleMustHave, Severity: "critical"},
		},
	}
	sem.qualityResult = &SemanticResult{
		Results: []RuleEvidence{
			{
				RuleID:   ruleID,
				RuleKey:  "semantic.impact",
				RuleType: match.RuleMustHave,
				Result:   match.StatusNoEvidence,
			},
		},
	}

	res, err := svc.Evaluate(context.Background(), cv.ID, true)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.RuleSetVersion != "1.0.0" {
		t.Fatalf("rule set version=%q, want 1.0.0", res.RuleSetVersion)
	}
	// A failed semantic MUST_HAVE blocks just like a structural one.
	if res.Decision != DecisionNotReady {
		t.Fatalf("decision=%s, want NOT_READY", res.Decision)
	}
	last := res.Findings[len(res.Findings)-1]
	if last.RuleID != "semantic.impact" || last.Passed {
		t.Fatalf("semantic finding not appended or wrongly passed: %+v", last)
	}
	if last.Severity != "critical" {
		t.Fatalf("severity=%q, want critical", last.Severity)
	}
	if !strings.Contains(last.Reason, "No evidence") {
		t.Fatalf("reason=%q, want no-evidence wording", last.Reason)
	}
}

func TestSemanticFindingPassesOnPartial(t *testing.T) {
	cv := buildCV(uuid.New(), completeCvSections())
	best := match.Candidate{
		CvChunkID:   uuid.New(),
		SectionType: match.SectionProjects,
		Content:     "Built a URL shortener in Go",
		Similarity:  0.55,
		Band:        match.BandAmbiguous,
	}
	f := semanticFinding(cv, RuleEvidence{
		RuleKey:   "semantic.projects",
		RuleType:  match.RuleNiceToHave,
		Result:    match.StatusPartial,
		BestMatch: &best,
	}, "warning")
	if !f.Passed {
		t.Fatalf("PARTIAL semantic result should pass")
	}
	if !strings.Contains(f.Reason, "0.55") || !strings.Contains(f.Reason, "PROJECTS") {
		t.Fatalf("reason=%q missing similarity or section", f.Reason)
	}
	if len(f.Evidence) != 1 || f.Evidence[0] != best.Content {
		t.Fatalf("evidence=%v, want best content", f.Evidence)
	}
}

func TestScoreFindingsWeighting(t *testing.T) {
	findings := []QualityFinding{
		{Category: match.RuleMustHave, Passed: true},
		{Category: match.RuleMustHave, Passed: true},
		{Category: match.RuleNiceToHave, Passed: true},
		{Category: match.RuleNiceToHave, Passed: false},
		{Category: match.RuleBestPractice, Passed: false},
	}
	scores := scoreFindings(findings)
	if scores.MustHave != 100 || scores.NiceToHave != 50 || scores.BestPractice != 0 {
		t.Fatalf("scores=%+v", scores)
	}
	// 0.5*100 + 0.3*50 + 0.2*0
	if scores.Total != 65 {
		t.Fatalf("total=%v, want 65", scores.Total)
	}
}

func TestDecideEdgeCounts(t *testing.T) {
	nice := func(n int) []QualityFinding {
		out := make([]QualityFinding, n)
		for i := range out {
			out[i] = QualityFinding{Category: match.RuleNiceToHave, Passed: false}
		}
		return out
	}
	if got := decide(nice(2)); got != DecisionReady {
		t.Fatalf("2 nice failures=%s, want READY", got)
	}
	if got := decide(nice(3)); got != DecisionNeedsImprovement {
		t.Fatalf("3 nice failures=%s, want NEEDS_IMPROVEMENT", got)
	}
	best := func(n int) []QualityFinding {
		out := make([]QualityFinding, n)
		for i := range out {
			out[i] = QualityFinding{Category: match.RuleBestPractice, Passed: false}
		}
		return out
	}
	if got := decide(best(3)); got != DecisionReady {
		t.Fatalf("3 best-practice failures=%s, want READY", got)
	}
	if got := decide(best(4)); got != DecisionNeedsImprovement {
		t.Fatalf("4 best-practice failures=%s, want NEEDS_IMPROVEMENT", got)
	}
}
