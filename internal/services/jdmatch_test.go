package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/match"
)

func jmCand(sim float64, section match.SectionType, content string) match.Candidate {
	th := testMatchConfig().Thresholds
	return match.Candidate{
		CvChunkID:   uuid.New(),
		SectionID:   uuid.New(),
		SectionType: section,
		Content:     content,
		Similarity:  sim,
		Weight:      match.SectionWeight(section),
		Band:        match.ClassifyBand(sim, th),
	}
}

func jmChunk(ruleChunkContent string, cands ...match.Candidate) ChunkEvidence {
	ce := ChunkEvidence{
		RuleChunkID:      uuid.New(),
		RuleChunkContent: ruleChunkContent,
		Candidates:       cands,
		BestBand:         match.BandNoEvidence,
	}
	if len(cands) > 0 {
		best := cands[0]
		ce.Best = &best
		ce.BestBand = best.Band
	}
	return ce
}

func jmRule(ruleType match.RuleType, content string, chunks ...ChunkEvidence) RuleEvidence {
	ev := RuleEvidence{
		RuleID:        uuid.New(),
		RuleKey:       content,
		RuleType:      ruleType,
		RuleContent:   content,
		ChunkEvidence: chunks,
	}
	var bands []match.Band
	for _, ce := range chunks {
		bands = append(bands, ce.BestBand)
		if ce.Best != nil && (ev.BestMatch == nil || match.Less(*ce.Best, *ev.BestMatch)) {
			b := *ce.Best
			ev.BestMatch = &b
		}
		for _, c := range ce.Candidates {
			if c.Similarity >= testMatchConfig().Thresholds.Low {
				ev.CandidateCount++
			}
		}
	}
	ev.Result = match.AggregateRuleResult(bands)
	return ev
}

func newJdMatchForTest(sem *fakeSemanticEvaluator, judge JudgeService) JdMatchService {
	cfg := testMatchConfig()
	log := testLogger()
	if judge == nil {
		judge = &fakeJudgeService{}
	}
	return NewJdMatchService(log, cfg, sem, judge, NewGapDetector(log), NewSuggestionGenerator(log))
}

func TestJdMatchHighSimilarityIsFull(t *testing.T) {
	rule := jmRule(match.RuleMustHave, "Go backend experience",
		jmChunk("Go backend", jmCand(0.92, match.SectionExperience, "Built Go microservices at Acme")))
	sem := &fakeSemanticEvaluator{jdResult: &SemanticResult{Results: []RuleEvidence{rule}}}

	res, err := newJdMatchForTest(sem, nil).Evaluate(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	rm := res.MatchTrace[0]
	if rm.MatchStatus != match.StatusFull {
		t.Fatalf("status=%s, want FULL", rm.MatchStatus)
	}
	if rm.Score != 1.0 || rm.WeightedScore != 3.0 {
		t.Fatalf("score=%v weighted=%v, want 1.0/3.0", rm.Score, rm.WeightedScore)
	}
	if res.Level != LevelStrongMatch {
		t.Fatalf("level=%s, want STRONG_MATCH", res.Level)
	}
	if res.Scores.MustCoverage != 100 {
		t.Fatalf("must coverage=%v, want 100", res.Scores.MustCoverage)
	}
	if len(res.Gaps) != 0 {
		t.Fatalf("gaps=%d, want none for HIGH evidence", len(res.Gaps))
	}
}

func TestJdMatchSectionUpgrade(t *testing.T) {
	// Borderline PROJECTS evidence with corroboration upgrades PARTIAL to FULL.
	rule := jmRule(match.RuleMustHave, "Kubernetes experience",
		jmChunk("Kubernetes",
			jmCand(0.72, match.SectionProjects, "Deployed the service to a Kubernetes cluster"),
			jmCand(0.65, match.SectionProjects, "Wrote Helm charts for releases")))
	sem := &fakeSemanticEvaluator{jdResult: &SemanticResult{Results: []RuleEvidence{rule}}}

	res, err := newJdMatchForTest(sem, nil).Evaluate(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	rm := res.MatchTrace[0]
	if !rm.SectionUpgradeApplied {
		t.Fatalf("upgrade did not fire: %+v", rm)
	}
	if rm.MatchStatus != match.StatusFull {
		t.Fatalf("status=%s, want FULL after upgrade", rm.MatchStatus)
	}
	if rm.UpgradeFromSection != match.SectionProjects {
		t.Fatalf("upgrade section=%s, want PROJECTS", rm.UpgradeFromSection)
	}
	if rm.MultiMentionBoost {
		t.Fatalf("boost flagged on a rule already FULL via upgrade")
	}
	if rm.JudgeUsed {
		t.Fatalf("judge marked used while disabled")
	}
}

func TestJdMatchJudgeDowngrade(t *testing.T) {
	chunkA := jmChunk("CI/CD pipelines", jmCand(0.55, match.SectionExperience, "Maintained build scripts"))
	chunkB := jmChunk("infrastructure as code", jmCand(0.50, match.SectionExperience, "Edited YAML configs"))
	rule := jmRule(match.RuleNiceToHave, "DevOps tooling", chunkA, chunkB)
	sem := &fakeSemanticEvaluator{jdResult: &SemanticResult{Results: []RuleEvidence{rule}}}

	// Both chunks are AMBIGUOUS, so both go to the judge in trace order.
	judge := &fakeJudgeService{outcomes: map[int]JudgeOutcome{
		0: {Used: true, Result: &JudgeVerdict{Status: match.StatusPartial, Reason: "related", Confidence: "medium"}},
		1: {Used: true, Result: &JudgeVerdict{Status: match.StatusNone, Reason: "no real evidence", Confidence: "high"}},
	}}

	res, err := newJdMatchForTest(sem, judge).Evaluate(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	rm := res.MatchTrace[0]
	if !rm.JudgeUsed {
		t.Fatalf("judge not marked used")
	}
	if !rm.JudgeDowngraded || rm.MatchStatus != match.StatusNone {
		t.Fatalf("status=%s downgraded=%v, want NONE via judge downgrade", rm.MatchStatus, rm.JudgeDowngraded)
	}
	if rm.ChunkEvidence[1].OriginalBand != match.BandAmbiguous || rm.ChunkEvidence[1].BestBand != match.BandLow {
		t.Fatalf("judged chunk bands=%s/%s, want AMBIGUOUS original, LOW effective",
			rm.ChunkEvidence[1].OriginalBand, rm.ChunkEvidence[1].BestBand)
	}

	// Gap severities follow the effective bands: the rejected chunk is a
	// minor gap, the still-ambiguous one an advisory.
	if res.GapSummary.Minor != 1 || res.GapSummary.Advisory != 1 || res.GapSummary.Critical != 0 {
		t.Fatalf("gap summary=%+v", res.GapSummary)
	}
	for _, g := range res.Gaps {
		if g.Band == match.BandLow && !strings.Contains(g.Reason, "50%") {
			t.Fatalf("low gap reason=%q, want 50%% similarity", g.Reason)
		}
	}
}

func TestJdMatchUpgradeBeatsDowngrade(t *testing.T) {
	// The best chunk's judge said PARTIAL; a secondary chunk's judge said
	// NONE. The section upgrade fires on the best chunk and the downgrade
	// must then stay silent.
	chunkA := jmChunk("Kubernetes",
		jmCand(0.72, match.SectionProjects, "Deployed to Kubernetes"),
		jmCand(0.65, match.SectionProjects, "Helm chart work"))
	chunkB := jmChunk("service mesh", jmCand(0.45, match.SectionSkills, "Istio listed"))
	rule := jmRule(match.RuleMustHave, "Kubernetes and service mesh", chunkA, chunkB)
	sem := &fakeSemanticEvaluator{jdResult: &SemanticResult{Results: []RuleEvidence{rule}}}

	judge := &fakeJudgeService{outcomes: map[int]JudgeOutcome{
		0: {Used: true, Result: &JudgeVerdict{Status: match.StatusPartial, Reason: "close", Confidence: "medium"}},
		1: {Used: true, Result: &JudgeVerdict{Status: match.StatusNone, Reason: "keyword only", Confidence: "high"}},
	}}

	res, err := newJdMatchForTest(sem, judge).Evaluate(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	rm := res.MatchTrace[0]
	if !rm.SectionUpgradeApplied || rm.MatchStatus != match.StatusFull {
		t.Fatalf("status=%s upgraded=%v, want FULL via upgrade", rm.MatchStatus, rm.SectionUpgradeApplied)
	}
	if rm.JudgeDowngraded {
		t.Fatalf("downgrade fired after the upgrade")
	}
}

func TestJdMatchExplicitNoneBlocksUpgrade(t *testing.T) {
	rule := jmRule(match.RuleMustHave, "Kubernetes experience",
		jmChunk("Kubernetes",
			jmCand(0.72, match.SectionProjects, "Mentioned Kubernetes in passing"),
			jmCand(0.65, match.SectionProjects, "Docker compose work")))
	sem := &fakeSemanticEvaluator{jdResult: &SemanticResult{Results: []RuleEvidence{rule}}}

	judge := &fakeJudgeService{outcomes: map[int]JudgeOutcome{
		0: {Used: true, Result: &JudgeVerdict{Status: match.StatusNone, Reason: "name-drop only", Confidence: "high"}},
	}}

	res, err := newJdMatchForTest(sem, judge).Evaluate(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	rm := res.MatchTrace[0]
	if rm.SectionUpgradeApplied {
		t.Fatalf("upgrade fired against an explicit judge NONE on the best chunk")
	}
	if rm.MatchStatus == match.StatusFull {
		t.Fatalf("status=%s, judge NONE must not end FULL here", rm.MatchStatus)
	}
}

func TestJdMatchMultiMentionBoost(t *testing.T) {
	rule := jmRule(match.RuleNiceToHave, "SQL databases",
		jmChunk("SQL",
			jmCand(0.55, match.SectionExperience, "Postgres queries"),
			jmCand(0.50, match.SectionProjects, "MySQL schema design"),
			jmCand(0.45, match.SectionSkills, "SQL listed"),
			jmCand(0.42, match.SectionEducation, "Database systems course")))
	sem := &fakeSemanticEvaluator{jdResult: &SemanticResult{Results: []RuleEvidence{rule}}}

	res, err := newJdMatchForTest(sem, nil).Evaluate(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	rm := res.MatchTrace[0]
	if !rm.MultiMentionBoost || rm.MatchStatus != match.StatusFull {
		t.Fatalf("status=%s boost=%v, want FULL via four medium mentions", rm.MatchStatus, rm.MultiMentionBoost)
	}
	if rm.MentionDetails.Medium != 4 || rm.MentionDetails.High != 0 {
		t.Fatalf("mention details=%+v, want 4 medium", rm.MentionDetails)
	}
	if rm.MultiMentionCount != 4 {
		t.Fatalf("mention count=%d, want 4", rm.MultiMentionCount)
	}
}

func TestJdMatchNoBoostBelowThresholds(t *testing.T) {
	rule := jmRule(match.RuleNiceToHave, "GraphQL",
		jmChunk("GraphQL",
			jmCand(0.55, match.SectionExperience, "REST APIs"),
			jmCand(0.50, match.SectionProjects, "JSON endpoints")))
	sem := &fakeSemanticEvaluator{jdResult: &SemanticResult{Results: []RuleEvidence{rule}}}

	res, err := newJdMatchForTest(sem, nil).Evaluate(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	rm := res.MatchTrace[0]
	if rm.MultiMentionBoost {
		t.Fatalf("boost fired with only two medium mentions")
	}
	if rm.MatchStatus != match.StatusPartial {
		t.Fatalf("status=%s, want PARTIAL", rm.MatchStatus)
	}
	if rm.Score != 0.5 || rm.WeightedScore != 1.0 {
		t.Fatalf("score=%v weighted=%v, want 0.5/1.0", rm.Score, rm.WeightedScore)
	}
}

func TestJdMatchEmptyTraceIsLowMatch(t *testing.T) {
	sem := &fakeSemanticEvaluator{jdResult: &SemanticResult{Results: []RuleEvidence{}}}
	res, err := newJdMatchForTest(sem, nil).Evaluate(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Level != LevelLowMatch {
		t.Fatalf("level=%s, want LOW_MATCH with no matchable rules", res.Level)
	}
	if res.Scores.MustCoverage != 100 || res.Scores.Total != 100 {
		t.Fatalf("scores=%+v, want vacuous 100s", res.Scores)
	}
	if len(res.Gaps) != 0 || len(res.Suggestions) != 0 {
		t.Fatalf("gaps=%d suggestions=%d, want none", len(res.Gaps), len(res.Suggestions))
	}
}

func TestScoreTraceLevels(t *testing.T) {
	svc := &jdMatchService{cfg: testMatchConfig()}
	mk := func(rt match.RuleType, status match.Status) RuleMatch {
		score := statusScore(status)
		return RuleMatch{
			RuleType:      rt,
			MatchStatus:   status,
			Score:         score,
			WeightedScore: score * svc.cfg.RuleTypeMultipliers[rt],
		}
	}

	_, level := svc.scoreTrace([]RuleMatch{mk(match.RuleMustHave, match.StatusFull)})
	if level != LevelStrongMatch {
		t.Fatalf("all-full level=%s, want STRONG_MATCH", level)
	}

	// One FULL and one PARTIAL MUST: weighted rate 0.75, must rate 0.75.
	scores, level := svc.scoreTrace([]RuleMatch{
		mk(match.RuleMustHave, match.StatusFull),
		mk(match.RuleMustHave, match.StatusPartial),
	})
	if level != LevelGoodMatch {
		t.Fatalf("level=%s (scores=%+v), want GOOD_MATCH", level, scores)
	}

	_, level = svc.scoreTrace([]RuleMatch{mk(match.RuleMustHave, match.StatusPartial)})
	if level != LevelPartialMatch {
		t.Fatalf("half-credit level=%s, want PARTIAL_MATCH", level)
	}

	_, level = svc.scoreTrace([]RuleMatch{mk(match.RuleMustHave, match.StatusNone)})
	if level != LevelLowMatch {
		t.Fatalf("all-none level=%s, want LOW_MATCH", level)
	}

	// No MUST rules: the must-have rate defaults to satisfied.
	scores, level = svc.scoreTrace([]RuleMatch{mk(match.RuleBestPractice, match.StatusFull)})
	if scores.MustHaveScoreRate != 1.0 || level != LevelStrongMatch {
		t.Fatalf("no-must scores=%+v level=%s, want rate 1.0 and STRONG_MATCH", scores, level)
	}
}

func TestScoreTraceEmptyUsesConfiguredWeights(t *testing.T) {
	cfg := testMatchConfig()
	cfg.ScoreWeights = map[match.RuleType]float64{
		match.RuleMustHave:     0.4,
		match.RuleNiceToHave:   0.2,
		match.RuleBestPractice: 0.2,
	}
	svc := &jdMatchService{cfg: cfg}

	scores, level := svc.scoreTrace(nil)
	if scores.MustCoverage != 100 || scores.NiceCoverage != 100 || scores.BestCoverage != 100 {
		t.Fatalf("scores=%+v, want vacuous 100 coverage", scores)
	}
	if scores.Total != 80 {
		t.Fatalf("total=%v, want 80 from the configured weights", scores.Total)
	}
	if level != LevelLowMatch {
		t.Fatalf("level=%s, want LOW_MATCH", level)
	}
}
