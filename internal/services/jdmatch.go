package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/match"
)

type MatchLevel string

const (
	LevelStrongMatch  MatchLevel = "STRONG_MATCH"
	LevelGoodMatch    MatchLevel = "GOOD_MATCH"
	LevelPartialMatch MatchLevel = "PARTIAL_MATCH"
	LevelLowMatch     MatchLevel = "LOW_MATCH"
)

// MatchChunkEvidence is chunk evidence after adjudication. BestBand is the
// effective band (judge-remapped when the judge answered); OriginalBand keeps
// what retrieval alone said.
type MatchChunkEvidence struct {
	ChunkEvidence
	OriginalBand match.Band    `json:"original_band"`
	Judge        *JudgeOutcome `json:"judge,omitempty"`
}

type MentionDetails struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// RuleMatch is one JD rule's full trace entry: effective chunk bands, the
// rule-level status after upgrade/downgrade/boost, and its score.
type RuleMatch struct {
	RuleID                uuid.UUID            `json:"rule_id"`
	RuleKey               string               `json:"rule_key"`
	RuleType              match.RuleType       `json:"rule_type"`
	RuleContent           string               `json:"rule_content"`
	ChunkEvidence         []MatchChunkEvidence `json:"chunk_evidence"`
	MatchStatus           match.Status         `json:"match_status"`
	BestMatch             *match.Candidate     `json:"best_match,omitempty"`
	JudgeUsed             bool                 `json:"judge_used"`
	JudgeUnavailable      bool                 `json:"judge_unavailable"`
	SectionUpgradeApplied bool                 `json:"section_upgrade_applied"`
	UpgradeFromSection    match.SectionType    `json:"upgrade_from_section,omitempty"`
	JudgeDowngraded       bool                 `json:"judge_downgraded"`
	MultiMentionCount     int                  `json:"multi_mention_count"`
	MultiMentionBoost     bool                 `json:"multi_mention_boost"`
	MentionDetails        MentionDetails       `json:"mention_details"`
	Score                 float64              `json:"score"`
	WeightedScore         float64              `json:"weighted_score"`
}

type JdScores struct {
	MustCoverage      float64 `json:"must_coverage"`
	NiceCoverage      float64 `json:"nice_coverage"`
	BestCoverage      float64 `json:"best_coverage"`
	Total             float64 `json:"total"`
	WeightedScoreRate float64 `json:"weighted_score_rate"`
	MustHaveScoreRate float64 `json:"must_have_score_rate"`
}

type JdMatchResult struct {
	Level       MatchLevel   `json:"level"`
	MatchTrace  []RuleMatch  `json:"match_trace"`
	Gaps        []Gap        `json:"gaps"`
	GapSummary  GapSummary   `json:"gap_summary"`
	Suggestions []Suggestion `json:"suggestions"`
	Scores      JdScores     `json:"scores"`
}

type JdMatchService interface {
	Evaluate(ctx context.Context, cvID uuid.UUID, jdID uuid.UUID) (*JdMatchResult, error)
}

type jdMatchService struct {
	log         *logger.Logger
	cfg         MatchConfig
	semantic    SemanticEvaluator
	judge       JudgeService
	gaps        GapDetector
	suggestions SuggestionGenerator
}

func NewJdMatchService(
	log *logger.Logger,
	cfg MatchConfig,
	semantic SemanticEvaluator,
	judge JudgeService,
	gaps GapDetector,
	suggestions SuggestionGenerator,
) JdMatchService {
	return &jdMatchService{
		log:         log.With("service", "JdMatchService"),
		cfg:         cfg,
		semantic:    semantic,
		judge:       judge,
		gaps:        gaps,
		suggestions: suggestions,
	}
}

func (s *jdMatchService) Evaluate(ctx context.Context, cvID uuid.UUID, jdID uuid.UUID) (*JdMatchResult, error) {
	semRes, _, err := s.semantic.EvaluateJdRules(ctx, cvID, jdID)
	if err != nil {
		return nil, err
	}

	// Adjudicate every AMBIGUOUS chunk in one bounded batch, then hand each
	// outcome back to its rule.
	type judgeRef struct{ rule, chunk int }
	var judgeInputs []JudgeInput
	var judgeRefs []judgeRef
	for ri, ev := range semRes.Results {
		for ci, ce := range ev.ChunkEvidence {
			if ce.BestBand == match.BandAmbiguous && ce.Best != nil {
				judgeInputs = append(judgeInputs, JudgeInput{
					RuleChunkContent: ce.RuleChunkContent,
					CvChunkContent:   ce.Best.Content,
					SectionType:      ce.Best.SectionType,
				})
				judgeRefs = append(judgeRefs, judgeRef{rule: ri, chunk: ci})
			}
		}
	}
	outcomes := s.judge.JudgeBatch(ctx, judgeInputs)
	judgeByChunk := make(map[judgeRef]*JudgeOutcome, len(outcomes))
	for i := range outcomes {
		judgeByChunk[judgeRefs[i]] = &outcomes[i]
	}

	trace := make([]RuleMatch, 0, len(semRes.Results))
	for ri, ev := range semRes.Results {
		rm := RuleMatch{
			RuleID:      ev.RuleID,
			RuleKey:     ev.RuleKey,
			RuleType:    ev.RuleType,
			RuleContent: ev.RuleContent,
			BestMatch:   ev.BestMatch,
		}

		effectiveBands := make([]match.Band, 0, len(ev.ChunkEvidence))
		judgedNone := false
		var bestChunkJudge *JudgeOutcome
		for ci, ce := range ev.ChunkEvidence {
			mce := MatchChunkEvidence{ChunkEvidence: ce, OriginalBand: ce.BestBand}
			if outcome := judgeByChunk[judgeRef{rule: ri, chunk: ci}]; outcome != nil {
				mce.Judge = outcome
				if outcome.Used {
					rm.JudgeUsed = true
				}
				if outcome.Unavailable {
					rm.JudgeUnavailable = true
				}
				if outcome.Used && outcome.Result != nil {
					mce.BestBand = judgeStatusToBand(outcome.Result.Status)
					if outcome.Result.Status == match.StatusNone {
						judgedNone = true
					}
				}
				if ev.BestMatch != nil && ce.Best != nil && ce.Best.CvChunkID == ev.BestMatch.CvChunkID {
					bestChunkJudge = outcome
				}
			}
			effectiveBands = append(effectiveBands, mce.BestBand)
			rm.ChunkEvidence = append(rm.ChunkEvidence, mce)
		}

		rm.MatchStatus = match.AggregateRuleResult(effectiveBands)

		// Section-aware upgrade first; the judge downgrade only applies when
		// the upgrade did not fire, and the multi-mention boost runs last.
		if rm.MatchStatus == match.StatusPartial && ev.BestMatch != nil &&
			!judgeSaidNone(bestChunkJudge) &&
			match.UpgradeEligible(*ev.BestMatch, s.cfg.Thresholds, s.cfg.UpgradeMargin, ev.CandidateCount, s.cfg.AllowedUpgradeSections) {
			rm.MatchStatus = match.StatusFull
			rm.SectionUpgradeApplied = true
			rm.UpgradeFromSection = ev.BestMatch.SectionType
		}

		if !rm.SectionUpgradeApplied && rm.MatchStatus == match.StatusPartial && judgedNone {
			rm.MatchStatus = match.StatusNone
			rm.JudgeDowngraded = true
		}

		s.applyMultiMentionBoost(&rm)

		rm.Score = statusScore(rm.MatchStatus)
		rm.WeightedScore = rm.Score * s.cfg.RuleTypeMultipliers[rm.RuleType]
		trace = append(trace, rm)
	}

	scores, level := s.scoreTrace(trace)

	gaps, gapSummary := s.gaps.Detect(trace)
	suggestions := s.suggestions.Generate(gaps, trace)

	return &JdMatchResult{
		Level:       level,
		MatchTrace:  trace,
		Gaps:        gaps,
		GapSummary:  gapSummary,
		Suggestions: suggestions,
		Scores:      scores,
	}, nil
}

func judgeStatusToBand(s match.Status) match.Band {
	switch s {
	case match.StatusFull:
		return match.BandHigh
	case match.StatusPartial:
		return match.BandAmbiguous
	default:
		return match.BandLow
	}
}

func judgeSaidNone(o *JudgeOutcome) bool {
	return o != nil && o.Used && o.Result != nil && o.Result.Status == match.StatusNone
}

// applyMultiMentionBoost counts unique CV chunks corroborating the rule and
// promotes to FULL when enough of them agree. A chunk is counted once at its
// best similarity across all rule chunks.
func (s *jdMatchService) applyMultiMentionBoost(rm *RuleMatch) {
	bestSimByChunk := make(map[uuid.UUID]float64)
	for _, ce := range rm.ChunkEvidence {
		for _, c := range ce.Candidates {
			if sim, ok := bestSimByChunk[c.CvChunkID]; !ok || c.Similarity > sim {
				bestSimByChunk[c.CvChunkID] = c.Similarity
			}
		}
	}

	var details MentionDetails
	for _, sim := range bestSimByChunk {
		switch {
		case sim >= s.cfg.MultiMentionHighSim:
			details.High++
		case sim >= s.cfg.Thresholds.Low:
			details.Medium++
		default:
			details.Low++
		}
	}
	rm.MentionDetails = details
	rm.MultiMentionCount = details.High + details.Medium

	if rm.MatchStatus == match.StatusFull {
		return
	}
	boosted := false
	switch {
	case details.High >= s.cfg.MultiMentionThreshold:
		boosted = true
	case details.High >= 1 && details.Medium >= 1:
		boosted = true
	case details.Medium >= 4:
		boosted = true
	}
	if boosted {
		rm.MatchStatus = match.StatusFull
		rm.MultiMentionBoost = true
	}
}

func statusScore(s match.Status) float64 {
	switch s {
	case match.StatusFull:
		return 1.0
	case match.StatusPartial:
		return 0.5
	default:
		return 0.0
	}
}

func (s *jdMatchService) scoreTrace(trace []RuleMatch) (JdScores, MatchLevel) {
	var scores JdScores
	if len(trace) == 0 {
		scores.MustCoverage, scores.NiceCoverage, scores.BestCoverage = 100, 100, 100
		scores.Total = round2(100*s.cfg.ScoreWeights[match.RuleMustHave] +
			100*s.cfg.ScoreWeights[match.RuleNiceToHave] +
			100*s.cfg.ScoreWeights[match.RuleBestPractice])
		return scores, LevelLowMatch
	}

	sums := map[match.RuleType]float64{}
	counts := map[match.RuleType]int{}
	var weightedSum, weightedMax float64
	for _, rm := range trace {
		sums[rm.RuleType] += rm.Score
		counts[rm.RuleType]++
		weightedSum += rm.WeightedScore
		weightedMax += s.cfg.RuleTypeMultipliers[rm.RuleType]
	}

	coverage := func(rt match.RuleType) float64 {
		if counts[rt] == 0 {
			return 100
		}
		return 100 * sums[rt] / float64(counts[rt])
	}
	scores.MustCoverage = coverage(match.RuleMustHave)
	scores.NiceCoverage = coverage(match.RuleNiceToHave)
	scores.BestCoverage = coverage(match.RuleBestPractice)
	scores.Total = round2(scores.MustCoverage*s.cfg.ScoreWeights[match.RuleMustHave] +
		scores.NiceCoverage*s.cfg.ScoreWeights[match.RuleNiceToHave] +
		scores.BestCoverage*s.cfg.ScoreWeights[match.RuleBestPractice])

	if weightedMax > 0 {
		scores.WeightedScoreRate = weightedSum / weightedMax
	}
	scores.MustHaveScoreRate = 1.0
	if counts[match.RuleMustHave] > 0 {
		scores.MustHaveScoreRate = sums[match.RuleMustHave] / float64(counts[match.RuleMustHave])
	}

	level := LevelLowMatch
	switch {
	case scores.WeightedScoreRate >= 0.85 && scores.MustHaveScoreRate >= 0.90:
		level = LevelStrongMatch
	case scores.WeightedScoreRate >= 0.65 && scores.MustHaveScoreRate >= 0.75:
		level = LevelGoodMatch
	case scores.WeightedScoreRate >= 0.40:
		level = LevelPartialMatch
	}
	return scores, level
}
