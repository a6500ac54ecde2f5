package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/match"
	"github.com/cvready/cvready-backend/internal/repos"
	"github.com/cvready/cvready-backend/internal/types"
)

// ChunkEvidence is the ranked outcome for one rule chunk against one CV.
// Candidates are already floor-filtered, annotated, and sorted by the match
// total order; Best is candidate zero when any survived.
type ChunkEvidence struct {
	RuleChunkID      uuid.UUID         `json:"rule_chunk_id"`
	RuleChunkContent string            `json:"rule_chunk_content"`
	Candidates       []match.Candidate `json:"candidates"`
	Best             *match.Candidate  `json:"best,omitempty"`
	BestBand         match.Band        `json:"best_band"`
}

// RuleEvidence aggregates a rule's chunk evidence into a rule-level result.
type RuleEvidence struct {
	RuleID         uuid.UUID        `json:"rule_id"`
	RuleKey        string           `json:"rule_key"`
	RuleType       match.RuleType   `json:"rule_type"`
	RuleContent    string           `json:"rule_content"`
	ChunkEvidence  []ChunkEvidence  `json:"chunk_evidence"`
	Result         match.Status     `json:"result"`
	BestMatch      *match.Candidate `json:"best_match,omitempty"`
	CandidateCount int              `json:"candidate_count"`
	Upgraded       bool             `json:"upgraded"`
}

type SemanticSummary struct {
	Total      int `json:"total"`
	Full       int `json:"full"`
	Partial    int `json:"partial"`
	None       int `json:"none"`
	NoEvidence int `json:"no_evidence"`
}

type SemanticResult struct {
	Results []RuleEvidence  `json:"results"`
	Summary SemanticSummary `json:"summary"`
}

// SemanticEvaluator is the single owner of band and tie-break logic; the
// quality and JD engines both drive it and never re-derive bands themselves.
type SemanticEvaluator interface {
	EvaluateCvQualityRules(ctx context.Context, cvID uuid.UUID, ruleSetKey string) (*SemanticResult, *types.RuleSet, error)
	EvaluateJdRules(ctx context.Context, cvID uuid.UUID, jdID uuid.UUID) (*SemanticResult, []*types.JDRule, error)
}

type semanticEvaluator struct {
	log         *logger.Logger
	cfg         MatchConfig
	vectorRepo  repos.VectorRepo
	ruleSetRepo repos.RuleSetRepo
	jdRuleRepo  repos.JdRuleRepo
}

func NewSemanticEvaluator(
	log *logger.Logger,
	cfg MatchConfig,
	vectorRepo repos.VectorRepo,
	ruleSetRepo repos.RuleSetRepo,
	jdRuleRepo repos.JdRuleRepo,
) SemanticEvaluator {
	return &semanticEvaluator{
		log:         log.With("service", "SemanticEvaluator"),
		cfg:         cfg,
		vectorRepo:  vectorRepo,
		ruleSetRepo: ruleSetRepo,
		jdRuleRepo:  jdRuleRepo,
	}
}

// semanticRule is the evaluator's neutral view of a quality or JD rule.
type semanticRule struct {
	id         uuid.UUID
	key        string
	ruleType   match.RuleType
	content    string
	appliesTo  []match.SectionType
	chunkIDs   []uuid.UUID
	chunkTexts map[uuid.UUID]string
}

func (e *semanticEvaluator) EvaluateCvQualityRules(ctx context.Context, cvID uuid.UUID, ruleSetKey string) (*SemanticResult, *types.RuleSet, error) {
	set, err := e.ruleSetRepo.GetByKey(ctx, nil, ruleSetKey)
	if err != nil {
		return nil, nil, fmt.Errorf("load rule set %q: %w", ruleSetKey, err)
	}
	if set == nil {
		return &SemanticResult{Results: []RuleEvidence{}}, nil, nil
	}

	rules := make([]semanticRule, 0, len(set.Rules))
	for _, r := range set.Rules {
		if r.Strategy == types.StrategyStructural {
			continue
		}
		sr := semanticRule{
			id:         r.ID,
			key:        r.RuleKey,
			ruleType:   r.Category,
			content:    r.Content,
			appliesTo:  parseAppliesTo(r.AppliesToSections),
			chunkTexts: make(map[uuid.UUID]string, len(r.Chunks)),
		}
		for _, c := range r.Chunks {
			sr.chunkIDs = append(sr.chunkIDs, c.ID)
			sr.chunkTexts[c.ID] = c.Content
		}
		rules = append(rules, sr)
	}

	res, err := e.evaluateRules(ctx, cvID, repos.SourceQualityRuleChunk, rules)
	if err != nil {
		return nil, nil, err
	}
	return res, set, nil
}

func (e *semanticEvaluator) EvaluateJdRules(ctx context.Context, cvID uuid.UUID, jdID uuid.UUID) (*SemanticResult, []*types.JDRule, error) {
	jdRules, err := e.jdRuleRepo.GetByJdID(ctx, nil, jdID)
	if err != nil {
		return nil, nil, fmt.Errorf("load jd rules: %w", err)
	}

	matchable := make([]*types.JDRule, 0, len(jdRules))
	rules := make([]semanticRule, 0, len(jdRules))
	for _, r := range jdRules {
		if r.Ignored || r.Intent == types.IntentInformational {
			continue
		}
		matchable = append(matchable, r)
		sr := semanticRule{
			id:         r.ID,
			key:        r.Content,
			ruleType:   r.RuleType,
			content:    r.Content,
			chunkTexts: make(map[uuid.UUID]string, len(r.Chunks)),
		}
		for _, c := range r.Chunks {
			sr.chunkIDs = append(sr.chunkIDs, c.ID)
			sr.chunkTexts[c.ID] = c.Content
		}
		rules = append(rules, sr)
	}

	res, err := e.evaluateRules(ctx, cvID, repos.SourceJdRuleChunk, rules)
	if err != nil {
		return nil, nil, err
	}
	return res, matchable, nil
}

// evaluateRules fans rules out over a bounded pool. Results come back in the
// input rule order regardless of completion order.
func (e *semanticEvaluator) evaluateRules(ctx context.Context, cvID uuid.UUID, source repos.RuleChunkSource, rules []semanticRule) (*SemanticResult, error) {
	results := make([]RuleEvidence, len(rules))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.TopKConcurrency)
	for i := range rules {
		i := i
		g.Go(func() error {
			ev, err := e.evaluateRule(gctx, cvID, source, rules[i])
			if err != nil {
				return err
			}
			results[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &SemanticResult{Results: results}
	out.Summary.Total = len(results)
	for _, r := range results {
		switch r.Result {
		case match.StatusFull:
			out.Summary.Full++
		case match.StatusPartial:
			out.Summary.Partial++
		case match.StatusNone:
			out.Summary.None++
		default:
			out.Summary.NoEvidence++
		}
	}
	return out, nil
}

func (e *semanticEvaluator) evaluateRule(ctx context.Context, cvID uuid.UUID, source repos.RuleChunkSource, rule semanticRule) (RuleEvidence, error) {
	ev := RuleEvidence{
		RuleID:        rule.id,
		RuleKey:       rule.key,
		RuleType:      rule.ruleType,
		RuleContent:   rule.content,
		ChunkEvidence: make([]ChunkEvidence, 0, len(rule.chunkIDs)),
	}

	// 2K fetch leaves room for the floor filter before the top-K cut.
	byChunk, err := e.vectorRepo.TopKBatch(ctx, source, rule.chunkIDs, cvID, 2*e.cfg.TopK)
	if err != nil {
		return ev, fmt.Errorf("vector query for rule %s: %w", rule.id, err)
	}

	bestBands := make([]match.Band, 0, len(rule.chunkIDs))
	var bestOverall *match.Candidate
	candidatesAtLeastLow := 0

	for _, chunkID := range rule.chunkIDs {
		ce := ChunkEvidence{
			RuleChunkID:      chunkID,
			RuleChunkContent: rule.chunkTexts[chunkID],
			Candidates:       []match.Candidate{},
			BestBand:         match.BandNoEvidence,
		}

		for _, row := range byChunk[chunkID] {
			sim := match.DistanceToSimilarity(row.CosineDistance)
			if sim < e.cfg.Thresholds.Floor {
				continue
			}
			weight := match.SectionWeight(row.SectionType)
			if sectionListed(rule.appliesTo, row.SectionType) {
				weight += match.AppliesToBoost
			}
			ce.Candidates = append(ce.Candidates, match.Candidate{
				CvChunkID:   row.CvChunkID,
				SectionID:   row.SectionID,
				SectionType: row.SectionType,
				ChunkOrder:  row.ChunkOrder,
				Content:     row.Content,
				Similarity:  sim,
				Weight:      weight,
				Band:        match.ClassifyBand(sim, e.cfg.Thresholds),
			})
		}

		match.SortCandidates(ce.Candidates)
		if len(ce.Candidates) > e.cfg.TopK {
			ce.Candidates = ce.Candidates[:e.cfg.TopK]
		}

		if len(ce.Candidates) > 0 {
			best := ce.Candidates[0]
			ce.Best = &best
			ce.BestBand = best.Band
			if bestOverall == nil || match.Less(best, *bestOverall) {
				b := best
				bestOverall = &b
			}
		}
		for _, c := range ce.Candidates {
			if c.Similarity >= e.cfg.Thresholds.Low {
				candidatesAtLeastLow++
			}
		}

		bestBands = append(bestBands, ce.BestBand)
		ev.ChunkEvidence = append(ev.ChunkEvidence, ce)
	}

	ev.Result = match.AggregateRuleResult(bestBands)
	ev.BestMatch = bestOverall
	ev.CandidateCount = candidatesAtLeastLow

	if ev.Result == match.StatusPartial && bestOverall != nil &&
		match.UpgradeEligible(*bestOverall, e.cfg.Thresholds, e.cfg.UpgradeMargin, candidatesAtLeastLow, e.cfg.AllowedUpgradeSections) {
		ev.Result = match.StatusFull
		ev.Upgraded = true
	}
	return ev, nil
}

func sectionListed(list []match.SectionType, s match.SectionType) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func parseAppliesTo(raw []byte) []match.SectionType {
	if len(raw) == 0 {
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil
	}
	out := make([]match.SectionType, 0, len(names))
	for _, n := range names {
		out = append(out, match.SectionType(n))
	}
	return out
}
