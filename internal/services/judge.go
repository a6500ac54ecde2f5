package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/match"
)

const judgeReasonMaxLen = 200

const judgeParseFailureReason = "Adjudicator returned malformed output; treated as no match."

const judgeSystemPrompt = `You adjudicate whether a CV text chunk satisfies a job requirement concept.
Answer with exactly one status: FULL (the chunk clearly demonstrates the concept), PARTIAL (related but incomplete evidence), or NONE (no real evidence).
Judge only the match between the two texts. Do not give CV quality advice, writing tips, or any commentary beyond the required fields.`

// JudgeInput is one AMBIGUOUS pair handed to the adjudicator.
type JudgeInput struct {
	RuleChunkContent string
	CvChunkContent   string
	SectionType      match.SectionType
}

type JudgeVerdict struct {
	Status     match.Status `json:"status"`
	Reason     string       `json:"reason"`
	Confidence string       `json:"confidence"` // low|medium|high
}

// JudgeOutcome distinguishes "we did not ask" (Skipped), "we asked and the
// provider failed" (Unavailable), and "we asked and got an answer" (Used with
// Result set). Parse failures are answers, not failures: they carry a canned
// NONE verdict.
type JudgeOutcome struct {
	Used        bool          `json:"used"`
	Skipped     bool          `json:"skipped"`
	Unavailable bool          `json:"unavailable"`
	Result      *JudgeVerdict `json:"result,omitempty"`
	LatencyMs   int64         `json:"latency_ms"`
}

// JudgeCache memoizes verdicts across evaluations. Implementations must be
// safe for concurrent use; a nil cache disables memoization.
type JudgeCache interface {
	Get(ctx context.Context, key string) (*JudgeVerdict, bool)
	Set(ctx context.Context, key string, v JudgeVerdict)
}

type JudgeService interface {
	Judge(ctx context.Context, in JudgeInput) JudgeOutcome
	JudgeBatch(ctx context.Context, ins []JudgeInput) []JudgeOutcome
}

type judgeService struct {
	log    *logger.Logger
	client OpenAIClient
	cfg    MatchConfig
	cache  JudgeCache
}

func NewJudgeService(log *logger.Logger, client OpenAIClient, cfg MatchConfig, cache JudgeCache) JudgeService {
	return &judgeService{
		log:    log.With("service", "JudgeService"),
		client: client,
		cfg:    cfg,
		cache:  cache,
	}
}

func (s *judgeService) enabled() bool {
	return s.cfg.LLMJudgeEnabled && s.client != nil
}

func (s *judgeService) Judge(ctx context.Context, in JudgeInput) JudgeOutcome {
	if !s.enabled() {
		return JudgeOutcome{Used: false, Skipped: true}
	}

	key := judgeCacheKey(in)
	if s.cache != nil {
		if v, ok := s.cache.Get(ctx, key); ok {
			return JudgeOutcome{Used: true, Result: v}
		}
	}

	start := time.Now()
	obj, err := s.client.GenerateJSON(ctx, judgeSystemPrompt, judgeUserPrompt(in), "match_verdict", judgeSchema())
	latency := time.Since(start).Milliseconds()

	if err != nil {
		if errors.Is(err, errMalformedModelOutput) {
			s.log.Warn("Judge returned undecodable output; treating as NONE", "error", err)
			verdict := JudgeVerdict{Status: match.StatusNone, Reason: judgeParseFailureReason, Confidence: "low"}
			return JudgeOutcome{Used: true, Result: &verdict, LatencyMs: latency}
		}
		s.log.Warn("Judge call failed", "error", err, "rate_limited", isRateLimited(err))
		return JudgeOutcome{Used: true, Unavailable: true, LatencyMs: latency}
	}

	verdict := parseJudgeVerdict(obj)
	if s.cache != nil {
		s.cache.Set(ctx, key, verdict)
	}
	return JudgeOutcome{Used: true, Result: &verdict, LatencyMs: latency}
}

// JudgeBatch fans Judge out with a bounded worker pool; outcome order matches
// input order.
func (s *judgeService) JudgeBatch(ctx context.Context, ins []JudgeInput) []JudgeOutcome {
	outs := make([]JudgeOutcome, len(ins))
	if !s.enabled() {
		for i := range outs {
			outs[i] = JudgeOutcome{Used: false, Skipped: true}
		}
		return outs
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.JudgeConcurrency)
	for i := range ins {
		i := i
		g.Go(func() error {
			outs[i] = s.Judge(gctx, ins[i])
			return nil
		})
	}
	_ = g.Wait()
	return outs
}

func judgeUserPrompt(in JudgeInput) string {
	return fmt.Sprintf("Requirement concept:\n%s\n\nCV chunk (section %s):\n%s", in.RuleChunkContent, in.SectionType, in.CvChunkContent)
}

func judgeSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{
				"type": "string",
				"enum": []string{"FULL", "PARTIAL", "NONE"},
			},
			"reason": map[string]any{
				"type":      "string",
				"maxLength": judgeReasonMaxLen,
			},
			"confidence": map[string]any{
				"type": "string",
				"enum": []string{"low", "medium", "high"},
			},
		},
		"required":             []string{"status", "reason", "confidence"},
		"additionalProperties": false,
	}
}

// parseJudgeVerdict never fails: anything that does not decode to one of the
// three statuses becomes the canned NONE/low verdict.
func parseJudgeVerdict(obj map[string]any) JudgeVerdict {
	status, _ := obj["status"].(string)
	reason, _ := obj["reason"].(string)
	confidence, _ := obj["confidence"].(string)

	switch match.Status(status) {
	case match.StatusFull, match.StatusPartial, match.StatusNone:
	default:
		return JudgeVerdict{Status: match.StatusNone, Reason: judgeParseFailureReason, Confidence: "low"}
	}
	switch confidence {
	case "low", "medium", "high":
	default:
		confidence = "low"
	}
	if len(reason) > judgeReasonMaxLen {
		reason = reason[:judgeReasonMaxLen]
	}
	return JudgeVerdict{Status: match.Status(status), Reason: reason, Confidence: confidence}
}

func judgeCacheKey(in JudgeInput) string {
	h := sha256.Sum256([]byte(strings.Join([]string{in.RuleChunkContent, in.CvChunkContent, string(in.SectionType)}, "\x1f")))
	return "judge:" + hex.EncodeToString(h[:])
}
