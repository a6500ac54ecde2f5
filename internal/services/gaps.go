package services

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/match"
)

const gapSnippetMaxLen = 100

type Gap struct {
	GapID            string            `json:"gap_id"` // GAP-NNNN
	RuleID           uuid.UUID         `json:"rule_id"`
	RuleKey          string            `json:"rule_key"`
	RuleType         match.RuleType    `json:"rule_type"`
	RuleChunkID      uuid.UUID         `json:"rule_chunk_id"`
	RuleChunkContent string            `json:"rule_chunk_content"`
	BestCvChunkID    *uuid.UUID        `json:"best_cv_chunk_id,omitempty"`
	BestCvSnippet    string            `json:"best_cv_snippet,omitempty"`
	BestSection      match.SectionType `json:"best_section,omitempty"`
	Similarity       float64           `json:"similarity"`
	Band             match.Band        `json:"band"`
	Severity         match.Severity    `json:"severity"`
	Reason           string            `json:"reason"`
}

type GapSummary struct {
	Critical int `json:"critical"`
	Minor    int `json:"minor"`
	Advisory int `json:"advisory"`
	Total    int `json:"total"`
}

type GapDetector interface {
	Detect(trace []RuleMatch) ([]Gap, GapSummary)
}

type gapDetector struct {
	log *logger.Logger
}

func NewGapDetector(log *logger.Logger) GapDetector {
	return &gapDetector{log: log.With("service", "GapDetector")}
}

// Detect walks every rule chunk in trace order and emits a gap wherever the
// severity map says the evidence falls short. Bands here are post-judge, so a
// chunk the adjudicator rejected counts as LOW.
func (d *gapDetector) Detect(trace []RuleMatch) ([]Gap, GapSummary) {
	gaps := make([]Gap, 0)
	var summary GapSummary

	for _, rm := range trace {
		for _, ce := range rm.ChunkEvidence {
			severity := match.SeverityFor(ce.BestBand, rm.RuleType)
			if severity == match.SeverityNone {
				continue
			}

			gap := Gap{
				GapID:            fmt.Sprintf("GAP-%04d", len(gaps)+1),
				RuleID:           rm.RuleID,
				RuleKey:          rm.RuleKey,
				RuleType:         rm.RuleType,
				RuleChunkID:      ce.RuleChunkID,
				RuleChunkContent: ce.RuleChunkContent,
				Band:             ce.BestBand,
				Severity:         severity,
			}
			if ce.Best != nil {
				id := ce.Best.CvChunkID
				gap.BestCvChunkID = &id
				gap.BestCvSnippet = snippet(ce.Best.Content, gapSnippetMaxLen)
				gap.BestSection = ce.Best.SectionType
				gap.Similarity = ce.Best.Similarity
			}
			gap.Reason = gapReason(ce.ChunkEvidence)

			gaps = append(gaps, gap)
			switch severity {
			case match.SeverityCriticalSkillGap:
				summary.Critical++
			case match.SeverityMinorGap:
				summary.Minor++
			default:
				summary.Advisory++
			}
		}
	}
	summary.Total = len(gaps)
	return gaps, summary
}

func gapReason(ce ChunkEvidence) string {
	if ce.Best == nil {
		return fmt.Sprintf("No evidence found for %q in the CV", ce.RuleChunkContent)
	}
	pct := int(math.Round(ce.Best.Similarity * 100))
	return fmt.Sprintf("Best evidence for %q reaches %d%% similarity (band %s) in %s", ce.RuleChunkContent, pct, ce.BestBand, ce.Best.SectionType)
}

func snippet(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
