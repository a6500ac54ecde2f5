package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/match"
)

type SuggestionType string

const (
	SuggestionMissing      SuggestionType = "MISSING"
	SuggestionPartial      SuggestionType = "PARTIAL"
	SuggestionExpandBullet SuggestionType = "EXPAND_BULLET"
)

type ActionType string

const (
	ActionAddMetric    ActionType = "ADD_METRIC"
	ActionAddLink      ActionType = "ADD_LINK"
	ActionAddBullet    ActionType = "ADD_BULLET"
	ActionExpandBullet ActionType = "EXPAND_BULLET"
)

type Suggestion struct {
	SuggestionID  string            `json:"suggestion_id"` // SUG-NNNN
	Type          SuggestionType    `json:"type"`
	Action        ActionType        `json:"action"`
	RuleID        uuid.UUID         `json:"rule_id"`
	RuleChunkID   uuid.UUID         `json:"rule_chunk_id"`
	ConceptLabel  string            `json:"concept_label"`
	Message       string            `json:"message"`
	TargetChunkID *uuid.UUID        `json:"target_chunk_id,omitempty"`
	TargetSection match.SectionType `json:"target_section,omitempty"`
}

// Message templates. Selection is templates[SimpleHash(label) mod N], so the
// wording for a given concept never changes between runs.
var (
	missingTemplates = []string{
		"Add a bullet that demonstrates {label} with a concrete example.",
		"Your CV shows no evidence of {label}; add a project or experience entry covering it.",
		"Mention {label} explicitly in your experience or projects section.",
	}
	partialTemplates = []string{
		"Strengthen the existing mention of {label} with specifics and outcomes.",
		"Expand on {label}: the current wording only hints at it.",
		"Make {label} explicit instead of implied in the related bullet.",
	}
	metricTemplates = []string{
		"Quantify {label} with a number, percentage, or scale.",
		"Back up {label} with a measurable result.",
		"Add a concrete metric that proves {label}.",
	}
)

var conceptStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "have": true,
	"in": true, "is": true, "it": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "to": true, "with": true, "you": true, "your": true,
	// generic career words that carry no concept information
	"cv": true, "resume": true, "experience": true, "skill": true, "skills": true,
	"work": true, "working": true, "ability": true, "knowledge": true,
}

var (
	metricHintRe = regexp.MustCompile(`(?i)metric|number|quantif`)
	linkHintRe   = regexp.MustCompile(`(?i)link|url|github|linkedin`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]+`)
)

type SuggestionGenerator interface {
	Generate(gaps []Gap, trace []RuleMatch) []Suggestion
}

type suggestionGenerator struct {
	log *logger.Logger
}

func NewSuggestionGenerator(log *logger.Logger) SuggestionGenerator {
	return &suggestionGenerator{log: log.With("service", "SuggestionGenerator")}
}

// Generate merges gap-driven suggestions with EXPAND_BULLET suggestions for
// PARTIAL rules whose best band stayed AMBIGUOUS, deduplicating by rule chunk
// with gaps taking priority.
func (g *suggestionGenerator) Generate(gaps []Gap, trace []RuleMatch) []Suggestion {
	suggestions := make([]Suggestion, 0, len(gaps))
	seen := make(map[uuid.UUID]bool)

	for _, gap := range gaps {
		if gap.Severity == match.SeverityNone || seen[gap.RuleChunkID] {
			continue
		}
		seen[gap.RuleChunkID] = true

		sugType := SuggestionPartial
		if gap.Band == match.BandNoEvidence || gap.Band == match.BandLow {
			sugType = SuggestionMissing
		}

		s := Suggestion{
			Type:         sugType,
			RuleID:       gap.RuleID,
			RuleChunkID:  gap.RuleChunkID,
			ConceptLabel: conceptLabel(gap.RuleChunkContent),
		}
		if gap.BestCvChunkID != nil {
			id := *gap.BestCvChunkID
			s.TargetChunkID = &id
			s.TargetSection = gap.BestSection
		}
		s.Action = pickAction(gap.RuleChunkContent, s.TargetChunkID != nil)
		s.Message = pickMessage(sugType, s.Action, s.ConceptLabel)
		suggestions = append(suggestions, s)
	}

	for _, rm := range trace {
		if rm.MatchStatus != match.StatusPartial {
			continue
		}
		for _, ce := range rm.ChunkEvidence {
			if ce.BestBand != match.BandAmbiguous || ce.Best == nil || seen[ce.RuleChunkID] {
				continue
			}
			seen[ce.RuleChunkID] = true

			id := ce.Best.CvChunkID
			label := conceptLabel(ce.RuleChunkContent)
			suggestions = append(suggestions, Suggestion{
				Type:          SuggestionExpandBullet,
				Action:        ActionExpandBullet,
				RuleID:        rm.RuleID,
				RuleChunkID:   ce.RuleChunkID,
				ConceptLabel:  label,
				Message:       pickMessage(SuggestionExpandBullet, ActionExpandBullet, label),
				TargetChunkID: &id,
				TargetSection: ce.Best.SectionType,
			})
		}
	}

	for i := range suggestions {
		suggestions[i].SuggestionID = fmt.Sprintf("SUG-%04d", i+1)
	}
	return suggestions
}

func pickAction(ruleContent string, hasTarget bool) ActionType {
	if metricHintRe.MatchString(ruleContent) {
		return ActionAddMetric
	}
	if linkHintRe.MatchString(ruleContent) {
		return ActionAddLink
	}
	if hasTarget {
		return ActionExpandBullet
	}
	return ActionAddBullet
}

func pickMessage(t SuggestionType, action ActionType, label string) string {
	var templates []string
	switch {
	case action == ActionAddMetric:
		templates = metricTemplates
	case t == SuggestionMissing:
		templates = missingTemplates
	default:
		templates = partialTemplates
	}
	idx := int(match.SimpleHash(label) % uint32(len(templates)))
	return strings.ReplaceAll(templates[idx], "{label}", label)
}

// conceptLabel reduces a rule's content to a short handle: verbatim when it is
// already short, otherwise the three most frequent non-stopword tokens.
func conceptLabel(content string) string {
	if len([]rune(content)) <= 50 {
		return content
	}

	normalized := nonAlnumRe.ReplaceAllString(strings.ToLower(content), " ")
	freq := make(map[string]int)
	for _, tok := range strings.Fields(normalized) {
		if conceptStopwords[tok] || len(tok) < 2 {
			continue
		}
		freq[tok]++
	}

	tokens := make([]string, 0, len(freq))
	for tok := range freq {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if freq[tokens[i]] != freq[tokens[j]] {
			return freq[tokens[i]] > freq[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}
	return strings.Join(tokens, ", ")
}
