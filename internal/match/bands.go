package match

// Band is the discretized similarity of one CV chunk against one rule chunk.
type Band string

const (
	BandHigh       Band = "HIGH"
	BandAmbiguous  Band = "AMBIGUOUS"
	BandLow        Band = "LOW"
	BandNoEvidence Band = "NO_EVIDENCE"
)

// Status is the rule-level aggregate over chunk bands.
type Status string

const (
	StatusFull       Status = "FULL"
	StatusPartial    Status = "PARTIAL"
	StatusNone       Status = "NONE"
	StatusNoEvidence Status = "NO_EVIDENCE"
)

type RuleType string

const (
	RuleMustHave     RuleType = "MUST_HAVE"
	RuleNiceToHave   RuleType = "NICE_TO_HAVE"
	RuleBestPractice RuleType = "BEST_PRACTICE"
)

// Thresholds must satisfy 0 <= Floor < Low < High <= 1.
type Thresholds struct {
	Floor float64
	Low   float64
	High  float64
}

// DistanceToSimilarity converts pgvector cosine distance to similarity.
// Distance lies in [0, 2], so similarity lies in [-1, 1].
func DistanceToSimilarity(d float64) float64 {
	return 1 - d
}

func ClassifyBand(s float64, t Thresholds) Band {
	if s < t.Floor {
		return BandNoEvidence
	}
	if s >= t.High {
		return BandHigh
	}
	if s >= t.Low {
		return BandAmbiguous
	}
	return BandLow
}

// BandRank orders bands NO_EVIDENCE < LOW < AMBIGUOUS < HIGH.
func BandRank(b Band) int {
	switch b {
	case BandHigh:
		return 3
	case BandAmbiguous:
		return 2
	case BandLow:
		return 1
	default:
		return 0
	}
}

// AggregateRuleResult takes the supremum of the chunk bands: any HIGH wins,
// then any AMBIGUOUS, then any LOW. An empty input means the rule had no
// embedded chunks to look for.
func AggregateRuleResult(bands []Band) Status {
	if len(bands) == 0 {
		return StatusNoEvidence
	}
	best := BandNoEvidence
	for _, b := range bands {
		if BandRank(b) > BandRank(best) {
			best = b
		}
	}
	switch best {
	case BandHigh:
		return StatusFull
	case BandAmbiguous:
		return StatusPartial
	case BandLow:
		return StatusNone
	default:
		return StatusNoEvidence
	}
}
