package match

type Severity string

const (
	SeverityNone                 Severity = "NONE"
	SeverityCriticalSkillGap     Severity = "CRITICAL_SKILL_GAP"
	SeverityMinorGap             Severity = "MINOR_GAP"
	SeverityPartialMatchAdvisory Severity = "PARTIAL_MATCH_ADVISORY"
	SeverityAdvisory             Severity = "ADVISORY"
)

// SeverityFor maps the band of a rule chunk's best evidence and the owning
// rule's type to a gap severity. HIGH evidence never yields a gap.
func SeverityFor(band Band, ruleType RuleType) Severity {
	switch band {
	case BandHigh:
		return SeverityNone
	case BandAmbiguous:
		if ruleType == RuleMustHave {
			return SeverityPartialMatchAdvisory
		}
		return SeverityAdvisory
	default: // LOW, NO_EVIDENCE
		if ruleType == RuleMustHave {
			return SeverityCriticalSkillGap
		}
		return SeverityMinorGap
	}
}
