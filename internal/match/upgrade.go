package match

// DefaultUpgradeSections are the sections whose evidence is trusted enough to
// promote a borderline PARTIAL to FULL.
var DefaultUpgradeSections = []SectionType{SectionExperience, SectionProjects}

// UpgradeEligible reports whether a PARTIAL rule result may be promoted to
// FULL: the best candidate sits in an allowed section, its similarity is
// within margin of the high threshold, and the rule has at least two
// corroborating candidates at or above the low threshold.
func UpgradeEligible(best Candidate, t Thresholds, margin float64, candidatesAtLeastLow int, allowed []SectionType) bool {
	if candidatesAtLeastLow < 2 {
		return false
	}
	if best.Similarity < t.High-margin {
		return false
	}
	for _, s := range allowed {
		if best.SectionType == s {
			return true
		}
	}
	return false
}
