package match

type SectionType string

const (
	SectionSummary    SectionType = "SUMMARY"
	SectionExperience SectionType = "EXPERIENCE"
	SectionProjects   SectionType = "PROJECTS"
	SectionSkills     SectionType = "SKILLS"
	SectionEducation  SectionType = "EDUCATION"
	SectionActivities SectionType = "ACTIVITIES"
)

// AppliesToBoost is added to the section weight when the section appears in a
// rule's appliesToSections list.
const AppliesToBoost = 0.10

// SectionWeight is a soft prior on where real evidence tends to live.
func SectionWeight(s SectionType) float64 {
	switch s {
	case SectionExperience, SectionProjects:
		return 1.15
	case SectionSkills:
		return 1.05
	case SectionActivities:
		return 1.00
	case SectionSummary, SectionEducation:
		return 0.90
	default:
		return 1.00
	}
}

// SectionPriority breaks weight ties; lower is preferred.
func SectionPriority(s SectionType) int {
	switch s {
	case SectionExperience:
		return 1
	case SectionProjects:
		return 2
	case SectionSkills:
		return 3
	case SectionActivities:
		return 4
	case SectionEducation:
		return 5
	case SectionSummary:
		return 6
	default:
		return 7
	}
}
