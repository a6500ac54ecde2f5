package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/match"
)

type RuleIntent string

const (
	IntentRequirement    RuleIntent = "REQUIREMENT"
	IntentResponsibility RuleIntent = "RESPONSIBILITY"
	IntentQualification  RuleIntent = "QUALIFICATION"
	IntentInformational  RuleIntent = "INFORMATIONAL"
	IntentPreference     RuleIntent = "PREFERENCE"
)

// JDRule is one extracted requirement line. Intent may be filled in
// asynchronously after extraction; INFORMATIONAL and ignored rules never
// enter matching.
type JDRule struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JdID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"jd_id"`
	JD        *JD            `gorm:"constraint:OnDelete:CASCADE;foreignKey:JdID;references:ID" json:"-"`
	RuleType  match.RuleType `gorm:"column:rule_type;not null;index" json:"rule_type"`
	Content   string         `gorm:"column:content;not null" json:"content"`
	Intent    RuleIntent     `gorm:"column:intent" json:"intent,omitempty"`
	Ignored   bool           `gorm:"column:ignored;not null;default:false" json:"ignored"`
	RuleOrder int            `gorm:"column:rule_order;not null" json:"rule_order"`
	Chunks    []*JDRuleChunk `gorm:"foreignKey:JdRuleID;references:ID" json:"chunks,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (JDRule) TableName() string {
	return "jd_rule"
}
