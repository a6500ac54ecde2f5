package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/cvready/cvready-backend/internal/match"
)

type RuleStrategy string

const (
	StrategyStructural RuleStrategy = "STRUCTURAL"
	StrategySemantic   RuleStrategy = "SEMANTIC"
	StrategyHybrid     RuleStrategy = "HYBRID"
)

// RuleSet is a versioned, process-wide quality rule catalogue, seeded once
// and consumed read-only at evaluation time.
type RuleSet struct {
	ID         uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Key        string           `gorm:"uniqueIndex;not null;column:key" json:"key"`
	Version    string           `gorm:"column:version;not null" json:"version"`
	EmbedModel string           `gorm:"column:embed_model" json:"embed_model"`
	Rules      []*CvQualityRule `gorm:"foreignKey:RuleSetID;references:ID" json:"rules,omitempty"`
	CreatedAt  time.Time        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"not null;default:now()" json:"updated_at"`
}

func (RuleSet) TableName() string {
	return "rule_set"
}

type CvQualityRule struct {
	ID                uuid.UUID             `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RuleSetID         uuid.UUID             `gorm:"type:uuid;not null;index" json:"rule_set_id"`
	RuleSet           *RuleSet              `gorm:"constraint:OnDelete:CASCADE;foreignKey:RuleSetID;references:ID" json:"-"`
	RuleKey           string                `gorm:"column:rule_key;not null;index" json:"rule_key"`
	Category          match.RuleType        `gorm:"column:category;not null" json:"category"`
	Severity          string                `gorm:"column:severity;not null" json:"severity"` // critical|warning|info
	Strategy          RuleStrategy          `gorm:"column:strategy;not null" json:"strategy"`
	StructuralCheck   string                `gorm:"column:structural_check" json:"structural_check,omitempty"`
	AppliesToSections datatypes.JSON        `gorm:"type:jsonb;column:applies_to_sections" json:"applies_to_sections,omitempty"`
	Content           string                `gorm:"column:content;not null" json:"content"`
	RuleOrder         int                   `gorm:"column:rule_order;not null" json:"rule_order"`
	Chunks            []*CvQualityRuleChunk `gorm:"foreignKey:RuleID;references:ID" json:"chunks,omitempty"`
	CreatedAt         time.Time             `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time             `gorm:"not null;default:now()" json:"updated_at"`
}

func (CvQualityRule) TableName() string {
	return "cv_quality_rule"
}

type CvQualityRuleChunk struct {
	ID         uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RuleID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"rule_id"`
	Rule       *CvQualityRule   `gorm:"constraint:OnDelete:CASCADE;foreignKey:RuleID;references:ID" json:"-"`
	ChunkOrder int              `gorm:"column:chunk_order;not null" json:"chunk_order"`
	Content    string           `gorm:"column:content;not null" json:"content"`
	Embedding  *pgvector.Vector `gorm:"type:vector(1536);column:embedding" json:"-"`
	CreatedAt  time.Time        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"not null;default:now()" json:"updated_at"`
}

func (CvQualityRuleChunk) TableName() string {
	return "cv_quality_rule_chunk"
}
