package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// JDRuleChunk is one atomic concept of a rule, e.g. a single skill phrase.
type JDRuleChunk struct {
	ID         uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JdRuleID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"jd_rule_id"`
	JDRule     *JDRule          `gorm:"constraint:OnDelete:CASCADE;foreignKey:JdRuleID;references:ID" json:"-"`
	ChunkOrder int              `gorm:"column:chunk_order;not null" json:"chunk_order"`
	Content    string           `gorm:"column:content;not null" json:"content"`
	Embedding  *pgvector.Vector `gorm:"type:vector(1536);column:embedding" json:"-"`
	CreatedAt  time.Time        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"not null;default:now()" json:"updated_at"`
}

func (JDRuleChunk) TableName() string {
	return "jd_rule_chunk"
}
