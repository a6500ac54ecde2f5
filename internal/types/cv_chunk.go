package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// CvChunk is one <=500 char slice of a section. Embedding stays NULL until
// the embedding step runs; matching ignores chunks without one.
type CvChunk struct {
	ID          uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CvSectionID uuid.UUID        `gorm:"type:uuid;not null;index" json:"cv_section_id"`
	CvSection   *CvSection       `gorm:"constraint:OnDelete:CASCADE;foreignKey:CvSectionID;references:ID" json:"-"`
	ChunkOrder  int              `gorm:"column:chunk_order;not null" json:"chunk_order"`
	Content     string           `gorm:"column:content;not null" json:"content"`
	Embedding   *pgvector.Vector `gorm:"type:vector(1536);column:embedding" json:"-"`
	CreatedAt   time.Time        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"not null;default:now()" json:"updated_at"`
}

func (CvChunk) TableName() string {
	return "cv_chunk"
}
