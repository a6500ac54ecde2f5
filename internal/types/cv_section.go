package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/match"
)

type CvSection struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CvID         uuid.UUID         `gorm:"type:uuid;not null;index" json:"cv_id"`
	CV           *CV               `gorm:"constraint:OnDelete:CASCADE;foreignKey:CvID;references:ID" json:"-"`
	Type         match.SectionType `gorm:"column:type;not null;index" json:"type"`
	SectionOrder int               `gorm:"column:section_order;not null" json:"section_order"`
	Chunks       []*CvChunk        `gorm:"foreignKey:CvSectionID;references:ID" json:"chunks,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:now()" json:"updated_at"`
}

func (CvSection) TableName() string {
	return "cv_section"
}
