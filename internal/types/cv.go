package types

import (
	"time"

	"github.com/google/uuid"
)

type CvStatus string

const (
	CvStatusUploaded  CvStatus = "UPLOADED"
	CvStatusParsed    CvStatus = "PARSED"
	CvStatusEvaluated CvStatus = "EVALUATED"
)

type CV struct {
	ID        uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	FileName  string       `gorm:"column:file_name" json:"file_name"`
	Status    CvStatus     `gorm:"column:status;not null;default:UPLOADED;index" json:"status"`
	Sections  []*CvSection `gorm:"foreignKey:CvID;references:ID" json:"sections,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:now()" json:"updated_at"`
}

func (CV) TableName() string {
	return "cv"
}
