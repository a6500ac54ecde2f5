package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Evaluation is the immutable record of one completed run. Result holds the
// full serialized verdict; it is written exactly once.
type Evaluation struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	CvID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"cv_id"`
	JdID      *uuid.UUID     `gorm:"type:uuid;index" json:"jd_id,omitempty"`
	Result    datatypes.JSON `gorm:"type:jsonb;column:result;not null" json:"result"`
	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (Evaluation) TableName() string {
	return "evaluation"
}
