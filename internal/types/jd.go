package types

import (
	"time"

	"github.com/google/uuid"
)

type JD struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Title     string    `gorm:"column:title" json:"title"`
	Rules     []*JDRule `gorm:"foreignKey:JdID;references:ID" json:"rules,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (JD) TableName() string {
	return "jd"
}
