package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/types"
)

type JdRuleRepo interface {
	GetByJdID(ctx context.Context, tx *gorm.DB, jdID uuid.UUID) ([]*types.JDRule, error)
	UpdateIntent(ctx context.Context, tx *gorm.DB, ruleID uuid.UUID, intent types.RuleIntent) error
}

type jdRuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJdRuleRepo(db *gorm.DB, baseLog *logger.Logger) JdRuleRepo {
	return &jdRuleRepo{db: db, log: baseLog.With("repo", "JdRuleRepo")}
}

// GetByJdID returns rules in rule order with chunks in chunk order; the
// match trace is emitted in exactly this order.
func (r *jdRuleRepo) GetByJdID(ctx context.Context, tx *gorm.DB, jdID uuid.UUID) ([]*types.JDRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.JDRule
	if err := transaction.WithContext(ctx).
		Preload("Chunks", func(db *gorm.DB) *gorm.DB {
			return db.Order("chunk_order ASC")
		}).
		Where("jd_id = ?", jdID).
		Order("rule_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *jdRuleRepo) UpdateIntent(ctx context.Context, tx *gorm.DB, ruleID uuid.UUID, intent types.RuleIntent) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.JDRule{}).
		Where("id = ?", ruleID).
		Update("intent", intent).Error
}
