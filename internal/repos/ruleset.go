package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/types"
)

type RuleSetRepo interface {
	GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.RuleSet, error)
	Create(ctx context.Context, tx *gorm.DB, set *types.RuleSet) (*types.RuleSet, error)
	GetRuleChunksWithoutEmbedding(ctx context.Context, tx *gorm.DB, ruleSetID uuid.UUID) ([]*types.CvQualityRuleChunk, error)
	SetRuleChunkEmbeddingIfNull(ctx context.Context, tx *gorm.DB, id uuid.UUID, vec pgvector.Vector) (bool, error)
}

type ruleSetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRuleSetRepo(db *gorm.DB, baseLog *logger.Logger) RuleSetRepo {
	return &ruleSetRepo{db: db, log: baseLog.With("repo", "RuleSetRepo")}
}

// GetByKey returns nil, nil when the catalogue has not been seeded yet.
func (r *ruleSetRepo) GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.RuleSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var set types.RuleSet
	err := transaction.WithContext(ctx).
		Preload("Rules", func(db *gorm.DB) *gorm.DB {
			return db.Order("rule_order ASC")
		}).
		Preload("Rules.Chunks", func(db *gorm.DB) *gorm.DB {
			return db.Order("chunk_order ASC")
		}).
		Where("key = ?", key).
		First(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func (r *ruleSetRepo) Create(ctx context.Context, tx *gorm.DB, set *types.RuleSet) (*types.RuleSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(set).Error; err != nil {
		return nil, err
	}
	return set, nil
}

func (r *ruleSetRepo) GetRuleChunksWithoutEmbedding(ctx context.Context, tx *gorm.DB, ruleSetID uuid.UUID) ([]*types.CvQualityRuleChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CvQualityRuleChunk
	if err := transaction.WithContext(ctx).
		Joins("JOIN cv_quality_rule ON cv_quality_rule.id = cv_quality_rule_chunk.rule_id").
		Where("cv_quality_rule.rule_set_id = ? AND cv_quality_rule_chunk.embedding IS NULL", ruleSetID).
		Order("cv_quality_rule.rule_order ASC, cv_quality_rule_chunk.chunk_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ruleSetRepo) SetRuleChunkEmbeddingIfNull(ctx context.Context, tx *gorm.DB, id uuid.UUID, vec pgvector.Vector) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.CvQualityRuleChunk{}).
		Where("id = ? AND embedding IS NULL", id).
		Update("embedding", vec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
