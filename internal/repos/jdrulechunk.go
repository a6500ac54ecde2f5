package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/types"
)

type JdRuleChunkRepo interface {
	GetWithoutEmbeddingByJdID(ctx context.Context, tx *gorm.DB, jdID uuid.UUID) ([]*types.JDRuleChunk, error)
	SetEmbeddingIfNull(ctx context.Context, tx *gorm.DB, id uuid.UUID, vec pgvector.Vector) (bool, error)
}

type jdRuleChunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJdRuleChunkRepo(db *gorm.DB, baseLog *logger.Logger) JdRuleChunkRepo {
	return &jdRuleChunkRepo{db: db, log: baseLog.With("repo", "JdRuleChunkRepo")}
}

func (r *jdRuleChunkRepo) GetWithoutEmbeddingByJdID(ctx context.Context, tx *gorm.DB, jdID uuid.UUID) ([]*types.JDRuleChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.JDRuleChunk
	if err := transaction.WithContext(ctx).
		Joins("JOIN jd_rule ON jd_rule.id = jd_rule_chunk.jd_rule_id").
		Where("jd_rule.jd_id = ? AND jd_rule_chunk.embedding IS NULL", jdID).
		Order("jd_rule.rule_order ASC, jd_rule_chunk.chunk_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *jdRuleChunkRepo) SetEmbeddingIfNull(ctx context.Context, tx *gorm.DB, id uuid.UUID, vec pgvector.Vector) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.JDRuleChunk{}).
		Where("id = ? AND embedding IS NULL", id).
		Update("embedding", vec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
