package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/types"
)

type CvChunkRepo interface {
	GetWithoutEmbeddingByCvID(ctx context.Context, tx *gorm.DB, cvID uuid.UUID) ([]*types.CvChunk, error)
	SetEmbeddingIfNull(ctx context.Context, tx *gorm.DB, id uuid.UUID, vec pgvector.Vector) (bool, error)
}

type cvChunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCvChunkRepo(db *gorm.DB, baseLog *logger.Logger) CvChunkRepo {
	return &cvChunkRepo{db: db, log: baseLog.With("repo", "CvChunkRepo")}
}

func (r *cvChunkRepo) GetWithoutEmbeddingByCvID(ctx context.Context, tx *gorm.DB, cvID uuid.UUID) ([]*types.CvChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CvChunk
	if err := transaction.WithContext(ctx).
		Joins("JOIN cv_section ON cv_section.id = cv_chunk.cv_section_id").
		Where("cv_section.cv_id = ? AND cv_chunk.embedding IS NULL", cvID).
		Order("cv_section.section_order ASC, cv_chunk.chunk_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// SetEmbeddingIfNull only writes when the column is still NULL, which makes
// concurrent embedding runs idempotent. Returns whether a row was written.
func (r *cvChunkRepo) SetEmbeddingIfNull(ctx context.Context, tx *gorm.DB, id uuid.UUID, vec pgvector.Vector) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.CvChunk{}).
		Where("id = ? AND embedding IS NULL", id).
		Update("embedding", vec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
