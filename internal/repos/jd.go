package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/types"
)

type JdRepo interface {
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.JD, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.JD, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type jdRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJdRepo(db *gorm.DB, baseLog *logger.Logger) JdRepo {
	return &jdRepo{db: db, log: baseLog.With("repo", "JdRepo")}
}

func (r *jdRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.JD, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.JD
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *jdRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.JD, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.JD
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *jdRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.JD{}).Error
}
