package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/types"
)

type EvaluationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, evaluation *types.Evaluation) (*types.Evaluation, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Evaluation, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Evaluation, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type evaluationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvaluationRepo(db *gorm.DB, baseLog *logger.Logger) EvaluationRepo {
	return &evaluationRepo{db: db, log: baseLog.With("repo", "EvaluationRepo")}
}

func (r *evaluationRepo) Create(ctx context.Context, tx *gorm.DB, evaluation *types.Evaluation) (*types.Evaluation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(evaluation).Error; err != nil {
		return nil, err
	}
	return evaluation, nil
}

func (r *evaluationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Evaluation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var evaluation types.Evaluation
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&evaluation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (r *evaluationRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Evaluation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Evaluation
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *evaluationRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Evaluation{}).Error
}
