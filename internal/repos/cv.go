package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/types"
)

type CvRepo interface {
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CV, error)
	GetWithSectionsAndChunks(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CV, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CV, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.CvStatus) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type cvRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCvRepo(db *gorm.DB, baseLog *logger.Logger) CvRepo {
	return &cvRepo{db: db, log: baseLog.With("repo", "CvRepo")}
}

func (r *cvRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CV, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CV
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

// GetWithSectionsAndChunks loads the full tree in section and chunk order.
// The orderings are the total orders the tie-break comparator relies on.
// Returns nil, nil when the CV does not exist.
func (r *cvRepo) GetWithSectionsAndChunks(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CV, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var cv types.CV
	err := transaction.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("section_order ASC")
		}).
		Preload("Sections.Chunks", func(db *gorm.DB) *gorm.DB {
			return db.Order("chunk_order ASC")
		}).
		Where("id = ?", id).
		First(&cv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *cvRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CV, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CV
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *cvRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.CvStatus) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.CV{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *cvRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.CV{}).Error
}
