package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/repos"
	"github.com/cvready/cvready-backend/internal/types"
)

// CvService is the CV collaborator: ownership checks and full loads for the
// evaluation pipeline, plus the user-facing list/delete surface.
type CvService interface {
	EnsureCvParsed(ctx context.Context, userID uuid.UUID, cvID uuid.UUID) (*types.CV, error)
	FindCvWithSectionsAndChunks(ctx context.Context, cvID uuid.UUID) (*types.CV, error)
	ListCvs(ctx context.Context, userID uuid.UUID) ([]*types.CV, error)
	DeleteCv(ctx context.Context, userID uuid.UUID, cvID uuid.UUID) error
}

type cvService struct {
	log    *logger.Logger
	cvRepo repos.CvRepo
}

func NewCvService(log *logger.Logger, cvRepo repos.CvRepo) CvService {
	return &cvService{
		log:    log.With("service", "CvService"),
		cvRepo: cvRepo,
	}
}

func (s *cvService) EnsureCvParsed(ctx context.Context, userID uuid.UUID, cvID uuid.UUID) (*types.CV, error) {
	cvs, err := s.cvRepo.GetByIDs(ctx, nil, []uuid.UUID{cvID})
	if err != nil {
		return nil, fmt.Errorf("load cv: %w", err)
	}
	if len(cvs) == 0 {
		return nil, ErrCvNotFound
	}
	cv := cvs[0]
	if cv.UserID != userID {
		return nil, ErrCvNotOwned
	}
	if cv.Status != types.CvStatusParsed && cv.Status != types.CvStatusEvaluated {
		return nil, ErrCvNotParsed
	}
	return cv, nil
}

func (s *cvService) FindCvWithSectionsAndChunks(ctx context.Context, cvID uuid.UUID) (*types.CV, error) {
	cv, err := s.cvRepo.GetWithSectionsAndChunks(ctx, nil, cvID)
	if err != nil {
		return nil, fmt.Errorf("load cv with sections: %w", err)
	}
	if cv == nil {
		return nil, ErrCvNotFound
	}
	return cv, nil
}

func (s *cvService) ListCvs(ctx context.Context, userID uuid.UUID) ([]*types.CV, error) {
	return s.cvRepo.ListByUserID(ctx, nil, userID)
}

func (s *cvService) DeleteCv(ctx context.Context, userID uuid.UUID, cvID uuid.UUID) error {
	cvs, err := s.cvRepo.GetByIDs(ctx, nil, []uuid.UUID{cvID})
	if err != nil {
		return fmt.Errorf("load cv: %w", err)
	}
	if len(cvs) == 0 {
		return ErrCvNotFound
	}
	if cvs[0].UserID != userID {
		return ErrCvNotOwned
	}
	return s.cvRepo.Delete(ctx, nil, cvID)
}
