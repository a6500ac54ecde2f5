package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/repos"
	"github.com/cvready/cvready-backend/internal/types"
)

// JdService is the JD collaborator: ownership checks, rule access, and the
// asynchronous intent update used to reclassify extracted rules.
type JdService interface {
	EnsureJdExists(ctx context.Context, userID uuid.UUID, jdID uuid.UUID) (*types.JD, error)
	FindRulesByJdID(ctx context.Context, jdID uuid.UUID) ([]*types.JDRule, error)
	UpdateRuleIntent(ctx context.Context, userID uuid.UUID, jdID uuid.UUID, ruleID uuid.UUID, intent types.RuleIntent) error
	ListJds(ctx context.Context, userID uuid.UUID) ([]*types.JD, error)
	DeleteJd(ctx context.Context, userID uuid.UUID, jdID uuid.UUID) error
}

type jdService struct {
	log        *logger.Logger
	jdRepo     repos.JdRepo
	jdRuleRepo repos.JdRuleRepo
}

func NewJdService(log *logger.Logger, jdRepo repos.JdRepo, jdRuleRepo repos.JdRuleRepo) JdService {
	return &jdService{
		log:        log.With("service", "JdService"),
		jdRepo:     jdRepo,
		jdRuleRepo: jdRuleRepo,
	}
}

func (s *jdService) EnsureJdExists(ctx context.Context, userID uuid.UUID, jdID uuid.UUID) (*types.JD, error) {
	jds, err := s.jdRepo.GetByIDs(ctx, nil, []uuid.UUID{jdID})
	if err != nil {
		return nil, fmt.Errorf("load jd: %w", err)
	}
	if len(jds) == 0 {
		return nil, ErrJdNotFound
	}
	if jds[0].UserID != userID {
		return nil, ErrJdNotOwned
	}
	return jds[0], nil
}

func (s *jdService) FindRulesByJdID(ctx context.Context, jdID uuid.UUID) ([]*types.JDRule, error) {
	return s.jdRuleRepo.GetByJdID(ctx, nil, jdID)
}

func (s *jdService) UpdateRuleIntent(ctx context.Context, userID uuid.UUID, jdID uuid.UUID, ruleID uuid.UUID, intent types.RuleIntent) error {
	if _, err := s.EnsureJdExists(ctx, userID, jdID); err != nil {
		return err
	}
	switch intent {
	case types.IntentRequirement, types.IntentResponsibility, types.IntentQualification,
		types.IntentInformational, types.IntentPreference:
	default:
		return fmt.Errorf("unknown rule intent %q", intent)
	}
	return s.jdRuleRepo.UpdateIntent(ctx, nil, ruleID, intent)
}

func (s *jdService) ListJds(ctx context.Context, userID uuid.UUID) ([]*types.JD, error) {
	return s.jdRepo.ListByUserID(ctx, nil, userID)
}

func (s *jdService) DeleteJd(ctx context.Context, userID uuid.UUID, jdID uuid.UUID) error {
	if _, err := s.EnsureJdExists(ctx, userID, jdID); err != nil {
		return err
	}
	return s.jdRepo.Delete(ctx, nil, jdID)
}
