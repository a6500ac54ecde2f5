package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/repos"
	"github.com/cvready/cvready-backend/internal/sse"
	"github.com/cvready/cvready-backend/internal/types"
)

type Recommendation string

const (
	RecommendationNotReady         Recommendation = "NOT_READY"
	RecommendationNeedsImprovement Recommendation = "NEEDS_IMPROVEMENT"
	RecommendationReadyToApply     Recommendation = "READY_TO_APPLY"
)

type DecisionSupport struct {
	ReadinessScore   int            `json:"readinessScore"`
	Recommendation   Recommendation `json:"recommendation"`
	CriticalGaps     int            `json:"criticalGaps"`
	MajorGaps        int            `json:"majorGaps"`
	ImprovementAreas int            `json:"improvementAreas"`
}

type EvaluationTimings struct {
	Total int64 `json:"total"`
}

type EvaluationTrace struct {
	RequestID      string            `json:"requestId"`
	CvID           uuid.UUID         `json:"cvId"`
	JdID           *uuid.UUID        `json:"jdId,omitempty"`
	RuleSetVersion string            `json:"ruleSetVersion"`
	TimingsMs      EvaluationTimings `json:"timingsMs"`
}

// EvaluationResult is the persisted wire format of one run.
type EvaluationResult struct {
	EvaluationID  uuid.UUID       `json:"evaluationId"`
	CvQuality     *QualityResult  `json:"cvQuality"`
	JdMatch       *JdMatchResult  `json:"jdMatch"`
	Gaps          []Gap           `json:"gaps"`
	Suggestions   []Suggestion    `json:"suggestions"`
	MockQuestions json.RawMessage `json:"mockQuestions,omitempty"`
	DecisionSupport DecisionSupport `json:"decisionSupport"`
	Trace           EvaluationTrace `json:"trace"`
}

// EvaluationSummary is the condensed read-side view of a stored result.
type EvaluationSummary struct {
	EvaluationID   uuid.UUID       `json:"evaluationId"`
	CvID           uuid.UUID       `json:"cvId"`
	JdID           *uuid.UUID      `json:"jdId,omitempty"`
	Decision       QualityDecision `json:"decision"`
	Level          MatchLevel      `json:"level,omitempty"`
	Recommendation Recommendation  `json:"recommendation"`
	ReadinessScore int             `json:"readinessScore"`
	GapCount       int             `json:"gapCount"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type EvaluationService interface {
	RunEvaluation(ctx context.Context, userID uuid.UUID, cvID uuid.UUID, jdID *uuid.UUID) (*EvaluationResult, error)
	ListEvaluations(ctx context.Context, userID uuid.UUID) ([]*types.Evaluation, error)
	GetEvaluationSummary(ctx context.Context, userID uuid.UUID, evaluationID uuid.UUID) (*EvaluationSummary, error)
	DeleteEvaluation(ctx context.Context, userID uuid.UUID, evaluationID uuid.UUID) error
}

type evaluationService struct {
	log            *logger.Logger
	cfg            MatchConfig
	cvRepo         repos.CvRepo
	jdRepo         repos.JdRepo
	evaluationRepo repos.EvaluationRepo
	embedding      EmbeddingService
	quality        QualityService
	jdMatch        JdMatchService
	notifier       Notifier
}

func NewEvaluationService(
	log *logger.Logger,
	cfg MatchConfig,
	cvRepo repos.CvRepo,
	jdRepo repos.JdRepo,
	evaluationRepo repos.EvaluationRepo,
	embedding EmbeddingService,
	quality QualityService,
	jdMatch JdMatchService,
	notifier Notifier,
) EvaluationService {
	return &evaluationService{
		log:            log.With("service", "EvaluationService"),
		cfg:            cfg,
		cvRepo:         cvRepo,
		jdRepo:         jdRepo,
		evaluationRepo: evaluationRepo,
		embedding:      embedding,
		quality:        quality,
		jdMatch:        jdMatch,
		notifier:       notifier,
	}
}

// RunEvaluation drives the whole pipeline: ownership gate, structural gate,
// embedding, semantic quality, JD matching, decision support, persistence.
// Stages are strictly sequential; fan-out happens inside the stages.
func (s *evaluationService) RunEvaluation(ctx context.Context, userID uuid.UUID, cvID uuid.UUID, jdID *uuid.UUID) (*EvaluationResult, error) {
	start := time.Now()
	requestID := uuid.NewString()
	log := s.log.With("request_id", requestID, "cv_id", cvID)

	cv, err := s.gateCv(ctx, userID, cvID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, userID, sse.SSEEventEvaluationStarted, map[string]any{"requestId": requestID, "cvId": cvID})

	// Fast structural gate: no embedding spend on a CV that cannot pass.
	structural, err := s.quality.Evaluate(ctx, cvID, false)
	if err != nil {
		return nil, err
	}
	if structural.Decision == DecisionNotReady {
		log.Info("Structural gate failed; short-circuiting")
		return s.finish(ctx, userID, cv, jdID, requestID, start, structural, nil)
	}
	s.progress(ctx, userID, requestID, "structural_gate_passed")

	if _, err := s.embedding.EmbedCvChunks(ctx, cvID); err != nil {
		return nil, fmt.Errorf("embed cv chunks: %w", err)
	}
	s.progress(ctx, userID, requestID, "cv_embedded")

	qualityRes, err := s.quality.Evaluate(ctx, cvID, true)
	if err != nil {
		return nil, err
	}
	if qualityRes.Decision == DecisionNotReady {
		log.Info("Semantic quality gate failed; short-circuiting")
		return s.finish(ctx, userID, cv, jdID, requestID, start, qualityRes, nil)
	}
	s.progress(ctx, userID, requestID, "quality_evaluated")

	if jdID == nil {
		return s.finish(ctx, userID, cv, nil, requestID, start, qualityRes, nil)
	}

	if err := s.gateJd(ctx, userID, *jdID); err != nil {
		return nil, err
	}
	if _, err := s.embedding.EmbedJdRuleChunks(ctx, *jdID); err != nil {
		return nil, fmt.Errorf("embed jd rule chunks: %w", err)
	}
	s.progress(ctx, userID, requestID, "jd_embedded")

	jdRes, err := s.jdMatch.Evaluate(ctx, cvID, *jdID)
	if err != nil {
		return nil, err
	}
	s.progress(ctx, userID, requestID, "jd_matched")

	return s.finish(ctx, userID, cv, jdID, requestID, start, qualityRes, jdRes)
}

func (s *evaluationService) gateCv(ctx context.Context, userID uuid.UUID, cvID uuid.UUID) (*types.CV, error) {
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

func (s *evaluationService) gateJd(ctx context.Context, userID uuid.UUID, jdID uuid.UUID) error {
	jds, err := s.jdRepo.GetByIDs(ctx, nil, []uuid.UUID{jdID})
	if err != nil {
		return fmt.Errorf("load jd: %w", err)
	}
	if len(jds) == 0 {
		return ErrJdNotFound
	}
	if jds[0].UserID != userID {
		return ErrJdNotOwned
	}
	return nil
}

// finish assembles decision support, persists the Evaluation, and flips the
// CV status. Every completed run goes through here, short-circuited or not.
func (s *evaluationService) finish(
	ctx context.Context,
	userID uuid.UUID,
	cv *types.CV,
	jdID *uuid.UUID,
	requestID string,
	start time.Time,
	quality *QualityResult,
	jd *JdMatchResult,
) (*EvaluationResult, error) {
	result := &EvaluationResult{
		EvaluationID: uuid.New(),
		CvQuality:    quality,
		JdMatch:      jd,
		Gaps:         []Gap{},
		Suggestions:  []Suggestion{},
	}
	if jd != nil {
		result.Gaps = jd.Gaps
		result.Suggestions = jd.Suggestions
	}
	result.DecisionSupport = decisionSupport(quality, jd)
	result.Trace = EvaluationTrace{
		RequestID:      requestID,
		CvID:           cv.ID,
		JdID:           jdID,
		RuleSetVersion: quality.RuleSetVersion,
		TimingsMs:      EvaluationTimings{Total: time.Since(start).Milliseconds()},
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal evaluation result: %w", err)
	}
	row := &types.Evaluation{
		ID:     result.EvaluationID,
		UserID: userID,
		CvID:   cv.ID,
		JdID:   jdID,
		Result: datatypes.JSON(raw),
	}
	if _, err := s.evaluationRepo.Create(ctx, nil, row); err != nil {
		return nil, fmt.Errorf("persist evaluation: %w", err)
	}

	if err := s.cvRepo.UpdateStatus(ctx, nil, cv.ID, types.CvStatusEvaluated); err != nil {
		s.log.Warn("Failed to mark CV evaluated", "cv_id", cv.ID, "error", err)
	}

	s.notify(ctx, userID, sse.SSEEventEvaluationCompleted, map[string]any{
		"requestId":      requestID,
		"evaluationId":   row.ID,
		"recommendation": result.DecisionSupport.Recommendation,
	})
	return result, nil
}

func decisionSupport(quality *QualityResult, jd *JdMatchResult) DecisionSupport {
	var critical, major, improvement int
	if jd != nil {
		critical = jd.GapSummary.Critical
		major = jd.GapSummary.Minor
		improvement = jd.GapSummary.Advisory
	}

	score := 100 - 25*critical - 10*major - 2*improvement
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	recommendation := RecommendationReadyToApply
	switch {
	case quality.Decision == DecisionNotReady || critical > 0:
		recommendation = RecommendationNotReady
	case quality.Decision == DecisionNeedsImprovement || major > 2:
		recommendation = RecommendationNeedsImprovement
	}

	return DecisionSupport{
		ReadinessScore:   score,
		Recommendation:   recommendation,
		CriticalGaps:     critical,
		MajorGaps:        major,
		ImprovementAreas: improvement,
	}
}

func (s *evaluationService) ListEvaluations(ctx context.Context, userID uuid.UUID) ([]*types.Evaluation, error) {
	return s.evaluationRepo.ListByUserID(ctx, nil, userID)
}

func (s *evaluationService) GetEvaluationSummary(ctx context.Context, userID uuid.UUID, evaluationID uuid.UUID) (*EvaluationSummary, error) {
	row, err := s.evaluationRepo.GetByID(ctx, nil, evaluationID)
	if err != nil {
		return nil, err
	}
	if row == nil || row.UserID != userID {
		return nil, ErrEvaluationNotFound
	}

	var result EvaluationResult
	if err := json.Unmarshal(row.Result, &result); err != nil {
		return nil, fmt.Errorf("decode stored result: %w", err)
	}

	summary := &EvaluationSummary{
		EvaluationID:   row.ID,
		CvID:           row.CvID,
		JdID:           row.JdID,
		Recommendation: result.DecisionSupport.Recommendation,
		ReadinessScore: result.DecisionSupport.ReadinessScore,
		GapCount:       len(result.Gaps),
		CreatedAt:      row.CreatedAt,
	}
	if result.CvQuality != nil {
		summary.Decision = result.CvQuality.Decision
	}
	if result.JdMatch != nil {
		summary.Level = result.JdMatch.Level
	}
	return summary, nil
}

func (s *evaluationService) DeleteEvaluation(ctx context.Context, userID uuid.UUID, evaluationID uuid.UUID) error {
	row, err := s.evaluationRepo.GetByID(ctx, nil, evaluationID)
	if err != nil {
		return err
	}
	if row == nil || row.UserID != userID {
		return ErrEvaluationNotFound
	}
	return s.evaluationRepo.Delete(ctx, nil, evaluationID)
}

func (s *evaluationService) notify(ctx context.Context, userID uuid.UUID, event sse.SSEEvent, data any) {
	if s.notifier != nil {
		s.notifier.Publish(ctx, userID, event, data)
	}
}

func (s *evaluationService) progress(ctx context.Context, userID uuid.UUID, requestID string, stage string) {
	s.notify(ctx, userID, sse.SSEEventEvaluationProgress, map[string]any{"requestId": requestID, "stage": stage})
}
