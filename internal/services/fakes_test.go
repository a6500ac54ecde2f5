package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/match"
	"github.com/cvready/cvready-backend/internal/repos"
	"github.com/cvready/cvready-backend/internal/sse"
	"github.com/cvready/cvready-backend/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func testMatchConfig() MatchConfig {
	return MatchConfig{
		EmbeddingDimension:     4,
		EmbedBatchSize:         100,
		TopK:                   5,
		Thresholds:             match.Thresholds{Floor: 0.15, Low: 0.40, High: 0.75},
		LLMJudgeEnabled:        false,
		JudgeBatchSize:         10,
		JudgeConcurrency:       2,
		TopKConcurrency:        2,
		MultiMentionThreshold:  3,
		MultiMentionHighSim:    0.60,
		DedupSimThreshold:      0.95,
		UpgradeMargin:          0.05,
		AllowedUpgradeSections: match.DefaultUpgradeSections,
		RuleTypeMultipliers: map[match.RuleType]float64{
			match.RuleMustHave:     3.0,
			match.RuleNiceToHave:   2.0,
			match.RuleBestPractice: 1.0,
		},
		ScoreWeights: map[match.RuleType]float64{
			match.RuleMustHave:     0.5,
			match.RuleNiceToHave:   0.3,
			match.RuleBestPractice: 0.2,
		},
		QualityRuleSetKey: "cv-quality-student-fresher",
	}
}

func mustUUID(s string) uuid.UUID { return uuid.MustParse(s) }

// --- repos ---

type fakeCvRepo struct {
	cvs           map[uuid.UUID]*types.CV
	statusUpdates map[uuid.UUID]types.CvStatus
	getErr        error
}

func newFakeCvRepo(cvs ...*types.CV) *fakeCvRepo {
	r := &fakeCvRepo{cvs: map[uuid.UUID]*types.CV{}, statusUpdates: map[uuid.UUID]types.CvStatus{}}
	for _, cv := range cvs {
		r.cvs[cv.ID] = cv
	}
	return r
}

func (r *fakeCvRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.CV, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	var out []*types.CV
	for _, id := range ids {
		if cv, ok := r.cvs[id]; ok {
			out = append(out, cv)
		}
	}
	return out, nil
}

func (r *fakeCvRepo) GetWithSectionsAndChunks(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.CV, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	cv, ok := r.cvs[id]
	if !ok {
		return nil, nil
	}
	return cv, nil
}

func (r *fakeCvRepo) ListByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) ([]*types.CV, error) {
	var out []*types.CV
	for _, cv := range r.cvs {
		if cv.UserID == userID {
			out = append(out, cv)
		}
	}
	return out, nil
}

func (r *fakeCvRepo) UpdateStatus(_ context.Context, _ *gorm.DB, id uuid.UUID, status types.CvStatus) error {
	r.statusUpdates[id] = status
	if cv, ok := r.cvs[id]; ok {
		cv.Status = status
	}
	return nil
}

func (r *fakeCvRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.cvs, id)
	return nil
}

type fakeJdRepo struct {
	jds map[uuid.UUID]*types.JD
}

func newFakeJdRepo(jds ...*types.JD) *fakeJdRepo {
	r := &fakeJdRepo{jds: map[uuid.UUID]*types.JD{}}
	for _, jd := range jds {
		r.jds[jd.ID] = jd
	}
	return r
}

func (r *fakeJdRepo) GetByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]*types.JD, error) {
	var out []*types.JD
	for _, id := range ids {
		if jd, ok := r.jds[id]; ok {
			out = append(out, jd)
		}
	}
	return out, nil
}

func (r *fakeJdRepo) ListByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) ([]*types.JD, error) {
	var out []*types.JD
	for _, jd := range r.jds {
		if jd.UserID == userID {
			out = append(out, jd)
		}
	}
	return out, nil
}

func (r *fakeJdRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.jds, id)
	return nil
}

type fakeEvaluationRepo struct {
	created []*types.Evaluation
}

func (r *fakeEvaluationRepo) Create(_ context.Context, _ *gorm.DB, evaluation *types.Evaluation) (*types.Evaluation, error) {
	r.created = append(r.created, evaluation)
	return evaluation, nil
}

func (r *fakeEvaluationRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Evaluation, error) {
	for _, e := range r.created {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeEvaluationRepo) ListByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) ([]*types.Evaluation, error) {
	var out []*types.Evaluation
	for _, e := range r.created {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEvaluationRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	kept := r.created[:0]
	for _, e := range r.created {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	r.created = kept
	return nil
}

type fakeVectorRepo struct {
	rows  map[uuid.UUID][]repos.VectorCandidate
	calls int
}

func (r *fakeVectorRepo) TopK(_ context.Context, _ repos.RuleChunkSource, ruleChunkID uuid.UUID, _ uuid.UUID, k int) ([]repos.VectorCandidate, error) {
	rows := r.rows[ruleChunkID]
	if len(rows) > k {
		rows = rows[:k]
	}
	return rows, nil
}

func (r *fakeVectorRepo) TopKBatch(_ context.Context, _ repos.RuleChunkSource, ruleChunkIDs []uuid.UUID, _ uuid.UUID, k int) (map[uuid.UUID][]repos.VectorCandidate, error) {
	r.calls++
	out := make(map[uuid.UUID][]repos.VectorCandidate, len(ruleChunkIDs))
	for _, id := range ruleChunkIDs {
		rows := r.rows[id]
		if len(rows) > k {
			rows = rows[:k]
		}
		out[id] = rows
	}
	return out, nil
}

type fakeRuleSetRepo struct {
	set     *types.RuleSet
	pending []*types.CvQualityRuleChunk
	written map[uuid.UUID]pgvector.Vector
}

func (r *fakeRuleSetRepo) GetByKey(_ context.Context, _ *gorm.DB, key string) (*types.RuleSet, error) {
	if r.set == nil || r.set.Key != key {
		return nil, nil
	}
	return r.set, nil
}

func (r *fakeRuleSetRepo) Create(_ context.Context, _ *gorm.DB, set *types.RuleSet) (*types.RuleSet, error) {
	r.set = set
	return set, nil
}

func (r *fakeRuleSetRepo) GetRuleChunksWithoutEmbedding(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.CvQualityRuleChunk, error) {
	return r.pending, nil
}

func (r *fakeRuleSetRepo) SetRuleChunkEmbeddingIfNull(_ context.Context, _ *gorm.DB, id uuid.UUID, vec pgvector.Vector) (bool, error) {
	if r.written == nil {
		r.written = map[uuid.UUID]pgvector.Vector{}
	}
	if _, ok := r.written[id]; ok {
		return false, nil
	}
	r.written[id] = vec
	return true, nil
}

type fakeJdRuleRepo struct {
	rules []*types.JDRule
}

func (r *fakeJdRuleRepo) GetByJdID(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.JDRule, error) {
	return r.rules, nil
}

func (r *fakeJdRuleRepo) UpdateIntent(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ types.RuleIntent) error {
	return nil
}

type fakeCvChunkRepo struct {
	pending  []*types.CvChunk
	written  map[uuid.UUID]pgvector.Vector
	writeErr error
}

func (r *fakeCvChunkRepo) GetWithoutEmbeddingByCvID(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.CvChunk, error) {
	return r.pending, nil
}

func (r *fakeCvChunkRepo) SetEmbeddingIfNull(_ context.Context, _ *gorm.DB, id uuid.UUID, vec pgvector.Vector) (bool, error) {
	if r.writeErr != nil {
		return false, r.writeErr
	}
	if r.written == nil {
		r.written = map[uuid.UUID]pgvector.Vector{}
	}
	if _, ok := r.written[id]; ok {
		return false, nil
	}
	r.written[id] = vec
	return true, nil
}

type fakeJdRuleChunkRepo struct {
	pending []*types.JDRuleChunk
	written map[uuid.UUID]pgvector.Vector
}

func (r *fakeJdRuleChunkRepo) GetWithoutEmbeddingByJdID(_ context.Context, _ *gorm.DB, _ uuid.UUID) ([]*types.JDRuleChunk, error) {
	return r.pending, nil
}

func (r *fakeJdRuleChunkRepo) SetEmbeddingIfNull(_ context.Context, _ *gorm.DB, id uuid.UUID, vec pgvector.Vector) (bool, error) {
	if r.written == nil {
		r.written = map[uuid.UUID]pgvector.Vector{}
	}
	if _, ok := r.written[id]; ok {
		return false, nil
	}
	r.written[id] = vec
	return true, nil
}

// --- provider ---

type fakeOpenAIClient struct {
	embedFn       func(inputs []string) ([][]float32, error)
	generateFn    func(system, user string) (map[string]any, error)
	embedCalls    int
	generateCalls int
}

func (c *fakeOpenAIClient) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	c.embedCalls++
	if c.embedFn == nil {
		return nil, errors.New("no embed function configured")
	}
	return c.embedFn(inputs)
}

func (c *fakeOpenAIClient) GenerateJSON(_ context.Context, system, user string, _ string, _ map[string]any) (map[string]any, error) {
	c.generateCalls++
	if c.generateFn == nil {
		return nil, errors.New("no generate function configured")
	}
	return c.generateFn(system, user)
}

// --- services ---

type fakeSemanticEvaluator struct {
	qualityResult *SemanticResult
	qualitySet    *types.RuleSet
	jdResult      *SemanticResult
	jdRules       []*types.JDRule
	err           error
}

func (f *fakeSemanticEvaluator) EvaluateCvQualityRules(_ context.Context, _ uuid.UUID, _ string) (*SemanticResult, *types.RuleSet, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.qualityResult, f.qualitySet, nil
}

func (f *fakeSemanticEvaluator) EvaluateJdRules(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*SemanticResult, []*types.JDRule, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.jdResult, f.jdRules, nil
}

// fakeJudgeService answers by input index; unlisted indexes are skipped.
type fakeJudgeService struct {
	outcomes map[int]JudgeOutcome
	calls    int
}

func (f *fakeJudgeService) Judge(ctx context.Context, in JudgeInput) JudgeOutcome {
	outs := f.JudgeBatch(ctx, []JudgeInput{in})
	return outs[0]
}

func (f *fakeJudgeService) JudgeBatch(_ context.Context, ins []JudgeInput) []JudgeOutcome {
	outs := make([]JudgeOutcome, len(ins))
	for i := range ins {
		f.calls++
		if o, ok := f.outcomes[i]; ok {
			outs[i] = o
		} else {
			outs[i] = JudgeOutcome{Skipped: true}
		}
	}
	return outs
}

type fakeJudgeCache struct {
	store map[string]JudgeVerdict
	gets  int
	hits  int
}

func (c *fakeJudgeCache) Get(_ context.Context, key string) (*JudgeVerdict, bool) {
	c.gets++
	v, ok := c.store[key]
	if !ok {
		return nil, false
	}
	c.hits++
	out := v
	return &out, true
}

func (c *fakeJudgeCache) Set(_ context.Context, key string, v JudgeVerdict) {
	if c.store == nil {
		c.store = map[string]JudgeVerdict{}
	}
	c.store[key] = v
}

type fakeEmbeddingService struct {
	cvCalls      int
	jdCalls      int
	qualityCalls int
	err          error
}

func (f *fakeEmbeddingService) EmbedCvChunks(_ context.Context, _ uuid.UUID) (EmbedCounts, error) {
	f.cvCalls++
	return EmbedCounts{}, f.err
}

func (f *fakeEmbeddingService) EmbedJdRuleChunks(_ context.Context, _ uuid.UUID) (EmbedCounts, error) {
	f.jdCalls++
	return EmbedCounts{}, f.err
}

func (f *fakeEmbeddingService) EmbedQualityRuleChunks(_ context.Context, _ uuid.UUID) (EmbedCounts, error) {
	f.qualityCalls++
	return EmbedCounts{}, f.err
}

// fakeQualityService returns one result per includeSemantic flag.
type fakeQualityService struct {
	structural *QualityResult
	semantic   *QualityResult
}

func (f *fakeQualityService) Evaluate(_ context.Context, _ uuid.UUID, includeSemantic bool) (*QualityResult, error) {
	if includeSemantic {
		return f.semantic, nil
	}
	return f.structural, nil
}

type fakeJdMatchService struct {
	result *JdMatchResult
	calls  int
	err    error
}

func (f *fakeJdMatchService) Evaluate(_ context.Context, _ uuid.UUID, _ uuid.UUID) (*JdMatchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type publishedEvent struct {
	userID uuid.UUID
	event  sse.SSEEvent
	data   any
}

type fakeNotifier struct {
	events []publishedEvent
}

func (f *fakeNotifier) Publish(_ context.Context, userID uuid.UUID, event sse.SSEEvent, data any) {
	f.events = append(f.events, publishedEvent{userID: userID, event: event, data: data})
}
