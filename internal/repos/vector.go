package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/match"
)

// RuleChunkSource selects which table holds the querying rule chunk.
type RuleChunkSource string

const (
	SourceJdRuleChunk      RuleChunkSource = "jd_rule_chunk"
	SourceQualityRuleChunk RuleChunkSource = "cv_quality_rule_chunk"
)

// VectorCandidate is one raw top-K row before the contract annotates it.
type VectorCandidate struct {
	RuleChunkID    uuid.UUID         `gorm:"column:rule_chunk_id"`
	CvChunkID      uuid.UUID         `gorm:"column:cv_chunk_id"`
	SectionID      uuid.UUID         `gorm:"column:section_id"`
	SectionType    match.SectionType `gorm:"column:section_type"`
	ChunkOrder     int               `gorm:"column:chunk_order"`
	Content        string            `gorm:"column:content"`
	CosineDistance float64           `gorm:"column:cosine_distance"`
}

type VectorRepo interface {
	TopK(ctx context.Context, source RuleChunkSource, ruleChunkID uuid.UUID, cvID uuid.UUID, k int) ([]VectorCandidate, error)
	TopKBatch(ctx context.Context, source RuleChunkSource, ruleChunkIDs []uuid.UUID, cvID uuid.UUID, k int) (map[uuid.UUID][]VectorCandidate, error)
}

type vectorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVectorRepo(db *gorm.DB, baseLog *logger.Logger) VectorRepo {
	return &vectorRepo{db: db, log: baseLog.With("repo", "VectorRepo")}
}

// TopK ranks CV chunks of one CV against one rule chunk by cosine distance.
// Rows with a NULL embedding on either side never appear. The ORDER BY mirrors
// the contract tie-break so equal-distance rows come back in a fixed order.
func (r *vectorRepo) TopK(ctx context.Context, source RuleChunkSource, ruleChunkID uuid.UUID, cvID uuid.UUID, k int) ([]VectorCandidate, error) {
	if k <= 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`
		SELECT rc.id AS rule_chunk_id,
		       cc.id AS cv_chunk_id,
		       cs.id AS section_id,
		       cs.type AS section_type,
		       cc.chunk_order AS chunk_order,
		       cc.content AS content,
		       (cc.embedding <=> rc.embedding) AS cosine_distance
		FROM %s rc
		JOIN cv_section cs ON cs.cv_id = ?
		JOIN cv_chunk cc ON cc.cv_section_id = cs.id
		WHERE rc.id = ?
		  AND rc.embedding IS NOT NULL
		  AND cc.embedding IS NOT NULL
		ORDER BY cosine_distance ASC, cs.id ASC, cc.chunk_order ASC, cc.id ASC
		LIMIT ?`, source)

	var rows []VectorCandidate
	if err := r.db.WithContext(ctx).Raw(query, cvID, ruleChunkID, k).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("vector topK: %w", err)
	}
	return rows, nil
}

// TopKBatch is the windowed form of TopK: one round trip for many rule
// chunks, with identical per-chunk results.
func (r *vectorRepo) TopKBatch(ctx context.Context, source RuleChunkSource, ruleChunkIDs []uuid.UUID, cvID uuid.UUID, k int) (map[uuid.UUID][]VectorCandidate, error) {
	out := make(map[uuid.UUID][]VectorCandidate, len(ruleChunkIDs))
	if len(ruleChunkIDs) == 0 || k <= 0 {
		return out, nil
	}
	query := fmt.Sprintf(`
		SELECT rule_chunk_id, cv_chunk_id, section_id, section_type, chunk_order, content, cosine_distance
		FROM (
			SELECT rc.id AS rule_chunk_id,
			       cc.id AS cv_chunk_id,
			       cs.id AS section_id,
			       cs.type AS section_type,
			       cc.chunk_order AS chunk_order,
			       cc.content AS content,
			       (cc.embedding <=> rc.embedding) AS cosine_distance,
			       ROW_NUMBER() OVER (
			           PARTITION BY rc.id
			           ORDER BY (cc.embedding <=> rc.embedding) ASC, cs.id ASC, cc.chunk_order ASC, cc.id ASC
			       ) AS rn
			FROM %s rc
			JOIN cv_section cs ON cs.cv_id = ?
			JOIN cv_chunk cc ON cc.cv_section_id = cs.id
			WHERE rc.id IN ?
			  AND rc.embedding IS NOT NULL
			  AND cc.embedding IS NOT NULL
		) ranked
		WHERE rn <= ?
		ORDER BY rule_chunk_id ASC, rn ASC`, source)

	var rows []VectorCandidate
	if err := r.db.WithContext(ctx).Raw(query, cvID, ruleChunkIDs, k).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("vector topK batch: %w", err)
	}
	for _, row := range rows {
		out[row.RuleChunkID] = append(out[row.RuleChunkID], row)
	}
	return out, nil
}
