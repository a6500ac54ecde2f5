package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/repos"
)

// EmbedCounts is telemetry only; no caller reads vectors back through this
// service.
type EmbedCounts struct {
	Embedded int `json:"embedded"`
	Skipped  int `json:"skipped"`
}

// EmbeddingService fills in missing chunk embeddings. Every operation is
// idempotent: a chunk is written only while its embedding is still NULL, so
// re-running after a partial failure resumes without duplication.
type EmbeddingService interface {
	EmbedCvChunks(ctx context.Context, cvID uuid.UUID) (EmbedCounts, error)
	EmbedJdRuleChunks(ctx context.Context, jdID uuid.UUID) (EmbedCounts, error)
	EmbedQualityRuleChunks(ctx context.Context, ruleSetID uuid.UUID) (EmbedCounts, error)
}

type embeddingService struct {
	log         *logger.Logger
	client      OpenAIClient
	cfg         MatchConfig
	cvChunkRepo repos.CvChunkRepo
	jdChunkRepo repos.JdRuleChunkRepo
	ruleSetRepo repos.RuleSetRepo
}

// NewEmbeddingService accepts a nil client; both embed operations then become
// no-ops returning zero counts, which is the offline/test configuration.
func NewEmbeddingService(
	log *logger.Logger,
	client OpenAIClient,
	cfg MatchConfig,
	cvChunkRepo repos.CvChunkRepo,
	jdChunkRepo repos.JdRuleChunkRepo,
	ruleSetRepo repos.RuleSetRepo,
) EmbeddingService {
	return &embeddingService{
		log:         log.With("service", "EmbeddingService"),
		client:      client,
		cfg:         cfg,
		cvChunkRepo: cvChunkRepo,
		jdChunkRepo: jdChunkRepo,
		ruleSetRepo: ruleSetRepo,
	}
}

// pendingChunk is one row still waiting for its vector.
type pendingChunk struct {
	id      uuid.UUID
	content string
}

func (s *embeddingService) EmbedCvChunks(ctx context.Context, cvID uuid.UUID) (EmbedCounts, error) {
	if s.client == nil {
		return EmbedCounts{}, nil
	}
	rows, err := s.cvChunkRepo.GetWithoutEmbeddingByCvID(ctx, nil, cvID)
	if err != nil {
		return EmbedCounts{}, fmt.Errorf("load cv chunks without embedding: %w", err)
	}
	pending := make([]pendingChunk, 0, len(rows))
	for _, row := range rows {
		pending = append(pending, pendingChunk{id: row.ID, content: row.Content})
	}
	return s.embedAll(ctx, pending, func(ctx context.Context, id uuid.UUID, vec pgvector.Vector) (bool, error) {
		return s.cvChunkRepo.SetEmbeddingIfNull(ctx, nil, id, vec)
	})
}

func (s *embeddingService) EmbedJdRuleChunks(ctx context.Context, jdID uuid.UUID) (EmbedCounts, error) {
	if s.client == nil {
		return EmbedCounts{}, nil
	}
	rows, err := s.jdChunkRepo.GetWithoutEmbeddingByJdID(ctx, nil, jdID)
	if err != nil {
		return EmbedCounts{}, fmt.Errorf("load jd rule chunks without embedding: %w", err)
	}
	pending := make([]pendingChunk, 0, len(rows))
	for _, row := range rows {
		pending = append(pending, pendingChunk{id: row.ID, content: row.Content})
	}
	return s.embedAll(ctx, pending, func(ctx context.Context, id uuid.UUID, vec pgvector.Vector) (bool, error) {
		return s.jdChunkRepo.SetEmbeddingIfNull(ctx, nil, id, vec)
	})
}

func (s *embeddingService) EmbedQualityRuleChunks(ctx context.Context, ruleSetID uuid.UUID) (EmbedCounts, error) {
	if s.client == nil {
		return EmbedCounts{}, nil
	}
	rows, err := s.ruleSetRepo.GetRuleChunksWithoutEmbedding(ctx, nil, ruleSetID)
	if err != nil {
		return EmbedCounts{}, fmt.Errorf("load quality rule chunks without embedding: %w", err)
	}
	pending := make([]pendingChunk, 0, len(rows))
	for _, row := range rows {
		pending = append(pending, pendingChunk{id: row.ID, content: row.Content})
	}
	return s.embedAll(ctx, pending, func(ctx context.Context, id uuid.UUID, vec pgvector.Vector) (bool, error) {
		return s.ruleSetRepo.SetRuleChunkEmbeddingIfNull(ctx, nil, id, vec)
	})
}

// embedAll runs the provider in batches. A failed batch (provider error or a
// vector with the wrong dimension) writes nothing and counts its chunks as
// skipped; later batches still run.
func (s *embeddingService) embedAll(
	ctx context.Context,
	pending []pendingChunk,
	write func(ctx context.Context, id uuid.UUID, vec pgvector.Vector) (bool, error),
) (EmbedCounts, error) {
	var counts EmbedCounts

	batchSize := s.cfg.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	for start := 0; start < len(pending); start += batchSize {
		if ctx.Err() != nil {
			return counts, ctx.Err()
		}
		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		inputs := make([]string, len(batch))
		for i, p := range batch {
			inputs[i] = p.content
		}

		vectors, err := s.client.Embed(ctx, inputs)
		if err != nil {
			s.log.Warn("Embedding batch failed; skipping", "batch_start", start, "batch_size", len(batch), "error", err)
			counts.Skipped += len(batch)
			continue
		}

		if badIdx := s.validateDimensions(vectors); badIdx >= 0 {
			s.log.Warn("Embedding batch returned wrong dimension; aborting batch without writes",
				"batch_start", start,
				"expected", s.cfg.EmbeddingDimension,
				"got", len(vectors[badIdx]),
			)
			counts.Skipped += len(batch)
			continue
		}

		for i, p := range batch {
			wrote, err := write(ctx, p.id, pgvector.NewVector(vectors[i]))
			if err != nil {
				return counts, fmt.Errorf("write embedding: %w", err)
			}
			if wrote {
				counts.Embedded++
			} else {
				counts.Skipped++
			}
		}
	}
	return counts, nil
}

func (s *embeddingService) validateDimensions(vectors [][]float32) int {
	for i, v := range vectors {
		if len(v) != s.cfg.EmbeddingDimension {
			return i
		}
	}
	return -1
}
