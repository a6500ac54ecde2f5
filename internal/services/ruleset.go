package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/match"
	"github.com/cvready/cvready-backend/internal/repos"
	"github.com/cvready/cvready-backend/internal/types"
)

//go:embed rules/cv_quality_student_fresher.yaml
var studentFresherCatalogue []byte

type catalogueFile struct {
	Key     string          `yaml:"key"`
	Version string          `yaml:"version"`
	Rules   []catalogueRule `yaml:"rules"`
}

type catalogueRule struct {
	RuleKey           string   `yaml:"rule_key"`
	Category          string   `yaml:"category"`
	Severity          string   `yaml:"severity"`
	Strategy          string   `yaml:"strategy"`
	StructuralCheck   string   `yaml:"structural_check"`
	AppliesToSections []string `yaml:"applies_to_sections"`
	Content           string   `yaml:"content"`
	Chunks            []string `yaml:"chunks"`
}

// RuleSetService seeds the quality rule catalogue from the embedded YAML and
// keeps its chunk embeddings filled. Seeding is run once at startup; the
// evaluator consumes the catalogue read-only afterwards.
type RuleSetService interface {
	EnsureSeeded(ctx context.Context) (*types.RuleSet, error)
}

type ruleSetService struct {
	log       *logger.Logger
	cfg       MatchConfig
	repo      repos.RuleSetRepo
	embedding EmbeddingService
}

func NewRuleSetService(log *logger.Logger, cfg MatchConfig, repo repos.RuleSetRepo, embedding EmbeddingService) RuleSetService {
	return &ruleSetService{
		log:       log.With("service", "RuleSetService"),
		cfg:       cfg,
		repo:      repo,
		embedding: embedding,
	}
}

func (s *ruleSetService) EnsureSeeded(ctx context.Context) (*types.RuleSet, error) {
	set, err := s.repo.GetByKey(ctx, nil, s.cfg.QualityRuleSetKey)
	if err != nil {
		return nil, fmt.Errorf("check rule set: %w", err)
	}
	if set == nil {
		set, err = s.seed(ctx)
		if err != nil {
			return nil, err
		}
	}

	counts, err := s.embedding.EmbedQualityRuleChunks(ctx, set.ID)
	if err != nil {
		return nil, fmt.Errorf("embed rule chunks: %w", err)
	}
	s.log.Info("Quality rule set ready",
		"key", set.Key,
		"version", set.Version,
		"rules", len(set.Rules),
		"chunks_embedded", counts.Embedded,
		"chunks_skipped", counts.Skipped,
	)
	return set, nil
}

func (s *ruleSetService) seed(ctx context.Context) (*types.RuleSet, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(studentFresherCatalogue, &file); err != nil {
		return nil, fmt.Errorf("parse rule catalogue: %w", err)
	}
	if file.Key != s.cfg.QualityRuleSetKey {
		return nil, fmt.Errorf("embedded catalogue key %q does not match configured %q", file.Key, s.cfg.QualityRuleSetKey)
	}

	set := &types.RuleSet{
		Key:        file.Key,
		Version:    file.Version,
		EmbedModel: os.Getenv("OPENAI_EMBED_MODEL"),
	}
	for i, cr := range file.Rules {
		rule := &types.CvQualityRule{
			RuleKey:         cr.RuleKey,
			Category:        match.RuleType(cr.Category),
			Severity:        cr.Severity,
			Strategy:        types.RuleStrategy(cr.Strategy),
			StructuralCheck: cr.StructuralCheck,
			Content:         cr.Content,
			RuleOrder:       i,
		}
		if len(cr.AppliesToSections) > 0 {
			raw, err := json.Marshal(cr.AppliesToSections)
			if err != nil {
				return nil, fmt.Errorf("marshal applies_to_sections for %s: %w", cr.RuleKey, err)
			}
			rule.AppliesToSections = datatypes.JSON(raw)
		}
		for j, text := range cr.Chunks {
			rule.Chunks = append(rule.Chunks, &types.CvQualityRuleChunk{
				ChunkOrder: j,
				Content:    text,
			})
		}
		set.Rules = append(set.Rules, rule)
	}

	created, err := s.repo.Create(ctx, nil, set)
	if err != nil {
		return nil, fmt.Errorf("seed rule set: %w", err)
	}
	s.log.Info("Seeded quality rule catalogue", "key", created.Key, "version", created.Version, "rules", len(created.Rules))
	return created, nil
}
