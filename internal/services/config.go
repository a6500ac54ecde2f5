package services

import (
	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/match"
	"github.com/cvready/cvready-backend/internal/utils"
)

// MatchConfig carries every tunable of the evaluation pipeline. It is loaded
// once at process start and treated as immutable afterwards.
type MatchConfig struct {
	EmbeddingDimension int
	EmbedBatchSize     int

	TopK       int
	Thresholds match.Thresholds

	LLMJudgeEnabled  bool
	JudgeBatchSize   int
	JudgeConcurrency int

	TopKConcurrency int

	MultiMentionThreshold int
	MultiMentionHighSim   float64
	DedupSimThreshold     float64

	UpgradeMargin          float64
	AllowedUpgradeSections []match.SectionType

	RuleTypeMultipliers map[match.RuleType]float64
	ScoreWeights        map[match.RuleType]float64

	QualityRuleSetKey string
}

func LoadMatchConfig(log *logger.Logger) MatchConfig {
	return MatchConfig{
		EmbeddingDimension: utils.GetEnvAsInt("EMBEDDING_DIMENSION", 1536, log),
		EmbedBatchSize:     utils.GetEnvAsInt("EMBED_BATCH_SIZE", 100, log),

		TopK: utils.GetEnvAsInt("MATCH_TOP_K", 5, log),
		Thresholds: match.Thresholds{
			Floor: utils.GetEnvAsFloat("SIM_FLOOR", 0.15, log),
			Low:   utils.GetEnvAsFloat("SIM_LOW", 0.40, log),
			High:  utils.GetEnvAsFloat("SIM_HIGH", 0.75, log),
		},

		LLMJudgeEnabled:  utils.GetEnvAsBool("LLM_JUDGE_ENABLED", false, log),
		JudgeBatchSize:   utils.GetEnvAsInt("JUDGE_BATCH_SIZE", 10, log),
		JudgeConcurrency: utils.GetEnvAsInt("JUDGE_CONCURRENCY", 10, log),

		TopKConcurrency: utils.GetEnvAsInt("TOPK_CONCURRENCY", 8, log),

		MultiMentionThreshold: utils.GetEnvAsInt("MULTI_MENTION_THRESHOLD", 3, log),
		MultiMentionHighSim:   utils.GetEnvAsFloat("MULTI_MENTION_HIGH_SIM", 0.60, log),
		DedupSimThreshold:     utils.GetEnvAsFloat("DEDUP_SIM_THRESHOLD", 0.95, log),

		UpgradeMargin:          utils.GetEnvAsFloat("UPGRADE_MARGIN", 0.05, log),
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

		QualityRuleSetKey: utils.GetEnv("QUALITY_RULE_SET_KEY", "cv-quality-student-fresher", log),
	}
}
