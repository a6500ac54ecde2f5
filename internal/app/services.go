package app

import (
	"os"

	"gorm.io/gorm"

	redisclient "github.com/cvready/cvready-backend/internal/clients/redis"
	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/services"
	"github.com/cvready/cvready-backend/internal/sse"
)

type Services struct {
	Auth       services.AuthService
	Cv         services.CvService
	Jd         services.JdService
	Embedding  services.EmbeddingService
	Judge      services.JudgeService
	Semantic   services.SemanticEvaluator
	Quality    services.QualityService
	JdMatch    services.JdMatchService
	RuleSet    services.RuleSetService
	Evaluation services.EvaluationService

	SSEBus redisclient.SSEBus
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, hub *sse.SSEHub) (Services, error) {
	var s Services

	// The OpenAI client is optional: without a key the embedding service is a
	// no-op and the judge reports skipped, which is the offline configuration.
	var openAI services.OpenAIClient
	if os.Getenv("OPENAI_API_KEY") != "" {
		client, err := services.NewOpenAIClient(log)
		if err != nil {
			return s, err
		}
		openAI = client
	} else {
		log.Warn("OPENAI_API_KEY not set; embeddings and judge are disabled")
	}

	var judgeCache services.JudgeCache
	var bus redisclient.SSEBus
	if cfg.RedisEnabled {
		cache, err := redisclient.NewJudgeCache(log)
		if err != nil {
			log.Warn("Judge cache unavailable; continuing without it", "error", err)
		} else {
			judgeCache = cache
		}
		b, err := redisclient.NewSSEBus(log)
		if err != nil {
			log.Warn("SSE bus unavailable; events stay in-process", "error", err)
		} else {
			bus = b
		}
	}
	s.SSEBus = bus

	var notifierBus services.NotifierBus
	if bus != nil {
		notifierBus = bus
	}
	notifier := services.NewNotifier(log, hub, notifierBus)

	s.Auth = services.NewAuthService(db, log, r.User, r.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	s.Cv = services.NewCvService(log, r.Cv)
	s.Jd = services.NewJdService(log, r.Jd, r.JdRule)

	s.Embedding = services.NewEmbeddingService(log, openAI, cfg.Match, r.CvChunk, r.JdRuleChunk, r.RuleSet)
	s.Judge = services.NewJudgeService(log, openAI, cfg.Match, judgeCache)
	s.Semantic = services.NewSemanticEvaluator(log, cfg.Match, r.Vector, r.RuleSet, r.JdRule)
	s.Quality = services.NewQualityService(log, cfg.Match, r.Cv, s.Semantic)

	gaps := services.NewGapDetector(log)
	suggestions := services.NewSuggestionGenerator(log)
	s.JdMatch = services.NewJdMatchService(log, cfg.Match, s.Semantic, s.Judge, gaps, suggestions)

	s.RuleSet = services.NewRuleSetService(log, cfg.Match, r.RuleSet, s.Embedding)
	s.Evaluation = services.NewEvaluationService(log, cfg.Match, r.Cv, r.Jd, r.Evaluation, s.Embedding, s.Quality, s.JdMatch, notifier)

	return s, nil
}
