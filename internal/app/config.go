package app

import (
	"time"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/server"
	"github.com/cvready/cvready-backend/internal/services"
	"github.com/cvready/cvready-backend/internal/utils"
)

type Config struct {
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AllowedOrigins  []string
	RedisEnabled    bool
	Match           services.MatchConfig
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		JWTSecretKey:    utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:  time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second,
		RefreshTokenTTL: time.Duration(utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)) * time.Second,
		AllowedOrigins:  server.SplitOrigins(utils.GetEnv("ALLOWED_ORIGINS", "", log)),
		RedisEnabled:    utils.GetEnvAsBool("REDIS_ENABLED", false, log),
		Match:           services.LoadMatchConfig(log),
	}
}
