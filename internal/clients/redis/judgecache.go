package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/services"
)

// judgeCache memoizes adjudicator verdicts in Redis. Verdicts are produced at
// temperature 0, so a cached answer is as good as a fresh one.
type judgeCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewJudgeCache(log *logger.Logger) (services.JudgeCache, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttl := 24 * time.Hour
	if v := strings.TrimSpace(os.Getenv("JUDGE_CACHE_TTL")); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			ttl = parsed
		}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &judgeCache{
		log: log.With("service", "JudgeCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (c *judgeCache) Get(ctx context.Context, key string) (*services.JudgeVerdict, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("Judge cache read failed", "error", err)
		}
		return nil, false
	}
	var v services.JudgeVerdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return &v, true
}

func (c *judgeCache) Set(ctx context.Context, key string, v services.JudgeVerdict) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("Judge cache write failed", "error", err)
	}
}
