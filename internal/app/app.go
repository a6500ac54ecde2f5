package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cvready/cvready-backend/internal/db"
	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/server"
	"github.com/cvready/cvready-backend/internal/sse"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	SSEHub   *sse.SSEHub
	cancel   context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	hub := sse.NewSSEHub(log)

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, hub)
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(serviceset, hub)
	authMiddleware := wireMiddleware(log, serviceset)

	router := server.NewRouter(server.RouterConfig{
		AllowedOrigins:    cfg.AllowedOrigins,
		AuthHandler:       handlerset.Auth,
		CvHandler:         handlerset.Cv,
		JdHandler:         handlerset.Jd,
		EvaluationHandler: handlerset.Evaluation,
		SSEHandler:        handlerset.SSE,
		AuthMiddleware:    authMiddleware,
	})

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		SSEHub:   hub,
	}, nil
}

// Start seeds the quality rule catalogue and, when Redis is wired, begins
// forwarding cross-instance SSE traffic into the local hub.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	seedCtx, seedCancel := context.WithTimeout(ctx, 2*time.Minute)
	defer seedCancel()
	if _, err := a.Services.RuleSet.EnsureSeeded(seedCtx); err != nil {
		return fmt.Errorf("seed rule set: %w", err)
	}

	if a.Services.SSEBus != nil {
		if err := a.Services.SSEBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			a.Log.Warn("SSE forwarder failed to start", "error", err)
		}
	}
	return nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.SSEBus != nil {
		_ = a.Services.SSEBus.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
