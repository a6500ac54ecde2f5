package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cvready/cvready-backend/internal/handlers"
	"github.com/cvready/cvready-backend/internal/middleware"
)

type RouterConfig struct {
	AllowedOrigins []string

	AuthHandler       *handlers.AuthHandler
	CvHandler         *handlers.CvHandler
	JdHandler         *handlers.JdHandler
	EvaluationHandler *handlers.EvaluationHandler
	SSEHandler        *handlers.SSEHandler
	AuthMiddleware    *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)

	// Protected
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	protected.POST("/logout", cfg.AuthHandler.Logout)

	protected.GET("/sse/stream", cfg.SSEHandler.Stream)

	protected.GET("/cvs", cfg.CvHandler.List)
	protected.GET("/cvs/:id", cfg.CvHandler.Get)
	protected.DELETE("/cvs/:id", cfg.CvHandler.Delete)

	protected.GET("/jds", cfg.JdHandler.List)
	protected.GET("/jds/:id/rules", cfg.JdHandler.GetRules)
	protected.PATCH("/jds/:id/rules/:ruleId/intent", cfg.JdHandler.UpdateRuleIntent)
	protected.DELETE("/jds/:id", cfg.JdHandler.Delete)

	protected.POST("/evaluations", cfg.EvaluationHandler.Run)
	protected.GET("/evaluations", cfg.EvaluationHandler.List)
	protected.GET("/evaluations/:id", cfg.EvaluationHandler.GetSummary)
	protected.DELETE("/evaluations/:id", cfg.EvaluationHandler.Delete)

	return router
}

// SplitOrigins parses a comma-separated origin list from the environment.
func SplitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
