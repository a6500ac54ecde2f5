package app

import (
	"github.com/cvready/cvready-backend/internal/handlers"
	"github.com/cvready/cvready-backend/internal/logger"
	"github.com/cvready/cvready-backend/internal/middleware"
	"github.com/cvready/cvready-backend/internal/sse"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Cv         *handlers.CvHandler
	Jd         *handlers.JdHandler
	Evaluation *handlers.EvaluationHandler
	SSE        *handlers.SSEHandler
}

func wireHandlers(s Services, hub *sse.SSEHub) Handlers {
	return Handlers{
		Auth:       handlers.NewAuthHandler(s.Auth),
		Cv:         handlers.NewCvHandler(s.Cv),
		Jd:         handlers.NewJdHandler(s.Jd),
		Evaluation: handlers.NewEvaluationHandler(s.Evaluation),
		SSE:        handlers.NewSSEHandler(hub),
	}
}

func wireMiddleware(log *logger.Logger, s Services) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(log, s.Auth)
}
