package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/etf-lens/internal/config"
	"github.com/fleveque/etf-lens/internal/handler"
	"github.com/fleveque/etf-lens/internal/middleware"
	"github.com/fleveque/etf-lens/internal/storage"
)

// Deps holds the services the routes need. Dependencies are passed
// explicitly; each handler gets exactly what it uses.
type Deps struct {
	Analyzer    handler.Analyzer
	Visuals     handler.VisualGenerator
	Chat        handler.ChatService
	LLMCallRepo storage.LLMCallRepository
}

// RegisterRoutes sets up all HTTP routes on the Gin engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler(cfg.LLM.Provider)
	analysisHandler := handler.NewAnalysisHandler(deps.Analyzer, logger)
	visualHandler := handler.NewVisualHandler(deps.Visuals)
	chatHandler := handler.NewChatHandler(deps.Chat)
	adminHandler := handler.NewAdminHandler(deps.LLMCallRepo, logger)

	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	// Preflights need a matching route for the group middleware to run; CORS answers them.
	api.OPTIONS("/*path", func(c *gin.Context) {})

	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		authed.GET("/analysis", analysisHandler.GetAnalysis)
		authed.POST("/visuals", visualHandler.CreateVisual)

		authed.POST("/chat/sessions", chatHandler.CreateSession)
		authed.POST("/chat/sessions/:id/messages", chatHandler.SendMessage)
		authed.GET("/chat/sessions/:id/messages", chatHandler.GetMessages)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		admin.GET("/stats", adminHandler.Stats)
	}
}
