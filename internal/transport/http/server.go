package http

import (
	"github.com/gin-gonic/gin"

	"gopherai-training/internal/bootstrap"
	"gopherai-training/internal/transport/http/handler"
	"gopherai-training/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	if app.Config.Auth.Enabled {
		router.Use(middleware.RoleContext(app.Config.Auth.JWTSecret))
	}

	healthHandler := handler.NewHealthHandler(app)
	knowledgeHandler := handler.NewKnowledgeHandler(app.Knowledge)
	aiHandler := handler.NewAIHandler(app.Questions, app.Analysis, app.Chat, app.Ask, app.Briefing)

	router.GET("/healthz", healthHandler.Check)

	v1 := router.Group("/api/v1")

	knowledgeGroup := v1.Group("/knowledge")
	knowledgeGroup.POST("/documents", knowledgeHandler.Ingest)
	knowledgeGroup.POST("/documents/upload", knowledgeHandler.UploadPDF)
	knowledgeGroup.GET("/documents", knowledgeHandler.List)
	knowledgeGroup.GET("/documents/:id", knowledgeHandler.Get)
	knowledgeGroup.GET("/documents/:id/source", knowledgeHandler.Source)
	knowledgeGroup.DELETE("/documents/:id", knowledgeHandler.Remove)
	knowledgeGroup.GET("/stats", knowledgeHandler.Stats)

	aiGroup := v1.Group("/ai")
	aiGroup.GET("/health", healthHandler.Provider)
	aiGroup.POST("/questions", aiHandler.GenerateQuestions)
	aiGroup.POST("/analyze", aiHandler.Analyze)
	aiGroup.POST("/chat", aiHandler.Chat)
	aiGroup.POST("/ask", aiHandler.Ask)
	aiGroup.POST("/mission-debrief", aiHandler.MissionDebrief)
	aiGroup.POST("/fire-plan", aiHandler.FirePlan)
	aiGroup.POST("/air-support", aiHandler.AirSupport)
	aiGroup.POST("/safety-review", aiHandler.SafetyReview)
	aiGroup.POST("/explain", aiHandler.ExplainConcept)

	return router
}
