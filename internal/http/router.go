package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/clinect/clinect-backend/internal/http/handlers"
	httpMW "github.com/clinect/clinect-backend/internal/http/middleware"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	TrialHandler *httpH.TrialHandler
	MatchHandler *httpH.MatchHandler
	GraphHandler *httpH.GraphHandler
	CacheHandler *httpH.CacheHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Trials
		if cfg.TrialHandler != nil {
			api.GET("/trials/search", cfg.TrialHandler.Search)
			api.GET("/trials/:nctId", cfg.TrialHandler.GetTrial)
			api.GET("/trials/:nctId/related", cfg.TrialHandler.Related)
		}

		// Matching
		if cfg.MatchHandler != nil {
			api.POST("/trials/match", cfg.MatchHandler.Match)
		}

		// Graph insights
		if cfg.GraphHandler != nil {
			api.GET("/patients/:id/recommendations", cfg.GraphHandler.Recommendations)
			api.POST("/patients/:id/sync", cfg.GraphHandler.SyncPatient)
			api.GET("/conditions/hierarchy", cfg.GraphHandler.Hierarchy)
			api.POST("/conditions/hierarchy", cfg.GraphHandler.LinkHierarchy)
			api.GET("/graph/stats", cfg.GraphHandler.Stats)
		}

		// Cache
		if cfg.CacheHandler != nil {
			api.GET("/cache/search", cfg.CacheHandler.Search)
			api.GET("/cache/stats", cfg.CacheHandler.Stats)
			api.POST("/cache/purge", cfg.CacheHandler.Purge)
		}
	}

	return r
}
