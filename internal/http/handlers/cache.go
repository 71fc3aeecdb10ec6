package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clinect/clinect-backend/internal/data/cache"
	"github.com/clinect/clinect-backend/internal/http/response"
	"github.com/clinect/clinect-backend/internal/services"
)

type CacheHandler struct {
	trialService services.TrialService
}

func NewCacheHandler(trialService services.TrialService) *CacheHandler {
	return &CacheHandler{trialService: trialService}
}

// GET /api/cache/search?condition=...&location=...&status=...&limit=...
func (ch *CacheHandler) Search(c *gin.Context) {
	q := cache.SearchQuery{
		Condition: strings.TrimSpace(c.Query("condition")),
		Location:  strings.TrimSpace(c.Query("location")),
		Status:    strings.TrimSpace(c.Query("status")),
		Limit:     queryInt(c, "limit", 0),
	}

	docs, err := ch.trialService.SearchCache(c.Request.Context(), q)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"trials": docs, "count": len(docs)})
}

// GET /api/cache/stats
func (ch *CacheHandler) Stats(c *gin.Context) {
	stats, err := ch.trialService.CacheStats(c.Request.Context())
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, stats)
}

// POST /api/cache/purge
func (ch *CacheHandler) Purge(c *gin.Context) {
	removed, err := ch.trialService.PurgeExpired(c.Request.Context())
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"removed": removed})
}
