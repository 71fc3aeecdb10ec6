package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinect/clinect-backend/internal/http/response"
	"github.com/clinect/clinect-backend/internal/services"
)

type GraphHandler struct {
	insightsService services.InsightsService
	patientSync     services.PatientSyncService
}

func NewGraphHandler(insightsService services.InsightsService, patientSync services.PatientSyncService) *GraphHandler {
	return &GraphHandler{
		insightsService: insightsService,
		patientSync:     patientSync,
	}
}

// GET /api/patients/:id/recommendations?limit=...
func (gh *GraphHandler) Recommendations(c *gin.Context) {
	userID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	limit := queryInt(c, "limit", 0)

	recs, err := gh.insightsService.Recommendations(c.Request.Context(), userID, limit)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"recommendations": recs})
}

// POST /api/patients/:id/sync
func (gh *GraphHandler) SyncPatient(c *gin.Context) {
	if gh.patientSync == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "sync_unavailable", errors.New("patient sync not configured"))
		return
	}
	userID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	if err := gh.patientSync.SyncPatient(c.Request.Context(), userID); err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/conditions/hierarchy?name=...
func (gh *GraphHandler) Hierarchy(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))

	h, err := gh.insightsService.Hierarchy(c.Request.Context(), name)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, h)
}

// POST /api/conditions/hierarchy
// body: { "child": "...", "parent": "..." }
func (gh *GraphHandler) LinkHierarchy(c *gin.Context) {
	var req struct {
		Child  string `json:"child"`
		Parent string `json:"parent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	if err := gh.insightsService.LinkHierarchy(c.Request.Context(), req.Child, req.Parent); err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/graph/stats
func (gh *GraphHandler) Stats(c *gin.Context) {
	stats, err := gh.insightsService.GraphStats(c.Request.Context())
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, stats)
}
