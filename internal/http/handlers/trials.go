package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clinect/clinect-backend/internal/clients/ctgov"
	"github.com/clinect/clinect-backend/internal/http/response"
	"github.com/clinect/clinect-backend/internal/services"
)

type TrialHandler struct {
	trialService    services.TrialService
	insightsService services.InsightsService
}

func NewTrialHandler(trialService services.TrialService, insightsService services.InsightsService) *TrialHandler {
	return &TrialHandler{
		trialService:    trialService,
		insightsService: insightsService,
	}
}

// GET /api/trials/search?condition=...&location=...&status=...&pageSize=...&pageToken=...
func (th *TrialHandler) Search(c *gin.Context) {
	req := services.TrialSearchRequest{
		Condition: strings.TrimSpace(c.Query("condition")),
		Location:  strings.TrimSpace(c.Query("location")),
		Status:    strings.TrimSpace(c.Query("status")),
		PageToken: strings.TrimSpace(c.Query("pageToken")),
	}
	req.PageSize = queryInt(c, "pageSize", 0)

	res, err := th.trialService.Search(c.Request.Context(), req)
	if err != nil {
		respondOriginError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/trials/:nctId
func (th *TrialHandler) GetTrial(c *gin.Context) {
	nctID := strings.TrimSpace(c.Param("nctId"))
	if nctID == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_nct_id", errors.New("nct id required"))
		return
	}

	detail, err := th.trialService.GetTrial(c.Request.Context(), nctID)
	if err != nil {
		if errors.Is(err, ctgov.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "trial_not_found", err)
			return
		}
		respondOriginError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

// GET /api/trials/:nctId/related?limit=...
func (th *TrialHandler) Related(c *gin.Context) {
	nctID := strings.TrimSpace(c.Param("nctId"))
	limit := queryInt(c, "limit", 0)

	related, err := th.insightsService.RelatedTrials(c.Request.Context(), nctID, limit)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"nctId": nctID, "related": related})
}

func respondOriginError(c *gin.Context, err error) {
	var te *ctgov.TransportError
	if errors.As(err, &te) {
		response.RespondError(c, http.StatusBadGateway, "origin_unavailable", err)
		return
	}
	response.RespondFailure(c, err)
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
