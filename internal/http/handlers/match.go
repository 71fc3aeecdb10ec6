package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinect/clinect-backend/internal/clients/ctgov"
	"github.com/clinect/clinect-backend/internal/http/response"
	"github.com/clinect/clinect-backend/internal/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// POST /api/trials/match
// body: { "conditions": [...], "locationId": "...", "status": "...", "maxDistance": 50, "limit": 20 }
func (mh *MatchHandler) Match(c *gin.Context) {
	var req services.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	res, err := mh.matchService.Match(c.Request.Context(), req)
	if err != nil {
		var te *ctgov.TransportError
		if errors.As(err, &te) {
			response.RespondError(c, http.StatusBadGateway, "origin_unavailable", err)
			return
		}
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, res)
}
