package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

// ConsensusHandler compares AI assistant answers about a dealership.
type ConsensusHandler struct {
	dealerships *services.DealershipService
	consensus   *services.ConsensusService
}

// NewConsensusHandler constructs a ConsensusHandler.
func NewConsensusHandler(dealerships *services.DealershipService, consensus *services.ConsensusService) *ConsensusHandler {
	return &ConsensusHandler{dealerships: dealerships, consensus: consensus}
}

type consensusRequest struct {
	Query string `json:"query" validate:"required,min=3,max=500"`
}

func (r *consensusRequest) normalize() {
	r.Query = strings.TrimSpace(r.Query)
}

// POST /api/dealerships/:id/consensus
func (h *ConsensusHandler) Evaluate(c *gin.Context) {
	if h.consensus == nil {
		response.Error(c, serviceError(services.ErrNoPlatforms))
		return
	}
	var req consensusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	dealer, ok := loadDealership(c, h.dealerships)
	if !ok {
		return
	}

	report, err := h.consensus.Evaluate(requestContext(c), dealer.ID, req.Query)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, report, &response.Meta{Cached: report.Cached})
}

// GET /api/consensus/platforms
func (h *ConsensusHandler) Platforms(c *gin.Context) {
	if h.consensus == nil {
		response.Success(c, http.StatusOK, gin.H{"platforms": []string{}})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"platforms": h.consensus.Platforms()})
}
