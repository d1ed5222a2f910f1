package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	apperrors "github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/errors"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

// SentinelHandler runs threshold checks and manages their events.
type SentinelHandler struct {
	dealerships *services.DealershipService
	sentinel    *services.SentinelService
}

// NewSentinelHandler constructs a SentinelHandler.
func NewSentinelHandler(dealerships *services.DealershipService, sentinelSvc *services.SentinelService) *SentinelHandler {
	return &SentinelHandler{dealerships: dealerships, sentinel: sentinelSvc}
}

// POST /api/dealerships/:id/sentinel
func (h *SentinelHandler) Run(c *gin.Context) {
	dealer, ok := loadDealership(c, h.dealerships)
	if !ok {
		return
	}

	events, err := h.sentinel.Run(requestContext(c), dealer.ID)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"dealership_id": dealer.ID,
		"breaches":      len(events),
		"events":        events,
	})
}

// GET /api/sentinel/events
func (h *SentinelHandler) ListEvents(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 50)

	severity := strings.ToLower(strings.TrimSpace(c.Query("severity")))
	if severity != "" && severity != models.SeverityWarning && severity != models.SeverityCritical {
		response.Error(c, apperrors.NewBadRequest("severity must be warning or critical"))
		return
	}

	events, total, err := h.sentinel.ListEvents(requestContext(c), tenantIDFrom(c), services.SentinelEventFilter{
		DealershipID: strings.TrimSpace(c.Query("dealership_id")),
		Severity:     severity,
		Acknowledged: parseBoolQuery(c, "acknowledged"),
		Page:         page,
		PageSize:     perPage,
	})
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, events, response.NewPageMeta(page, perPage, total))
}

// POST /api/sentinel/events/:id/ack
func (h *SentinelHandler) Acknowledge(c *gin.Context) {
	event, err := h.sentinel.Acknowledge(requestContext(c), tenantIDFrom(c), c.Param("id"), userIDFrom(c))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, event)
}
