package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	apperrors "github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/errors"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

// DashboardHandler serves the aggregated dashboard view.
type DashboardHandler struct {
	svc *services.DashboardService
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(svc *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// GET /api/dashboard/overview?dealership_id=
func (h *DashboardHandler) Overview(c *gin.Context) {
	dealerID := strings.TrimSpace(c.Query("dealership_id"))
	if dealerID == "" {
		response.Error(c, apperrors.NewBadRequest("dealership_id is required"))
		return
	}

	overview, err := h.svc.Overview(requestContext(c), tenantIDFrom(c), dealerID)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, overview, &response.Meta{Cached: overview.Cached})
}
