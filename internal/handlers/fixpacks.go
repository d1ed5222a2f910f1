package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

// FixPackHandler generates and lists advisory fix packs.
type FixPackHandler struct {
	dealerships *services.DealershipService
	fixpacks    *services.FixPackService
}

// NewFixPackHandler constructs a FixPackHandler.
func NewFixPackHandler(dealerships *services.DealershipService, fixpacks *services.FixPackService) *FixPackHandler {
	return &FixPackHandler{dealerships: dealerships, fixpacks: fixpacks}
}

// POST /api/dealerships/:id/fixpacks
func (h *FixPackHandler) Generate(c *gin.Context) {
	dealer, ok := loadDealership(c, h.dealerships)
	if !ok {
		return
	}

	pack, err := h.fixpacks.Generate(requestContext(c), dealer.ID)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusCreated, pack)
}

// GET /api/dealerships/:id/fixpacks
func (h *FixPackHandler) List(c *gin.Context) {
	dealer, ok := loadDealership(c, h.dealerships)
	if !ok {
		return
	}

	packs, err := h.fixpacks.List(requestContext(c), tenantIDFrom(c), dealer.ID)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, packs)
}

// GET /api/fixpacks/:id
func (h *FixPackHandler) Get(c *gin.Context) {
	pack, err := h.fixpacks.Get(requestContext(c), tenantIDFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, pack)
}
