package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

// DealershipHandler exposes tenant-scoped dealership CRUD.
type DealershipHandler struct {
	svc *services.DealershipService
}

// NewDealershipHandler constructs a DealershipHandler.
func NewDealershipHandler(svc *services.DealershipService) *DealershipHandler {
	return &DealershipHandler{svc: svc}
}

type createDealershipRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	Domain       string  `json:"domain" validate:"required,max=255"`
	Brand        string  `json:"brand" validate:"max=64"`
	City         string  `json:"city" validate:"max=128"`
	State        string  `json:"state" validate:"max=32"`
	GBPPlaceID   string  `json:"gbp_place_id" validate:"max=255"`
	MonthlyLeads int     `json:"monthly_leads" validate:"gte=0"`
	AvgDealValue float64 `json:"avg_deal_value" validate:"gte=0"`
	CloseRate    float64 `json:"close_rate" validate:"gte=0,lte=1"`
	TargetScore  float64 `json:"target_score" validate:"score"`
}

type updateDealershipRequest struct {
	Name         *string  `json:"name" validate:"omitempty,max=255"`
	Domain       *string  `json:"domain" validate:"omitempty,max=255"`
	Brand        *string  `json:"brand" validate:"omitempty,max=64"`
	City         *string  `json:"city" validate:"omitempty,max=128"`
	State        *string  `json:"state" validate:"omitempty,max=32"`
	GBPPlaceID   *string  `json:"gbp_place_id" validate:"omitempty,max=255"`
	MonthlyLeads *int     `json:"monthly_leads" validate:"omitempty,gte=0"`
	AvgDealValue *float64 `json:"avg_deal_value" validate:"omitempty,gte=0"`
	CloseRate    *float64 `json:"close_rate" validate:"omitempty,gte=0,lte=1"`
	TargetScore  *float64 `json:"target_score" validate:"omitempty,score"`
	Active       *bool    `json:"active"`
}

// GET /api/dealerships
func (h *DealershipHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 50)

	opts := services.DealershipListOptions{
		Page:     page,
		PageSize: perPage,
		Search:   strings.TrimSpace(c.Query("q")),
	}
	if active := parseBoolQuery(c, "active"); active != nil && *active {
		opts.ActiveOnly = true
	}

	dealers, total, err := h.svc.List(requestContext(c), tenantIDFrom(c), opts)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, dealers, response.NewPageMeta(page, perPage, total))
}

// GET /api/dealerships/:id
func (h *DealershipHandler) Get(c *gin.Context) {
	dealer, ok := h.load(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, dealer)
}

// POST /api/dealerships
func (h *DealershipHandler) Create(c *gin.Context) {
	var req createDealershipRequest
	if !bindAndValidate(c, &req) {
		return
	}

	dealer, err := h.svc.Create(requestContext(c), tenantIDFrom(c), services.CreateDealershipInput{
		Name:         req.Name,
		Domain:       req.Domain,
		Brand:        req.Brand,
		City:         req.City,
		State:        req.State,
		GBPPlaceID:   req.GBPPlaceID,
		MonthlyLeads: req.MonthlyLeads,
		AvgDealValue: req.AvgDealValue,
		CloseRate:    req.CloseRate,
		TargetScore:  req.TargetScore,
	})
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}

	response.Success(c, http.StatusCreated, dealer)
}

// PATCH /api/dealerships/:id
func (h *DealershipHandler) Update(c *gin.Context) {
	var req updateDealershipRequest
	if !bindAndValidate(c, &req) {
		return
	}

	dealer, err := h.svc.Update(requestContext(c), tenantIDFrom(c), c.Param("id"), services.UpdateDealershipInput{
		Name:         req.Name,
		Domain:       req.Domain,
		Brand:        req.Brand,
		City:         req.City,
		State:        req.State,
		GBPPlaceID:   req.GBPPlaceID,
		MonthlyLeads: req.MonthlyLeads,
		AvgDealValue: req.AvgDealValue,
		CloseRate:    req.CloseRate,
		TargetScore:  req.TargetScore,
		Active:       req.Active,
	})
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}

	response.Success(c, http.StatusOK, dealer)
}

// DELETE /api/dealerships/:id
func (h *DealershipHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), tenantIDFrom(c), c.Param("id")); err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// load resolves :id within the caller's tenant, writing the error response on failure.
func (h *DealershipHandler) load(c *gin.Context) (*models.Dealership, bool) {
	return loadDealership(c, h.svc)
}

func loadDealership(c *gin.Context, svc *services.DealershipService) (*models.Dealership, bool) {
	dealer, err := svc.Get(requestContext(c), tenantIDFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, serviceError(err))
		return nil, false
	}
	return dealer, true
}
