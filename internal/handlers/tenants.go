package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

// TenantHandler manages tenant accounts. Every route except Current requires the admin role.
type TenantHandler struct {
	svc *services.TenantService
}

// NewTenantHandler constructs a TenantHandler.
func NewTenantHandler(svc *services.TenantService) *TenantHandler {
	return &TenantHandler{svc: svc}
}

type createTenantRequest struct {
	Name     string         `json:"name" validate:"required,max=255"`
	Slug     string         `json:"slug" validate:"omitempty,max=64"`
	Plan     string         `json:"plan" validate:"omitempty,oneof=free pro enterprise"`
	Settings map[string]any `json:"settings"`
}

type updateTenantRequest struct {
	Name     *string        `json:"name" validate:"omitempty,max=255"`
	Plan     *string        `json:"plan" validate:"omitempty,oneof=free pro enterprise"`
	Active   *bool          `json:"active"`
	Settings map[string]any `json:"settings"`
}

// GET /api/tenants
func (h *TenantHandler) List(c *gin.Context) {
	tenants, err := h.svc.List(requestContext(c))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, tenants)
}

// GET /api/tenants/current
func (h *TenantHandler) Current(c *gin.Context) {
	tenant, err := h.svc.GetByID(requestContext(c), tenantIDFrom(c))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, tenant)
}

// GET /api/tenants/:id
func (h *TenantHandler) Get(c *gin.Context) {
	tenant, err := h.svc.GetByID(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, tenant)
}

// POST /api/tenants
func (h *TenantHandler) Create(c *gin.Context) {
	var req createTenantRequest
	if !bindAndValidate(c, &req) {
		return
	}

	tenant, err := h.svc.Create(requestContext(c), services.CreateTenantInput{
		Name:     req.Name,
		Slug:     req.Slug,
		Plan:     req.Plan,
		Settings: req.Settings,
	})
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusCreated, tenant)
}

// PATCH /api/tenants/:id
func (h *TenantHandler) Update(c *gin.Context) {
	var req updateTenantRequest
	if !bindAndValidate(c, &req) {
		return
	}

	tenant, err := h.svc.Update(requestContext(c), c.Param("id"), services.UpdateTenantInput{
		Name:     req.Name,
		Plan:     req.Plan,
		Active:   req.Active,
		Settings: req.Settings,
	})
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, tenant)
}

// DELETE /api/tenants/:id
func (h *TenantHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
