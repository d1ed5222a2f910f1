package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

// IntegrationHandler manages the caller's tenant connectors.
type IntegrationHandler struct {
	svc *services.IntegrationService
}

// NewIntegrationHandler constructs an IntegrationHandler.
func NewIntegrationHandler(svc *services.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{svc: svc}
}

type createIntegrationRequest struct {
	Kind       string         `json:"kind" validate:"required,oneof=slack_webhook webhook"`
	Name       string         `json:"name" validate:"max=128"`
	WebhookURL string         `json:"webhook_url" validate:"required,url"`
	Config     map[string]any `json:"config"`
}

type updateIntegrationRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// GET /api/integrations
func (h *IntegrationHandler) List(c *gin.Context) {
	items, err := h.svc.List(requestContext(c), tenantIDFrom(c))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, items)
}

// POST /api/integrations
func (h *IntegrationHandler) Create(c *gin.Context) {
	var req createIntegrationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	integration, err := h.svc.Create(requestContext(c), tenantIDFrom(c), services.CreateIntegrationInput{
		Kind:   req.Kind,
		Name:   req.Name,
		Secret: req.WebhookURL,
		Config: req.Config,
	})
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusCreated, integration)
}

// PATCH /api/integrations/:id
func (h *IntegrationHandler) Update(c *gin.Context) {
	var req updateIntegrationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.svc.SetEnabled(requestContext(c), tenantIDFrom(c), c.Param("id"), *req.Enabled); err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": c.Param("id"), "enabled": *req.Enabled})
}

// DELETE /api/integrations/:id
func (h *IntegrationHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), tenantIDFrom(c), c.Param("id")); err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
