package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

// UserHandler lists the users mirrored from the identity provider.
type UserHandler struct {
	svc *services.UserService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(svc *services.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// GET /api/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.svc.GetByID(requestContext(c), tenantIDFrom(c), userIDFrom(c))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, user)
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(requestContext(c), tenantIDFrom(c))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, users)
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.GetByID(requestContext(c), tenantIDFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, user)
}
