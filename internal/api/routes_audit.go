package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/handlers"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/middleware"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

func registerAuditRoutes(api *gin.RouterGroup, handler *handlers.AuditHandler) {
	api.GET("/audit", middleware.RequireRole(models.RoleAdmin), handler.List)
}
