package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/handlers"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/middleware"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

func registerMonitoringRoutes(api *gin.RouterGroup, handler *handlers.MonitoringHandler) {
	if api == nil || handler == nil {
		return
	}

	group := api.Group("/monitoring")
	group.GET("/summary", middleware.RequireRole(models.RoleAdmin), handler.Summary)
}
