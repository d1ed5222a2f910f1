package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/handlers"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/middleware"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

func registerTenantRoutes(api *gin.RouterGroup, handler *handlers.TenantHandler) {
	tenants := api.Group("/tenants")
	tenants.GET("/current", handler.Current)

	admin := tenants.Group("", middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("", handler.List)
		admin.POST("", handler.Create)
		admin.GET("/:id", handler.Get)
		admin.PATCH("/:id", handler.Update)
		admin.DELETE("/:id", handler.Delete)
	}
}

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler) {
	api.GET("/me", handler.Me)

	users := api.Group("/users", middleware.RequireRole(models.RoleManager))
	{
		users.GET("", handler.List)
		users.GET("/:id", handler.Get)
	}
}
