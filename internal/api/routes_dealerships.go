package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/handlers"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/middleware"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
)

type dealershipHandlers struct {
	dealerships *handlers.DealershipHandler
	scores      *handlers.ScoreHandler
	sentinel    *handlers.SentinelHandler
	consensus   *handlers.ConsensusHandler
	fixpacks    *handlers.FixPackHandler
}

// Viewers read; managers trigger writes and paid calls; admins delete.
func registerDealershipRoutes(api *gin.RouterGroup, h dealershipHandlers) {
	manager := middleware.RequireRole(models.RoleManager)
	admin := middleware.RequireRole(models.RoleAdmin)

	dealers := api.Group("/dealerships")
	{
		dealers.GET("", h.dealerships.List)
		dealers.POST("", manager, h.dealerships.Create)
		dealers.GET("/:id", h.dealerships.Get)
		dealers.PATCH("/:id", manager, h.dealerships.Update)
		dealers.DELETE("/:id", admin, h.dealerships.Delete)

		dealers.GET("/:id/qai", h.scores.QAI)
		dealers.POST("/:id/composite", h.scores.Composite)
		dealers.GET("/:id/rar", h.scores.RevenueAtRisk)
		dealers.GET("/:id/scores", h.scores.History)
		dealers.GET("/:id/forecast", h.scores.Forecast)
		dealers.POST("/:id/metrics", manager, h.scores.RecordMetrics)
		dealers.GET("/:id/metrics/latest", h.scores.LatestMetrics)
		dealers.POST("/:id/metrics/refresh", manager, h.scores.RefreshMetrics)

		dealers.POST("/:id/sentinel", manager, h.sentinel.Run)
		dealers.POST("/:id/consensus", manager, h.consensus.Evaluate)

		dealers.POST("/:id/fixpacks", manager, h.fixpacks.Generate)
		dealers.GET("/:id/fixpacks", h.fixpacks.List)
	}

	api.GET("/fixpacks/:id", h.fixpacks.Get)
	api.GET("/consensus/platforms", h.consensus.Platforms)

	events := api.Group("/sentinel/events")
	{
		events.GET("", h.sentinel.ListEvents)
		events.POST("/:id/ack", manager, h.sentinel.Acknowledge)
	}
}

func registerDashboardRoutes(api *gin.RouterGroup, handler *handlers.DashboardHandler) {
	api.GET("/dashboard/overview", handler.Overview)
}

func registerIntegrationRoutes(api *gin.RouterGroup, handler *handlers.IntegrationHandler) {
	integrations := api.Group("/integrations", middleware.RequireRole(models.RoleAdmin))
	{
		integrations.GET("", handler.List)
		integrations.POST("", handler.Create)
		integrations.PATCH("/:id", handler.Update)
		integrations.DELETE("/:id", handler.Delete)
	}
}

func registerCronRoutes(cron *gin.RouterGroup, handler *handlers.CronHandler) {
	cron.GET("", handler.List)
	cron.POST("/:job", handler.Run)
	cron.GET("/:job", handler.Run)
}
