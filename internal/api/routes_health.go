package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/app"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/handlers"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/monitoring"
)

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, mon *monitoring.Module) {
	if !cfg.Monitoring.Health.Enabled {
		r.GET("/health", disabledHealthHandler)
		r.GET("/health/live", disabledHealthHandler)
		r.GET("/health/ready", disabledHealthHandler)
		return
	}

	if mon == nil || mon.Health() == nil {
		ok := handlers.Health()
		r.GET("/health", ok)
		r.GET("/health/live", ok)
		r.GET("/health/ready", ok)
		return
	}

	h := handlers.NewHealthHandler(mon.Health())
	for _, router := range []gin.IRouter{r, r.Group("/api")} {
		router.GET("/health", h.Overall)
		router.GET("/health/live", h.Live)
		router.GET("/health/ready", h.Ready)
	}
}

func disabledHealthHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"status":  "disabled",
	})
}
