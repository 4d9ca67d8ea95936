package routes

import (
	"github.com/gin-gonic/gin"

	"bus_tracker/internal/controllers"
)

func AnalyticsRoutes(api *gin.RouterGroup, h *controllers.Handler) {
	analytics := api.Group("/analytics")
	{
		analytics.GET("/system-overview", h.SystemOverview)
	}
}
