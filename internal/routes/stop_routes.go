package routes

import (
	"github.com/gin-gonic/gin"

	"bus_tracker/internal/controllers"
)

func StopRoutes(api *gin.RouterGroup, h *controllers.Handler, admin gin.HandlerFunc) {
	stops := api.Group("/stops")
	{
		stops.GET("", h.ListStops)
		stops.GET("/geojson", h.StopsGeoJSON)
		stops.GET("/:id", h.GetStop)
		stops.POST("", admin, h.CreateStop)
	}
}
