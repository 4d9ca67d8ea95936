package routes

import (
	"github.com/gin-gonic/gin"

	"bus_tracker/internal/controllers"
)

func RouteRoutes(api *gin.RouterGroup, h *controllers.Handler, admin gin.HandlerFunc) {
	routes := api.Group("/routes")
	{
		routes.GET("", h.ListRoutes)
		routes.GET("/:id", h.GetRoute)
		routes.GET("/:id/geometry", h.RouteGeometry)
		routes.POST("", admin, h.CreateRoute)
		routes.POST("/:id/stops", admin, h.AddStopToRoute)
		routes.DELETE("/:id/stops/:linkId", admin, h.RemoveStopFromRoute)
	}
}
