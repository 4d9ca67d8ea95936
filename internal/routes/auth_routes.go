package routes

import (
	"github.com/gin-gonic/gin"

	"bus_tracker/internal/controllers"
)

func AuthRoutes(api *gin.RouterGroup, h *controllers.Handler) {
	auth := api.Group("/auth")
	{
		auth.POST("/token", h.IssueToken)
	}
}
