package routes

import (
	"net/http"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bus_tracker/internal/controllers"
	"bus_tracker/internal/middleware"
)

// Options configures SetupRouter.
type Options struct {
	CORSOrigins []string
	// RequestLog enables per-request access logging.
	RequestLog bool
}

func SetupRouter(h *controllers.Handler, auth *middleware.Auth, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.RequestLog {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(logrus.StandardLogger().Out),
			ginlog.WithUTC(true),
			ginlog.WithSkipPath([]string{"/api/health"}),
		))
	}
	r.Use(middleware.CORS(opts.CORSOrigins))

	api := r.Group("/api")
	api.GET("/health", h.Health)

	admin := auth.RequireAdmin()
	AuthRoutes(api, h)
	StopRoutes(api, h, admin)
	RouteRoutes(api, h, admin)
	AnalyticsRoutes(api, h)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return r
}
