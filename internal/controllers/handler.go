// Package controllers holds the gin handlers of the REST API.
package controllers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/bluele/gcache"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bus_tracker/internal/apperror"
	"bus_tracker/internal/middleware"
	"bus_tracker/internal/store"
	"bus_tracker/internal/topology"
)

// OverviewTTL bounds how stale a cached system overview may be. Writes
// through this API purge the cache at once; imports and clears run by
// cmd/importer are another process and show up only once the entry expires.
const OverviewTTL = 10 * time.Second

const overviewKey = "system-overview"

// Handler serves every API endpoint.
type Handler struct {
	store             *store.Store
	engine            *topology.Engine
	auth              *middleware.Auth
	adminPasswordHash []byte
	cache             gcache.Cache
}

// New wires a Handler. adminPasswordHash is a bcrypt hash; when empty the
// token endpoint refuses every request.
func New(s *store.Store, auth *middleware.Auth, adminPasswordHash string) *Handler {
	return &Handler{
		store:             s,
		engine:            topology.NewEngine(s.DB()),
		auth:              auth,
		adminPasswordHash: []byte(adminPasswordHash),
		cache:             newOverviewCache(gcache.NewRealClock()),
	}
}

func newOverviewCache(clock gcache.Clock) gcache.Cache {
	return gcache.New(8).LRU().Expiration(OverviewTTL).Clock(clock).Build()
}

// invalidate drops cached aggregates after a write.
func (h *Handler) invalidate() {
	h.cache.Purge()
}

// respondError maps domain errors to 400/404 and hides everything else
// behind a logged 500.
func respondError(c *gin.Context, op string, err error) {
	switch {
	case apperror.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperror.IsDomain(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).Errorf("%s failed", op)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func parseID(c *gin.Context, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.Validation(param, "must be a positive integer, got %q", c.Param(param))
	}
	return uint(id), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
