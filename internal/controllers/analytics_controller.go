package controllers

import (
	"errors"
	"net/http"

	"github.com/bluele/gcache"
	"github.com/gin-gonic/gin"

	"bus_tracker/internal/topology"
)

// SystemOverview returns network-wide totals, cached for OverviewTTL.
func (h *Handler) SystemOverview(c *gin.Context) {
	cached, err := h.cache.Get(overviewKey)
	if err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}
	if !errors.Is(err, gcache.KeyNotFoundError) {
		respondError(c, "SystemOverview", err)
		return
	}

	ov, err := h.engine.SystemOverview(c.Request.Context())
	if err != nil {
		respondError(c, "SystemOverview", err)
		return
	}
	out := topology.SystemOverview{
		TotalActiveStops:     ov.TotalActiveStops,
		TotalActiveRoutes:    ov.TotalActiveRoutes,
		AvgRoutesPerStop:     round2(ov.AvgRoutesPerStop),
		TotalNetworkDistance: round2(ov.TotalNetworkDistance),
	}
	_ = h.cache.Set(overviewKey, out)
	c.JSON(http.StatusOK, out)
}
