package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bus_tracker/internal/apperror"
	"bus_tracker/internal/models"
	"bus_tracker/internal/store"
)

// RouteListItem is a route with the number of distinct stops it serves.
type RouteListItem struct {
	models.Route
	TotalStops int `json:"totalStops"`
}

// ListRoutes returns every route with its stop count.
func (h *Handler) ListRoutes(c *gin.Context) {
	ctx := c.Request.Context()
	routes, err := h.store.ListRoutes(ctx)
	if err != nil {
		respondError(c, "ListRoutes", err)
		return
	}
	counts, err := h.engine.RouteStopCounts(ctx)
	if err != nil {
		respondError(c, "ListRoutes", err)
		return
	}

	out := make([]RouteListItem, 0, len(routes))
	for _, r := range routes {
		out = append(out, RouteListItem{Route: r, TotalStops: counts[r.ID]})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}

// GetRoute returns a route with its stops in both directions and the
// distance covered by each.
func (h *Handler) GetRoute(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, "GetRoute", err)
		return
	}
	route, err := h.store.GetRoute(ctx, id)
	if err != nil {
		respondError(c, "GetRoute", err)
		return
	}
	summary, err := h.engine.RouteSummary(ctx, id)
	if err != nil {
		respondError(c, "GetRoute", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"route":         route,
		"totalStops":    summary.TotalStops,
		"outboundStops": summary.OutboundStops,
		"inboundStops":  summary.InboundStops,
		"totalDistance": gin.H{
			"outbound": round2(summary.DistanceByDirection[models.Outbound]),
			"inbound":  round2(summary.DistanceByDirection[models.Inbound]),
		},
	})
}

// RouteGeometry returns the route's path in one direction as a GeoJSON
// LineString feature. Direction defaults to outbound.
func (h *Handler) RouteGeometry(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, "RouteGeometry", err)
		return
	}
	dir, err := models.ParseDirection(c.DefaultQuery("direction", string(models.Outbound)))
	if err != nil {
		respondError(c, "RouteGeometry", apperror.Validation("direction", "%v", err))
		return
	}

	feature, err := h.engine.RouteGeometry(c.Request.Context(), id, dir)
	if err != nil {
		respondError(c, "RouteGeometry", err)
		return
	}
	c.JSON(http.StatusOK, feature)
}

// CreateRoute adds a route. Admin only.
func (h *Handler) CreateRoute(c *gin.Context) {
	var input store.RouteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	route, err := h.store.CreateRoute(c.Request.Context(), input)
	if err != nil {
		respondError(c, "CreateRoute", err)
		return
	}
	h.invalidate()
	c.JSON(http.StatusCreated, gin.H{"route": route})
}

type addStopInput struct {
	StopID               uint     `json:"stopId" binding:"required"`
	StopOrder            *int     `json:"stopOrder"`
	Direction            string   `json:"direction"`
	DistanceFromPrevious *float64 `json:"distanceFromPrevious"`
	AverageArrivalTime   *int     `json:"averageArrivalTime"`
}

// AddStopToRoute links a stop to the route at a position. Order defaults
// to 1 and direction to outbound. Admin only.
func (h *Handler) AddStopToRoute(c *gin.Context) {
	routeID, err := parseID(c, "id")
	if err != nil {
		respondError(c, "AddStopToRoute", err)
		return
	}
	var input addStopInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("AddStopToRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	order := 1
	if input.StopOrder != nil {
		order = *input.StopOrder
	}
	dir := models.Outbound
	if input.Direction != "" {
		dir, err = models.ParseDirection(input.Direction)
		if err != nil {
			respondError(c, "AddStopToRoute", apperror.Validation("direction", "%v", err))
			return
		}
	}

	link, err := h.store.CreateRouteStop(c.Request.Context(), store.RouteStopInput{
		RouteID:              routeID,
		StopID:               input.StopID,
		StopOrder:            order,
		Direction:            dir,
		DistanceFromPrevious: input.DistanceFromPrevious,
		AverageArrivalTime:   input.AverageArrivalTime,
	})
	if err != nil {
		respondError(c, "AddStopToRoute", err)
		return
	}
	h.invalidate()
	c.JSON(http.StatusCreated, gin.H{"routeStop": link})
}

// RemoveStopFromRoute deletes one link of the route. Admin only.
func (h *Handler) RemoveStopFromRoute(c *gin.Context) {
	routeID, err := parseID(c, "id")
	if err != nil {
		respondError(c, "RemoveStopFromRoute", err)
		return
	}
	linkID, err := parseID(c, "linkId")
	if err != nil {
		respondError(c, "RemoveStopFromRoute", err)
		return
	}

	if err := h.store.DeleteRouteStop(c.Request.Context(), routeID, linkID); err != nil {
		respondError(c, "RemoveStopFromRoute", err)
		return
	}
	h.invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "Stop removed from route"})
}
