package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bus_tracker/internal/models"
	"bus_tracker/internal/store"
	"bus_tracker/internal/topology"
)

// StopResponse flattens a stop's coordinates for map clients.
type StopResponse struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Address     string            `json:"address,omitempty"`
	Landmarks   string            `json:"landmarks,omitempty"`
	Status      models.StopStatus `json:"status"`
	RouteCount  int               `json:"routeCount"`
}

func toStopResponse(s models.Stop, routeCount int) StopResponse {
	return StopResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Latitude:    s.Coordinates.Latitude,
		Longitude:   s.Coordinates.Longitude,
		Address:     s.Address,
		Landmarks:   s.Landmarks,
		Status:      s.Status,
		RouteCount:  routeCount,
	}
}

// ListStops returns every stop with the number of routes serving it.
func (h *Handler) ListStops(c *gin.Context) {
	ctx := c.Request.Context()
	stops, err := h.store.ListStops(ctx)
	if err != nil {
		respondError(c, "ListStops", err)
		return
	}
	counts, err := h.engine.StopRouteCounts(ctx)
	if err != nil {
		respondError(c, "ListStops", err)
		return
	}

	out := make([]StopResponse, 0, len(stops))
	for _, s := range stops {
		out = append(out, toStopResponse(s, counts[s.ID]))
	}
	c.JSON(http.StatusOK, gin.H{"stops": out})
}

// StopsGeoJSON returns every stop as a GeoJSON FeatureCollection.
func (h *Handler) StopsGeoJSON(c *gin.Context) {
	fc, err := h.engine.StopsFeatureCollection(c.Request.Context())
	if err != nil {
		respondError(c, "StopsGeoJSON", err)
		return
	}
	c.JSON(http.StatusOK, fc)
}

// GetStop returns one stop and the routes that serve it.
func (h *Handler) GetStop(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, "GetStop", err)
		return
	}
	stop, err := h.store.GetStop(ctx, id)
	if err != nil {
		respondError(c, "GetStop", err)
		return
	}
	routes, err := h.engine.RoutesForStop(ctx, id)
	if err != nil {
		respondError(c, "GetStop", err)
		return
	}

	distinct := make(map[uint]struct{}, len(routes))
	for _, r := range routes {
		distinct[r.Route.ID] = struct{}{}
	}
	c.JSON(http.StatusOK, gin.H{
		"stop":   toStopResponse(*stop, len(distinct)),
		"routes": nonNil(routes),
	})
}

// CreateStop adds a stop. Admin only.
func (h *Handler) CreateStop(c *gin.Context) {
	var input store.StopInput
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateStop: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	stop, err := h.store.CreateStop(c.Request.Context(), input)
	if err != nil {
		respondError(c, "CreateStop", err)
		return
	}
	h.invalidate()
	c.JSON(http.StatusCreated, gin.H{"stop": toStopResponse(*stop, 0)})
}

func nonNil(in []topology.RouteAtStop) []topology.RouteAtStop {
	if in == nil {
		return []topology.RouteAtStop{}
	}
	return in
}
