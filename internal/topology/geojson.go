package topology

import (
	"context"
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"bus_tracker/internal/models"
)

// position returns a stop's coordinates in GeoJSON (lon, lat) order.
func position(s models.Stop) []float64 {
	return []float64{s.Coordinates.Longitude, s.Coordinates.Latitude}
}

// StopFeature renders a stop as a GeoJSON point feature.
func StopFeature(s models.Stop) *geojson.Feature {
	return &geojson.Feature{
		ID:       strconv.FormatUint(uint64(s.ID), 10),
		Geometry: geom.NewPointFlat(geom.XY, position(s)),
		Properties: map[string]interface{}{
			"name":    s.Name,
			"address": s.Address,
			"status":  string(s.Status),
		},
	}
}

// StopsFeatureCollection renders every stop as a point feature.
func (e *Engine) StopsFeatureCollection(ctx context.Context) (*geojson.FeatureCollection, error) {
	var stops []models.Stop
	if err := e.db.WithContext(ctx).Order("id ASC").Find(&stops).Error; err != nil {
		return nil, fmt.Errorf("load stops: %w", err)
	}
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(stops))}
	for _, s := range stops {
		fc.Features = append(fc.Features, StopFeature(s))
	}
	return fc, nil
}

// RouteGeometry renders one direction of a route as a LineString drawn
// through its stops in order. It is a straight-line sketch, not a road path.
func (e *Engine) RouteGeometry(ctx context.Context, routeID uint, dir models.Direction) (*geojson.Feature, error) {
	seq, err := e.RouteStops(ctx, routeID, dir)
	if err != nil {
		return nil, err
	}
	var route models.Route
	if err := e.db.WithContext(ctx).First(&route, routeID).Error; err != nil {
		return nil, fmt.Errorf("load route %d: %w", routeID, err)
	}

	flat := make([]float64, 0, 2*len(seq))
	for _, s := range seq {
		flat = append(flat, position(s.Stop)...)
	}
	return &geojson.Feature{
		ID:       strconv.FormatUint(uint64(route.ID), 10),
		Geometry: geom.NewLineStringFlat(geom.XY, flat),
		Properties: map[string]interface{}{
			"code":          route.Code,
			"name":          route.Name,
			"color":         route.Color,
			"direction":     string(dir),
			"stops":         len(seq),
			"totalDistance": SumDistance(seq),
		},
	}, nil
}
