// Package topology answers read-only questions about the network: the
// ordered stops of a route direction, distances, per-stop route counts and
// network-wide aggregates. It never mutates the store.
package topology

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"bus_tracker/internal/apperror"
	"bus_tracker/internal/models"
)

// Engine computes topology views from the current database state.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// StopOnRoute is one position of a route direction.
type StopOnRoute struct {
	LinkID               uint             `json:"linkId"`
	Stop                 models.Stop      `json:"stop"`
	Direction            models.Direction `json:"direction"`
	StopOrder            int              `json:"stopOrder"`
	DistanceFromPrevious *float64         `json:"distanceFromPrevious,omitempty"`
	AverageArrivalTime   *int             `json:"averageArrivalTime,omitempty"`
}

// RouteSummary aggregates both directions of a route.
type RouteSummary struct {
	RouteID             uint                         `json:"routeId"`
	TotalStops          int                          `json:"totalStops"`
	DistanceByDirection map[models.Direction]float64 `json:"totalDistance"`
	OutboundStops       []StopOnRoute                `json:"outboundStops"`
	InboundStops        []StopOnRoute                `json:"inboundStops"`
}

// RouteAtStop is a route serving a stop at a given position.
type RouteAtStop struct {
	Route                models.Route     `json:"route"`
	Direction            models.Direction `json:"direction"`
	StopOrder            int              `json:"stopOrder"`
	DistanceFromPrevious *float64         `json:"distanceFromPrevious,omitempty"`
	AverageArrivalTime   *int             `json:"averageArrivalTime,omitempty"`
}

// SystemOverview holds the network-wide figures.
type SystemOverview struct {
	TotalActiveStops     int64   `json:"totalActiveStops"`
	TotalActiveRoutes    int64   `json:"totalActiveRoutes"`
	AvgRoutesPerStop     float64 `json:"avgRoutesPerStop"`
	TotalNetworkDistance float64 `json:"totalNetworkDistance"`
}

func (e *Engine) requireRoute(db *gorm.DB, routeID uint) error {
	var route models.Route
	err := db.Select("id").First(&route, routeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("route", routeID)
	}
	if err != nil {
		return fmt.Errorf("lookup route %d: %w", routeID, err)
	}
	return nil
}

func (e *Engine) requireStop(db *gorm.DB, stopID uint) error {
	var stop models.Stop
	err := db.Select("id").First(&stop, stopID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("stop", stopID)
	}
	if err != nil {
		return fmt.Errorf("lookup stop %d: %w", stopID, err)
	}
	return nil
}

func toStopOnRoute(link models.RouteStop) StopOnRoute {
	out := StopOnRoute{
		LinkID:               link.ID,
		Direction:            link.Direction,
		StopOrder:            link.StopOrder,
		DistanceFromPrevious: link.DistanceFromPrevious,
		AverageArrivalTime:   link.AverageArrivalTime,
	}
	if link.Stop != nil {
		out.Stop = *link.Stop
	}
	return out
}

// RouteStops returns the stops of one direction of a route sorted by
// ascending stop order. A direction with no stops yields an empty slice.
func (e *Engine) RouteStops(ctx context.Context, routeID uint, dir models.Direction) ([]StopOnRoute, error) {
	if !dir.Valid() {
		return nil, apperror.Validation("direction", "must be outbound or inbound, got %q", dir)
	}
	db := e.db.WithContext(ctx)
	if err := e.requireRoute(db, routeID); err != nil {
		return nil, err
	}

	var links []models.RouteStop
	err := db.Preload("Stop").
		Where("route_id = ? AND direction = ?", routeID, dir).
		Order("stop_order ASC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("load stops of route %d %s: %w", routeID, dir, err)
	}

	out := make([]StopOnRoute, 0, len(links))
	for _, link := range links {
		out = append(out, toStopOnRoute(link))
	}
	return out, nil
}

// SumDistance adds up DistanceFromPrevious over seq, counting a missing
// distance as 0.
func SumDistance(seq []StopOnRoute) float64 {
	var total float64
	for _, s := range seq {
		if s.DistanceFromPrevious != nil {
			total += *s.DistanceFromPrevious
		}
	}
	return total
}

// TotalDistance is the length of one direction of a route.
func (e *Engine) TotalDistance(ctx context.Context, routeID uint, dir models.Direction) (float64, error) {
	seq, err := e.RouteStops(ctx, routeID, dir)
	if err != nil {
		return 0, err
	}
	return SumDistance(seq), nil
}

// RouteSummary returns both ordered directions of a route, the number of
// distinct stops it touches and the distance of each direction.
func (e *Engine) RouteSummary(ctx context.Context, routeID uint) (*RouteSummary, error) {
	out := &RouteSummary{
		RouteID:             routeID,
		DistanceByDirection: make(map[models.Direction]float64, len(models.Directions)),
	}
	distinct := make(map[uint]struct{})
	for _, dir := range models.Directions {
		seq, err := e.RouteStops(ctx, routeID, dir)
		if err != nil {
			return nil, err
		}
		for _, s := range seq {
			distinct[s.Stop.ID] = struct{}{}
		}
		out.DistanceByDirection[dir] = SumDistance(seq)
		if dir == models.Outbound {
			out.OutboundStops = seq
		} else {
			out.InboundStops = seq
		}
	}
	out.TotalStops = len(distinct)
	return out, nil
}

// StopRouteCount is the number of distinct routes that serve stopID.
func (e *Engine) StopRouteCount(ctx context.Context, stopID uint) (int, error) {
	db := e.db.WithContext(ctx)
	if err := e.requireStop(db, stopID); err != nil {
		return 0, err
	}
	var n int64
	err := db.Model(&models.RouteStop{}).Where("stop_id = ?", stopID).Distinct("route_id").Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count routes of stop %d: %w", stopID, err)
	}
	return int(n), nil
}

// StopRouteCounts returns the distinct route count of every stop that has
// at least one link. Stops missing from the map have no routes.
func (e *Engine) StopRouteCounts(ctx context.Context) (map[uint]int, error) {
	var rows []struct {
		StopID uint
		Routes int
	}
	err := e.db.WithContext(ctx).Model(&models.RouteStop{}).
		Select("stop_id, COUNT(DISTINCT route_id) AS routes").
		Group("stop_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count routes per stop: %w", err)
	}
	out := make(map[uint]int, len(rows))
	for _, r := range rows {
		out[r.StopID] = r.Routes
	}
	return out, nil
}

// RouteStopCounts returns the distinct stop count of every route that has
// at least one link, both directions combined.
func (e *Engine) RouteStopCounts(ctx context.Context) (map[uint]int, error) {
	var rows []struct {
		RouteID uint
		Stops   int
	}
	err := e.db.WithContext(ctx).Model(&models.RouteStop{}).
		Select("route_id, COUNT(DISTINCT stop_id) AS stops").
		Group("route_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count stops per route: %w", err)
	}
	out := make(map[uint]int, len(rows))
	for _, r := range rows {
		out[r.RouteID] = r.Stops
	}
	return out, nil
}

// RoutesForStop lists every route position that references stopID.
func (e *Engine) RoutesForStop(ctx context.Context, stopID uint) ([]RouteAtStop, error) {
	db := e.db.WithContext(ctx)
	if err := e.requireStop(db, stopID); err != nil {
		return nil, err
	}
	var links []models.RouteStop
	err := db.Preload("Route").
		Where("stop_id = ?", stopID).
		Order("route_id ASC").Order("direction ASC").Order("stop_order ASC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("load routes of stop %d: %w", stopID, err)
	}
	out := make([]RouteAtStop, 0, len(links))
	for _, link := range links {
		r := RouteAtStop{
			Direction:            link.Direction,
			StopOrder:            link.StopOrder,
			DistanceFromPrevious: link.DistanceFromPrevious,
			AverageArrivalTime:   link.AverageArrivalTime,
		}
		if link.Route != nil {
			r.Route = *link.Route
		}
		out = append(out, r)
	}
	return out, nil
}

// SystemOverview computes the network-wide summary. The average counts
// every stop, so stops without routes pull it down.
func (e *Engine) SystemOverview(ctx context.Context) (*SystemOverview, error) {
	db := e.db.WithContext(ctx)
	out := &SystemOverview{}

	if err := db.Model(&models.Stop{}).Where("status = ?", models.StopActive).Count(&out.TotalActiveStops).Error; err != nil {
		return nil, fmt.Errorf("count active stops: %w", err)
	}
	if err := db.Model(&models.Route{}).Where("status = ?", models.RouteActive).Count(&out.TotalActiveRoutes).Error; err != nil {
		return nil, fmt.Errorf("count active routes: %w", err)
	}

	var totalStops int64
	if err := db.Model(&models.Stop{}).Count(&totalStops).Error; err != nil {
		return nil, fmt.Errorf("count stops: %w", err)
	}
	if totalStops > 0 {
		counts, err := e.StopRouteCounts(ctx)
		if err != nil {
			return nil, err
		}
		var sum int
		for _, n := range counts {
			sum += n
		}
		out.AvgRoutesPerStop = float64(sum) / float64(totalStops)
	}

	var total float64
	err := db.Model(&models.RouteStop{}).
		Select("COALESCE(SUM(distance_from_previous), 0)").
		Row().Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("sum network distance: %w", err)
	}
	out.TotalNetworkDistance = total
	return out, nil
}
