package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bus_tracker/internal/apperror"
	"bus_tracker/internal/models"
)

// RouteStopInput carries the fields of a new route/stop link.
type RouteStopInput struct {
	RouteID              uint             `json:"routeId"`
	StopID               uint             `json:"stopId"`
	StopOrder            int              `json:"stopOrder" validate:"gte=1"`
	Direction            models.Direction `json:"direction" validate:"required,oneof=outbound inbound"`
	DistanceFromPrevious *float64         `json:"distanceFromPrevious" validate:"omitempty,gte=0"`
	AverageArrivalTime   *int             `json:"averageArrivalTime" validate:"omitempty,gte=0"`
}

// RouteStopFilter narrows ListRouteStops. Zero values match anything.
type RouteStopFilter struct {
	RouteID   uint
	StopID    uint
	Direction models.Direction
}

func positionKey(routeID uint, dir models.Direction, order int) string {
	return fmt.Sprintf("route %d %s #%d", routeID, dir, order)
}

// CreateRouteStop links a stop into a route direction at the given order.
// The existence checks and the insert run in one transaction; any failure
// rolls the whole unit back.
func (s *Store) CreateRouteStop(ctx context.Context, in RouteStopInput) (*models.RouteStop, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}

	var link models.RouteStop
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := routeExists(tx, in.RouteID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.ReferenceNotFound("route", in.RouteID)
		}

		ok, err = stopExists(tx, in.StopID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.ReferenceNotFound("stop", in.StopID)
		}

		var taken int64
		err = tx.Model(&models.RouteStop{}).
			Where("route_id = ? AND direction = ? AND stop_order = ?", in.RouteID, in.Direction, in.StopOrder).
			Count(&taken).Error
		if err != nil {
			return fmt.Errorf("check stop order: %w", err)
		}
		if taken > 0 {
			return apperror.AlreadyExists("route stop", positionKey(in.RouteID, in.Direction, in.StopOrder))
		}

		link = models.RouteStop{
			RouteID:              in.RouteID,
			StopID:               in.StopID,
			StopOrder:            in.StopOrder,
			Direction:            in.Direction,
			DistanceFromPrevious: in.DistanceFromPrevious,
			AverageArrivalTime:   in.AverageArrivalTime,
		}
		if err := tx.Create(&link).Error; err != nil {
			if isUniqueViolation(err) {
				return apperror.AlreadyExists("route stop", positionKey(in.RouteID, in.Direction, in.StopOrder))
			}
			return fmt.Errorf("create route stop: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"route_id":   link.RouteID,
		"stop_id":    link.StopID,
		"direction":  link.Direction,
		"stop_order": link.StopOrder,
	}).Debug("route stop created")
	return &link, nil
}

// FindRouteStop looks up the exact link (route, stop, direction, order).
func (s *Store) FindRouteStop(ctx context.Context, routeID, stopID uint, dir models.Direction, order int) (*models.RouteStop, error) {
	var link models.RouteStop
	err := s.db.WithContext(ctx).
		Where("route_id = ? AND stop_id = ? AND direction = ? AND stop_order = ?", routeID, stopID, dir, order).
		Take(&link).Error
	if err != nil {
		return nil, notFound(err, "route stop", positionKey(routeID, dir, order))
	}
	return &link, nil
}

// ListRouteStops returns links ordered by route, direction and stop order.
func (s *Store) ListRouteStops(ctx context.Context, f RouteStopFilter) ([]models.RouteStop, error) {
	q := s.db.WithContext(ctx).Model(&models.RouteStop{})
	if f.RouteID != 0 {
		q = q.Where("route_id = ?", f.RouteID)
	}
	if f.StopID != 0 {
		q = q.Where("stop_id = ?", f.StopID)
	}
	if f.Direction != "" {
		q = q.Where("direction = ?", f.Direction)
	}
	var links []models.RouteStop
	if err := q.Order("route_id ASC").Order("direction ASC").Order("stop_order ASC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list route stops: %w", err)
	}
	return links, nil
}

// DeleteRouteStop removes one link of a route. Reordering a route is a
// sequence of deletes followed by fresh creates.
func (s *Store) DeleteRouteStop(ctx context.Context, routeID, linkID uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND route_id = ?", linkID, routeID).Delete(&models.RouteStop{})
	if res.Error != nil {
		return fmt.Errorf("delete route stop %d: %w", linkID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("route stop", linkID)
	}
	return nil
}
