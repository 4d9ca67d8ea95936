package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bus_tracker/internal/models"
)

// Kind names one of the three entity tables.
type Kind string

const (
	KindRouteStops Kind = "route_stops"
	KindRoutes     Kind = "routes"
	KindStops      Kind = "stops"
)

// ClearOrder is the only safe deletion order: links, then routes, then stops.
var ClearOrder = []Kind{KindRouteStops, KindRoutes, KindStops}

// Cleared reports how many rows a DeleteAll removed.
type Cleared struct {
	Kind    Kind  `json:"kind"`
	Deleted int64 `json:"deleted"`
}

func modelFor(kind Kind) (any, error) {
	switch kind {
	case KindRouteStops:
		return &models.RouteStop{}, nil
	case KindRoutes:
		return &models.Route{}, nil
	case KindStops:
		return &models.Stop{}, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}

// DeleteAll removes every row of one kind. Deleting a parent kind while
// links still reference it fails with the database's foreign key error;
// callers that want a full reset should use Clear.
func (s *Store) DeleteAll(ctx context.Context, kind Kind) (int64, error) {
	return deleteAll(s.db.WithContext(ctx), kind)
}

func deleteAll(db *gorm.DB, kind Kind) (int64, error) {
	model, err := modelFor(kind)
	if err != nil {
		return 0, err
	}
	res := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model)
	if res.Error != nil {
		return 0, fmt.Errorf("clear %s: %w", kind, res.Error)
	}
	return res.RowsAffected, nil
}

// Clear deletes all links, routes and stops, children first, in one
// transaction. It is irreversible.
func (s *Store) Clear(ctx context.Context) ([]Cleared, error) {
	var out []Cleared
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out = out[:0]
		for _, kind := range ClearOrder {
			n, err := deleteAll(tx, kind)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{"kind": kind, "deleted": n}).Info("cleared")
			out = append(out, Cleared{Kind: kind, Deleted: n})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of rows of one kind.
func (s *Store) Count(ctx context.Context, kind Kind) (int64, error) {
	model, err := modelFor(kind)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

func (s *Store) CountStops(ctx context.Context) (int64, error) { return s.Count(ctx, KindStops) }

func (s *Store) CountRoutes(ctx context.Context) (int64, error) { return s.Count(ctx, KindRoutes) }

func (s *Store) CountRouteStops(ctx context.Context) (int64, error) {
	return s.Count(ctx, KindRouteStops)
}
