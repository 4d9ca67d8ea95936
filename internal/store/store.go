// Package store is the entity store for stops, routes and the ordered
// route/stop links between them. It enforces name/code uniqueness,
// referential existence of links and per-direction stop order uniqueness
// at the point of mutation.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"bus_tracker/internal/apperror"
	"bus_tracker/internal/models"
)

// SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store wraps the GORM handle used for every mutation.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for read-only collaborators.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the bus_stops, bus_routes and route_stops tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.Stop{}, &models.Route{}, &models.RouteStop{}); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// isUniqueViolation recognizes duplicate-key failures from every driver we
// run against: GORM's translated error, pgx and lib/pq.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// notFound converts gorm.ErrRecordNotFound into a NotFoundError and wraps
// everything else.
func notFound(err error, entity string, key any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(entity, key)
	}
	return fmt.Errorf("lookup %s %v: %w", entity, key, err)
}
