package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bus_tracker/internal/apperror"
	"bus_tracker/internal/models"
)

// RouteInput carries the fields accepted when creating a route.
type RouteInput struct {
	Name           string                 `json:"name" validate:"required,max=255"`
	Code           string                 `json:"code" validate:"required,max=50"`
	Color          string                 `json:"color"`
	Description    string                 `json:"description"`
	OperatingHours *models.OperatingHours `json:"operatingHours"`
	FarePrice      *float64               `json:"farePrice" validate:"omitempty,gte=0,lte=999.99"`
	Status         models.RouteStatus     `json:"status" validate:"omitempty,oneof=active inactive seasonal"`
}

// CreateRoute inserts a new route. The code must be unique.
func (s *Store) CreateRoute(ctx context.Context, in RouteInput) (*models.Route, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	color, err := normalizeColor(in.Color)
	if err != nil {
		return nil, err
	}
	if err := checkOperatingHours(in.OperatingHours); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = models.RouteActive
	}

	db := s.db.WithContext(ctx)
	var taken int64
	if err := db.Model(&models.Route{}).Where("code = ?", in.Code).Count(&taken).Error; err != nil {
		return nil, fmt.Errorf("check route code: %w", err)
	}
	if taken > 0 {
		return nil, apperror.AlreadyExists("route", in.Code)
	}

	route := models.Route{
		Name:           in.Name,
		Code:           in.Code,
		Color:          color,
		Description:    in.Description,
		OperatingHours: in.OperatingHours,
		FarePrice:      in.FarePrice,
		Status:         in.Status,
	}
	if err := db.Create(&route).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.AlreadyExists("route", in.Code)
		}
		return nil, fmt.Errorf("create route %q: %w", in.Code, err)
	}

	logrus.WithFields(logrus.Fields{"route_id": route.ID, "code": route.Code}).Debug("route created")
	return &route, nil
}

// GetRoute loads a route by id.
func (s *Store) GetRoute(ctx context.Context, id uint) (*models.Route, error) {
	var route models.Route
	if err := s.db.WithContext(ctx).First(&route, id).Error; err != nil {
		return nil, notFound(err, "route", id)
	}
	return &route, nil
}

// FindRouteByCode resolves a route by its natural key.
func (s *Store) FindRouteByCode(ctx context.Context, code string) (*models.Route, error) {
	var route models.Route
	err := s.db.WithContext(ctx).Where("code = ?", strings.TrimSpace(code)).Take(&route).Error
	if err != nil {
		return nil, notFound(err, "route", code)
	}
	return &route, nil
}

// ListRoutes returns every route ordered by name.
func (s *Store) ListRoutes(ctx context.Context) ([]models.Route, error) {
	var routes []models.Route
	if err := s.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&routes).Error; err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	return routes, nil
}

func routeExists(tx *gorm.DB, id uint) (bool, error) {
	var route models.Route
	err := tx.Select("id").First(&route, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup route %d: %w", id, err)
	}
	return true, nil
}
