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

// StopInput carries the fields accepted when creating a stop.
type StopInput struct {
	Name        string            `json:"name" binding:"required" validate:"required,max=255"`
	Description string            `json:"description"`
	Latitude    *float64          `json:"latitude" binding:"required" validate:"required,gte=-90,lte=90"`
	Longitude   *float64          `json:"longitude" binding:"required" validate:"required,gte=-180,lte=180"`
	Address     string            `json:"address" validate:"max=255"`
	Landmarks   string            `json:"landmarks"`
	Status      models.StopStatus `json:"status" validate:"omitempty,oneof=active inactive under_construction"`
}

// CreateStop inserts a new stop. It fails with a ValidationError on bad
// coordinates and with an AlreadyExistsError when the name is taken.
func (s *Store) CreateStop(ctx context.Context, in StopInput) (*models.Stop, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = models.StopActive
	}

	db := s.db.WithContext(ctx)
	var taken int64
	if err := db.Model(&models.Stop{}).Where("name = ?", in.Name).Count(&taken).Error; err != nil {
		return nil, fmt.Errorf("check stop name: %w", err)
	}
	if taken > 0 {
		return nil, apperror.AlreadyExists("stop", in.Name)
	}

	stop := models.Stop{
		Name:        in.Name,
		Description: in.Description,
		Coordinates: models.Coordinates{Latitude: *in.Latitude, Longitude: *in.Longitude},
		Address:     in.Address,
		Landmarks:   in.Landmarks,
		Status:      in.Status,
	}
	if err := db.Create(&stop).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.AlreadyExists("stop", in.Name)
		}
		return nil, fmt.Errorf("create stop %q: %w", in.Name, err)
	}

	logrus.WithFields(logrus.Fields{"stop_id": stop.ID, "name": stop.Name}).Debug("stop created")
	return &stop, nil
}

// GetStop loads a stop by id.
func (s *Store) GetStop(ctx context.Context, id uint) (*models.Stop, error) {
	var stop models.Stop
	if err := s.db.WithContext(ctx).First(&stop, id).Error; err != nil {
		return nil, notFound(err, "stop", id)
	}
	return &stop, nil
}

// FindStopByName resolves a stop by its natural key.
func (s *Store) FindStopByName(ctx context.Context, name string) (*models.Stop, error) {
	var stop models.Stop
	err := s.db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).Take(&stop).Error
	if err != nil {
		return nil, notFound(err, "stop", name)
	}
	return &stop, nil
}

// ListStops returns every stop ordered by name.
func (s *Store) ListStops(ctx context.Context) ([]models.Stop, error) {
	var stops []models.Stop
	if err := s.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&stops).Error; err != nil {
		return nil, fmt.Errorf("list stops: %w", err)
	}
	return stops, nil
}

// stopExists reports whether id resolves inside tx.
func stopExists(tx *gorm.DB, id uint) (bool, error) {
	var stop models.Stop
	err := tx.Select("id").First(&stop, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup stop %d: %w", id, err)
	}
	return true, nil
}
