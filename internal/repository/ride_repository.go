package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/ride"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/domain"
)

// RideRequestModel is the GORM model for the ride_requests table.
type RideRequestModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RiderID         string     `gorm:"not null;size:128;index"`
	DriverID        string     `gorm:"size:128;index"`
	Status          string     `gorm:"not null;size:20;index"`
	PickupName      string     `gorm:"not null;size:500"`
	PickupLon       float64    `gorm:"not null"`
	PickupLat       float64    `gorm:"not null"`
	DropoffName     string     `gorm:"not null;size:500"`
	DropoffLon      float64    `gorm:"not null"`
	DropoffLat      float64    `gorm:"not null"`
	Tier            string     `gorm:"not null;size:50"`
	DurationSeconds float64    `gorm:"not null"`
	DistanceMeters  float64    `gorm:"not null;default:0"`
	PriceCents      int64      `gorm:"not null"`
	Currency        string     `gorm:"not null;size:3;default:'USD'"`
	AcceptedAt      *time.Time `gorm:""`
	CompletedAt     *time.Time `gorm:""`
	CancelledAt     *time.Time `gorm:""`
	CancelNote      string     `gorm:"size:500"`
	Version         int64      `gorm:"not null;default:1"`
	CreatedAt       time.Time  `gorm:"not null"`
	UpdatedAt       time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RideRequestModel) TableName() string {
	return "ride_requests"
}

// GormRideRepository is the GORM-based implementation of ride.Repository.
type GormRideRepository struct {
	db *gorm.DB
}

// NewGormRideRepository creates a new GormRideRepository.
func NewGormRideRepository(db *gorm.DB) *GormRideRepository {
	return &GormRideRepository{db: db}
}

// FindByID retrieves a ride request by id.
func (r *GormRideRepository) FindByID(ctx context.Context, id uuid.UUID) (*ride.Request, error) {
	var model RideRequestModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Ride", id.String())
		}
		return nil, fmt.Errorf("failed to find ride by ID: %w", err)
	}
	return toDomainRide(&model)
}

// FindByRiderID retrieves a rider's requests, newest first.
func (r *GormRideRepository) FindByRiderID(ctx context.Context, riderID string, page, limit int) ([]*ride.Request, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&RideRequestModel{}).Where("rider_id = ?", riderID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count rider rides: %w", err)
	}

	var models []RideRequestModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("rider_id = ?", riderID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find rider rides: %w", err)
	}

	rides := make([]*ride.Request, len(models))
	for i := range models {
		rd, err := toDomainRide(&models[i])
		if err != nil {
			return nil, 0, err
		}
		rides[i] = rd
	}
	return rides, total, nil
}

// Save persists a new ride request.
func (r *GormRideRepository) Save(ctx context.Context, rd *ride.Request) error {
	if err := r.db.WithContext(ctx).Create(toRideModel(rd)).Error; err != nil {
		return fmt.Errorf("failed to save ride: %w", err)
	}
	return nil
}

// Update persists changes with optimistic locking. The caller must have
// called IncrementVersion.
func (r *GormRideRepository) Update(ctx context.Context, rd *ride.Request) error {
	model := toRideModel(rd)
	expectedVersion := rd.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&RideRequestModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]any{
			"driver_id":    model.DriverID,
			"status":       model.Status,
			"accepted_at":  model.AcceptedAt,
			"completed_at": model.CompletedAt,
			"cancelled_at": model.CancelledAt,
			"cancel_note":  model.CancelNote,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update ride: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("ride was modified by another transaction")
	}
	return nil
}

func toRideModel(rd *ride.Request) *RideRequestModel {
	return &RideRequestModel{
		ID:              rd.ID(),
		RiderID:         rd.RiderID(),
		DriverID:        rd.DriverID(),
		Status:          string(rd.Status()),
		PickupName:      rd.Pickup().Name,
		PickupLon:       rd.Pickup().Coordinate.Lon,
		PickupLat:       rd.Pickup().Coordinate.Lat,
		DropoffName:     rd.Dropoff().Name,
		DropoffLon:      rd.Dropoff().Coordinate.Lon,
		DropoffLat:      rd.Dropoff().Coordinate.Lat,
		Tier:            rd.Tier(),
		DurationSeconds: rd.DurationSeconds(),
		DistanceMeters:  rd.DistanceMeters(),
		PriceCents:      rd.PriceCents(),
		Currency:        rd.Currency(),
		AcceptedAt:      rd.AcceptedAt(),
		CompletedAt:     rd.CompletedAt(),
		CancelledAt:     rd.CancelledAt(),
		CancelNote:      rd.CancelNote(),
		Version:         rd.Version(),
		CreatedAt:       rd.CreatedAt(),
		UpdatedAt:       rd.UpdatedAt(),
	}
}

func toDomainRide(m *RideRequestModel) (*ride.Request, error) {
	status, err := ride.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return ride.ReconstructRequest(
		m.ID,
		m.RiderID,
		m.DriverID,
		status,
		ride.Stop{Name: m.PickupName, Coordinate: place.Coordinate{Lon: m.PickupLon, Lat: m.PickupLat}},
		ride.Stop{Name: m.DropoffName, Coordinate: place.Coordinate{Lon: m.DropoffLon, Lat: m.DropoffLat}},
		m.Tier,
		m.DurationSeconds,
		m.DistanceMeters,
		m.PriceCents,
		m.Currency,
		m.AcceptedAt,
		m.CompletedAt,
		m.CancelledAt,
		m.CancelNote,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
