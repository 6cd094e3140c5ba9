package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/ride"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/metrics"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/domain"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/events"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/kafka"
)

const eventSource = "service-ride"

// EventPublisher publishes CloudEvents. *kafka.Producer implements it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent, key ...string) error
}

// CreateRideRequest holds what the confirm screen submits.
type CreateRideRequest struct {
	Pickup  string `json:"pickup" binding:"required"`
	Dropoff string `json:"dropoff" binding:"required"`
	Tier    string `json:"tier" binding:"required"`
}

// CancelRideRequest holds an optional cancellation reason.
type CancelRideRequest struct {
	Reason string `json:"reason"`
}

// RideDTO is the response representation of a ride request.
type RideDTO struct {
	ID              uuid.UUID  `json:"id"`
	RiderID         string     `json:"rider_id"`
	DriverID        string     `json:"driver_id,omitempty"`
	Status          string     `json:"status"`
	Pickup          ride.Stop  `json:"pickup"`
	Dropoff         ride.Stop  `json:"dropoff"`
	Tier            string     `json:"tier"`
	DurationSeconds float64    `json:"duration_seconds"`
	DistanceMeters  float64    `json:"distance_meters"`
	PriceCents      int64      `json:"price_cents"`
	Price           string     `json:"price"`
	Currency        string     `json:"currency"`
	AcceptedAt      *time.Time `json:"accepted_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CancelNote      string     `json:"cancel_note,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// RideService is the application service orchestrating ride use cases.
type RideService struct {
	repo      ride.Repository
	locations *LocationService
	publisher EventPublisher
	metrics   *metrics.Collector
	logger    *zap.Logger
}

// NewRideService creates a new RideService.
func NewRideService(
	repo ride.Repository,
	locations *LocationService,
	publisher EventPublisher,
	m *metrics.Collector,
	logger *zap.Logger,
) *RideService {
	return &RideService{
		repo:      repo,
		locations: locations,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// RequestRide re-resolves the trip server side, prices the chosen tier and
// persists a new ride request.
func (s *RideService) RequestRide(ctx context.Context, riderID string, req CreateRideRequest) (*RideDTO, error) {
	tier, ok := ride.FindTier(s.locations.Catalog(), req.Tier)
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown ride tier: %s", req.Tier))
	}

	trip, err := s.locations.Confirm(ctx, req.Pickup, req.Dropoff)
	if err != nil {
		return nil, err
	}
	var route *place.Route
	if trip.Route != nil {
		route = &place.Route{DurationSeconds: trip.Route.DurationSeconds, DistanceMeters: trip.Route.DistanceMeters}
	}

	rd, err := ride.NewRequest(riderID,
		ride.Stop{Name: trip.Pickup.DisplayName, Coordinate: trip.Pickup.Center},
		ride.Stop{Name: trip.Dropoff.DisplayName, Coordinate: trip.Dropoff.Center},
		tier, route,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, rd); err != nil {
		return nil, fmt.Errorf("failed to save ride: %w", err)
	}
	s.metrics.RideRequested()

	evt := events.RideRequestedEvent{
		RideID:          rd.ID().String(),
		RiderID:         rd.RiderID(),
		Tier:            rd.Tier(),
		PickupName:      rd.Pickup().Name,
		Pickup:          events.Point{Lon: rd.Pickup().Coordinate.Lon, Lat: rd.Pickup().Coordinate.Lat},
		DropoffName:     rd.Dropoff().Name,
		Dropoff:         events.Point{Lon: rd.Dropoff().Coordinate.Lon, Lat: rd.Dropoff().Coordinate.Lat},
		DurationSeconds: rd.DurationSeconds(),
		PriceCents:      rd.PriceCents(),
		Currency:        rd.Currency(),
		OccurredAt:      time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicRideEvents, events.RideRequested, rd.ID().String(), evt)

	result := toRideDTO(rd)
	return &result, nil
}

// GetRide returns a ride owned by riderID.
func (s *RideService) GetRide(ctx context.Context, rideID uuid.UUID, riderID string) (*RideDTO, error) {
	rd, err := s.repo.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if rd.RiderID() != riderID {
		return nil, domain.NewForbiddenError("ride does not belong to this user")
	}
	result := toRideDTO(rd)
	return &result, nil
}

// ListRides returns a page of the rider's rides, newest first.
func (s *RideService) ListRides(ctx context.Context, riderID string, page, limit int) (*domain.PaginatedResult[RideDTO], error) {
	rides, total, err := s.repo.FindByRiderID(ctx, riderID, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]RideDTO, len(rides))
	for i, rd := range rides {
		dtos[i] = toRideDTO(rd)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// CancelRide cancels a ride owned by riderID.
func (s *RideService) CancelRide(ctx context.Context, rideID uuid.UUID, riderID, reason string) (*RideDTO, error) {
	rd, err := s.repo.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if rd.RiderID() != riderID {
		return nil, domain.NewForbiddenError("ride does not belong to this user")
	}
	if err := rd.Cancel(reason); err != nil {
		return nil, err
	}

	rd.IncrementVersion()
	if err := s.repo.Update(ctx, rd); err != nil {
		return nil, err
	}

	evt := events.RideCancelledEvent{
		RideID:     rd.ID().String(),
		RiderID:    rd.RiderID(),
		DriverID:   rd.DriverID(),
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicRideEvents, events.RideCancelled, rd.ID().String(), evt)

	result := toRideDTO(rd)
	return &result, nil
}

// AssignDriver records the driver dispatch matched to a ride.
func (s *RideService) AssignDriver(ctx context.Context, rideID uuid.UUID, driverID string) (*RideDTO, error) {
	rd, err := s.repo.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := rd.Accept(driverID); err != nil {
		return nil, err
	}

	rd.IncrementVersion()
	if err := s.repo.Update(ctx, rd); err != nil {
		return nil, err
	}
	result := toRideDTO(rd)
	return &result, nil
}

// CompleteRide marks a ride finished.
func (s *RideService) CompleteRide(ctx context.Context, rideID uuid.UUID) (*RideDTO, error) {
	rd, err := s.repo.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := rd.Complete(); err != nil {
		return nil, err
	}

	rd.IncrementVersion()
	if err := s.repo.Update(ctx, rd); err != nil {
		return nil, err
	}
	result := toRideDTO(rd)
	return &result, nil
}

func toRideDTO(rd *ride.Request) RideDTO {
	return RideDTO{
		ID:              rd.ID(),
		RiderID:         rd.RiderID(),
		DriverID:        rd.DriverID(),
		Status:          string(rd.Status()),
		Pickup:          rd.Pickup(),
		Dropoff:         rd.Dropoff(),
		Tier:            rd.Tier(),
		DurationSeconds: rd.DurationSeconds(),
		DistanceMeters:  rd.DistanceMeters(),
		PriceCents:      rd.PriceCents(),
		Price:           ride.FormatPrice(float64(rd.PriceCents()) / 100),
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

func (s *RideService) publishEvent(ctx context.Context, topic, eventType, key string, data any) {
	if s.publisher == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, topic, cloudEvent, key); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
