package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/application"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/domain"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/events"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/kafka"
)

// RideTransitions is the part of the ride service driven by dispatch events.
type RideTransitions interface {
	AssignDriver(ctx context.Context, rideID uuid.UUID, driverID string) (*application.RideDTO, error)
	CompleteRide(ctx context.Context, rideID uuid.UUID) (*application.RideDTO, error)
}

// DriverEventConsumer listens to driver dispatch events and moves rides
// through their lifecycle.
type DriverEventConsumer struct {
	consumer *kafka.Consumer
	service  RideTransitions
	logger   *zap.Logger
}

// NewDriverEventConsumer creates a new DriverEventConsumer.
func NewDriverEventConsumer(
	brokers []string,
	groupID string,
	service RideTransitions,
	logger *zap.Logger,
) *DriverEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicDriverEvents, logger)
	return &DriverEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming driver events. This blocks until the context is cancelled.
func (c *DriverEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *DriverEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *DriverEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from driver topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.DriverAssigned:
		return c.handleDriverAssigned(ctx, cloudEvent)
	case events.RideCompleted:
		return c.handleRideCompleted(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled driver event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *DriverEventConsumer) handleDriverAssigned(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.DriverAssignedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse DriverAssignedEvent data", zap.Error(err))
		return nil
	}
	rideID, err := uuid.Parse(evt.RideID)
	if err != nil {
		c.logger.Error("driver assigned event has invalid ride id",
			zap.String("ride_id", evt.RideID),
		)
		return nil
	}

	c.logger.Info("processing driver assigned event",
		zap.String("ride_id", evt.RideID),
		zap.String("driver_id", evt.DriverID),
	)

	if _, err := c.service.AssignDriver(ctx, rideID, evt.DriverID); err != nil {
		return c.settle("assign driver", evt.RideID, err)
	}
	return nil
}

func (c *DriverEventConsumer) handleRideCompleted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.RideCompletedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse RideCompletedEvent data", zap.Error(err))
		return nil
	}
	rideID, err := uuid.Parse(evt.RideID)
	if err != nil {
		c.logger.Error("ride completed event has invalid ride id",
			zap.String("ride_id", evt.RideID),
		)
		return nil
	}

	if _, err := c.service.CompleteRide(ctx, rideID); err != nil {
		return c.settle("complete ride", evt.RideID, err)
	}

	c.logger.Info("ride completed", zap.String("ride_id", evt.RideID))
	return nil
}

// settle decides whether a failed transition is worth redelivering. Events
// for unknown rides or rides already past the target state are dropped.
func (c *DriverEventConsumer) settle(action, rideID string, err error) error {
	var (
		notFound *domain.NotFoundError
		badState *domain.InvalidStateError
		invalid  *domain.ValidationError
	)
	if errors.As(err, &notFound) || errors.As(err, &badState) || errors.As(err, &invalid) {
		c.logger.Warn("dropping driver event",
			zap.String("action", action),
			zap.String("ride_id", rideID),
			zap.Error(err),
		)
		return nil
	}
	c.logger.Error("failed to "+action,
		zap.String("ride_id", rideID),
		zap.Error(err),
	)
	return err
}
