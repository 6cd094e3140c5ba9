//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/application"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/events"
)

// TestRequestRide_PersistsAndPublishes verifies that confirming a ride stores
// it and announces it on ride.events.
func TestRequestRide_PersistsAndPublishes(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupRideStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	dto, err := stack.Service.RequestRide(context.Background(), "uid-rider", application.CreateRideRequest{
		Pickup: "Jaipur", Dropoff: "Surat", Tier: "UberXL",
	})
	require.NoError(t, err)
	assert.Equal(t, "$135.00", dto.Price)

	model := waitForRideStatus(t, infra.DB, dto.ID, "requested", 5*time.Second)
	assert.Equal(t, "Jaipur, Rajasthan, India", model.PickupName)
	assert.Equal(t, int64(13500), model.PriceCents)
	assert.Equal(t, 5400.0, model.DurationSeconds)

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicRideEvents,
		events.RideRequested, 15*time.Second)

	var requested events.RideRequestedEvent
	require.NoError(t, ce.ParseData(&requested))
	assert.Equal(t, dto.ID.String(), requested.RideID)
	assert.Equal(t, "UberXL", requested.Tier)
	assert.Equal(t, int64(13500), requested.PriceCents)
	assert.Equal(t, "USD", requested.Currency)
}

// TestDriverEvents_DriveRideLifecycle verifies that driver.assigned and
// ride.completed events on driver.events move a ride to completed.
func TestDriverEvents_DriveRideLifecycle(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupRideStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	dto, err := stack.Service.RequestRide(context.Background(), "uid-rider", application.CreateRideRequest{
		Pickup: "Jaipur", Dropoff: "Surat", Tier: "UberX",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	publishTestEvent(t, infra.KafkaBrokers, events.TopicDriverEvents, "service-dispatch",
		events.DriverAssigned, events.DriverAssignedEvent{
			RideID: dto.ID.String(), DriverID: "driver-42", OccurredAt: time.Now().UTC(),
		})

	model := waitForRideStatus(t, infra.DB, dto.ID, "accepted", 15*time.Second)
	assert.Equal(t, "driver-42", model.DriverID)
	assert.NotNil(t, model.AcceptedAt)

	publishTestEvent(t, infra.KafkaBrokers, events.TopicDriverEvents, "service-dispatch",
		events.RideCompleted, events.RideCompletedEvent{
			RideID: dto.ID.String(), DriverID: "driver-42", OccurredAt: time.Now().UTC(),
		})

	model = waitForRideStatus(t, infra.DB, dto.ID, "completed", 15*time.Second)
	assert.NotNil(t, model.CompletedAt)
	assert.Equal(t, int64(3), model.Version)
}
