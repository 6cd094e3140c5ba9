// Package events defines the Kafka topics and event payloads exchanged
// between the ride service and dispatch.
package events

import "time"

// Topics.
const (
	TopicRideEvents   = "ride.events"
	TopicDriverEvents = "driver.events"
)

// Event types.
const (
	RideRequested  = "ride.requested"
	RideCancelled  = "ride.cancelled"
	DriverAssigned = "driver.assigned"
	RideCompleted  = "ride.completed"
)

// Point is a longitude/latitude pair on the wire.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// RideRequestedEvent is published when a rider confirms a trip.
type RideRequestedEvent struct {
	RideID          string    `json:"ride_id"`
	RiderID         string    `json:"rider_id"`
	Tier            string    `json:"tier"`
	PickupName      string    `json:"pickup_name"`
	Pickup          Point     `json:"pickup"`
	DropoffName     string    `json:"dropoff_name"`
	Dropoff         Point     `json:"dropoff"`
	DurationSeconds float64   `json:"duration_seconds"`
	PriceCents      int64     `json:"price_cents"`
	Currency        string    `json:"currency"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// RideCancelledEvent is published when a rider cancels.
type RideCancelledEvent struct {
	RideID     string    `json:"ride_id"`
	RiderID    string    `json:"rider_id"`
	DriverID   string    `json:"driver_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DriverAssignedEvent is consumed when dispatch matches a driver.
type DriverAssignedEvent struct {
	RideID     string    `json:"ride_id"`
	DriverID   string    `json:"driver_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RideCompletedEvent is consumed when the driver ends the trip.
type RideCompletedEvent struct {
	RideID     string    `json:"ride_id"`
	DriverID   string    `json:"driver_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
