// Package ride models ride tiers, per-minute pricing and the ride request
// aggregate created when a rider confirms a trip.
package ride

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/domain"
)

// Stop is one end of a trip: the text the rider chose and where it resolved.
type Stop struct {
	Name       string           `json:"name"`
	Coordinate place.Coordinate `json:"coordinate"`
}

// Request is the aggregate root for a confirmed ride.
type Request struct {
	id       uuid.UUID
	riderID  string
	driverID string
	status   Status
	pickup   Stop
	dropoff  Stop
	tier     string

	durationSeconds float64
	distanceMeters  float64
	priceCents      int64
	currency        string

	acceptedAt  *time.Time
	completedAt *time.Time
	cancelledAt *time.Time
	cancelNote  string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewRequest creates a ride request in the requested state, priced from the
// tier and route.
func NewRequest(riderID string, pickup, dropoff Stop, tier Tier, route *place.Route) (*Request, error) {
	if riderID == "" {
		return nil, domain.NewValidationError("rider ID is required")
	}
	if strings.TrimSpace(pickup.Name) == "" {
		return nil, domain.NewValidationError("pickup is required")
	}
	if strings.TrimSpace(dropoff.Name) == "" {
		return nil, domain.NewValidationError("dropoff is required")
	}
	if !pickup.Coordinate.Valid() || !dropoff.Coordinate.Valid() {
		return nil, domain.NewValidationError("pickup and dropoff must be valid coordinates")
	}
	if tier.Name == "" || tier.PriceMultiplier <= 0 {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid ride tier: %q", tier.Name))
	}
	if route == nil || route.DurationSeconds <= 0 {
		return nil, domain.NewValidationError("no route between pickup and dropoff")
	}

	now := time.Now().UTC()
	return &Request{
		id:              uuid.New(),
		riderID:         riderID,
		status:          StatusRequested,
		pickup:          pickup,
		dropoff:         dropoff,
		tier:            tier.Name,
		durationSeconds: route.DurationSeconds,
		distanceMeters:  route.DistanceMeters,
		priceCents:      PriceCents(Estimate(tier, route).Amount),
		currency:        domain.CurrencyUSD,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructRequest rebuilds a Request from persistence data (no validation).
func ReconstructRequest(
	id uuid.UUID,
	riderID, driverID string,
	status Status,
	pickup, dropoff Stop,
	tier string,
	durationSeconds, distanceMeters float64,
	priceCents int64,
	currency string,
	acceptedAt, completedAt, cancelledAt *time.Time,
	cancelNote string,
	version int64,
	createdAt, updatedAt time.Time,
) *Request {
	return &Request{
		id:              id,
		riderID:         riderID,
		driverID:        driverID,
		status:          status,
		pickup:          pickup,
		dropoff:         dropoff,
		tier:            tier,
		durationSeconds: durationSeconds,
		distanceMeters:  distanceMeters,
		priceCents:      priceCents,
		currency:        currency,
		acceptedAt:      acceptedAt,
		completedAt:     completedAt,
		cancelledAt:     cancelledAt,
		cancelNote:      cancelNote,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (r *Request) ID() uuid.UUID            { return r.id }
func (r *Request) RiderID() string          { return r.riderID }
func (r *Request) DriverID() string         { return r.driverID }
func (r *Request) Status() Status           { return r.status }
func (r *Request) Pickup() Stop             { return r.pickup }
func (r *Request) Dropoff() Stop            { return r.dropoff }
func (r *Request) Tier() string             { return r.tier }
func (r *Request) DurationSeconds() float64 { return r.durationSeconds }
func (r *Request) DistanceMeters() float64  { return r.distanceMeters }
func (r *Request) PriceCents() int64        { return r.priceCents }
func (r *Request) Currency() string         { return r.currency }
func (r *Request) AcceptedAt() *time.Time   { return r.acceptedAt }
func (r *Request) CompletedAt() *time.Time  { return r.completedAt }
func (r *Request) CancelledAt() *time.Time  { return r.cancelledAt }
func (r *Request) CancelNote() string       { return r.cancelNote }
func (r *Request) Version() int64           { return r.version }
func (r *Request) CreatedAt() time.Time     { return r.createdAt }
func (r *Request) UpdatedAt() time.Time     { return r.updatedAt }

// Accept assigns a driver to a requested ride.
func (r *Request) Accept(driverID string) error {
	if !r.status.CanTransitionTo(StatusAccepted) {
		return domain.NewInvalidStateError(string(r.status), string(StatusAccepted))
	}
	if driverID == "" {
		return domain.NewValidationError("driver ID is required")
	}
	now := time.Now().UTC()
	r.driverID = driverID
	r.status = StatusAccepted
	r.acceptedAt = &now
	r.updatedAt = now
	return nil
}

// Complete marks an accepted ride as finished.
func (r *Request) Complete() error {
	if !r.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(r.status), string(StatusCompleted))
	}
	now := time.Now().UTC()
	r.status = StatusCompleted
	r.completedAt = &now
	r.updatedAt = now
	return nil
}

// Cancel cancels a ride that has not finished.
func (r *Request) Cancel(reason string) error {
	if !r.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(r.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	r.status = StatusCancelled
	r.cancelNote = reason
	r.cancelledAt = &now
	r.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Request) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}
