package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/ride"
)

func TestRideModelRoundTrip(t *testing.T) {
	tier, _ := ride.FindTier(ride.DefaultCatalog, "Black")
	rd, err := ride.NewRequest("uid-1",
		ride.Stop{Name: "Jaipur", Coordinate: place.Coordinate{Lon: 75.8, Lat: 26.9}},
		ride.Stop{Name: "Surat", Coordinate: place.Coordinate{Lon: 72.8, Lat: 21.1}},
		tier, &place.Route{DurationSeconds: 600, DistanceMeters: 9000},
	)
	require.NoError(t, err)
	require.NoError(t, rd.Accept("driver-1"))

	m := toRideModel(rd)
	assert.Equal(t, "ride_requests", m.TableName())
	assert.Equal(t, "accepted", m.Status)
	assert.Equal(t, int64(2000), m.PriceCents)

	back, err := toDomainRide(m)
	require.NoError(t, err)
	assert.Equal(t, rd.ID(), back.ID())
	assert.Equal(t, rd.Pickup(), back.Pickup())
	assert.Equal(t, rd.Dropoff(), back.Dropoff())
	assert.Equal(t, "driver-1", back.DriverID())
	assert.Equal(t, rd.AcceptedAt(), back.AcceptedAt())
}

func TestToDomainRide_RejectsUnknownStatus(t *testing.T) {
	_, err := toDomainRide(&RideRequestModel{Status: "teleported"})
	assert.Error(t, err)
}
