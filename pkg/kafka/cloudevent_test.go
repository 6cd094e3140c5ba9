package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudEventEnvelope(t *testing.T) {
	ce, err := NewCloudEvent("service-ride", "ride.requested", map[string]any{"ride_id": "r-1"})
	require.NoError(t, err)
	assert.Equal(t, "1.0", ce.SpecVersion)
	assert.NotEmpty(t, ce.ID)

	b, err := json.Marshal(ce)
	require.NoError(t, err)

	parsed, err := ParseCloudEvent(b)
	require.NoError(t, err)
	assert.Equal(t, "ride.requested", parsed.Type)

	var data struct {
		RideID string `json:"ride_id"`
	}
	require.NoError(t, parsed.ParseData(&data))
	assert.Equal(t, "r-1", data.RideID)
}

func TestParseCloudEventRejectsUntyped(t *testing.T) {
	_, err := ParseCloudEvent([]byte(`{"id":"x"}`))
	assert.Error(t, err)

	_, err = ParseCloudEvent([]byte(`not json`))
	assert.Error(t, err)
}
