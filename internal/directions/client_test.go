package directions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/cache"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
)

var (
	jaipur = place.Coordinate{Lon: 75.8, Lat: 26.9}
	surat  = place.Coordinate{Lon: 72.8, Lat: 21.1}
)

const routeBody = `{"code":"Ok","routes":[
	{"duration":5400,"distance":912345.6,"geometry":{"type":"LineString","coordinates":[[75.8,26.9],[74.1,24.0],[72.8,21.1]]}},
	{"duration":9999,"distance":1,"geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]}}
]}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Token: "pk.test"}, zap.NewNop(), nil)
}

func TestRoute_FirstRoute(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(routeBody))
	})

	r, err := c.Route(context.Background(), jaipur, surat)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 5400.0, r.DurationSeconds)
	assert.Equal(t, 912345.6, r.DistanceMeters)
	assert.Equal(t, orb.LineString{{75.8, 26.9}, {74.1, 24.0}, {72.8, 21.1}}, r.Geometry)

	assert.Equal(t, "/directions/v5/mapbox/driving/75.8,26.9;72.8,21.1", gotPath)
	assert.Contains(t, gotQuery, "geometries=geojson")
	assert.Contains(t, gotQuery, "access_token=pk.test")
}

func TestRoute_NoRoutes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	})

	r, err := c.Route(context.Background(), jaipur, surat)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestRoute_UpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Route exceeds maximum distance limitation"}`))
	})

	r, err := c.Route(context.Background(), jaipur, surat)
	assert.Nil(t, r)
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "Route exceeds maximum distance limitation", ue.Message)
}

func TestRoute_BadGeometry(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routes":[{"duration":10,"geometry":{"type":"Point","coordinates":[1,1]}}]}`))
	})

	_, err := c.Route(context.Background(), jaipur, surat)
	assert.Error(t, err)
}

func TestRoute_MissingToken(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, zap.NewNop(), nil)
	_, err := c.Route(context.Background(), jaipur, surat)
	assert.ErrorIs(t, err, ErrMissingToken)
}

type countingRouter struct {
	calls int
	route *place.Route
	err   error
}

func (r *countingRouter) Route(context.Context, place.Coordinate, place.Coordinate) (*place.Route, error) {
	r.calls++
	return r.route, r.err
}

func TestCached(t *testing.T) {
	next := &countingRouter{route: &place.Route{
		Geometry:        orb.LineString{{75.8, 26.9}, {72.8, 21.1}},
		DurationSeconds: 5400,
	}}
	c := NewCached(next, cache.NewMemory(), time.Minute, zap.NewNop(), nil)

	for i := 0; i < 3; i++ {
		r, err := c.Route(context.Background(), jaipur, surat)
		require.NoError(t, err)
		assert.Equal(t, 5400.0, r.DurationSeconds)
		assert.Len(t, r.Geometry, 2)
	}
	assert.Equal(t, 1, next.calls)

	// The reverse trip is a different key.
	_, _ = c.Route(context.Background(), surat, jaipur)
	assert.Equal(t, 2, next.calls)
}

func TestCached_NoRouteNotStored(t *testing.T) {
	next := &countingRouter{}
	c := NewCached(next, cache.NewMemory(), time.Minute, zap.NewNop(), nil)

	_, _ = c.Route(context.Background(), jaipur, surat)
	_, _ = c.Route(context.Background(), jaipur, surat)
	assert.Equal(t, 2, next.calls)
}

func TestRouteKey(t *testing.T) {
	k := routeKey(jaipur, surat)
	assert.Len(t, k, len("route:")+keyPrecision*2+1)
	assert.NotEqual(t, k, routeKey(surat, jaipur))
}
