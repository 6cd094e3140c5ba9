package routeview

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
)

var (
	jaipur = &place.Coordinate{Lon: 75.8, Lat: 26.9}
	surat  = &place.Coordinate{Lon: 72.8, Lat: 21.1}
	delhi  = &place.Coordinate{Lon: 77.2, Lat: 28.6}
)

type recorder struct {
	mu   sync.Mutex
	cmds []Command
}

func (r *recorder) sink(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, c)
	return nil
}

func (r *recorder) ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.cmds))
	for i, c := range r.cmds {
		out[i] = c.Op
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = nil
}

type fakeRouter struct {
	mu     sync.Mutex
	calls  [][2]place.Coordinate
	route  *place.Route
	err    error
	during func()
}

func (f *fakeRouter) Route(_ context.Context, from, to place.Coordinate) (*place.Route, error) {
	f.mu.Lock()
	f.calls = append(f.calls, [2]place.Coordinate{from, to})
	during := f.during
	f.during = nil
	f.mu.Unlock()
	if during != nil {
		during()
	}
	return f.route, f.err
}

func (f *fakeRouter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var testRoute = &place.Route{
	Geometry:        orb.LineString{{75.8, 26.9}, {72.8, 21.1}},
	DurationSeconds: 5400,
}

type harness struct {
	view    *View
	surface *CommandSurface
	rec     *recorder
	router  *fakeRouter
	routes  []*place.Route
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{rec: &recorder{}, router: &fakeRouter{route: testRoute}}
	h.surface = NewCommandSurface(h.rec.sink, nil)
	h.view = New(h.surface, h.router, Options{OnRoute: func(r *place.Route) { h.routes = append(h.routes, r) }})
	h.view.spawn = func(f func()) { f() }
	return h
}

func TestNothingPaintedBeforeReady(t *testing.T) {
	h := newHarness(t)
	h.view.SetLocations(delhi, surat)
	h.view.SetLocations(jaipur, surat)
	assert.Empty(t, h.rec.ops())
	assert.Zero(t, h.router.count())

	h.view.Ready()
	assert.Equal(t, 1, h.router.count(), "only the latest buffered locations are drawn")
	assert.Equal(t, [2]place.Coordinate{*jaipur, *surat}, h.router.calls[0])
	assert.Equal(t, []string{OpAddMarker, OpAddMarker, OpAddLayer, OpFitBounds}, h.rec.ops())
}

func TestBothSet_OneRouteRequestAndRouteLine(t *testing.T) {
	h := newHarness(t)
	h.view.Ready()
	h.view.SetLocations(jaipur, surat)

	assert.Equal(t, 1, h.router.count())
	assert.Equal(t, map[string]int{"marker": 2, "layer": 1}, h.surface.Live())

	cmds := h.rec.cmds
	require.Len(t, cmds, 4)
	assert.Equal(t, PickupColor, cmds[0].Color)
	assert.Equal(t, DropoffColor, cmds[1].Color)
	assert.Equal(t, RouteColor, cmds[2].Layer.Paint["line-color"])
	assert.Equal(t, 4, cmds[2].Layer.Paint["line-width"])
	assert.Equal(t, 0.75, cmds[2].Layer.Paint["line-opacity"])
	assert.Equal(t, FitPadding, cmds[3].Padding)
	assert.Equal(t, &[2][2]float64{{72.8, 21.1}, {75.8, 26.9}}, cmds[3].Bounds)

	require.Len(t, h.routes, 1)
	assert.Same(t, testRoute, h.routes[0])
}

func TestRedrawTearsDownBeforeAdding(t *testing.T) {
	h := newHarness(t)
	h.view.Ready()
	h.view.SetLocations(jaipur, surat)
	h.rec.reset()

	h.view.SetLocations(delhi, surat)
	assert.Equal(t, []string{
		OpRemoveMarker, OpRemoveMarker, OpRemoveLayer,
		OpAddMarker, OpAddMarker, OpAddLayer, OpFitBounds,
	}, h.rec.ops())
	assert.Equal(t, map[string]int{"marker": 2, "layer": 1}, h.surface.Live(), "no duplicate layers")
	assert.Equal(t, 2, h.router.count())
}

func TestSentinelSuppressesMarkerAndRoute(t *testing.T) {
	h := newHarness(t)
	h.view.Ready()

	h.view.SetLocations(place.FromSentinel(0, 0), surat)
	assert.Zero(t, h.router.count())
	assert.Equal(t, map[string]int{"marker": 1}, h.surface.Live())
	assert.Equal(t, DropoffColor, h.rec.cmds[0].Color)

	h.view.SetLocations(nil, nil)
	assert.Zero(t, h.router.count())
	assert.Empty(t, h.surface.Live())

	require.Len(t, h.routes, 2)
	assert.Nil(t, h.routes[0])
}

func TestRouteErrorOrNoRouteLeavesMarkers(t *testing.T) {
	h := newHarness(t)
	h.router.route = nil
	h.view.Ready()

	h.view.SetLocations(jaipur, surat)
	assert.Equal(t, map[string]int{"marker": 2}, h.surface.Live())
	assert.Equal(t, []*place.Route{nil}, h.routes)

	h.router.err = errors.New("network down")
	h.view.SetLocations(jaipur, delhi)
	assert.Equal(t, map[string]int{"marker": 2}, h.surface.Live())
	assert.Equal(t, []*place.Route{nil, nil}, h.routes)
}

func TestStaleRouteDiscarded(t *testing.T) {
	h := newHarness(t)
	h.view.Ready()

	// A newer pair arrives while the first fetch is in flight.
	h.router.during = func() { h.view.SetLocations(delhi, surat) }
	h.view.SetLocations(jaipur, surat)

	assert.Equal(t, 2, h.router.count())
	assert.Equal(t, map[string]int{"marker": 2, "layer": 1}, h.surface.Live())
	require.Len(t, h.routes, 1, "only the current fetch is applied")
}

func TestDeviceLocationAtMostOnce(t *testing.T) {
	h := newHarness(t)
	h.view.Ready()

	h.view.SetDeviceLocation(place.Coordinate{Lon: 75.78, Lat: 26.92})
	h.view.SetDeviceLocation(place.Coordinate{Lon: 1, Lat: 1})

	assert.Equal(t, []string{OpAddMarker, OpAddLayer, OpAddLayer, OpFlyTo}, h.rec.ops())
	cmds := h.rec.cmds
	assert.Equal(t, DeviceColor, cmds[0].Color)
	assert.Equal(t, 20, cmds[1].Layer.Paint["circle-radius"])
	assert.Equal(t, HaloColor, cmds[1].Layer.Paint["circle-color"])
	assert.Equal(t, 0.3, cmds[1].Layer.Paint["circle-opacity"])
	assert.Equal(t, 4, cmds[2].Layer.Paint["circle-radius"])
	assert.Equal(t, float64(DeviceZoom), cmds[3].Zoom)

	// Location redraws leave the device marker alone.
	h.view.SetLocations(jaipur, surat)
	h.view.SetLocations(delhi, surat)
	assert.Equal(t, map[string]int{"marker": 3, "layer": 3}, h.surface.Live())
}

func TestDeviceLocationBufferedUntilReady(t *testing.T) {
	h := newHarness(t)
	h.view.SetDeviceLocation(*jaipur)
	assert.Empty(t, h.rec.ops())

	h.view.Ready()
	assert.Equal(t, []string{OpAddMarker, OpAddLayer, OpAddLayer, OpFlyTo}, h.rec.ops())
}

func TestCloseReleasesAndIgnoresLateCallbacks(t *testing.T) {
	h := newHarness(t)
	h.view.Ready()

	h.router.during = func() { h.view.Close() }
	h.view.SetLocations(jaipur, surat)

	assert.Equal(t, []string{OpAddMarker, OpAddMarker, OpRelease}, h.rec.ops())
	assert.Empty(t, h.routes)

	h.view.SetDeviceLocation(*jaipur)
	h.view.SetLocations(delhi, surat)
	h.view.Close()
	assert.Equal(t, []string{OpAddMarker, OpAddMarker, OpRelease}, h.rec.ops())
}

func TestCommandSurface_RemoveUnknownHandleIsNoop(t *testing.T) {
	rec := &recorder{}
	s := NewCommandSurface(rec.sink, nil)
	s.Remove("marker-unknown")
	assert.Empty(t, rec.ops())

	h := s.AddMarker(*jaipur, PickupColor)
	s.Remove(h)
	s.Remove(h)
	assert.Equal(t, []string{OpAddMarker, OpRemoveMarker}, rec.ops())
}
