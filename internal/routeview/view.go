// Package routeview keeps a map surface in sync with the selected pickup and
// dropoff: markers, the driving route between them and the device location.
package routeview

import (
	"context"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/directions"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/metrics"
)

const (
	PickupColor   = "#000000"
	DropoffColor  = "#FF0000"
	DeviceColor   = "#00FF00"
	RouteColor    = "#3B82F6"
	HaloColor     = "#4285F4"
	FitPadding    = 60
	DeviceZoom    = 14
	routeTimeout  = 15 * time.Second
	routeLineSize = 4
)

// Options configures a View.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Collector
	// OnRoute is called with each applied route, or nil when the route is
	// cleared or unavailable.
	OnRoute func(*place.Route)
}

// View is one mounted map. It starts uninitialized and buffers locations
// until Ready. Every redraw removes the handles of the previous one first.
// Route fetches carry a generation; responses from superseded fetches are
// dropped.
type View struct {
	surface Surface
	router  directions.Router
	logger  *zap.Logger
	metrics *metrics.Collector
	onRoute func(*place.Route)
	spawn   func(func())

	mu      sync.Mutex
	ready   bool
	closed  bool
	pickup  *place.Coordinate
	dropoff *place.Coordinate
	pending bool
	owned   []Handle
	gen     uint64
	cancel  context.CancelFunc

	device      *place.Coordinate
	deviceShown bool
}

// New creates an uninitialized view. Nothing is painted until Ready.
func New(surface Surface, router directions.Router, opts Options) *View {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &View{
		surface: surface,
		router:  router,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		onRoute: opts.OnRoute,
		spawn:   func(f func()) { go f() },
	}
}

// Ready marks the surface as loaded and applies anything buffered.
func (v *View) Ready() {
	v.mu.Lock()
	if v.ready || v.closed {
		v.mu.Unlock()
		return
	}
	v.ready = true
	if v.device != nil {
		v.showDeviceLocked(*v.device)
	}
	var job func()
	if v.pending {
		v.pending = false
		job = v.redrawLocked()
	}
	v.mu.Unlock()

	if job != nil {
		v.spawn(job)
	}
}

// SetLocations replaces the pickup and dropoff. nil means unset.
func (v *View) SetLocations(pickup, dropoff *place.Coordinate) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.pickup = copyCoord(pickup)
	v.dropoff = copyCoord(dropoff)
	if !v.ready {
		v.pending = true
		v.mu.Unlock()
		return
	}
	job := v.redrawLocked()
	v.mu.Unlock()

	if job != nil {
		v.spawn(job)
	}
}

// SetDeviceLocation shows the current-location marker and recentres on it.
// Only the first call per view has any effect.
func (v *View) SetDeviceLocation(at place.Coordinate) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.deviceShown || v.device != nil {
		return
	}
	v.device = &at
	if v.ready {
		v.showDeviceLocked(at)
	}
}

// Close releases the surface. Late route responses and device locations are
// ignored.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.owned = nil
	v.surface.Release()
}

// redrawLocked tears down the previous markers and route, adds the new
// markers and returns the route fetch to run, if any.
func (v *View) redrawLocked() func() {
	v.gen++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	for _, h := range v.owned {
		v.surface.Remove(h)
	}
	v.owned = v.owned[:0]

	if v.pickup != nil {
		v.owned = append(v.owned, v.surface.AddMarker(*v.pickup, PickupColor))
	}
	if v.dropoff != nil {
		v.owned = append(v.owned, v.surface.AddMarker(*v.dropoff, DropoffColor))
	}

	if v.pickup == nil || v.dropoff == nil {
		v.notify(nil)
		return nil
	}

	gen := v.gen
	from, to := *v.pickup, *v.dropoff
	ctx, cancel := context.WithTimeout(context.Background(), routeTimeout)
	v.cancel = cancel
	return func() {
		defer cancel()
		r, err := v.router.Route(ctx, from, to)
		v.applyRoute(gen, from, to, r, err)
	}
}

func (v *View) applyRoute(gen uint64, from, to place.Coordinate, r *place.Route, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || gen != v.gen {
		v.metrics.StaleDiscarded("route")
		return
	}
	v.cancel = nil

	if err != nil {
		v.logger.Warn("route unavailable", zap.Error(err))
		v.notify(nil)
		return
	}
	if r == nil {
		v.notify(nil)
		return
	}

	v.owned = append(v.owned, v.surface.AddLayer(RouteLayer(r)))
	v.surface.FitBounds(place.Bounds(from, to), FitPadding)
	v.notify(r)
}

func (v *View) showDeviceLocked(at place.Coordinate) {
	v.deviceShown = true
	v.surface.AddMarker(at, DeviceColor)
	for _, l := range DeviceLayers(at) {
		v.surface.AddLayer(l)
	}
	v.surface.FlyTo(at, DeviceZoom)
}

func (v *View) notify(r *place.Route) {
	if v.onRoute != nil {
		v.onRoute(r)
	}
}

// RouteLayer styles a route as a rounded blue line.
func RouteLayer(r *place.Route) Layer {
	return Layer{
		Type:   "line",
		Source: r.Feature(),
		Layout: map[string]any{"line-join": "round", "line-cap": "round"},
		Paint: map[string]any{
			"line-color":   RouteColor,
			"line-width":   routeLineSize,
			"line-opacity": 0.75,
		},
	}
}

// DeviceLayers returns the translucent halo and the white-ringed dot drawn
// under the current-location marker.
func DeviceLayers(at place.Coordinate) []Layer {
	point := geojson.NewFeature(at.Point())
	return []Layer{
		{
			Type:   "circle",
			Source: point,
			Paint: map[string]any{
				"circle-radius":       20,
				"circle-color":        HaloColor,
				"circle-opacity":      0.3,
				"circle-stroke-width": 2,
				"circle-stroke-color": HaloColor,
			},
		},
		{
			Type:   "circle",
			Source: point,
			Paint: map[string]any{
				"circle-radius":       4,
				"circle-color":        HaloColor,
				"circle-stroke-width": 2,
				"circle-stroke-color": "#FFFFFF",
			},
		},
	}
}

func copyCoord(c *place.Coordinate) *place.Coordinate {
	if c == nil {
		return nil
	}
	cc := *c
	return &cc
}
