package routeview

import (
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
)

// Handle identifies a marker or layer created on a Surface.
type Handle string

// Layer is a styled GeoJSON layer.
type Layer struct {
	Type   string           `json:"type"`
	Source *geojson.Feature `json:"source"`
	Paint  map[string]any   `json:"paint"`
	Layout map[string]any   `json:"layout,omitempty"`
}

// Surface is a map that paints markers and layers and returns a handle for
// each, so the caller can remove exactly what it created.
type Surface interface {
	AddMarker(at place.Coordinate, color string) Handle
	AddLayer(l Layer) Handle
	Remove(h Handle)
	FitBounds(b orb.Bound, padding int)
	FlyTo(at place.Coordinate, zoom float64)
	Release()
}

// Camera is the initial map viewport.
type Camera struct {
	Style  string           `json:"style"`
	Center place.Coordinate `json:"center"`
	Zoom   float64          `json:"zoom"`
}

// DefaultCamera frames India.
var DefaultCamera = Camera{
	Style:  "mapbox://styles/mapbox/streets-v11",
	Center: place.Coordinate{Lon: 75.8366318, Lat: 25.1389012},
	Zoom:   3,
}

// Command ops.
const (
	OpAddMarker    = "add_marker"
	OpRemoveMarker = "remove_marker"
	OpAddLayer     = "add_layer"
	OpRemoveLayer  = "remove_layer"
	OpFitBounds    = "fit_bounds"
	OpFlyTo        = "fly_to"
	OpRelease      = "release"
)

// Command is one paint instruction for the browser map.
type Command struct {
	Op      string            `json:"op"`
	Handle  Handle            `json:"handle,omitempty"`
	At      *place.Coordinate `json:"at,omitempty"`
	Color   string            `json:"color,omitempty"`
	Layer   *Layer            `json:"layer,omitempty"`
	Bounds  *[2][2]float64    `json:"bounds,omitempty"`
	Padding int               `json:"padding,omitempty"`
	Zoom    float64           `json:"zoom,omitempty"`
}

// CommandSurface turns Surface calls into Commands and hands them to sink.
// It tracks which handles are live; removing an unknown handle is a no-op.
type CommandSurface struct {
	sink   func(Command) error
	logger *zap.Logger

	mu       sync.Mutex
	live     map[Handle]string
	released bool
}

// NewCommandSurface creates a surface writing to sink.
func NewCommandSurface(sink func(Command) error, logger *zap.Logger) *CommandSurface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandSurface{sink: sink, logger: logger, live: make(map[Handle]string)}
}

func (s *CommandSurface) AddMarker(at place.Coordinate, color string) Handle {
	h := Handle("marker-" + uuid.NewString())
	s.emit(h, "marker", Command{Op: OpAddMarker, Handle: h, At: &at, Color: color})
	return h
}

func (s *CommandSurface) AddLayer(l Layer) Handle {
	h := Handle("layer-" + uuid.NewString())
	s.emit(h, "layer", Command{Op: OpAddLayer, Handle: h, Layer: &l})
	return h
}

func (s *CommandSurface) Remove(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	kind, ok := s.live[h]
	if !ok {
		return
	}
	delete(s.live, h)
	op := OpRemoveLayer
	if kind == "marker" {
		op = OpRemoveMarker
	}
	s.sendLocked(Command{Op: op, Handle: h})
}

func (s *CommandSurface) FitBounds(b orb.Bound, padding int) {
	bounds := [2][2]float64{{b.Min[0], b.Min[1]}, {b.Max[0], b.Max[1]}}
	s.emit("", "", Command{Op: OpFitBounds, Bounds: &bounds, Padding: padding})
}

func (s *CommandSurface) FlyTo(at place.Coordinate, zoom float64) {
	s.emit("", "", Command{Op: OpFlyTo, At: &at, Zoom: zoom})
}

// Release drops every live handle. Later calls are ignored.
func (s *CommandSurface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.live = map[Handle]string{}
	s.sendLocked(Command{Op: OpRelease})
}

// Live returns the number of live handles of each kind ("marker", "layer").
func (s *CommandSurface) Live() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int{}
	for _, kind := range s.live {
		out[kind]++
	}
	return out
}

func (s *CommandSurface) emit(h Handle, kind string, cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	if h != "" {
		s.live[h] = kind
	}
	s.sendLocked(cmd)
}

func (s *CommandSurface) sendLocked(cmd Command) {
	if err := s.sink(cmd); err != nil {
		s.logger.Debug("paint command dropped", zap.String("op", cmd.Op), zap.Error(err))
	}
}
