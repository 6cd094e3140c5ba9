// Package place holds the location types shared by geocoding, routing and
// the map view.
package place

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Coordinate is a WGS84 position in provider order (longitude first).
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Point converts the coordinate to an orb point.
func (c Coordinate) Point() orb.Point { return orb.Point{c.Lon, c.Lat} }

// Valid reports whether the coordinate lies within WGS84 bounds.
func (c Coordinate) Valid() bool {
	return !math.IsNaN(c.Lon) && !math.IsNaN(c.Lat) &&
		c.Lon >= -180 && c.Lon <= 180 && c.Lat >= -90 && c.Lat <= 90
}

// String renders "lon,lat", the form used in directions URLs.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// FromSentinel converts a wire coordinate where (0,0) means "no location"
// into an optional. Only the exact pair (0,0) is treated as unset.
func FromSentinel(lon, lat float64) *Coordinate {
	if lon == 0 && lat == 0 {
		return nil
	}
	return &Coordinate{Lon: lon, Lat: lat}
}

// ParseCoordinate parses "lon,lat". An empty string or "0,0" yields nil.
func ParseCoordinate(s string) (*Coordinate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("coordinate must be lon,lat: %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", parts[0], err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", parts[1], err)
	}
	c := FromSentinel(lon, lat)
	if c != nil && !c.Valid() {
		return nil, fmt.Errorf("coordinate out of range: %q", s)
	}
	return c, nil
}

// Candidate is one geocoding match.
type Candidate struct {
	DisplayName string     `json:"display_name"`
	Center      Coordinate `json:"center"`
}

// Route is a driving route between two points.
type Route struct {
	Geometry        orb.LineString
	DurationSeconds float64
	DistanceMeters  float64
}

// DurationMinutes returns the route duration in minutes. A nil route is zero.
func (r *Route) DurationMinutes() float64 {
	if r == nil {
		return 0
	}
	return r.DurationSeconds / 60
}

// Bound returns the bounding box of the geometry.
func (r *Route) Bound() orb.Bound {
	return r.Geometry.Bound()
}

// Feature renders the route as a GeoJSON feature for the map surface.
func (r *Route) Feature() *geojson.Feature {
	f := geojson.NewFeature(r.Geometry)
	f.Properties["duration"] = r.DurationSeconds
	f.Properties["distance"] = r.DistanceMeters
	return f
}

// Bounds returns the box framing both endpoints.
func Bounds(a, b Coordinate) orb.Bound {
	return a.Point().Bound().Extend(b.Point())
}
