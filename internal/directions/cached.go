package directions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/cache"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/metrics"
)

// keyPrecision of 9 characters is a cell of a few metres.
const keyPrecision = 9

type cachedRoute struct {
	Geometry orb.LineString `json:"geometry"`
	Duration float64        `json:"duration"`
	Distance float64        `json:"distance"`
}

// Cached is a read-through route cache keyed by the geohash of both endpoints.
type Cached struct {
	next    Router
	cache   cache.Cache
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewCached wraps next with c.
func NewCached(next Router, c cache.Cache, ttl time.Duration, logger *zap.Logger, m *metrics.Collector) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl, logger: logger, metrics: m}
}

func routeKey(from, to place.Coordinate) string {
	return "route:" +
		geohash.EncodeWithPrecision(from.Lat, from.Lon, keyPrecision) + ":" +
		geohash.EncodeWithPrecision(to.Lat, to.Lon, keyPrecision)
}

// Route implements Router.
func (s *Cached) Route(ctx context.Context, from, to place.Coordinate) (*place.Route, error) {
	key := routeKey(from, to)

	if b, ok, err := s.cache.Get(ctx, key); err != nil {
		s.metrics.ObserveCache(api, "error")
		s.logger.Warn("route cache read failed", zap.Error(err))
	} else if ok {
		var cr cachedRoute
		if err := json.Unmarshal(b, &cr); err == nil {
			s.metrics.ObserveCache(api, "hit")
			return &place.Route{Geometry: cr.Geometry, DurationSeconds: cr.Duration, DistanceMeters: cr.Distance}, nil
		}
	} else {
		s.metrics.ObserveCache(api, "miss")
	}

	r, err := s.next.Route(ctx, from, to)
	if err != nil || r == nil {
		return r, err
	}

	b, err := json.Marshal(cachedRoute{Geometry: r.Geometry, Duration: r.DurationSeconds, Distance: r.DistanceMeters})
	if err == nil {
		if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
			s.logger.Warn("route cache write failed", zap.Error(err))
		}
	}
	return r, nil
}
