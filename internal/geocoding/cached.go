package geocoding

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/cache"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/metrics"
)

// Cached is a read-through cache in front of a Searcher. Only successful,
// non-empty results are stored.
type Cached struct {
	next    Searcher
	cache   cache.Cache
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewCached wraps next with c.
func NewCached(next Searcher, c cache.Cache, ttl time.Duration, logger *zap.Logger, m *metrics.Collector) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl, logger: logger, metrics: m}
}

func cacheKey(query string) string {
	return "geocode:" + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// Search implements Searcher.
func (s *Cached) Search(ctx context.Context, query string) ([]place.Candidate, error) {
	key := cacheKey(query)

	if b, ok, err := s.cache.Get(ctx, key); err != nil {
		s.metrics.ObserveCache(api, "error")
		s.logger.Warn("geocode cache read failed", zap.Error(err))
	} else if ok {
		var out []place.Candidate
		if err := json.Unmarshal(b, &out); err == nil {
			s.metrics.ObserveCache(api, "hit")
			return out, nil
		}
	} else {
		s.metrics.ObserveCache(api, "miss")
	}

	out, err := s.next.Search(ctx, query)
	if err != nil || len(out) == 0 {
		return out, err
	}

	if b, mErr := json.Marshal(out); mErr == nil {
		if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
			s.logger.Warn("geocode cache write failed", zap.Error(err))
		}
	}
	return out, nil
}
