// Package directions fetches driving routes from the Mapbox directions API.
package directions

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/metrics"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/upstream"
)

const api = "directions"

// ErrMissingToken is returned when no access token is configured.
var ErrMissingToken = upstream.ErrMissingToken

// UpstreamError is a transport failure or non-2xx response from the provider.
type UpstreamError = upstream.Error

// Router returns the best driving route between two points, or nil when the
// provider has none.
type Router interface {
	Route(ctx context.Context, from, to place.Coordinate) (*place.Route, error)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string
	Profile string
	Timeout time.Duration
}

// Client calls the directions endpoint.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewClient creates a Client. m may be nil.
func NewClient(cfg Config, logger *zap.Logger, m *metrics.Collector) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mapbox.com"
	}
	if cfg.Profile == "" {
		cfg.Profile = "driving"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:     cfg,
		http:    upstream.NewHTTPClient(cfg.Timeout),
		logger:  logger,
		metrics: m,
	}
}

// Route implements Router. Zero routes is (nil, nil).
func (c *Client) Route(ctx context.Context, from, to place.Coordinate) (*place.Route, error) {
	if c.cfg.Token == "" {
		return nil, ErrMissingToken
	}

	started := time.Now()
	r, err := c.route(ctx, from, to)
	c.metrics.ObserveUpstream(api, upstream.Outcome(err), started)
	if err != nil {
		c.logger.Warn("directions failed",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
			zap.Error(err),
		)
		return nil, err
	}
	if r == nil {
		c.logger.Debug("no route found", zap.Stringer("from", from), zap.Stringer("to", to))
	}
	return r, nil
}

func (c *Client) route(ctx context.Context, from, to place.Coordinate) (*place.Route, error) {
	q := url.Values{}
	q.Set("geometries", "geojson")
	q.Set("access_token", c.cfg.Token)
	reqURL := fmt.Sprintf("%s/directions/v5/mapbox/%s/%s;%s?%s",
		c.cfg.BaseURL, c.cfg.Profile, from, to, q.Encode())

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &UpstreamError{API: api, Err: err}
	}
	js, err := upstream.Do(ctx, c.http, api, req)
	if err != nil {
		return nil, err
	}
	return parseRoute(js)
}

func parseRoute(js string) (*place.Route, error) {
	first := gjson.Get(js, "routes.0")
	if !first.Exists() {
		return nil, nil
	}

	var line orb.LineString
	if raw := first.Get("geometry"); raw.Exists() {
		g, err := geojson.UnmarshalGeometry([]byte(raw.Raw))
		if err != nil {
			return nil, &UpstreamError{API: api, Status: http.StatusOK, Err: fmt.Errorf("invalid route geometry: %w", err)}
		}
		ls, ok := g.Geometry().(orb.LineString)
		if !ok {
			return nil, &UpstreamError{API: api, Status: http.StatusOK, Err: fmt.Errorf("route geometry is %s, want LineString", g.Geometry().GeoJSONType())}
		}
		line = ls
	}

	return &place.Route{
		Geometry:        line,
		DurationSeconds: first.Get("duration").Float(),
		DistanceMeters:  first.Get("distance").Float(),
	}, nil
}
