// Package geocoding turns free-text queries into ranked place candidates
// using the Mapbox geocoding API.
package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/metrics"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/upstream"
)

const api = "geocoding"

// ErrMissingToken is returned by every call when no access token is configured.
var ErrMissingToken = upstream.ErrMissingToken

// ErrNoResults matches any *NoResultsError.
var ErrNoResults = errors.New("no results")

// NoResultsError reports a query that resolved to nothing.
type NoResultsError struct {
	Query string
}

func (e *NoResultsError) Error() string { return "No results found for " + e.Query }

func (e *NoResultsError) Is(target error) bool { return target == ErrNoResults }

// UpstreamError is a transport failure or non-2xx response from the provider.
type UpstreamError = upstream.Error

// Searcher returns ranked candidates for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]place.Candidate, error)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string
	Limit   int
	Types   string
	Timeout time.Duration
}

// Client calls the forward geocoding endpoint.
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
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	if cfg.Types == "" {
		cfg.Types = "place,address,poi"
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

// Search returns up to Limit candidates in provider order. No matches is an
// empty slice and a nil error. On failure the slice is empty (never nil) and
// the error is ErrMissingToken or an *UpstreamError.
func (c *Client) Search(ctx context.Context, query string) ([]place.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []place.Candidate{}, nil
	}
	if c.cfg.Token == "" {
		return []place.Candidate{}, ErrMissingToken
	}

	started := time.Now()
	out, err := c.search(ctx, query)
	c.metrics.ObserveUpstream(api, upstream.Outcome(err), started)
	if err != nil {
		c.logger.Warn("geocoding failed", zap.String("query", query), zap.Error(err))
		return []place.Candidate{}, err
	}
	return out, nil
}

func (c *Client) search(ctx context.Context, query string) ([]place.Candidate, error) {
	q := url.Values{}
	q.Set("access_token", c.cfg.Token)
	q.Set("limit", strconv.Itoa(c.cfg.Limit))
	q.Set("types", c.cfg.Types)
	reqURL := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		c.cfg.BaseURL, url.PathEscape(query), q.Encode())

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &UpstreamError{API: api, Err: err}
	}
	js, err := upstream.Do(ctx, c.http, api, req)
	if err != nil {
		return nil, err
	}
	return parseFeatures(js), nil
}

func parseFeatures(js string) []place.Candidate {
	features := gjson.Get(js, "features").Array()
	out := make([]place.Candidate, 0, len(features))
	for _, f := range features {
		center := f.Get("center").Array()
		name := f.Get("place_name").String()
		if len(center) < 2 || name == "" {
			continue
		}
		out = append(out, place.Candidate{
			DisplayName: name,
			Center:      place.Coordinate{Lon: center[0].Float(), Lat: center[1].Float()},
		})
	}
	return out
}

// Resolve returns the first candidate for query, or a *NoResultsError.
func Resolve(ctx context.Context, s Searcher, query string) (place.Candidate, error) {
	candidates, err := s.Search(ctx, query)
	if err != nil {
		return place.Candidate{}, err
	}
	if len(candidates) == 0 {
		return place.Candidate{}, &NoResultsError{Query: query}
	}
	return candidates[0], nil
}
