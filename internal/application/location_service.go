package application

import (
	"context"
	"strings"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/directions"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/ride"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/geocoding"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/domain"
)

// RouteDTO is the response representation of a route.
type RouteDTO struct {
	DurationSeconds float64          `json:"duration_seconds"`
	DistanceMeters  float64          `json:"distance_meters"`
	Geometry        *geojson.Feature `json:"geometry"`
}

// TripDTO is everything the confirm screen shows for a pickup/dropoff pair.
type TripDTO struct {
	Pickup     place.Candidate `json:"pickup"`
	Dropoff    place.Candidate `json:"dropoff"`
	Route      *RouteDTO       `json:"route,omitempty"`
	Quotes     []ride.Quote    `json:"quotes"`
	RouteError string          `json:"route_error,omitempty"`
}

// QuotesDTO is the ride selector list for a coordinate pair.
type QuotesDTO struct {
	DurationSeconds float64      `json:"duration_seconds"`
	Quotes          []ride.Quote `json:"quotes"`
}

// LocationService resolves places and routes and prices them.
type LocationService struct {
	searcher geocoding.Searcher
	router   directions.Router
	pricing  ride.PricingStrategy
	catalog  []ride.Tier
	logger   *zap.Logger
}

// NewLocationService creates a new LocationService.
func NewLocationService(
	searcher geocoding.Searcher,
	router directions.Router,
	pricing ride.PricingStrategy,
	catalog []ride.Tier,
	logger *zap.Logger,
) *LocationService {
	return &LocationService{
		searcher: searcher,
		router:   router,
		pricing:  pricing,
		catalog:  catalog,
		logger:   logger,
	}
}

// Router returns the directions client quotes are priced from.
func (s *LocationService) Router() directions.Router { return s.router }

// Catalog returns the ride tiers in display order.
func (s *LocationService) Catalog() []ride.Tier { return s.catalog }

// Search returns candidates for a free-text query.
func (s *LocationService) Search(ctx context.Context, query string) ([]place.Candidate, error) {
	return s.searcher.Search(ctx, query)
}

// Confirm geocodes both strings concurrently, taking the first match of
// each, then routes and prices the trip. An unresolvable string is a
// *geocoding.NoResultsError. Routing failures fall back to zero-priced quotes.
func (s *LocationService) Confirm(ctx context.Context, pickup, dropoff string) (*TripDTO, error) {
	pickup, dropoff = strings.TrimSpace(pickup), strings.TrimSpace(dropoff)
	if pickup == "" || dropoff == "" {
		return nil, domain.NewValidationError("pickup and dropoff are required")
	}

	var from, to place.Candidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := geocoding.Resolve(gctx, s.searcher, pickup)
		from = c
		return err
	})
	g.Go(func() error {
		c, err := geocoding.Resolve(gctx, s.searcher, dropoff)
		to = c
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	trip := &TripDTO{Pickup: from, Dropoff: to}
	route, err := s.router.Route(ctx, from.Center, to.Center)
	if err != nil {
		s.logger.Warn("routing failed on confirm", zap.Error(err))
		trip.RouteError = err.Error()
	}
	trip.Route = toRouteDTO(route)
	trip.Quotes = s.quotes(route)
	return trip, nil
}

// Quotes prices every tier for the route between two optional points. If
// either is unset, or there is no route, every tier is $0.00.
func (s *LocationService) Quotes(ctx context.Context, pickup, dropoff *place.Coordinate) (*QuotesDTO, error) {
	route, err := s.Route(ctx, pickup, dropoff)
	if err != nil {
		s.logger.Warn("routing failed for quotes", zap.Error(err))
	}
	return &QuotesDTO{DurationSeconds: route.DurationMinutes() * 60, Quotes: s.quotes(route)}, nil
}

// Route returns the route between two optional points; nil if either is unset.
func (s *LocationService) Route(ctx context.Context, pickup, dropoff *place.Coordinate) (*place.Route, error) {
	if pickup == nil || dropoff == nil {
		return nil, nil
	}
	return s.router.Route(ctx, *pickup, *dropoff)
}

// QuotesFor prices every tier for an already fetched route.
func (s *LocationService) QuotesFor(route *place.Route) []ride.Quote {
	return s.quotes(route)
}

func (s *LocationService) quotes(route *place.Route) []ride.Quote {
	out := make([]ride.Quote, len(s.catalog))
	for i, t := range s.catalog {
		out[i] = s.pricing.Estimate(t, route)
	}
	return out
}

func toRouteDTO(r *place.Route) *RouteDTO {
	if r == nil {
		return nil
	}
	return &RouteDTO{
		DurationSeconds: r.DurationSeconds,
		DistanceMeters:  r.DistanceMeters,
		Geometry:        r.Feature(),
	}
}
