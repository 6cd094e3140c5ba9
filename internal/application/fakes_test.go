package application

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/place"
	"github.com/rohitbhanushali/uber-clone-source-code/internal/domain/ride"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/domain"
	"github.com/rohitbhanushali/uber-clone-source-code/pkg/kafka"
)

var (
	jaipur = place.Candidate{DisplayName: "Jaipur, Rajasthan, India", Center: place.Coordinate{Lon: 75.8, Lat: 26.9}}
	surat  = place.Candidate{DisplayName: "Surat, Gujarat, India", Center: place.Coordinate{Lon: 72.8, Lat: 21.1}}
)

type mapSearcher struct {
	mu      sync.Mutex
	results map[string][]place.Candidate
	err     error
	queries []string
}

func (s *mapSearcher) Search(_ context.Context, q string) ([]place.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return []place.Candidate{}, s.err
	}
	return s.results[strings.ToLower(q)], nil
}

type stubRouter struct {
	route *place.Route
	err   error
	calls int
}

func (r *stubRouter) Route(context.Context, place.Coordinate, place.Coordinate) (*place.Route, error) {
	r.calls++
	return r.route, r.err
}

type memRepo struct {
	mu    sync.Mutex
	rides map[uuid.UUID]*ride.Request
}

func newMemRepo() *memRepo { return &memRepo{rides: map[uuid.UUID]*ride.Request{}} }

func (r *memRepo) FindByID(_ context.Context, id uuid.UUID) (*ride.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rd, ok := r.rides[id]
	if !ok {
		return nil, domain.NewNotFoundError("Ride", id.String())
	}
	return rd, nil
}

func (r *memRepo) FindByRiderID(_ context.Context, riderID string, page, limit int) ([]*ride.Request, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*ride.Request
	for _, rd := range r.rides {
		if rd.RiderID() == riderID {
			all = append(all, rd)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt().After(all[j].CreatedAt()) })
	total := int64(len(all))
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memRepo) Save(_ context.Context, rd *ride.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rides[rd.ID()] = rd
	return nil
}

func (r *memRepo) Update(_ context.Context, rd *ride.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rides[rd.ID()] = rd
	return nil
}

type published struct {
	topic string
	key   string
	event kafka.CloudEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent, key ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := ""
	if len(key) > 0 {
		k = key[0]
	}
	p.events = append(p.events, published{topic: topic, key: k, event: event})
	return nil
}
