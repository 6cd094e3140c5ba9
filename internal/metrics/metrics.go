// Package metrics exposes Prometheus instruments for upstream calls and
// interactive sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests can create as many as they like.
type Collector struct {
	reg *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec   // api, outcome
	UpstreamLatency  *prometheus.HistogramVec // api
	CacheLookups     *prometheus.CounterVec   // cache, result: hit|miss|error
	StaleDiscards    *prometheus.CounterVec   // source: autocomplete|route
	ActiveSessions   *prometheus.GaugeVec     // kind: search|map|login
	RidesRequested   prometheus.Counter
}

// NewCollector creates and registers every instrument.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uberclone_upstream_requests_total",
			Help: "Requests to hosted APIs by outcome.",
		}, []string{"api", "outcome"}),
		UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "uberclone_upstream_request_duration_seconds",
			Help:    "Latency of hosted API requests.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"api"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uberclone_cache_lookups_total",
			Help: "Response cache lookups by result.",
		}, []string{"cache", "result"}),
		StaleDiscards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uberclone_stale_responses_discarded_total",
			Help: "Responses dropped because a newer request superseded them.",
		}, []string{"source"}),
		ActiveSessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "uberclone_active_sessions",
			Help: "Open WebSocket sessions.",
		}, []string{"kind"}),
		RidesRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uberclone_rides_requested_total",
			Help: "Ride requests confirmed by riders.",
		}),
	}

	reg.MustRegister(
		c.UpstreamRequests, c.UpstreamLatency,
		c.CacheLookups, c.StaleDiscards,
		c.ActiveSessions, c.RidesRequested,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveUpstream records one hosted API call.
func (c *Collector) ObserveUpstream(api, outcome string, started time.Time) {
	if c == nil {
		return
	}
	c.UpstreamRequests.WithLabelValues(api, outcome).Inc()
	c.UpstreamLatency.WithLabelValues(api).Observe(time.Since(started).Seconds())
}

// ObserveCache records a cache lookup result.
func (c *Collector) ObserveCache(cache, result string) {
	if c == nil {
		return
	}
	c.CacheLookups.WithLabelValues(cache, result).Inc()
}

// StaleDiscarded counts a superseded response.
func (c *Collector) StaleDiscarded(source string) {
	if c == nil {
		return
	}
	c.StaleDiscards.WithLabelValues(source).Inc()
}

// SessionOpened increments the session gauge and returns the matching decrement.
func (c *Collector) SessionOpened(kind string) func() {
	if c == nil {
		return func() {}
	}
	g := c.ActiveSessions.WithLabelValues(kind)
	g.Inc()
	return g.Dec
}

// RideRequested counts a confirmed ride.
func (c *Collector) RideRequested() {
	if c == nil {
		return
	}
	c.RidesRequested.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
