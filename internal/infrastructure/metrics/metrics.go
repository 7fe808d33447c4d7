// Package metrics exposes Prometheus collectors for the search pipeline and keeps
// per-provider telemetry (smoothed latency, offer counts) that the cache TTL policy reads.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ewmaAlpha weights the newest latency sample.
const ewmaAlpha = 0.2

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// ProviderStats is the smoothed telemetry of one provider.
type ProviderStats struct {
	Calls         int64
	Failures      int64
	LatencyEWMA   time.Duration
	LastOffers    int
	LastSuccessAt time.Time
}

// Recorder owns the collectors. All methods are safe on a nil receiver.
type Recorder struct {
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	providerOffers  *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	coalesced       *prometheus.CounterVec
	routing         *prometheus.CounterVec
	combiner        *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec

	mu    sync.RWMutex
	stats map[string]*ProviderStats
}

// NewRecorder registers the collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		providerCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offer_provider_calls_total",
				Help: "Total number of upstream provider calls",
			},
			[]string{"provider", "outcome"},
		),
		providerLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "offer_provider_latency_seconds",
				Help:    "Latency of upstream provider calls in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15},
			},
			[]string{"provider"},
		),
		providerOffers: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offer_provider_offers_total",
				Help: "Total number of offers returned by providers",
			},
			[]string{"provider"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offer_cache_lookups_total",
				Help: "Cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
		coalesced: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offer_coalesced_calls_total",
				Help: "Calls that attached to an identical in-flight call",
			},
			[]string{"scope"},
		),
		routing: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offer_routing_decisions_total",
				Help: "Routing decisions by channel",
			},
			[]string{"channel", "excluded"},
		),
		combiner: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offer_combiner_runs_total",
				Help: "Separate-ticket analyses by outcome",
			},
			[]string{"outcome"},
		),
		searchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "offer_search_duration_seconds",
				Help:    "End-to-end search duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"cache"},
		),
		stats: make(map[string]*ProviderStats),
	}
}

// ObserveProviderCall records one provider call.
func (r *Recorder) ObserveProviderCall(provider string, took time.Duration, offers int, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	r.providerCalls.WithLabelValues(provider, outcome).Inc()
	r.providerLatency.WithLabelValues(provider).Observe(took.Seconds())
	if err == nil {
		r.providerOffers.WithLabelValues(provider).Add(float64(offers))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stats[provider]
	if !ok {
		s = &ProviderStats{LatencyEWMA: took}
		r.stats[provider] = s
	} else {
		s.LatencyEWMA = time.Duration(ewmaAlpha*float64(took) + (1-ewmaAlpha)*float64(s.LatencyEWMA))
	}
	s.Calls++
	if err != nil {
		s.Failures++
		return
	}
	s.LastOffers = offers
	s.LastSuccessAt = time.Now()
}

// ProviderStats returns a snapshot of the provider's telemetry.
func (r *Recorder) ProviderStats(provider string) (ProviderStats, bool) {
	if r == nil {
		return ProviderStats{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stats[provider]
	if !ok {
		return ProviderStats{}, false
	}
	return *s, true
}

// CacheLookup records a cache lookup result ("hit", "miss", "error").
func (r *Recorder) CacheLookup(cache, result string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(cache, result).Inc()
}

// Coalesced records a caller that shared an in-flight call.
func (r *Recorder) Coalesced(scope string) {
	if r == nil {
		return
	}
	r.coalesced.WithLabelValues(scope).Inc()
}

// RoutingDecision records one routing verdict.
func (r *Recorder) RoutingDecision(channel string, excluded bool) {
	if r == nil {
		return
	}
	ex := "false"
	if excluded {
		ex = "true"
	}
	r.routing.WithLabelValues(channel, ex).Inc()
}

// CombinerRun records the outcome of a separate-ticket analysis.
func (r *Recorder) CombinerRun(outcome string) {
	if r == nil {
		return
	}
	r.combiner.WithLabelValues(outcome).Inc()
}

// SearchDuration records an end-to-end search ("hit" or "miss").
func (r *Recorder) SearchDuration(cache string, took time.Duration) {
	if r == nil {
		return
	}
	r.searchDuration.WithLabelValues(cache).Observe(took.Seconds())
}
