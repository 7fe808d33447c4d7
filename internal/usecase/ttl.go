package usecase

import (
	"time"
)

// popularityTier lowers the TTL of routes searched at least minSearches times a day.
type popularityTier struct {
	minSearches int64
	multiplier  float64
}

var popularityTiers = []popularityTier{
	{minSearches: 500, multiplier: 0.5},
	{minSearches: 100, multiplier: 0.7},
	{minSearches: 20, multiplier: 0.85},
}

// TTLPolicy computes cache lifetimes from how far out the trip is,
// how hot the route is and how volatile the answering providers are.
type TTLPolicy struct {
	Base time.Duration
	Min  time.Duration
	Max  time.Duration

	// ProviderFactors scales the TTL by source; unknown sources count as 1.0
	ProviderFactors map[string]float64

	// SlowLatency is the smoothed latency above which results are kept longer
	SlowLatency time.Duration

	// SlowFactor multiplies the TTL when a contributing provider is slow
	SlowFactor float64
}

// DefaultTTLPolicy returns the standard cache lifetimes.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Base: 10 * time.Minute,
		Min:  time.Minute,
		Max:  2 * time.Hour,
		ProviderFactors: map[string]float64{
			"duffel":  0.8,
			"amadeus": 1.0,
		},
		SlowLatency: 1500 * time.Millisecond,
		SlowFactor:  1.25,
	}
}

// SeasonalMultiplier grows linearly with days until departure: 0.25 today, 1.0 at 15 days.
func SeasonalMultiplier(days int) float64 {
	if days < 0 {
		days = 0
	}
	return 0.25 + float64(days)/20
}

// PopularityMultiplier shortens the TTL of frequently searched routes.
func PopularityMultiplier(searches int64) float64 {
	for _, tier := range popularityTiers {
		if searches >= tier.minSearches {
			return tier.multiplier
		}
	}
	return 1.0
}

// ProviderMultiplier returns the most conservative factor among the sources.
// latency reports the smoothed latency of a source, false when unknown.
func (p TTLPolicy) ProviderMultiplier(sources []string, latency func(string) (time.Duration, bool)) float64 {
	if len(sources) == 0 {
		return 1.0
	}
	factor := 0.0
	for i, src := range sources {
		f, ok := p.ProviderFactors[src]
		if !ok {
			f = 1.0
		}
		if latency != nil && p.SlowLatency > 0 && p.SlowFactor > 0 {
			if l, known := latency(src); known && l > p.SlowLatency {
				f *= p.SlowFactor
			}
		}
		if i == 0 || f < factor {
			factor = f
		}
	}
	return factor
}

// Compute returns the clamped TTL.
func (p TTLPolicy) Compute(days int, searches int64, providerFactor float64) time.Duration {
	if providerFactor <= 0 {
		providerFactor = 1.0
	}
	ttl := time.Duration(float64(p.Base) * SeasonalMultiplier(days) * PopularityMultiplier(searches) * providerFactor)
	return p.clamp(ttl)
}

// Seasonal returns the clamped TTL that depends on the travel date only.
func (p TTLPolicy) Seasonal(days int) time.Duration {
	return p.clamp(time.Duration(float64(p.Base) * SeasonalMultiplier(days)))
}

func (p TTLPolicy) clamp(ttl time.Duration) time.Duration {
	if p.Min > 0 && ttl < p.Min {
		return p.Min
	}
	if p.Max > 0 && ttl > p.Max {
		return p.Max
	}
	return ttl
}
